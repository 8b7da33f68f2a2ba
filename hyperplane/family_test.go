package hyperplane

import (
	"math"
	"testing"

	"github.com/fragmenthash/lshindex/fragment"
)

func TestNewFamilyDeterministic(t *testing.T) {
	a, err := NewFamily(8, 16, 42, IIDGaussian)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewFamily(8, 16, 42, IIDGaussian)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.vecs {
		if a.vecs[i] != b.vecs[i] {
			t.Fatalf("coordinate %d differs between equally-seeded families: %v vs %v", i, a.vecs[i], b.vecs[i])
		}
	}
}

func TestNewFamilyRejectsBadParams(t *testing.T) {
	if _, err := NewFamily(0, 8, 1, IIDGaussian); err == nil {
		t.Error("K=0 should be rejected")
	}
	if _, err := NewFamily(65, 8, 1, IIDGaussian); err == nil {
		t.Error("K=65 should be rejected (exceeds MaxBits)")
	}
	if _, err := NewFamily(4, 0, 1, IIDGaussian); err == nil {
		t.Error("D=0 should be rejected")
	}
}

func TestOrthogonalizedQualityInvariant(t *testing.T) {
	f, err := NewFamily(12, 64, 7, Orthogonalized)
	if err != nil {
		t.Fatal(err)
	}
	q := f.ProjectionQuality()
	if !q.Orthogonal {
		t.Fatalf("orthogonalized family with K<=D should satisfy max pairwise |<hi,hj>| < 0.1, got max=%v", q.Max)
	}
}

func TestHashScaleInvariant(t *testing.T) {
	f, err := NewFamily(10, 32, 99, IIDGaussian)
	if err != nil {
		t.Fatal(err)
	}
	v := make(fragment.Vector, 32)
	for i := range v {
		v[i] = float32(math.Sin(float64(i)))
	}
	c1, err := f.Hash(v)
	if err != nil {
		t.Fatal(err)
	}
	scaled := make(fragment.Vector, len(v))
	for i, x := range v {
		scaled[i] = x * 3.5
	}
	c2, err := f.Hash(scaled)
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Fatalf("hash not scale invariant: %x vs %x", c1, c2)
	}
}

func TestHashDeterministic(t *testing.T) {
	f, err := NewFamily(8, 16, 1, IIDGaussian)
	if err != nil {
		t.Fatal(err)
	}
	v := make(fragment.Vector, 16)
	for i := range v {
		v[i] = float32(i) - 8
	}
	c1, _ := f.Hash(v)
	c2, _ := f.Hash(v)
	if c1 != c2 {
		t.Fatalf("Hash not deterministic across calls: %x vs %x", c1, c2)
	}
}

func TestHashZeroVectorSetsAllBits(t *testing.T) {
	f, err := NewFamily(6, 10, 3, IIDGaussian)
	if err != nil {
		t.Fatal(err)
	}
	v := make(fragment.Vector, 10)
	c, err := f.Hash(v)
	if err != nil {
		t.Fatal(err)
	}
	want := Code((1 << 6) - 1)
	if c != want {
		t.Fatalf("zero vector should hash to all-1 bits under the documented tie rule: got %x want %x", c, want)
	}
}

func TestHammingDistanceInvariants(t *testing.T) {
	var a, b Code = 0b1010, 0b1010
	if HammingDistance(a, b) != 0 {
		t.Error("identical codes should have Hamming distance 0")
	}
	for i := 0; i < 8; i++ {
		flipped := a ^ (1 << uint(i))
		if HammingDistance(a, flipped) != 1 {
			t.Errorf("single bit flip at %d should give Hamming distance 1", i)
		}
	}
}

func TestEstimatedSimilarityBounds(t *testing.T) {
	if s := EstimatedSimilarity(0, 12); math.Abs(s-1) > 1e-9 {
		t.Errorf("zero Hamming distance should estimate similarity 1, got %v", s)
	}
	if s := EstimatedSimilarity(6, 12); math.Abs(s) > 1e-9 {
		t.Errorf("half the bits differing should estimate similarity 0, got %v", s)
	}
}

func TestHashBatchMatchesHash(t *testing.T) {
	f, err := NewFamily(8, 8, 5, IIDGaussian)
	if err != nil {
		t.Fatal(err)
	}
	vs := []fragment.Vector{
		{1, 0, 0, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0, 0, 0},
		{-1, -1, -1, -1, -1, -1, -1, -1},
	}
	batch, err := f.HashBatch(vs)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vs {
		single, err := f.Hash(v)
		if err != nil {
			t.Fatal(err)
		}
		if batch[i] != single {
			t.Errorf("HashBatch[%d]=%x disagrees with Hash=%x", i, batch[i], single)
		}
	}
}
