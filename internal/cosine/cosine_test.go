package cosine

import (
	"math"
	"testing"

	"github.com/fragmenthash/lshindex/fragment"
)

func TestIdenticalVectorsSimilarityOne(t *testing.T) {
	v := fragment.Vector{1, 2, 3, 4, 5}
	if got := Similarity(v, v); math.Abs(got-1) > 1e-6 {
		t.Fatalf("got %v, want ~1", got)
	}
}

func TestOrthogonalVectorsSimilarityZero(t *testing.T) {
	a := fragment.Vector{1, 0, 0, 0}
	b := fragment.Vector{0, 1, 0, 0}
	if got := Similarity(a, b); math.Abs(got) > 1e-9 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestZeroMagnitudeIsZero(t *testing.T) {
	zero := fragment.Vector{0, 0, 0}
	v := fragment.Vector{1, 2, 3}
	if got := Similarity(zero, v); got != 0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestScaleInvariant(t *testing.T) {
	a := fragment.Vector{1, 2, 3, 4, 5, 6, 7}
	b := fragment.Vector{7, 6, 5, 4, 3, 2, 1}
	s1 := Similarity(a, b)
	scaled := make(fragment.Vector, len(a))
	for i, x := range a {
		scaled[i] = x * 10
	}
	s2 := Similarity(scaled, b)
	if math.Abs(s1-s2) > 1e-6 {
		t.Fatalf("scaling one vector changed similarity: %v vs %v", s1, s2)
	}
}
