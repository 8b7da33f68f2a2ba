package probe

import (
	"testing"

	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/hyperplane"
)

func TestGenerateStartsWithOriginal(t *testing.T) {
	got := Generate(0b0110, 4, 5)
	if len(got) == 0 || got[0] != 0b0110 {
		t.Fatalf("probe list must start with the original code, got %v", got)
	}
}

func TestGenerateNoDuplicates(t *testing.T) {
	got := Generate(0b0110, 6, 30)
	seen := make(map[hyperplane.Code]bool)
	for _, c := range got {
		if seen[c] {
			t.Fatalf("duplicate code %x in probe list", c)
		}
		seen[c] = true
	}
}

func TestGenerateRespectsBudget(t *testing.T) {
	for _, budget := range []int{1, 2, 5, 100} {
		got := Generate(0, 10, budget)
		if len(got) > budget {
			t.Fatalf("budget %d: got %d codes", budget, len(got))
		}
	}
}

func TestGenerateSingleBitFlipsFirst(t *testing.T) {
	const k = 4
	got := Generate(0, k, 1+k)
	if len(got) != 1+k {
		t.Fatalf("expected original + %d single flips, got %d entries", k, len(got))
	}
	for i := 0; i < k; i++ {
		want := hyperplane.Code(1 << uint(i))
		if got[i+1] != want {
			t.Errorf("flip %d: got %x want %x", i, got[i+1], want)
		}
	}
}

func TestGenerateScoredDeterministic(t *testing.T) {
	fam, err := hyperplane.NewFamily(6, 8, 11, hyperplane.IIDGaussian)
	if err != nil {
		t.Fatal(err)
	}
	v := fragment.Vector{0.2, -0.5, 0.1, 0.9, -0.3, 0.4, 0.7, -0.1}
	code, err := fam.Hash(v)
	if err != nil {
		t.Fatal(err)
	}
	a, err := GenerateScored(code, v, fam, 6, 10)
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateScored(code, v, fam, 6, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("scored probe order not reproducible at index %d: %x vs %x", i, a[i], b[i])
		}
	}
}

func TestGenerateScoredStartsWithOriginal(t *testing.T) {
	fam, err := hyperplane.NewFamily(5, 6, 3, hyperplane.IIDGaussian)
	if err != nil {
		t.Fatal(err)
	}
	v := fragment.Vector{1, 2, 3, 4, 5, 6}
	code, _ := fam.Hash(v)
	got, err := GenerateScored(code, v, fam, 5, 8)
	if err != nil {
		t.Fatal(err)
	}
	if got[0] != code {
		t.Fatalf("scored probe list must start with the original code")
	}
}
