package clone

import (
	"testing"

	"github.com/fragmenthash/lshindex/fragment"
)

func TestClassifyBySimilarityThresholds(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		sim  float64
		want CloneType
	}{
		{1.0, Type1},
		{0.99, Type1},
		{0.98, Type2},
		{0.95, Type2},
		{0.9, Type3},
		{0.85, Type3},
		{0.5, Type4},
	}
	for _, c := range cases {
		if got := th.ClassifyBySimilarity(c.sim); got != c.want {
			t.Errorf("ClassifyBySimilarity(%v) = %v, want %v", c.sim, got, c.want)
		}
	}
}

func TestClassifyPairOverridesOnIdenticalContent(t *testing.T) {
	th := DefaultThresholds()
	a := fragment.Fragment{ID: "a", NormalizedText: "same"}
	b := fragment.Fragment{ID: "b", NormalizedText: "same"}
	if got := th.ClassifyPair(a, b, 0.1); got != Type1 {
		t.Fatalf("expected Type1 override for identical content despite low similarity, got %v", got)
	}
}

func TestClassifyPairFallsBackToThresholdsWithoutOverride(t *testing.T) {
	th := DefaultThresholds()
	a := fragment.Fragment{ID: "a", NormalizedText: "one"}
	b := fragment.Fragment{ID: "b", NormalizedText: "two"}
	if got := th.ClassifyPair(a, b, 0.9); got != Type3 {
		t.Fatalf("expected Type3 from plain threshold, got %v", got)
	}
}
