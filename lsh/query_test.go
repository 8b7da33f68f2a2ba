package lsh

import (
	"math/rand"
	"testing"

	"github.com/fragmenthash/lshindex/fragment"
)

// TestTableMatchGateUsesHalvedThreshold exercises the two-stage filter:
// a candidate whose table-match estimate falls below MinSimilarity/2 is
// discarded before exact cosine is ever computed, and a candidate that
// passes that gate must still clear MinSimilarity by exact cosine. The
// test cannot observe whether exact cosine ran, so it checks the path a
// true match takes: with one table the estimate is 1.0, which passes the
// halved gate, and the self-match survives because its exact cosine
// (about 1) clears the full threshold of 0.95.
func TestTableMatchGateUsesHalvedThreshold(t *testing.T) {
	cfg := testConfig()
	cfg.NumTables = 1 // a single table makes the estimate always 0 or 1
	ix, err := NewIndex(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(99))
	v := randVector(r, cfg.Dimension)
	if _, err := ix.Insert(frag("a"), v); err != nil {
		t.Fatal(err)
	}

	// With 1 table, a matched candidate has estimate 1.0, always >= any
	// MinSimilarity/2 in [0,1]. Query at a high threshold and confirm the
	// self-match survives because exact cosine (≈1) clears it, not the
	// coarse estimate.
	opts := DefaultQueryOptions()
	opts.MinSimilarity = 0.95
	results, err := ix.Query(v, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected self-match to survive both gates, got %d results", len(results))
	}
}

func TestQueryWithoutExactUsesTableMatchEstimate(t *testing.T) {
	cfg := testConfig()
	ix, err := NewIndex(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(17))
	v := randVector(r, cfg.Dimension)
	if _, err := ix.Insert(frag("a"), v); err != nil {
		t.Fatal(err)
	}

	opts := QueryOptions{MaxResults: 10, MinSimilarity: 0, ComputeExact: false}
	results, err := ix.Query(v, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Similarity <= 0 || results[0].Similarity > 1 {
		t.Fatalf("table-match estimate out of range: %v", results[0].Similarity)
	}
}

func TestQueryResultsSortedDescendingBySimilarity(t *testing.T) {
	cfg := testConfig()
	ix, err := NewIndex(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(23))
	base := randVector(r, cfg.Dimension)
	if _, err := ix.Insert(frag("base"), base); err != nil {
		t.Fatal(err)
	}
	near := make(fragment.Vector, len(base))
	copy(near, base)
	near[0] += 0.01
	if _, err := ix.Insert(frag("near"), near); err != nil {
		t.Fatal(err)
	}

	opts := QueryOptions{MaxResults: 10, MinSimilarity: -1, ComputeExact: true}
	results, err := ix.Query(base, opts)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].Similarity < results[i].Similarity {
			t.Fatalf("results not sorted descending: %+v", results)
		}
	}
}

func TestQueryRespectsMaxResults(t *testing.T) {
	cfg := testConfig()
	ix, err := NewIndex(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(29))
	base := randVector(r, cfg.Dimension)
	for i := 0; i < 5; i++ {
		v := make(fragment.Vector, len(base))
		copy(v, base)
		v[0] += float32(i) * 0.001
		if _, err := ix.Insert(frag(string(rune('a'+i))), v); err != nil {
			t.Fatal(err)
		}
	}
	opts := QueryOptions{MaxResults: 2, MinSimilarity: -1, ComputeExact: true}
	results, err := ix.Query(base, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected MaxResults to cap at 2, got %d", len(results))
	}
}
