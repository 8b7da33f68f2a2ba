package lsh

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/fragmenthash/lshindex/fragment"
)

func testConfig() Config {
	return Config{
		NumTables:     8,
		NumBits:       10,
		Dimension:     16,
		Seed:          1,
		MaxBucketSize: 64,
		Overflow:      Overflow{Enabled: true, MaxChainLen: 4},
		Analytics:     true,
	}
}

func randVector(r *rand.Rand, d int) fragment.Vector {
	v := make(fragment.Vector, d)
	for i := range v {
		v[i] = float32(r.NormFloat64())
	}
	return v
}

func frag(id string) fragment.Fragment {
	return fragment.Fragment{ID: fragment.ID(id)}
}

func TestNewIndexRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Dimension = 0
	if _, err := NewIndex(cfg); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestInsertRejectsWrongDimension(t *testing.T) {
	ix, err := NewIndex(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	_, err = ix.Insert(frag("a"), fragment.Vector{1, 2, 3})
	if err != ErrDimensionMismatch {
		t.Fatalf("got %v, want ErrDimensionMismatch", err)
	}
}

func TestInsertThenQueryFindsExactDuplicate(t *testing.T) {
	ix, err := NewIndex(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(7))
	v := randVector(r, 16)

	ok, err := ix.Insert(frag("a"), v)
	if err != nil || !ok {
		t.Fatalf("insert failed: ok=%v err=%v", ok, err)
	}

	opts := DefaultQueryOptions()
	opts.MinSimilarity = 0.99
	results, err := ix.Query(v, opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Fragment.ID != "a" {
		t.Fatalf("expected exact self-match, got %+v", results)
	}
	if results[0].Similarity < 0.999 {
		t.Fatalf("expected similarity ~1, got %v", results[0].Similarity)
	}
}

func TestQueryRejectsUnrelatedVector(t *testing.T) {
	ix, err := NewIndex(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(11))
	a := randVector(r, 16)
	b := randVector(r, 16)

	if _, err := ix.Insert(frag("a"), a); err != nil {
		t.Fatal(err)
	}

	opts := DefaultQueryOptions()
	opts.MinSimilarity = 0.9
	results, err := ix.Query(b, opts)
	if err != nil {
		t.Fatal(err)
	}
	for _, res := range results {
		if res.Fragment.ID == "a" {
			t.Fatalf("unrelated vector should not match at 0.9 threshold, got similarity %v", res.Similarity)
		}
	}
}

func TestRemoveDropsFragmentFromAllTables(t *testing.T) {
	ix, err := NewIndex(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(3))
	v := randVector(r, 16)
	if _, err := ix.Insert(frag("a"), v); err != nil {
		t.Fatal(err)
	}
	if !ix.Remove("a") {
		t.Fatal("expected Remove to report true for a present fragment")
	}
	if ix.Remove("a") {
		t.Fatal("expected second Remove to report false")
	}
	if ix.Size() != 0 {
		t.Fatalf("expected empty index after remove, got size %d", ix.Size())
	}
	if _, ok := ix.FragmentFor("a"); ok {
		t.Fatal("fragment metadata should be gone after remove")
	}
}

func TestInsertBatchAllOrNothingOnDimensionMismatch(t *testing.T) {
	ix, err := NewIndex(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	items := []InsertItem{
		{Fragment: frag("a"), Vector: make(fragment.Vector, 16)},
		{Fragment: frag("b"), Vector: make(fragment.Vector, 3)},
	}
	if _, err := ix.InsertBatch(items); err != ErrDimensionMismatch {
		t.Fatalf("got %v, want ErrDimensionMismatch", err)
	}
	if ix.Size() != 0 {
		t.Fatal("no fragment should have been inserted on validation failure")
	}
}

func TestSnapshotReturnsIndependentCopies(t *testing.T) {
	ix, err := NewIndex(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(5))
	v := randVector(r, 16)
	if _, err := ix.Insert(frag("a"), v); err != nil {
		t.Fatal(err)
	}
	snap := ix.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(snap))
	}
	snap[0].Vector[0] = 999
	stored, _ := ix.VectorFor("a")
	if stored[0] == 999 {
		t.Fatal("mutating a snapshot vector should not affect index state")
	}
}

// TestConcurrentQueriesDoNotRaceOnLRU runs many Query calls concurrently
// against a shared Index with LRU tracking enabled. Query only takes a
// read lock, so this exercises lruState's own locking under `go test
// -race`; it would have raced on lruState's internal maps before they
// gained their own mutex.
func TestConcurrentQueriesDoNotRaceOnLRU(t *testing.T) {
	cfg := testConfig()
	cfg.LRUEviction = LRUEviction{Enabled: true, Threshold: 1000, Fraction: 0.5}
	ix, err := NewIndex(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(99))
	vectors := make([]fragment.Vector, 20)
	for i := range vectors {
		v := randVector(r, 16)
		vectors[i] = v
		if _, err := ix.Insert(frag(fmt.Sprintf("f%d", i)), v); err != nil {
			t.Fatal(err)
		}
	}

	opts := DefaultQueryOptions()
	opts.MinSimilarity = 0.5

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				v := vectors[(seed+i)%len(vectors)]
				if _, err := ix.Query(v, opts); err != nil {
					t.Error(err)
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestLRUEvictsOldestWhenThresholdExceeded(t *testing.T) {
	cfg := testConfig()
	cfg.LRUEviction = LRUEviction{Enabled: true, Threshold: 5, Fraction: 0.5}
	ix, err := NewIndex(cfg)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 6; i++ {
		id := fragment.ID(fmt.Sprintf("f%d", i))
		if _, err := ix.Insert(frag(string(id)), randVector(r, 16)); err != nil {
			t.Fatal(err)
		}
	}
	if ix.Size() >= 5 {
		t.Fatalf("expected eviction to have reduced size below 5, got %d", ix.Size())
	}
	if _, ok := ix.FragmentFor("f0"); ok {
		t.Fatal("f0 was inserted first and should be the first evicted")
	}
}
