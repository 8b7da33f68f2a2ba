// Package lsh orchestrates the hyperplane, probe, table and bucketstore
// packages into the multi-table random-hyperplane index: insert, query,
// remove, batch insert, and cosine re-ranking.
package lsh

import (
	"sort"
	"sync"

	"github.com/fragmenthash/lshindex/bucketstore"
	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/hyperplane"
	"github.com/fragmenthash/lshindex/internal/cosine"
	"github.com/fragmenthash/lshindex/probe"
	"github.com/fragmenthash/lshindex/table"
)

// metaEntry is one FragmentMetadata record: the owning fragment, its
// embedding (kept for cosine re-rank and reinsertion), and the code it
// received in each table that accepted it.
type metaEntry struct {
	Fragment fragment.Fragment
	Vector   fragment.Vector
	Codes    map[int]hyperplane.Code
}

// Index is L independent hash tables plus fragment metadata, the
// orchestration layer of the LSH core. The zero value is not usable;
// construct with NewIndex.
type Index struct {
	mu sync.RWMutex

	cfg      Config
	families []*hyperplane.Family
	store    *bucketstore.Store
	meta     map[fragment.ID]*metaEntry

	lru *lruState
}

// NewIndex builds an Index from cfg: L hyperplane families (one per
// table, seeded seed0 + t*1000) and L empty tables. Config is validated
// before any state is built.
func NewIndex(cfg Config) (*Index, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	families := make([]*hyperplane.Family, cfg.NumTables)
	mode := cfg.hyperplaneMode()
	for t := range families {
		f, err := hyperplane.NewFamily(cfg.NumBits, cfg.Dimension, cfg.seedFor(t), mode)
		if err != nil {
			return nil, err
		}
		families[t] = f
	}

	policy := table.Policy{
		MaxBucketSize: cfg.MaxBucketSize,
		Overflow:      cfg.Overflow.Enabled,
		MaxChainLen:   cfg.Overflow.MaxChainLen,
		Analytics:     cfg.Analytics,
	}

	ix := &Index{
		cfg:      cfg,
		families: families,
		store:    bucketstore.New(cfg.NumTables, policy),
		meta:     make(map[fragment.ID]*metaEntry),
	}
	if cfg.LRUEviction.Enabled {
		ix.lru = newLRUState()
	}
	return ix, nil
}

// Config returns the index's construction parameters.
func (ix *Index) Config() Config { return ix.cfg }

// Insert hashes v under every table's family and attempts to place frag
// in each. If at least one table accepts it, the fragment is recorded in
// FragmentMetadata and Insert returns true; if every table rejects it,
// the fragment is dropped entirely and Insert returns false.
func (ix *Index) Insert(frag fragment.Fragment, v fragment.Vector) (bool, error) {
	if len(v) != ix.cfg.Dimension {
		return false, ErrDimensionMismatch
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.insertLocked(frag, v)
}

func (ix *Index) insertLocked(frag fragment.Fragment, v fragment.Vector) (bool, error) {
	codes := make(map[int]hyperplane.Code, len(ix.families))
	accepted := false
	for t, fam := range ix.families {
		code, err := fam.Hash(v)
		if err != nil {
			return false, err
		}
		if ix.store.Insert(t, code, frag) {
			codes[t] = code
			accepted = true
		}
	}
	if !accepted {
		return false, nil
	}

	vecCopy := make(fragment.Vector, len(v))
	copy(vecCopy, v)
	ix.meta[frag.ID] = &metaEntry{Fragment: frag, Vector: vecCopy, Codes: codes}

	if ix.lru != nil {
		ix.lru.touch(frag.ID)
		ix.evictLocked()
	}
	return true, nil
}

// InsertItem pairs a fragment with its vector, the unit InsertBatch
// operates on.
type InsertItem struct {
	Fragment fragment.Fragment
	Vector   fragment.Vector
}

// InsertBatch validates every item's dimension up front — on the first
// mismatch nothing is inserted — then inserts each item in order,
// returning the number actually accepted.
func (ix *Index) InsertBatch(items []InsertItem) (int, error) {
	for _, it := range items {
		if len(it.Vector) != ix.cfg.Dimension {
			return 0, ErrDimensionMismatch
		}
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n := 0
	for _, it := range items {
		ok, err := ix.insertLocked(it.Fragment, it.Vector)
		if err != nil {
			return n, err
		}
		if ok {
			n++
		}
	}
	return n, nil
}

// Remove deletes id from every table it was recorded in and erases its
// metadata entry. It reports whether id was present.
func (ix *Index) Remove(id fragment.ID) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.meta[id]
	if !ok {
		return false
	}
	ix.store.Remove(id, e.Codes)
	delete(ix.meta, id)
	if ix.lru != nil {
		ix.lru.remove(id)
	}
	return true
}

// Size returns the number of distinct fragments currently indexed.
func (ix *Index) Size() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.meta)
}

// FragmentFor returns the stored fragment payload for id.
func (ix *Index) FragmentFor(id fragment.ID) (fragment.Fragment, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.meta[id]
	if !ok {
		return fragment.Fragment{}, false
	}
	return e.Fragment, true
}

// VectorFor returns a copy of the stored embedding for id.
func (ix *Index) VectorFor(id fragment.ID) (fragment.Vector, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	e, ok := ix.meta[id]
	if !ok {
		return nil, false
	}
	out := make(fragment.Vector, len(e.Vector))
	copy(out, e.Vector)
	return out, true
}

// SnapshotEntry is one fragment's identity and embedding, as returned by
// Snapshot.
type SnapshotEntry struct {
	Fragment fragment.Fragment
	Vector   fragment.Vector
}

// Snapshot copies out every indexed fragment's id and vector under a
// single read lock, so a caller that needs to iterate the whole corpus
// (e.g. all-clones clustering) does not hold the index lock across many
// subsequent Query calls.
func (ix *Index) Snapshot() []SnapshotEntry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]SnapshotEntry, 0, len(ix.meta))
	for _, e := range ix.meta {
		v := make(fragment.Vector, len(e.Vector))
		copy(v, e.Vector)
		out = append(out, SnapshotEntry{Fragment: e.Fragment, Vector: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fragment.ID < out[j].Fragment.ID })
	return out
}

// QueryOptions configures a single Query call. Use DefaultQueryOptions
// to get the spec's documented defaults and override individual fields;
// Query performs no implicit defaulting itself (MinSimilarity=0 is a
// meaningful "accept everything" value, not a sentinel for "unset").
type QueryOptions struct {
	MaxResults    int
	MinSimilarity float64
	ComputeExact  bool
}

// DefaultQueryOptions returns {MaxResults: 50, MinSimilarity: 0.7,
// ComputeExact: true}.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{MaxResults: 50, MinSimilarity: 0.7, ComputeExact: true}
}

// Result is one query hit: the matched fragment and its similarity
// (exact cosine if ComputeExact was set, otherwise the table-match
// estimate).
type Result struct {
	Fragment   fragment.Fragment
	Similarity float64
}

// Query hashes v under every table (optionally multi-probing per
// Config.MultiProbe), merges candidates across tables, estimates
// similarity as table_matches/L, discards anything below
// MinSimilarity/2 before paying for an exact cosine, then (if
// ComputeExact) recomputes exact cosine and discards anything below
// MinSimilarity. Results are sorted by similarity descending, fragment
// id ascending as a deterministic tie-breaker, and truncated to
// MaxResults (MaxResults <= 0 means unlimited).
func (ix *Index) Query(v fragment.Vector, opts QueryOptions) ([]Result, error) {
	if len(v) != ix.cfg.Dimension {
		return nil, ErrDimensionMismatch
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	codesPerTable := make([][]hyperplane.Code, len(ix.families))
	for t, fam := range ix.families {
		code, err := fam.Hash(v)
		if err != nil {
			return nil, err
		}
		codesPerTable[t] = ix.probesFor(t, fam, code, v)
	}

	candidates := ix.store.QueryAll(codesPerTable)
	l := float64(len(ix.families))
	gate := opts.MinSimilarity / 2

	results := make([]Result, 0, len(candidates))
	for id, c := range candidates {
		estimated := float64(c.TableMatches) / l
		if estimated < gate {
			continue
		}
		sim := estimated
		if opts.ComputeExact {
			e, ok := ix.meta[id]
			if !ok {
				continue
			}
			exact := cosine.Similarity(v, e.Vector)
			if exact < opts.MinSimilarity {
				continue
			}
			sim = exact
		}
		if ix.lru != nil {
			ix.lru.touch(id)
		}
		results = append(results, Result{Fragment: c.Fragment, Similarity: sim})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Fragment.ID < results[j].Fragment.ID
	})
	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results, nil
}

// probesFor returns the probe list for one table: just the code itself
// when multi-probe is disabled, otherwise the configured (scored or
// unscored) expansion.
func (ix *Index) probesFor(t int, fam *hyperplane.Family, code hyperplane.Code, v fragment.Vector) []hyperplane.Code {
	if !ix.cfg.MultiProbe.Enabled {
		return []hyperplane.Code{code}
	}
	if ix.cfg.MultiProbe.Scored {
		codes, err := probe.GenerateScored(code, v, fam, ix.cfg.NumBits, ix.cfg.MultiProbe.NumProbes)
		if err == nil {
			return codes
		}
	}
	return probe.Generate(code, ix.cfg.NumBits, ix.cfg.MultiProbe.NumProbes)
}

// CollisionAnalytics returns the per-bucket analytics for table t, nil
// if analytics is disabled.
func (ix *Index) CollisionAnalytics(t int) []table.BucketStat {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store.Table(t).CollisionAnalytics()
}

// HotSpots returns the top-n hottest buckets in table t.
func (ix *Index) HotSpots(t, n int) []table.BucketStat {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store.Table(t).HotSpots(n)
}

// TableStats returns per-table size and bucket-occupancy counts.
func (ix *Index) TableStats() []bucketstore.TableStats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store.TableStats()
}
