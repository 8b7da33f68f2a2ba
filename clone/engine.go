package clone

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/internal/unionfind"
	"github.com/fragmenthash/lshindex/lsh"
)

// Config are the engine's construction parameters: the underlying
// index, an embedder for turning query text into vectors, and the
// thresholds used to classify similarity scores into clone types.
type Config struct {
	Index      *lsh.Index
	Embedder   Embedder
	Thresholds Thresholds
}

// Engine wraps an lsh.Index with fragment-text queries, clone-type
// classification, and all-pairs cluster extraction.
type Engine struct {
	index      *lsh.Index
	embedder   Embedder
	thresholds Thresholds
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Index == nil {
		return nil, fmt.Errorf("clone: index must not be nil")
	}
	if cfg.Embedder == nil {
		return nil, fmt.Errorf("clone: embedder must not be nil")
	}
	th := cfg.Thresholds
	if th == (Thresholds{}) {
		th = DefaultThresholds()
	}
	return &Engine{index: cfg.Index, embedder: cfg.Embedder, thresholds: th}, nil
}

// QueryOptions configures Query/QuerySimilar.
type QueryOptions struct {
	MaxResults    int
	MinSimilarity float64
	ComputeExact  bool
	AllowedTypes  []CloneType // empty means all types allowed
	IncludeSelf   bool        // only consulted by QuerySimilar
}

// QueryResult is one classified match.
type QueryResult struct {
	Fragment   fragment.Fragment
	Similarity float64
	Type       CloneType
}

// QueryResponse is the full outcome of a Query/QuerySimilar call.
type QueryResponse struct {
	Results        []QueryResult
	CandidateCount int
	Elapsed        time.Duration
}

func (e *Engine) allowed(t CloneType, allowed []CloneType) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == t {
			return true
		}
	}
	return false
}

// Query embeds text, runs it through the index, classifies each result
// by similarity (no content-hash override — see ClassifyBySimilarity),
// and filters by AllowedTypes.
func (e *Engine) Query(ctx context.Context, text string, opts QueryOptions) (QueryResponse, error) {
	start := time.Now()
	v, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("clone: embed: %w", err)
	}
	return e.queryVector(v, opts, start)
}

func (e *Engine) queryVector(v fragment.Vector, opts QueryOptions, start time.Time) (QueryResponse, error) {
	lsOpts := lsh.QueryOptions{
		MaxResults:    opts.MaxResults,
		MinSimilarity: opts.MinSimilarity,
		ComputeExact:  opts.ComputeExact,
	}
	raw, err := e.index.Query(v, lsOpts)
	if err != nil {
		return QueryResponse{}, fmt.Errorf("clone: query: %w", err)
	}

	results := make([]QueryResult, 0, len(raw))
	for _, r := range raw {
		t := e.thresholds.ClassifyBySimilarity(r.Similarity)
		if !e.allowed(t, opts.AllowedTypes) {
			continue
		}
		results = append(results, QueryResult{Fragment: r.Fragment, Similarity: r.Similarity, Type: t})
	}

	return QueryResponse{
		Results:        results,
		CandidateCount: len(raw),
		Elapsed:        time.Since(start),
	}, nil
}

// QuerySimilar runs Query against the stored vector for id, filtering
// id itself out of the results unless opts.IncludeSelf is set.
func (e *Engine) QuerySimilar(id fragment.ID, opts QueryOptions) (QueryResponse, error) {
	start := time.Now()
	v, ok := e.index.VectorFor(id)
	if !ok {
		return QueryResponse{}, fmt.Errorf("clone: unknown fragment id %q", id)
	}
	resp, err := e.queryVector(v, opts, start)
	if err != nil {
		return QueryResponse{}, err
	}
	if opts.IncludeSelf {
		return resp, nil
	}
	filtered := resp.Results[:0]
	for _, r := range resp.Results {
		if r.Fragment.ID != id {
			filtered = append(filtered, r)
		}
	}
	resp.Results = filtered
	return resp, nil
}

// Cluster is a group of mutually similar fragments, of size >= 2.
type Cluster struct {
	Members       []fragment.Fragment
	AvgSimilarity float64
	Type          CloneType
}

// FindAllClonesOptions configures FindAllClones.
type FindAllClonesOptions struct {
	MinSimilarity float64
}

// FindAllClones runs an all-pairs clustering pass: every indexed
// fragment is queried against the index, surviving candidate pairs are
// merged with union-find, and groups of size >= 2 are reported as
// clusters with averaged similarity and a classified clone type. The
// Type-1 content-hash override is applied per pair here, unlike Query's
// plain threshold classification.
func (e *Engine) FindAllClones(opts FindAllClonesOptions) ([]Cluster, error) {
	snapshot := e.index.Snapshot()

	byID := make(map[fragment.ID]fragment.Fragment, len(snapshot))
	for _, entry := range snapshot {
		byID[entry.Fragment.ID] = entry.Fragment
	}

	uf := unionfind.New[fragment.ID]()
	type pairSim struct {
		a, b fragment.ID
		sim  float64
	}
	var pairs []pairSim

	for _, entry := range snapshot {
		results, err := e.index.Query(entry.Vector, lsh.QueryOptions{
			MaxResults:    50,
			MinSimilarity: opts.MinSimilarity,
			ComputeExact:  true,
		})
		if err != nil {
			return nil, fmt.Errorf("clone: find-all-clones query for %q: %w", entry.Fragment.ID, err)
		}
		for _, r := range results {
			if r.Fragment.ID == entry.Fragment.ID {
				continue
			}
			if r.Similarity < opts.MinSimilarity {
				continue
			}
			uf.Union(entry.Fragment.ID, r.Fragment.ID)
			pairs = append(pairs, pairSim{a: entry.Fragment.ID, b: r.Fragment.ID, sim: r.Similarity})
		}
	}

	// A cluster is forced to Type1 if any recorded pair within it has
	// identical normalized content, regardless of cosine similarity.
	forceType1 := make(map[fragment.ID]bool)
	for _, p := range pairs {
		if e.thresholds.ClassifyPair(byID[p.a], byID[p.b], p.sim) == Type1 {
			forceType1[uf.Find(p.a)] = true
		}
	}

	groups := make(map[fragment.ID][]fragment.ID)
	for _, entry := range snapshot {
		root := uf.Find(entry.Fragment.ID)
		groups[root] = append(groups[root], entry.Fragment.ID)
	}

	pairSums := make(map[fragment.ID]float64)
	pairCounts := make(map[fragment.ID]int)
	for _, p := range pairs {
		root := uf.Find(p.a)
		pairSums[root] += p.sim
		pairCounts[root]++
	}

	clusters := make([]Cluster, 0, len(groups))
	for root, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		members := make([]fragment.Fragment, len(ids))
		for i, id := range ids {
			members[i] = byID[id]
		}
		avg := 0.0
		if n := pairCounts[root]; n > 0 {
			avg = pairSums[root] / float64(n)
		}
		t := e.thresholds.ClassifyBySimilarity(avg)
		if forceType1[root] {
			t = Type1
		}
		clusters = append(clusters, Cluster{
			Members:       members,
			AvgSimilarity: avg,
			Type:          t,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Members) != len(clusters[j].Members) {
			return len(clusters[i].Members) > len(clusters[j].Members)
		}
		if clusters[i].AvgSimilarity != clusters[j].AvgSimilarity {
			return clusters[i].AvgSimilarity > clusters[j].AvgSimilarity
		}
		return clusters[i].Members[0].ID < clusters[j].Members[0].ID
	})
	return clusters, nil
}
