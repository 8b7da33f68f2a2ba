package lsh

import (
	"fmt"

	"github.com/fragmenthash/lshindex/hyperplane"
)

// MultiProbe configures probe-list generation at query time.
type MultiProbe struct {
	Enabled   bool
	NumProbes int
	Scored    bool
}

// Overflow configures a table's overflow chaining.
type Overflow struct {
	Enabled     bool
	MaxChainLen int
}

// LRUEviction configures index-level eviction under fragment-count
// pressure. Individual tables never evict on their own.
type LRUEviction struct {
	Enabled   bool
	Threshold int
	Fraction  float64
}

// QueryDefaults carries default query settings as part of Config. They
// are stored only: Index.Query takes an explicit QueryOptions and
// performs no implicit defaulting, DefaultQueryOptions returns the fixed
// values (50, 0.7, true) without consulting them, and package clone does
// not read them either.
type QueryDefaults struct {
	MinSimilarity float64
	MaxResults    int
}

// Config are the construction parameters for an Index, corresponding
// field-for-field to the host configuration table.
type Config struct {
	NumTables int // L, typically 10-30
	NumBits   int // K, typically 8-16
	Dimension int // d

	Seed uint64

	MultiProbe               MultiProbe
	UseOrthogonalHyperplanes bool

	MaxBucketSize int
	Overflow      Overflow
	LRUEviction   LRUEviction
	Analytics     bool

	Query QueryDefaults
}

// Validate checks Config up front, before any state is built, so a bad
// configuration never leaves a half-constructed Index behind.
func (c Config) Validate() error {
	if c.NumTables < 1 {
		return fmt.Errorf("lsh: numTables must be >= 1, got %d", c.NumTables)
	}
	if c.NumBits < 1 || c.NumBits > hyperplane.MaxBits {
		return fmt.Errorf("lsh: numBits must be in 1..%d, got %d", hyperplane.MaxBits, c.NumBits)
	}
	if c.Dimension < 1 {
		return fmt.Errorf("lsh: dimension must be >= 1, got %d", c.Dimension)
	}
	if c.MaxBucketSize < 1 {
		return fmt.Errorf("lsh: maxBucketSize must be >= 1, got %d", c.MaxBucketSize)
	}
	if c.Overflow.Enabled && c.Overflow.MaxChainLen < 0 {
		return fmt.Errorf("lsh: overflow.maxChainLength must be >= 0, got %d", c.Overflow.MaxChainLen)
	}
	if c.MultiProbe.Enabled && c.MultiProbe.NumProbes < 1 {
		return fmt.Errorf("lsh: multiProbe.numProbes must be >= 1 when enabled, got %d", c.MultiProbe.NumProbes)
	}
	if c.LRUEviction.Enabled {
		if c.LRUEviction.Threshold < 1 {
			return fmt.Errorf("lsh: lruEviction.threshold must be >= 1 when enabled, got %d", c.LRUEviction.Threshold)
		}
		if c.LRUEviction.Fraction <= 0 || c.LRUEviction.Fraction > 1 {
			return fmt.Errorf("lsh: lruEviction.fraction must be in (0, 1], got %v", c.LRUEviction.Fraction)
		}
	}
	return nil
}

// seedFor returns the deterministic per-table seed, seed0 + t*1000.
func (c Config) seedFor(t int) uint64 {
	return c.Seed + uint64(t)*1000
}

func (c Config) hyperplaneMode() hyperplane.Mode {
	if c.UseOrthogonalHyperplanes {
		return hyperplane.Orthogonalized
	}
	return hyperplane.IIDGaussian
}
