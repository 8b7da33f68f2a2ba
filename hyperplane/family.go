// Package hyperplane generates the random-hyperplane families that back
// one LSH table and hashes embedding vectors to K-bit codes under them.
package hyperplane

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fragmenthash/lshindex/internal/rng"
)

// MaxBits is the hard limit on K: codes are carried in a uint64.
const MaxBits = 64

// Mode selects how a Family's hyperplanes are constructed.
type Mode int

const (
	// IIDGaussian samples each hyperplane independently.
	IIDGaussian Mode = iota
	// Orthogonalized runs modified Gram-Schmidt over the IID sample.
	Orthogonalized
)

// residualFloor is the norm below which a Gram-Schmidt residual is
// considered a numerical collapse and the vector is resampled.
const residualFloor = 1e-10

// Family is an ordered set of K unit vectors of dimension D, stored
// array-of-structures (hyperplane i occupies vecs[i*D : i*D+D]) so the
// per-vector hash loop walks one hyperplane contiguously at a time.
type Family struct {
	K, D int
	Seed uint64
	Mode Mode
	vecs []float32
}

// NewFamily deterministically builds a Family from (K, D, seed, mode).
// Two calls with identical arguments produce bit-identical hyperplanes.
func NewFamily(k, d int, seed uint64, mode Mode) (*Family, error) {
	if k <= 0 || k > MaxBits {
		return nil, fmt.Errorf("hyperplane: K=%d out of range (1..%d)", k, MaxBits)
	}
	if d <= 0 {
		return nil, fmt.Errorf("hyperplane: dimension %d must be positive", d)
	}

	f := &Family{K: k, D: d, Seed: seed, Mode: mode, vecs: make([]float32, k*d)}
	src := rng.New(seed)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	buf := make([]float64, d)
	prior := make([][]float64, 0, k)
	for i := 0; i < k; i++ {
		for {
			for j := range buf {
				buf[j] = norm.Rand()
			}
			if mode == Orthogonalized {
				orthogonalizeInPlace(buf, prior)
			}
			n := floats.Norm(buf, 2)
			if n < residualFloor {
				// Numerical collapse against the existing basis; resample.
				continue
			}
			for j := range buf {
				buf[j] /= n
			}
			break
		}
		row := make([]float64, d)
		copy(row, buf)
		prior = append(prior, row)
		for j, v := range buf {
			f.vecs[i*d+j] = float32(v)
		}
	}
	return f, nil
}

// orthogonalizeInPlace runs one pass of modified Gram-Schmidt of v
// against every vector in prior, using a fixed left-to-right
// accumulation order so the result is reproducible across platforms
// (this path's output is what gets persisted via the seed, so
// determinism here matters; the unpersisted hash hot path is free to
// reorder its sums).
func orthogonalizeInPlace(v []float64, prior [][]float64) {
	for _, p := range prior {
		var dot float64
		for i := range v {
			dot += v[i] * p[i]
		}
		for i := range v {
			v[i] -= dot * p[i]
		}
	}
}

// ErrDimensionMismatch is returned when a vector's length disagrees with
// the family's dimension.
var ErrDimensionMismatch = errors.New("hyperplane: vector dimension mismatch")

// Quality summarizes the pairwise inner products among a Family's
// hyperplanes, for tests and diagnostics only; it plays no part in
// hashing or querying.
type Quality struct {
	Mean       float64
	Max        float64
	Orthogonal bool
}

// ProjectionQuality computes the mean and max absolute pairwise inner
// product among the Family's K hyperplanes, and whether Max < 0.1 (the
// orthogonality invariant required of an Orthogonalized family when
// K <= D).
func (f *Family) ProjectionQuality() Quality {
	if f.K < 2 {
		return Quality{Orthogonal: true}
	}
	var sum float64
	max := 0.0
	n := 0
	for i := 0; i < f.K; i++ {
		hi := f.vecs[i*f.D : i*f.D+f.D]
		for j := i + 1; j < f.K; j++ {
			hj := f.vecs[j*f.D : j*f.D+f.D]
			dot := dotUnrolled32(hi, hj)
			a := math.Abs(float64(dot))
			sum += a
			if a > max {
				max = a
			}
			n++
		}
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	return Quality{Mean: mean, Max: max, Orthogonal: max < 0.1}
}

// hyperplaneAt returns the i'th hyperplane's coordinates.
func (f *Family) hyperplaneAt(i int) []float32 {
	return f.vecs[i*f.D : i*f.D+f.D]
}
