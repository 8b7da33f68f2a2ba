package hyperplane

import (
	"math"

	"modernc.org/mathutil"

	"github.com/fragmenthash/lshindex/fragment"
)

// Code is a K-bit hash code, the sign-pattern of a vector's projection
// onto a Family's hyperplanes. K <= MaxBits always fits a uint64.
type Code uint64

// Hash returns v's code under f: bit i is set iff <v, h_i> >= 0 (ties at
// exactly zero set the bit, per the documented tie rule). Scale
// invariant: Hash(v) == Hash(a*v) for any a > 0.
func (f *Family) Hash(v fragment.Vector) (Code, error) {
	if len(v) != f.D {
		return 0, ErrDimensionMismatch
	}
	var code Code
	for i := 0; i < f.K; i++ {
		dot := dotMixed(f.hyperplaneAt(i), v)
		if dot >= 0 {
			code |= 1 << uint(i)
		}
	}
	return code, nil
}

// Projections returns v's raw inner product against each of f's K
// hyperplanes, the per-bit confidence signal scored probes flip on.
func (f *Family) Projections(v fragment.Vector) ([]float64, error) {
	if len(v) != f.D {
		return nil, ErrDimensionMismatch
	}
	out := make([]float64, f.K)
	for i := 0; i < f.K; i++ {
		out[i] = dotMixed(f.hyperplaneAt(i), v)
	}
	return out, nil
}

// HashBatch hashes every vector in vs under f. The result is equivalent
// to calling Hash once per vector; the loop order walks each vector's
// full set of K hyperplanes before moving to the next vector, which is
// also what Hash does, so this exists purely as an interface concession
// for callers that want to batch without changing semantics.
func (f *Family) HashBatch(vs []fragment.Vector) ([]Code, error) {
	out := make([]Code, len(vs))
	for i, v := range vs {
		c, err := f.Hash(v)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

// dotMixed computes the inner product of a float32 hyperplane and a
// float32 query vector using four independent partial sums so the
// accumulation has no single dependency chain, letting the compiler
// pipeline the multiply-adds. This is the hash hot path; its result is
// never persisted, so sum order is free to vary for speed.
func dotMixed(h []float32, v []float32) float64 {
	var s0, s1, s2, s3 float64
	n := len(h)
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += float64(h[i+0]) * float64(v[i+0])
		s1 += float64(h[i+1]) * float64(v[i+1])
		s2 += float64(h[i+2]) * float64(v[i+2])
		s3 += float64(h[i+3]) * float64(v[i+3])
	}
	sum := s0 + s1 + s2 + s3
	for ; i < n; i++ {
		sum += float64(h[i]) * float64(v[i])
	}
	return sum
}

// dotUnrolled32 is dotMixed specialized for two hyperplanes (both
// float32), used by ProjectionQuality.
func dotUnrolled32(a, b []float32) float32 {
	var s0, s1, s2, s3 float32
	n := len(a)
	i := 0
	for ; i+4 <= n; i += 4 {
		s0 += a[i+0] * b[i+0]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}
	sum := s0 + s1 + s2 + s3
	for ; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// HammingDistance returns the number of bits at which a and b disagree
// under a K-bit code, i.e. popcount(a XOR b). It uses
// modernc.org/mathutil's popcount rather than the standard library's
// math/bits, keeping the corpus's own leaf dependency (already present
// transitively through modernc.org/kv) on this hot path.
func HammingDistance(a, b Code) int {
	return mathutil.PopCountUint64(uint64(a ^ b))
}

// EstimatedSimilarity converts a Hamming distance observed under a
// K-bit family into the theoretical expected cosine similarity of the
// underlying vectors, cos(pi * h / K).
func EstimatedSimilarity(hamming, k int) float64 {
	if k <= 0 {
		return 0
	}
	return math.Cos(math.Pi * float64(hamming) / float64(k))
}
