// Package cosine computes exact cosine similarity between raw,
// non-normalized embedding vectors, for the re-ranking step that
// follows candidate retrieval.
package cosine

import (
	"math"

	"github.com/fragmenthash/lshindex/fragment"
)

// Similarity returns <u,v> / (||u|| * ||v||), or 0 if either vector has
// zero magnitude. u and v must have equal length.
func Similarity(u, v fragment.Vector) float64 {
	dot, normU, normV := dotAndNorms(u, v)
	if normU == 0 || normV == 0 {
		return 0
	}
	return dot / (math.Sqrt(normU) * math.Sqrt(normV))
}

// dotAndNorms computes <u,v>, ||u||^2 and ||v||^2 in one pass using four
// independent accumulators per quantity, matching the unrolling used by
// the hashing hot path for comparable performance. This is a query-time
// computation, never persisted, so reordering the sums for speed does
// not threaten reproducibility.
func dotAndNorms(u, v fragment.Vector) (dot, normU, normV float64) {
	var d0, d1, d2, d3 float64
	var u0, u1, u2, u3 float64
	var v0, v1, v2, v3 float64
	n := len(u)
	i := 0
	for ; i+4 <= n; i += 4 {
		a0, a1, a2, a3 := float64(u[i]), float64(u[i+1]), float64(u[i+2]), float64(u[i+3])
		b0, b1, b2, b3 := float64(v[i]), float64(v[i+1]), float64(v[i+2]), float64(v[i+3])
		d0 += a0 * b0
		d1 += a1 * b1
		d2 += a2 * b2
		d3 += a3 * b3
		u0 += a0 * a0
		u1 += a1 * a1
		u2 += a2 * a2
		u3 += a3 * a3
		v0 += b0 * b0
		v1 += b1 * b1
		v2 += b2 * b2
		v3 += b3 * b3
	}
	dot = d0 + d1 + d2 + d3
	normU = u0 + u1 + u2 + u3
	normV = v0 + v1 + v2 + v3
	for ; i < n; i++ {
		a, b := float64(u[i]), float64(v[i])
		dot += a * b
		normU += a * a
		normV += b * b
	}
	return dot, normU, normV
}
