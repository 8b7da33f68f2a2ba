// Package probe enumerates neighboring hash codes for multi-probe LSH
// queries: the bucket a vector hashes to, plus nearby buckets reached by
// flipping a small number of bits.
package probe

import (
	"math"
	"sort"

	"github.com/fragmenthash/lshindex/fragment"
	"github.com/fragmenthash/lshindex/hyperplane"
)

// Generate returns up to budget codes starting with c, followed by its
// neighbors in increasing Hamming radius: all single-bit flips in
// bit-index order, then (budget permitting) all two-bit flips in
// lexicographic (i, j) order. The list is deterministic and
// vector-independent, and never contains a duplicate code.
func Generate(c hyperplane.Code, k, budget int) []hyperplane.Code {
	if budget <= 0 {
		budget = 1
	}
	codes := make([]uint64, 0, budget)
	seen := make(map[hyperplane.Code]bool, budget)
	add := func(code hyperplane.Code) bool {
		if seen[code] {
			return false
		}
		seen[code] = true
		codes = append(codes, uint64(code))
		return len(codes) < budget
	}

	if !add(c) {
		return finalize(codes)
	}
	for i := 0; i < k && len(codes) < budget; i++ {
		if !add(c ^ (1 << uint(i))) {
			break
		}
	}
	for i := 0; i < k && len(codes) < budget; i++ {
		for j := i + 1; j < k && len(codes) < budget; j++ {
			if !add(c ^ (1 << uint(i)) ^ (1 << uint(j))) {
				break
			}
		}
	}
	return finalize(codes)
}

// GenerateScored returns up to budget codes drawn from the same
// candidates as Generate (the original, every single-bit flip and every
// two-bit flip) but chosen and ordered by confidence rather than by
// Hamming radius: each bit flip is scored exp(-sum of |<v, h_i>| for the
// flipped bits), the original code keeps score 1, and the list (original
// first) is sorted by score descending with a deterministic tie-breaker
// of lower flipped-bit indices first so two calls with equal (c, v, fam)
// always produce the same order.
func GenerateScored(c hyperplane.Code, v fragment.Vector, fam *hyperplane.Family, k, budget int) ([]hyperplane.Code, error) {
	if budget <= 0 {
		budget = 1
	}

	type candidate struct {
		code  hyperplane.Code
		score float64
		bits  [2]int // flipped bit indices, -1 if unused; used only to break score ties
	}

	dists, err := bitConfidences(fam, v)
	if err != nil {
		return nil, err
	}

	cands := make([]candidate, 0, 1+k+k*(k-1)/2)
	cands = append(cands, candidate{code: c, score: 1, bits: [2]int{-1, -1}})
	for i := 0; i < k; i++ {
		cands = append(cands, candidate{
			code:  c ^ (1 << uint(i)),
			score: math.Exp(-dists[i]),
			bits:  [2]int{i, -1},
		})
	}
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			cands = append(cands, candidate{
				code:  c ^ (1 << uint(i)) ^ (1 << uint(j)),
				score: math.Exp(-(dists[i] + dists[j])),
				bits:  [2]int{i, j},
			})
		}
	}

	sort.SliceStable(cands, func(a, b int) bool {
		if cands[a].score != cands[b].score {
			return cands[a].score > cands[b].score
		}
		if cands[a].bits[0] != cands[b].bits[0] {
			return cands[a].bits[0] < cands[b].bits[0]
		}
		return cands[a].bits[1] < cands[b].bits[1]
	})

	codes := make([]uint64, 0, budget)
	seen := make(map[hyperplane.Code]bool, budget)
	for _, cd := range cands {
		if seen[cd.code] {
			continue
		}
		seen[cd.code] = true
		codes = append(codes, uint64(cd.code))
		if len(codes) == budget {
			break
		}
	}
	return finalize(codes), nil
}

// finalize converts the already-deduplicated, already-ordered probe
// list to []hyperplane.Code.
func finalize(codes []uint64) []hyperplane.Code {
	out := make([]hyperplane.Code, len(codes))
	for i, c := range codes {
		out[i] = hyperplane.Code(c)
	}
	return out
}

// bitConfidences returns, for each of the family's K hyperplanes, the
// absolute projection |<v, h_i>|: the smaller the value the less
// confident that bit is, and the more worth flipping it first.
func bitConfidences(fam *hyperplane.Family, v fragment.Vector) ([]float64, error) {
	d, err := fam.Projections(v)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(d))
	for i, p := range d {
		out[i] = math.Abs(p)
	}
	return out, nil
}
