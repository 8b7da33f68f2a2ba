// Package stubembed provides a deterministic, dependency-free Embedder
// for demos and tests: a fixed-dimension feature-hashed bag of
// character trigrams. It is not a real embedding model — production
// callers are expected to supply their own clone.Embedder backed by an
// actual model — but it is reproducible and fast, which is all the
// command-line tools in this repository need to exercise the index
// end-to-end.
package stubembed

import (
	"context"
	"hash/fnv"

	"github.com/fragmenthash/lshindex/fragment"
)

// Embedder hashes overlapping character trigrams of normalized text
// into a fixed-dimension vector using the feature-hashing trick: each
// trigram contributes +1/-1 (sign from the top bit of its hash) to one
// bucket chosen by the same hash modulo Dimension.
type Embedder struct {
	Dimension int
}

// New returns an Embedder producing vectors of the given dimension.
func New(dimension int) *Embedder {
	return &Embedder{Dimension: dimension}
}

// Embed implements clone.Embedder.
func (e *Embedder) Embed(_ context.Context, text string) (fragment.Vector, error) {
	v := make(fragment.Vector, e.Dimension)
	runes := []rune(text)
	if len(runes) < 3 {
		hashInto(v, text)
		return v, nil
	}
	for i := 0; i+3 <= len(runes); i++ {
		hashInto(v, string(runes[i:i+3]))
	}
	return v, nil
}

// EmbedBatch implements clone.BatchEmbedder.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([]fragment.Vector, error) {
	out := make([]fragment.Vector, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func hashInto(v fragment.Vector, token string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum64()
	bucket := int(sum % uint64(len(v)))
	sign := float32(1)
	if sum&(1<<63) != 0 {
		sign = -1
	}
	v[bucket] += sign
}
