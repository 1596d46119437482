// Package embed provides a deterministic local embedder: words hash
// into a fixed-dimension bag-of-words vector, unit normalized. Texts
// sharing words get similar vectors, which is enough for local mode and
// integration testing. Production deployments plug a real embedding
// model into the same interface.
package embed

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

// BagEmbedder creates deterministic bag-of-words embeddings.
type BagEmbedder struct {
	Dimensions int
}

// NewBagEmbedder creates an embedder with the given dimensionality.
func NewBagEmbedder(dims int) *BagEmbedder {
	if dims <= 0 {
		dims = 256
	}
	return &BagEmbedder{Dimensions: dims}
}

// Embed maps text to a unit-length vector.
func (e *BagEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.Dimensions)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[int(h.Sum32())%e.Dimensions]++
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec, nil
}

// Func adapts the embedder to chromem's embedding callback.
func (e *BagEmbedder) Func() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text)
	}
}
