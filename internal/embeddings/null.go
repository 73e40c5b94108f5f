package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
)

// NullProvider produces deterministic pseudo-embeddings without any network
// access. It backs offline mode and is also handy in tests: identical texts
// always map to identical unit vectors, so similarity math stays meaningful.
type NullProvider struct {
	dim int
}

// NewNullProvider creates an offline embedding provider with the given
// output dimension.
func NewNullProvider(dimension int) *NullProvider {
	if dimension <= 0 {
		dimension = 1536
	}
	return &NullProvider{dim: dimension}
}

// EmbedQuery generates a deterministic embedding for a single query.
func (p *NullProvider) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}
	return p.embed(text), nil
}

// EmbedDocuments generates deterministic embeddings for multiple texts.
func (p *NullProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: text at index %d is empty", ErrEmptyInput, i)
		}
		vectors[i] = p.embed(t)
	}
	return vectors, nil
}

// embed hashes the text into a seeded sequence and L2-normalizes the result.
func (p *NullProvider) embed(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, p.dim)
	var sum float64
	for i := range vec {
		// xorshift over the seed keeps each component deterministic.
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(int64(seed%2000)-1000) / 1000.0
		vec[i] = float32(v)
		sum += v * v
	}

	if sum > 0 {
		inv := float32(1.0 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// Dimension returns the configured output dimension.
func (p *NullProvider) Dimension() int {
	return p.dim
}

// Close is a no-op.
func (p *NullProvider) Close() error {
	return nil
}
