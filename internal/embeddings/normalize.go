package embeddings

import "context"

// Normalize forces a vector to the given dimensionality: shorter vectors
// are zero-padded at the tail, longer vectors are truncated from the tail.
//
// This is a deliberate lossy normalization, not a precision optimization.
// The two hosted backends emit different dimensionalities; forcing both to
// one fixed size keeps cross-backend results comparable inside a single
// index. The input slice is never mutated.
func Normalize(vector []float32, dimension int) []float32 {
	if dimension <= 0 {
		return nil
	}
	out := make([]float32, dimension)
	copy(out, vector)
	return out
}

// fixedDimension wraps a provider so every emitted vector has exactly the
// configured index dimensionality.
type fixedDimension struct {
	inner     Provider
	dimension int
}

// WithFixedDimension decorates a provider with dimension normalization.
// If the provider already emits the target dimension it is returned as is.
func WithFixedDimension(p Provider, dimension int) Provider {
	if p.Dimension() == dimension {
		return p
	}
	return &fixedDimension{inner: p, dimension: dimension}
}

func (f *fixedDimension) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vec, err := f.inner.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	return Normalize(vec, f.dimension), nil
}

func (f *fixedDimension) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vecs, err := f.inner.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		out[i] = Normalize(v, f.dimension)
	}
	return out, nil
}

func (f *fixedDimension) Dimension() int {
	return f.dimension
}

func (f *fixedDimension) Close() error {
	return f.inner.Close()
}
