package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name      string
		input     []float32
		dimension int
		want      []float32
	}{
		{
			name:      "pads shorter vector with zeros at tail",
			input:     []float32{1, 2, 3},
			dimension: 5,
			want:      []float32{1, 2, 3, 0, 0},
		},
		{
			name:      "truncates longer vector at tail",
			input:     []float32{1, 2, 3, 4, 5},
			dimension: 3,
			want:      []float32{1, 2, 3},
		},
		{
			name:      "exact dimension unchanged",
			input:     []float32{1, 2, 3},
			dimension: 3,
			want:      []float32{1, 2, 3},
		},
		{
			name:      "nil input becomes zero vector",
			input:     nil,
			dimension: 4,
			want:      []float32{0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input, tt.dimension)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	input := []float32{1, 2, 3, 4, 5}
	out := Normalize(input, 3)
	out[0] = 99

	assert.Equal(t, []float32{1, 2, 3, 4, 5}, input)
}

func TestWithFixedDimension(t *testing.T) {
	ctx := context.Background()

	t.Run("wraps provider with different dimension", func(t *testing.T) {
		inner := NewNullProvider(768)
		p := WithFixedDimension(inner, 1536)
		assert.Equal(t, 1536, p.Dimension())

		vec, err := p.EmbedQuery(ctx, "hello")
		require.NoError(t, err)
		assert.Len(t, vec, 1536)

		// Padded region is all zeros.
		for _, v := range vec[768:] {
			assert.Zero(t, v)
		}
	})

	t.Run("returns provider as-is when dimensions match", func(t *testing.T) {
		inner := NewNullProvider(1536)
		p := WithFixedDimension(inner, 1536)
		assert.Same(t, Provider(inner), p)
	})

	t.Run("truncates oversized vectors", func(t *testing.T) {
		inner := NewNullProvider(3072)
		p := WithFixedDimension(inner, 1536)

		vecs, err := p.EmbedDocuments(ctx, []string{"a", "b"})
		require.NoError(t, err)
		require.Len(t, vecs, 2)
		assert.Len(t, vecs[0], 1536)
		assert.Len(t, vecs[1], 1536)
	})
}

func TestNullProvider_Deterministic(t *testing.T) {
	ctx := context.Background()
	p := NewNullProvider(64)

	v1, err := p.EmbedQuery(ctx, "same text")
	require.NoError(t, err)
	v2, err := p.EmbedQuery(ctx, "same text")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	v3, err := p.EmbedQuery(ctx, "different text")
	require.NoError(t, err)
	assert.NotEqual(t, v1, v3)
}

func TestNullProvider_UnitVector(t *testing.T) {
	ctx := context.Background()
	p := NewNullProvider(128)

	vec, err := p.EmbedQuery(ctx, "some note text")
	require.NoError(t, err)

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sum, 0.001)
}

func TestNullProvider_EmptyInput(t *testing.T) {
	ctx := context.Background()
	p := NewNullProvider(64)

	_, err := p.EmbedQuery(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedDocuments(ctx, nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = p.EmbedDocuments(ctx, []string{"ok", ""})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestRegistry_ForMode(t *testing.T) {
	null := NewNullProvider(16)
	r := NewRegistryWith(map[string]Provider{
		"A": null,
		"B": null,
	})

	p, err := r.ForMode("A")
	require.NoError(t, err)
	assert.Same(t, Provider(null), p)

	_, err = r.ForMode("C")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestNewOpenAIProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewGeminiProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewGeminiProvider(context.Background(), GeminiConfig{}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
