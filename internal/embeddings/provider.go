// Package embeddings provides embedding generation via multiple hosted
// providers.
//
// Two backends are supported: OpenAI (text-embedding-ada-002) and Google
// (text-embedding-004). The backends are not bit-compatible - they emit
// different dimensionalities - so every provider is wrapped in a dimension
// normalizer that pads or truncates vectors to the index's fixed size
// before they reach storage or query. See Normalize.
package embeddings

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/recalld/internal/config"
	"go.uber.org/zap"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrUnknownMode indicates an unrecognized backend mode.
	ErrUnknownMode = errors.New("unknown embedding mode")
)

// Provider is the interface for embedding providers.
type Provider interface {
	// EmbedQuery generates an embedding for a single query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// EmbedDocuments generates embeddings for multiple texts, one per input.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding dimension emitted by this provider.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}

// Registry holds one provider per backend mode and dispatches by the
// chat API's modelMode wire value.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds the mode -> provider mapping from config.
//
// When cfg.App.Offline is set, every mode resolves to a NullProvider and no
// network client is constructed - offline mode never touches a backend.
// Otherwise mode "A" is OpenAI and mode "B" is Gemini, each wrapped in the
// dimension normalizer so callers always receive cfg.Embeddings.Dimension
// sized vectors.
func NewRegistry(cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dim := cfg.Embeddings.Dimension

	if cfg.App.Offline {
		null := NewNullProvider(dim)
		return &Registry{providers: map[string]Provider{
			config.ModeOpenAI: null,
			config.ModeGemini: null,
		}}, nil
	}

	openAI, err := NewOpenAIProvider(OpenAIConfig{
		APIKey: cfg.Embeddings.OpenAIAPIKey.Value(),
		Model:  cfg.Embeddings.OpenAIModel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating openai provider: %w", err)
	}

	gemini, err := NewGeminiProvider(context.Background(), GeminiConfig{
		APIKey: cfg.Embeddings.GoogleAPIKey.Value(),
		Model:  cfg.Embeddings.GoogleModel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gemini provider: %w", err)
	}

	return &Registry{providers: map[string]Provider{
		config.ModeOpenAI: WithFixedDimension(openAI, dim),
		config.ModeGemini: WithFixedDimension(gemini, dim),
	}}, nil
}

// NewRegistryWith builds a registry from explicit providers. Used by tests
// and by callers that wire their own backends.
func NewRegistryWith(providers map[string]Provider) *Registry {
	return &Registry{providers: providers}
}

// ForMode returns the provider registered for a backend mode.
func (r *Registry) ForMode(mode string) (Provider, error) {
	p, ok := r.providers[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return p, nil
}

// Close closes every registered provider.
func (r *Registry) Close() error {
	var firstErr error
	seen := make(map[Provider]bool)
	for _, p := range r.providers {
		if seen[p] {
			continue
		}
		seen[p] = true
		if err := p.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
