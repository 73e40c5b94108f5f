package embeddings

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/googleai"
	"go.uber.org/zap"
)

// geminiDimensions maps Google embedding models to their native output size.
var geminiDimensions = map[string]int{
	"text-embedding-004": 768,
	"embedding-001":      768,
}

// GeminiConfig holds configuration for the Google embedding provider.
type GeminiConfig struct {
	// APIKey is the Google AI Studio API key.
	APIKey string

	// Model is the embedding model name (default: text-embedding-004).
	Model string
}

// GeminiProvider generates embeddings via the Google Generative AI API,
// wrapped through langchaingo's googleai client.
//
// Google models emit 768-dimensional vectors; callers that need the index
// dimension wrap this provider with WithFixedDimension.
type GeminiProvider struct {
	client *googleai.GoogleAI
	model  string
	dim    int
	logger *zap.Logger
}

// NewGeminiProvider creates a Google embedding provider.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: google api key required", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultEmbeddingModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating googleai client: %w", err)
	}

	dim, ok := geminiDimensions[cfg.Model]
	if !ok {
		dim = 768
	}

	return &GeminiProvider{
		client: client,
		model:  cfg.Model,
		dim:    dim,
		logger: logger.Named("embeddings.gemini"),
	}, nil
}

// EmbedQuery generates an embedding for a single query.
func (p *GeminiProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedDocuments generates embeddings for multiple texts.
func (p *GeminiProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}
	for i, t := range texts {
		if t == "" {
			return nil, fmt.Errorf("%w: text at index %d is empty", ErrEmptyInput, i)
		}
	}

	vectors, err := p.client.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbeddingFailed, len(texts), len(vectors))
	}

	p.logger.Debug("generated embeddings",
		zap.String("model", p.model),
		zap.Int("count", len(texts)))

	return vectors, nil
}

// Dimension returns the native embedding dimension for the configured model.
func (p *GeminiProvider) Dimension() int {
	return p.dim
}

// Close is a no-op; the underlying client uses plain HTTP.
func (p *GeminiProvider) Close() error {
	return nil
}
