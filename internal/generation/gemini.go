package generation

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// GeminiConfig holds configuration for the Google generator.
type GeminiConfig struct {
	// APIKey is the Google AI Studio API key.
	APIKey string

	// Model is the chat model name (default: gemini-1.5-flash).
	Model string
}

// GeminiGenerator produces answers via the Google Generative AI API.
type GeminiGenerator struct {
	client *googleai.GoogleAI
	model  string
	logger *zap.Logger
}

// NewGeminiGenerator creates a Google answer generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: google api key required", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("creating googleai client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  cfg.Model,
		logger: logger.Named("generation.gemini"),
	}, nil
}

// geminiMessages builds the system+human message pair for a single turn.
func geminiMessages(question, formattedNotes string) []llms.MessageContent {
	return []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, SystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, UserPrompt(question, formattedNotes)),
	}
}

// Generate runs a single-turn completion with the same combined prompt the
// OpenAI backend receives.
func (g *GeminiGenerator) Generate(ctx context.Context, question, formattedNotes string) (string, error) {
	messages := geminiMessages(question, formattedNotes)

	resp, err := g.client.GenerateContent(ctx, messages,
		llms.WithModel(g.model),
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGenerationFailed)
	}

	g.logger.Debug("generated answer", zap.String("model", g.model))

	return resp.Choices[0].Content, nil
}

// Close is a no-op; the underlying client uses plain HTTP.
func (g *GeminiGenerator) Close() error {
	return nil
}
