// Package generation produces grounded answers from retrieved note evidence.
//
// Two hosted backends mirror the embedding modes: OpenAI chat completions
// and Google Gemini. Both receive the same fixed prompt template with the
// evidence block inlined, and both run with fixed sampling parameters.
// Retry and fallback policy belongs to the chat orchestrator, not here.
package generation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/config"
)

var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrGenerationFailed indicates the backend call failed. Terminal for
	// the chat turn; the orchestrator maps it to a fixed apology.
	ErrGenerationFailed = errors.New("answer generation failed")
)

// Sampling policy constants. Fixed to bound latency and cost; not
// user-tunable per request.
const (
	temperature = 0.7
	maxTokens   = 500
)

// Generator produces an answer for a question and its formatted evidence.
type Generator interface {
	// Generate runs a single-turn completion. formattedNotes may be empty,
	// in which case the prompt omits the notes section entirely.
	Generate(ctx context.Context, question, formattedNotes string) (string, error)

	// Close releases resources held by the generator.
	Close() error
}

// Registry holds one generator per backend mode.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry builds the mode -> generator mapping from config. Offline
// configuration resolves every mode to the canned NullGenerator.
func NewRegistry(cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.App.Offline {
		null := NewNullGenerator()
		return &Registry{generators: map[string]Generator{
			config.ModeOpenAI: null,
			config.ModeGemini: null,
		}}, nil
	}

	// Generation shares each vendor's API key with the embedding side.
	openAI, err := NewOpenAIGenerator(OpenAIConfig{
		APIKey: cfg.Embeddings.OpenAIAPIKey.Value(),
		Model:  cfg.Generation.OpenAIModel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating openai generator: %w", err)
	}

	gemini, err := NewGeminiGenerator(context.Background(), GeminiConfig{
		APIKey: cfg.Embeddings.GoogleAPIKey.Value(),
		Model:  cfg.Generation.GoogleModel,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating gemini generator: %w", err)
	}

	return &Registry{generators: map[string]Generator{
		config.ModeOpenAI: openAI,
		config.ModeGemini: gemini,
	}}, nil
}

// NewRegistryWith builds a registry from explicit generators.
func NewRegistryWith(generators map[string]Generator) *Registry {
	return &Registry{generators: generators}
}

// ForMode returns the generator registered for a backend mode.
func (r *Registry) ForMode(mode string) (Generator, error) {
	g, ok := r.generators[mode]
	if !ok {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, mode)
	}
	return g, nil
}

// Close closes every registered generator.
func (r *Registry) Close() error {
	var firstErr error
	seen := make(map[Generator]bool)
	for _, g := range r.generators {
		if seen[g] {
			continue
		}
		seen[g] = true
		if err := g.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
