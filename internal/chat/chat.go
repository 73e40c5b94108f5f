// Package chat orchestrates a single question-answering turn over notes.
//
// A turn moves through validation, retrieval, and generation. The stages
// degrade independently: retrieval failure downgrades the turn to an
// ungrounded generation attempt, while generation failure is terminal and
// yields a fixed apology. Raw backend errors never reach the caller.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/generation"
	"github.com/fyrsmithlabs/recalld/internal/retrieval"
)

// ErrInvalidRequest indicates a request that failed validation.
var ErrInvalidRequest = errors.New("invalid chat request")

// Apology is the fixed user-visible message for a failed generation.
// Upstream error details are logged, never surfaced.
const Apology = "Sorry, I couldn't answer that right now. Please try again in a moment."

// Request is one chat turn.
type Request struct {
	// Message is the user's question.
	Message string `json:"message"`

	// UserID scopes retrieval to the caller's own notes.
	UserID string `json:"userId"`

	// Mode selects the backend pair: "A" (OpenAI) or "B" (Gemini).
	// Empty selects the configured default.
	Mode string `json:"modelMode"`

	// EnableAltOutput requests a markup-free copy of the answer for
	// non-visual consumption (speech synthesis).
	EnableAltOutput bool `json:"enableAltOutput"`
}

// RelevantNote is one piece of evidence returned alongside the answer.
type RelevantNote struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	Similarity float32 `json:"similarity"`
}

// Result is the outcome of a chat turn.
type Result struct {
	// Message is the generated answer, or the fixed apology when the turn
	// failed.
	Message string `json:"message"`

	// RelevantNotes is the raw retrieved evidence, possibly empty.
	RelevantNotes []RelevantNote `json:"relevantNotes"`

	// FormattedNotes is the evidence block as embedded into the prompt.
	FormattedNotes string `json:"formattedNotes"`

	// Mode is the backend pair that served the turn.
	Mode string `json:"mode"`

	// CleanResponse is Message with markup stripped, for non-visual use.
	CleanResponse string `json:"cleanResponse,omitempty"`

	// Failed reports a terminal generation failure. Message carries the
	// apology in that case.
	Failed bool `json:"-"`
}

// Orchestrator drives chat turns through retrieval and generation.
type Orchestrator struct {
	engine      *retrieval.Engine
	generators  *generation.Registry
	defaultMode string
	offline     bool
	logger      *zap.Logger
	metrics     *Metrics
}

// NewOrchestrator creates a chat orchestrator.
func NewOrchestrator(engine *retrieval.Engine, generators *generation.Registry, cfg *config.Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		engine:      engine,
		generators:  generators,
		defaultMode: cfg.App.DefaultMode,
		offline:     cfg.App.Offline,
		logger:      logger.Named("chat"),
		metrics:     NewMetrics(logger),
	}
}

// Chat runs one turn. A non-nil error is returned only for validation
// failures; every later-stage failure resolves to a Result so a turn,
// once accepted, always produces something presentable.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (*Result, error) {
	mode := req.Mode
	if mode == "" {
		mode = o.defaultMode
	}

	if err := o.validate(req, mode); err != nil {
		return nil, err
	}

	if o.offline {
		return cannedResult(mode, req.EnableAltOutput), nil
	}

	start := time.Now()

	// Retrieval failure degrades the turn to ungrounded generation; the
	// user still gets an answer, just without note evidence.
	results, err := o.engine.Retrieve(ctx, req.UserID, req.Message, mode)
	if err != nil {
		o.logger.Warn("retrieval failed, continuing without evidence",
			zap.String("user_id", req.UserID),
			zap.String("mode", mode),
			zap.Error(err))
		o.metrics.RecordDegraded(ctx, mode)
		results = nil
	}

	formatted := generation.FormatEvidence(results)

	gen, err := o.generators.ForMode(mode)
	if err != nil {
		// Mode was validated above; reaching this means miswiring.
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	answer, err := gen.Generate(ctx, req.Message, formatted)
	if err != nil {
		o.logger.Error("generation failed",
			zap.String("user_id", req.UserID),
			zap.String("mode", mode),
			zap.Error(err))
		o.metrics.RecordTurn(ctx, mode, time.Since(start), err)
		failed := &Result{
			Message:        Apology,
			RelevantNotes:  toRelevantNotes(results),
			FormattedNotes: formatted,
			Mode:           mode,
			Failed:         true,
		}
		if req.EnableAltOutput {
			failed.CleanResponse = Apology
		}
		return failed, nil
	}

	o.metrics.RecordTurn(ctx, mode, time.Since(start), nil)

	res := &Result{
		Message:        answer,
		RelevantNotes:  toRelevantNotes(results),
		FormattedNotes: formatted,
		Mode:           mode,
	}
	if req.EnableAltOutput {
		res.CleanResponse = generation.CleanAnswer(answer)
	}
	return res, nil
}

func (o *Orchestrator) validate(req Request, mode string) error {
	if req.Message == "" {
		return fmt.Errorf("%w: message required", ErrInvalidRequest)
	}
	if req.UserID == "" {
		return fmt.Errorf("%w: userId required", ErrInvalidRequest)
	}
	if mode != config.ModeOpenAI && mode != config.ModeGemini {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRequest, mode)
	}
	return nil
}

func toRelevantNotes(results []retrieval.Result) []RelevantNote {
	notes := make([]RelevantNote, len(results))
	for i, r := range results {
		notes[i] = RelevantNote{
			Title:      r.Title,
			Content:    r.Content,
			Similarity: r.Similarity,
		}
	}
	return notes
}
