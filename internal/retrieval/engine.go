// Package retrieval runs owner-scoped similarity search over indexed notes.
package retrieval

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/fyrsmithlabs/recalld/internal/vectorstore"
)

var (
	// ErrEmptyQuery indicates an empty or whitespace-only query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrRetrievalFailed indicates the retrieval pipeline failed. Callers
	// degrade to ungrounded generation rather than failing the chat turn.
	ErrRetrievalFailed = errors.New("note retrieval failed")
)

// DefaultTopK is the number of notes retrieved when the caller does not
// specify a count.
const DefaultTopK = 3

// Result is a retrieved note ready for prompt assembly.
type Result struct {
	// NoteID is the stable note identifier.
	NoteID string

	// Title is the note title at index time.
	Title string

	// Content is the note description at index time.
	Content string

	// Similarity is the cosine similarity to the query, higher = closer.
	Similarity float32
}

// Engine embeds a query and searches the caller's slice of the index.
type Engine struct {
	registry *embeddings.Registry
	index    vectorstore.Index
	topK     int
	logger   *zap.Logger
}

// NewEngine creates a retrieval engine. topK <= 0 selects DefaultTopK.
func NewEngine(registry *embeddings.Registry, index vectorstore.Index, topK int, logger *zap.Logger) *Engine {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		registry: registry,
		index:    index,
		topK:     topK,
		logger:   logger.Named("retrieval"),
	}
}

// Retrieve returns up to topK of the user's notes most similar to the
// query, ordered by descending similarity. The query is embedded with the
// provider registered for mode; fewer entries than topK yields a shorter
// result, never padding.
func (e *Engine) Retrieve(ctx context.Context, userID, query, mode string) ([]Result, error) {
	if query == "" {
		return nil, ErrEmptyQuery
	}

	provider, err := e.registry.ForMode(mode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	vector, err := provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding query: %v", ErrRetrievalFailed, err)
	}

	ctx = vectorstore.ContextWithOwner(ctx, userID)
	matches, err := e.index.Query(ctx, vector, e.topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	results := make([]Result, len(matches))
	for i, m := range matches {
		results[i] = Result{
			NoteID:     m.ID,
			Title:      m.Metadata.Title,
			Content:    m.Metadata.Description,
			Similarity: m.Score,
		}
	}

	e.logger.Debug("retrieved notes",
		zap.String("user_id", userID),
		zap.String("mode", mode),
		zap.Int("count", len(results)))

	return results, nil
}
