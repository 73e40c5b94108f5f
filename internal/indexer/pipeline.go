// Package indexer keeps the vector index in sync with note mutations.
//
// Synchronization is best effort and asynchronous: note saves succeed even
// when embedding or index writes fail, and failures surface only in logs
// and metrics. The index is rebuilt by replaying notes, so a dropped sync
// is stale retrieval, not data loss.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/fyrsmithlabs/recalld/internal/notes"
	"github.com/fyrsmithlabs/recalld/internal/vectorstore"
)

// ErrIndexSync indicates a note could not be synced to the vector index.
var ErrIndexSync = errors.New("note index sync failed")

// syncTimeout bounds background sync work so a hung backend cannot leak
// goroutines indefinitely.
const syncTimeout = 30 * time.Second

// Pipeline embeds note content and writes it to the vector index.
type Pipeline struct {
	registry *embeddings.Registry
	index    vectorstore.Index
	logger   *zap.Logger
	metrics  *Metrics
}

// NewPipeline creates an indexing pipeline.
func NewPipeline(registry *embeddings.Registry, index vectorstore.Index, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		registry: registry,
		index:    index,
		logger:   logger.Named("indexer"),
		metrics:  NewMetrics(logger),
	}
}

// IndexNote embeds a note and upserts it into the index. The embedded text
// is the note title and description joined with a space; the stored entry
// carries a metadata snapshot for owner filtering and display.
func (p *Pipeline) IndexNote(ctx context.Context, note *notes.Note, mode string) error {
	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexSync, err)
	}

	provider, err := p.registry.ForMode(mode)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIndexSync, err)
	}

	vector, err := provider.EmbedQuery(ctx, note.EmbeddingText())
	if err != nil {
		return fmt.Errorf("%w: embedding note %s: %v", ErrIndexSync, note.ID, err)
	}

	entry := vectorstore.Entry{
		ID:     note.ID,
		Vector: vector,
		Metadata: vectorstore.Metadata{
			UserID:      note.UserID,
			Title:       note.Title,
			Description: note.Description,
			CreatedAt:   note.CreatedAt.Format(time.RFC3339Nano),
			UpdatedAt:   note.UpdatedAt.Format(time.RFC3339Nano),
		},
	}

	ctx = vectorstore.ContextWithOwner(ctx, note.UserID)
	if err := p.index.Upsert(ctx, []vectorstore.Entry{entry}); err != nil {
		return fmt.Errorf("%w: upserting note %s: %v", ErrIndexSync, note.ID, err)
	}
	return nil
}

// DeleteNote removes a note's entry from the index. Missing entries are
// not an error.
func (p *Pipeline) DeleteNote(ctx context.Context, userID, noteID string) error {
	ctx = vectorstore.ContextWithOwner(ctx, userID)
	if err := p.index.Delete(ctx, noteID); err != nil {
		return fmt.Errorf("%w: deleting note %s: %v", ErrIndexSync, noteID, err)
	}
	return nil
}

// DispatchIndex runs IndexNote in the background. The caller's request
// completes regardless of the outcome; failures are logged and counted.
func (p *Pipeline) DispatchIndex(note *notes.Note, mode string) {
	n := *note
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		start := time.Now()
		err := p.IndexNote(ctx, &n, mode)
		p.metrics.RecordSync(ctx, "index", time.Since(start), err)
		if err != nil {
			p.logger.Error("background note indexing failed",
				zap.String("note_id", n.ID),
				zap.String("user_id", n.UserID),
				zap.String("mode", mode),
				zap.Error(err))
		}
	}()
}

// DispatchDelete runs DeleteNote in the background.
func (p *Pipeline) DispatchDelete(userID, noteID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		start := time.Now()
		err := p.DeleteNote(ctx, userID, noteID)
		p.metrics.RecordSync(ctx, "delete", time.Since(start), err)
		if err != nil {
			p.logger.Error("background note deletion failed",
				zap.String("note_id", noteID),
				zap.String("user_id", userID),
				zap.Error(err))
		}
	}()
}
