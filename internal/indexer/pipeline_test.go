package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/fyrsmithlabs/recalld/internal/notes"
	"github.com/fyrsmithlabs/recalld/internal/vectorstore"
)

type recordingIndex struct {
	mu        sync.Mutex
	upserts   []vectorstore.Entry
	deletes   []string
	upsertErr error
	done      chan struct{}
}

func newRecordingIndex() *recordingIndex {
	return &recordingIndex{done: make(chan struct{}, 10)}
}

func (r *recordingIndex) Upsert(ctx context.Context, entries []vectorstore.Entry) error {
	if _, err := vectorstore.OwnerFromContext(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done <- struct{}{} }()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserts = append(r.upserts, entries...)
	return nil
}

func (r *recordingIndex) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	return nil, nil
}

func (r *recordingIndex) Delete(ctx context.Context, ids ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() { r.done <- struct{}{} }()
	r.deletes = append(r.deletes, ids...)
	return nil
}

func (r *recordingIndex) Close() error { return nil }

func (r *recordingIndex) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for background sync")
	}
}

func newTestPipeline(index vectorstore.Index) *Pipeline {
	registry := embeddings.NewRegistryWith(map[string]embeddings.Provider{
		config.ModeOpenAI: embeddings.NewNullProvider(8),
	})
	return NewPipeline(registry, index, nil)
}

func testNote() *notes.Note {
	return &notes.Note{
		ID:          "n1",
		UserID:      "u1",
		Title:       "wedding",
		Description: "attended on 14 Dec",
		CreatedAt:   time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestIndexNote(t *testing.T) {
	index := newRecordingIndex()
	p := newTestPipeline(index)

	require.NoError(t, p.IndexNote(context.Background(), testNote(), config.ModeOpenAI))
	require.Len(t, index.upserts, 1)

	e := index.upserts[0]
	assert.Equal(t, "n1", e.ID)
	assert.Len(t, e.Vector, 8)
	assert.Equal(t, "u1", e.Metadata.UserID)
	assert.Equal(t, "wedding", e.Metadata.Title)
	assert.Equal(t, "attended on 14 Dec", e.Metadata.Description)
	assert.NotEmpty(t, e.Metadata.CreatedAt)
}

func TestIndexNote_InvalidNote(t *testing.T) {
	p := newTestPipeline(newRecordingIndex())

	err := p.IndexNote(context.Background(), &notes.Note{ID: "n1"}, config.ModeOpenAI)
	assert.ErrorIs(t, err, ErrIndexSync)
}

func TestIndexNote_UnknownMode(t *testing.T) {
	p := newTestPipeline(newRecordingIndex())

	err := p.IndexNote(context.Background(), testNote(), "Z")
	assert.ErrorIs(t, err, ErrIndexSync)
}

func TestIndexNote_UpsertFailure(t *testing.T) {
	index := newRecordingIndex()
	index.upsertErr = errors.New("backend down")
	p := newTestPipeline(index)

	err := p.IndexNote(context.Background(), testNote(), config.ModeOpenAI)
	assert.ErrorIs(t, err, ErrIndexSync)
}

func TestDeleteNote(t *testing.T) {
	index := newRecordingIndex()
	p := newTestPipeline(index)

	require.NoError(t, p.DeleteNote(context.Background(), "u1", "n1"))
	assert.Equal(t, []string{"n1"}, index.deletes)
}

func TestDispatchIndex_Background(t *testing.T) {
	index := newRecordingIndex()
	p := newTestPipeline(index)

	p.DispatchIndex(testNote(), config.ModeOpenAI)
	index.wait(t)

	index.mu.Lock()
	defer index.mu.Unlock()
	require.Len(t, index.upserts, 1)
	assert.Equal(t, "n1", index.upserts[0].ID)
}

func TestDispatchIndex_FailureDoesNotPanic(t *testing.T) {
	index := newRecordingIndex()
	index.upsertErr = errors.New("backend down")
	p := newTestPipeline(index)

	// Failure is swallowed; the caller never sees it.
	p.DispatchIndex(testNote(), config.ModeOpenAI)
	index.wait(t)
}

func TestDispatchDelete_Background(t *testing.T) {
	index := newRecordingIndex()
	p := newTestPipeline(index)

	p.DispatchDelete("u1", "n1")
	index.wait(t)

	index.mu.Lock()
	defer index.mu.Unlock()
	assert.Equal(t, []string{"n1"}, index.deletes)
}
