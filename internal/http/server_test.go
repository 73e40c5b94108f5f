package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/recalld/internal/chat"
	"github.com/fyrsmithlabs/recalld/internal/config"
	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/fyrsmithlabs/recalld/internal/generation"
	"github.com/fyrsmithlabs/recalld/internal/indexer"
	"github.com/fyrsmithlabs/recalld/internal/notes"
	"github.com/fyrsmithlabs/recalld/internal/retrieval"
	"github.com/fyrsmithlabs/recalld/internal/vectorstore"
)

// memoryIndex is an in-memory vectorstore.Index that records operations.
type memoryIndex struct {
	mu      sync.Mutex
	entries map[string]vectorstore.Entry
	deletes []string
	queries int
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{entries: make(map[string]vectorstore.Entry)}
}

func (m *memoryIndex) Upsert(ctx context.Context, entries []vectorstore.Entry) error {
	if _, err := vectorstore.OwnerFromContext(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return nil
}

func (m *memoryIndex) Query(ctx context.Context, vector []float32, topK int) ([]vectorstore.Match, error) {
	owner, err := vectorstore.OwnerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries++
	var matches []vectorstore.Match
	for id, e := range m.entries {
		if e.Metadata.UserID != owner {
			continue
		}
		matches = append(matches, vectorstore.Match{ID: id, Score: 0.9, Metadata: e.Metadata})
		if len(matches) == topK {
			break
		}
	}
	return matches, nil
}

func (m *memoryIndex) Delete(ctx context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
		m.deletes = append(m.deletes, id)
	}
	return nil
}

func (m *memoryIndex) Close() error { return nil }

func (m *memoryIndex) get(id string) (vectorstore.Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	return e, ok
}

func newTestServer(t *testing.T, index vectorstore.Index, offline bool) *Server {
	t.Helper()
	logger := zap.NewNop()

	registry := embeddings.NewRegistryWith(map[string]embeddings.Provider{
		config.ModeOpenAI: embeddings.NewNullProvider(16),
		config.ModeGemini: embeddings.NewNullProvider(16),
	})
	generators := generation.NewRegistryWith(map[string]generation.Generator{
		config.ModeOpenAI: generation.NewNullGenerator(),
		config.ModeGemini: generation.NewNullGenerator(),
	})

	cfg := &config.Config{}
	cfg.App.Offline = offline
	cfg.App.DefaultMode = config.ModeOpenAI

	engine := retrieval.NewEngine(registry, index, 3, logger)
	orchestrator := chat.NewOrchestrator(engine, generators, cfg, logger)
	pipeline := indexer.NewPipeline(registry, index, logger)

	store, err := notes.NewStore(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := NewServer(orchestrator, store, pipeline, logger, &Config{
		Host:        "localhost",
		Port:        0,
		DefaultMode: config.ModeOpenAI,
	})
	require.NoError(t, err)
	return s
}

func do(s *Server, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, newMemoryIndex(), false)

	rec := do(s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestChatEndpoint_Offline(t *testing.T) {
	s := newTestServer(t, newMemoryIndex(), true)

	rec := do(s, http.MethodPost, "/chat", `{"message":"what did I do?","userId":"u1","modelMode":"A"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var res chat.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Contains(t, res.Message, "Mahesh's wedding")
	require.Len(t, res.RelevantNotes, 1)
	assert.Equal(t, "wedding attempt", res.RelevantNotes[0].Title)
	assert.Equal(t, "A", res.Mode)
}

func TestChatEndpoint_Validation(t *testing.T) {
	index := newMemoryIndex()
	s := newTestServer(t, index, false)

	rec := do(s, http.MethodPost, "/chat", `{"userId":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "message required")

	rec = do(s, http.MethodPost, "/chat", `{"message":"hi","userId":"u1","modelMode":"Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bad requests never hit the index.
	index.mu.Lock()
	defer index.mu.Unlock()
	assert.Zero(t, index.queries)
}

func TestChatEndpoint_GenerationFailureIsApology(t *testing.T) {
	logger := zap.NewNop()
	index := newMemoryIndex()

	registry := embeddings.NewRegistryWith(map[string]embeddings.Provider{
		config.ModeOpenAI: embeddings.NewNullProvider(16),
	})
	generators := generation.NewRegistryWith(map[string]generation.Generator{
		config.ModeOpenAI: failingGenerator{},
	})
	cfg := &config.Config{}
	cfg.App.DefaultMode = config.ModeOpenAI

	engine := retrieval.NewEngine(registry, index, 3, logger)
	orchestrator := chat.NewOrchestrator(engine, generators, cfg, logger)
	pipeline := indexer.NewPipeline(registry, index, logger)
	store, err := notes.NewStore(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	s, err := NewServer(orchestrator, store, pipeline, logger, nil)
	require.NoError(t, err)

	rec := do(s, http.MethodPost, "/chat", `{"message":"hi","userId":"u1","modelMode":"A"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), chat.Apology)
	// Upstream detail never leaks.
	assert.NotContains(t, rec.Body.String(), "rate limit")
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string, string) (string, error) {
	return "", generation.ErrGenerationFailed
}
func (failingGenerator) Close() error { return nil }

func TestIndexEndpoint_Upsert(t *testing.T) {
	index := newMemoryIndex()
	s := newTestServer(t, index, false)

	body := `{"id":"n1","user_id":"u1","title":"trip","description":"flight at 9am"}`
	rec := do(s, http.MethodPost, "/index", body)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":true`)

	entry, ok := index.get("n1")
	require.True(t, ok)
	assert.Equal(t, "u1", entry.Metadata.UserID)
	assert.Equal(t, "trip", entry.Metadata.Title)
	assert.Len(t, entry.Vector, 16)

	// PUT routes to the same upsert.
	rec = do(s, http.MethodPut, "/index", `{"id":"n1","user_id":"u1","title":"trip v2","description":"x"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	entry, _ = index.get("n1")
	assert.Equal(t, "trip v2", entry.Metadata.Title)
}

func TestIndexEndpoint_UpsertValidation(t *testing.T) {
	s := newTestServer(t, newMemoryIndex(), false)

	rec := do(s, http.MethodPost, "/index", `{"id":"n1","title":"missing user"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndexEndpoint_DeleteIdempotent(t *testing.T) {
	index := newMemoryIndex()
	s := newTestServer(t, index, false)

	do(s, http.MethodPost, "/index", `{"id":"n1","user_id":"u1","title":"t","description":"d"}`)

	rec := do(s, http.MethodDelete, "/index", `{"noteId":"n1","userId":"u1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, ok := index.get("n1")
	assert.False(t, ok)

	// Deleting again still succeeds.
	rec = do(s, http.MethodDelete, "/index", `{"noteId":"n1","userId":"u1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNotesEndpoint_CRUD(t *testing.T) {
	s := newTestServer(t, newMemoryIndex(), false)

	rec := do(s, http.MethodPost, "/api/v1/notes", `{"userId":"u1","title":"groceries","description":"milk"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created notes.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	rec = do(s, http.MethodGet, "/api/v1/notes/"+created.ID+"?userId=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "groceries")

	rec = do(s, http.MethodPut, "/api/v1/notes/"+created.ID, `{"userId":"u1","title":"groceries v2","description":"milk, eggs"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/notes?userId=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "groceries v2")

	rec = do(s, http.MethodDelete, "/api/v1/notes/"+created.ID+"?userId=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(s, http.MethodGet, "/api/v1/notes/"+created.ID+"?userId=u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotesEndpoint_OtherUserCannotRead(t *testing.T) {
	s := newTestServer(t, newMemoryIndex(), false)

	rec := do(s, http.MethodPost, "/api/v1/notes", `{"userId":"alice","title":"secret","description":"x"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created notes.Note
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = do(s, http.MethodGet, "/api/v1/notes/"+created.ID+"?userId=bob", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
