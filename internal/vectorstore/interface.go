// Package vectorstore provides the note vector index.
//
// The index holds one vector per note, keyed by note id, with a denormalized
// metadata snapshot used for filtering and for returning human-readable
// results without a secondary lookup. Entries are a derived cache, not a
// source of truth: if lost, they are rebuilt by replaying notes through the
// indexing pipeline.
//
// Owner Isolation:
//
// Every query is filtered by the owning user. Callers MUST provide owner
// context; a query without it fails closed with ErrMissingOwner rather than
// returning cross-user rows:
//
//	ctx = vectorstore.ContextWithOwner(ctx, "user-123")
//	matches, err := index.Query(ctx, vector, 3)
//
// Implementations:
//   - ChromemIndex: embedded chromem-go (default)
//   - QdrantIndex: external Qdrant gRPC client
package vectorstore

import (
	"context"
	"errors"
)

// Sentinel errors for vector index operations.
var (
	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyEntries indicates empty or nil entries.
	ErrEmptyEntries = errors.New("empty or nil entries")

	// ErrDimensionMismatch indicates a vector whose length does not match
	// the index's configured dimensionality.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrConnectionFailed indicates the index backend is unreachable.
	ErrConnectionFailed = errors.New("failed to connect to vector index")

	// ErrQueryFailed indicates a similarity query failure.
	ErrQueryFailed = errors.New("vector query failed")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// Index is the interface for note vector storage.
//
// Upsert is idempotent: an entry with an existing id replaces the prior
// entry. Delete of a nonexistent id is not an error. Query returns up to
// topK matches ordered by descending cosine similarity, always filtered to
// the owner carried in ctx.
type Index interface {
	// Upsert stores entries, replacing any existing entry with the same id.
	// The owner from ctx is stamped into each entry's metadata; entries
	// cannot be written under a different user than the caller's scope.
	Upsert(ctx context.Context, entries []Entry) error

	// Query performs nearest-neighbor search over the caller's own entries.
	// Results are ordered by descending similarity, length <= topK.
	Query(ctx context.Context, vector []float32, topK int) ([]Match, error)

	// Delete removes entries by note id. Missing ids are ignored.
	Delete(ctx context.Context, ids ...string) error

	// Close releases resources held by the index.
	Close() error
}
