package vectorstore

import (
	"context"
	"fmt"
	"os"
	"regexp"

	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// chromemTracer for OpenTelemetry instrumentation.
var chromemTracer = otel.Tracer("recalld.vectorstore.chromem")

// collectionNamePattern validates collection names.
// Pattern: lowercase letters, numbers, underscores, 1-64 characters.
var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateCollectionName validates a collection name against naming rules.
// Rejects uppercase, special chars, path traversal, spaces.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match pattern ^[a-z0-9_]{1,64}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}

// ChromemConfig holds configuration for the chromem-go embedded index.
type ChromemConfig struct {
	// Path is the directory for persistent storage.
	Path string

	// Compress enables gzip compression for stored data.
	Compress bool

	// Collection is the collection name holding note vectors.
	// Default: "notes"
	Collection string

	// Dimension is the fixed vector dimensionality. Every stored or
	// queried vector must already have exactly this length.
	// Default: 1536
	Dimension int
}

// ApplyDefaults sets default values for unset fields.
func (c *ChromemConfig) ApplyDefaults() {
	if c.Collection == "" {
		c.Collection = "notes"
	}
	if c.Dimension == 0 {
		c.Dimension = 1536
	}
}

// Validate validates the configuration.
func (c *ChromemConfig) Validate() error {
	if c.Path == "" {
		return fmt.Errorf("%w: path required", ErrInvalidConfig)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return ValidateCollectionName(c.Collection)
}

// ChromemIndex implements Index using chromem-go.
//
// chromem-go is an embeddable vector database with zero third-party
// dependencies: pure Go, no external service, automatic persistence to gob
// files, exact cosine similarity search. Vectors are supplied precomputed,
// so the collection's embedding function is never invoked.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	config     ChromemConfig
	logger     *zap.Logger
}

// NewChromemIndex creates a ChromemIndex with the given configuration.
// The backing collection is created eagerly so queries against an empty
// index return zero matches instead of a missing-collection error.
func NewChromemIndex(config ChromemConfig, logger *zap.Logger) (*ChromemIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if err := os.MkdirAll(config.Path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", config.Path, err)
	}

	db, err := chromem.NewPersistentDB(config.Path, config.Compress)
	if err != nil {
		return nil, fmt.Errorf("%w: creating chromem DB: %v", ErrConnectionFailed, err)
	}

	// Must pass an embedding function: chromem-go falls back to its OpenAI
	// default when nil is passed for persisted collections.
	collection, err := db.GetOrCreateCollection(config.Collection, nil, rejectEmbeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("getting/creating collection %s: %w", config.Collection, err)
	}

	idx := &ChromemIndex{
		db:         db,
		collection: collection,
		config:     config,
		logger:     logger,
	}

	logger.Info("chromem index initialized",
		zap.String("path", config.Path),
		zap.String("collection", config.Collection),
		zap.Int("dimension", config.Dimension),
	)

	return idx, nil
}

// rejectEmbeddingFunc guards against accidental text-based operations.
// All vectors enter the index precomputed and dimension-normalized.
func rejectEmbeddingFunc(ctx context.Context, text string) ([]float32, error) {
	return nil, fmt.Errorf("index stores precomputed vectors; embedding requested for %d bytes of text", len(text))
}

// Upsert stores entries, replacing any existing entry with the same id.
func (i *ChromemIndex) Upsert(ctx context.Context, entries []Entry) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Upsert")
	defer span.End()

	span.SetAttributes(attribute.Int("entry_count", len(entries)))

	if len(entries) == 0 {
		return ErrEmptyEntries
	}

	owner, err := OwnerFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	docs := make([]chromem.Document, len(entries))
	for n, entry := range entries {
		if entry.ID == "" {
			return fmt.Errorf("entry at index %d has empty id", n)
		}
		if len(entry.Vector) != i.config.Dimension {
			return fmt.Errorf("%w: entry %s has %d dims, index expects %d",
				ErrDimensionMismatch, entry.ID, len(entry.Vector), i.config.Dimension)
		}
		// Owner from context wins over whatever the caller set.
		entry.Metadata.UserID = owner
		docs[n] = chromem.Document{
			ID:        entry.ID,
			Content:   entry.Metadata.Title + " " + entry.Metadata.Description,
			Metadata:  entry.Metadata.toPayload(entry.ID),
			Embedding: entry.Vector,
		}
	}

	// Concurrency of 1: embeddings are already present, nothing to compute.
	if err := i.collection.AddDocuments(ctx, docs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("adding documents: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	i.logger.Debug("upserted entries to chromem",
		zap.String("collection", i.config.Collection),
		zap.Int("count", len(entries)),
	)
	return nil
}

// Query performs similarity search scoped to the owner in ctx.
func (i *ChromemIndex) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Query")
	defer span.End()

	span.SetAttributes(attribute.Int("top_k", topK))

	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if len(vector) != i.config.Dimension {
		return nil, fmt.Errorf("%w: query vector has %d dims, index expects %d",
			ErrDimensionMismatch, len(vector), i.config.Dimension)
	}

	owner, err := OwnerFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	// chromem requires nResults <= stored document count.
	docCount := i.collection.Count()
	if docCount == 0 {
		return []Match{}, nil
	}
	if topK > docCount {
		topK = docCount
	}

	results, err := i.collection.QueryEmbedding(ctx, vector, topK, map[string]string{keyUserID: owner}, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	matches := make([]Match, len(results))
	for n, r := range results {
		matches[n] = Match{
			ID:       r.ID,
			Score:    r.Similarity,
			Metadata: metadataFromPayload(r.Metadata),
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(matches)))
	span.SetStatus(codes.Ok, "success")
	return matches, nil
}

// Delete removes entries by note id. Missing ids are ignored.
func (i *ChromemIndex) Delete(ctx context.Context, ids ...string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemIndex.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int("id_count", len(ids)))

	if len(ids) == 0 {
		return nil
	}

	if err := i.collection.Delete(ctx, nil, nil, ids...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting documents: %w", err)
	}

	span.SetStatus(codes.Ok, "success")
	i.logger.Debug("deleted entries from chromem",
		zap.String("collection", i.config.Collection),
		zap.Int("count", len(ids)),
	)
	return nil
}

// Close closes the index.
// chromem-go persists on every write; no explicit close needed.
func (i *ChromemIndex) Close() error {
	i.logger.Info("chromem index closed")
	return nil
}

// Ensure ChromemIndex implements Index.
var _ Index = (*ChromemIndex)(nil)
