package vectorstore

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/grpc"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Tracer for OpenTelemetry instrumentation.
var qdrantTracer = otel.Tracer("recalld.vectorstore.qdrant")

// QdrantConfig holds configuration for the Qdrant gRPC client.
type QdrantConfig struct {
	// Host is the Qdrant server hostname or IP address.
	// Default: "localhost"
	Host string

	// Port is the Qdrant gRPC port (NOT the HTTP REST port).
	// Default: 6334
	Port int

	// APIKey authenticates against managed Qdrant deployments. Optional.
	APIKey string

	// Collection is the collection holding note vectors.
	Collection string

	// Dimension is the fixed vector dimensionality.
	Dimension int

	// UseTLS enables TLS encryption for the gRPC connection.
	UseTLS bool

	// MaxRetries is the maximum number of retry attempts for transient
	// failures. Default: 3
	MaxRetries int

	// RetryBackoff is the initial backoff duration for retries, doubling
	// each attempt. Default: 1s
	RetryBackoff time.Duration
}

// ApplyDefaults sets default values for unset fields.
func (c *QdrantConfig) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 6334
	}
	if c.Collection == "" {
		c.Collection = "notes"
	}
	if c.Dimension == 0 {
		c.Dimension = 1536
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = time.Second
	}
}

// Validate validates the configuration.
func (c QdrantConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host required", ErrInvalidConfig)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, c.Port)
	}
	if c.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidConfig)
	}
	return ValidateCollectionName(c.Collection)
}

// isTransientError checks if a gRPC error should be retried.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return false
	}
	switch st.Code() {
	case grpccodes.Unavailable, grpccodes.DeadlineExceeded, grpccodes.Aborted, grpccodes.ResourceExhausted:
		return true
	default:
		return false
	}
}

// QdrantIndex implements Index using Qdrant's native gRPC client.
//
// Qdrant point ids must be integers or UUIDs, so note ids are mapped to
// deterministic SHA1-derived UUIDs; the original note id is preserved in the
// payload for retrieval and deletion. The deterministic mapping is what makes
// upserts of the same note id overwrite the prior point.
type QdrantIndex struct {
	client *qdrant.Client
	config QdrantConfig
}

// NewQdrantIndex creates a QdrantIndex, verifies connectivity, and ensures
// the collection exists with cosine distance at the configured dimension.
func NewQdrantIndex(config QdrantConfig) (*QdrantIndex, error) {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if !config.UseTLS {
		fmt.Fprintf(os.Stderr, "WARNING: Qdrant gRPC using plaintext (TLS disabled). Insecure for production.\n")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   config.Host,
		Port:   config.Port,
		APIKey: config.APIKey,
		UseTLS: config.UseTLS,
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(
				grpc.MaxCallRecvMsgSize(50 * 1024 * 1024),
				grpc.MaxCallSendMsgSize(50 * 1024 * 1024),
			),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	idx := &QdrantIndex{
		client: client,
		config: config,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.HealthCheck(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: health check: %v", ErrConnectionFailed, err)
	}

	if err := idx.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return idx, nil
}

// ensureCollection creates the notes collection if it does not exist.
func (i *QdrantIndex) ensureCollection(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, i.config.Collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", i.config.Collection, err)
	}
	if exists {
		return nil
	}
	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.config.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(i.config.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", i.config.Collection, err)
	}
	return nil
}

// pointID maps a note id to a deterministic Qdrant UUID point id.
func pointID(noteID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(noteID)).String())
}

// retryOperation retries an operation with exponential backoff on
// transient gRPC failures.
func (i *QdrantIndex) retryOperation(ctx context.Context, operationName string, operation func() error) error {
	backoff := i.config.RetryBackoff

	for attempt := 0; attempt <= i.config.MaxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}
		if !isTransientError(err) {
			return fmt.Errorf("%s failed (permanent): %w", operationName, err)
		}
		if attempt == i.config.MaxRetries {
			return fmt.Errorf("%s failed after %d retries: %w", operationName, i.config.MaxRetries, err)
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s canceled: %w", operationName, ctx.Err())
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil
}

// Upsert stores entries, replacing any existing point with the same note id.
func (i *QdrantIndex) Upsert(ctx context.Context, entries []Entry) error {
	ctx, span := qdrantTracer.Start(ctx, "QdrantIndex.Upsert")
	defer span.End()

	span.SetAttributes(
		attribute.Int("entry_count", len(entries)),
		attribute.String("collection", i.config.Collection),
	)

	if len(entries) == 0 {
		return ErrEmptyEntries
	}

	owner, err := OwnerFromContext(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for n, entry := range entries {
		if entry.ID == "" {
			return fmt.Errorf("entry at index %d has empty id", n)
		}
		if len(entry.Vector) != i.config.Dimension {
			return fmt.Errorf("%w: entry %s has %d dims, index expects %d",
				ErrDimensionMismatch, entry.ID, len(entry.Vector), i.config.Dimension)
		}
		entry.Metadata.UserID = owner

		payload := make(map[string]*qdrant.Value)
		for k, v := range entry.Metadata.toPayload(entry.ID) {
			payload[k] = qdrant.NewValueString(v)
		}

		points[n] = &qdrant.PointStruct{
			Id:      pointID(entry.ID),
			Vectors: qdrant.NewVectors(entry.Vector...),
			Payload: payload,
		}
	}

	err = i.retryOperation(ctx, "upsert", func() error {
		_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: i.config.Collection,
			Points:         points,
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("upserting points to collection %s: %w", i.config.Collection, err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Query performs similarity search scoped to the owner in ctx.
func (i *QdrantIndex) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	ctx, span := qdrantTracer.Start(ctx, "QdrantIndex.Query")
	defer span.End()

	span.SetAttributes(
		attribute.String("collection", i.config.Collection),
		attribute.Int("top_k", topK),
	)

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

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch(keyUserID, owner),
		},
	}

	var results []*qdrant.ScoredPoint
	err = i.retryOperation(ctx, "query", func() error {
		res, err := i.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: i.config.Collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(topK)),
			WithPayload:    qdrant.NewWithPayload(true),
			Filter:         filter,
		})
		if err != nil {
			return err
		}
		results = res
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: searching collection %s: %v", ErrQueryFailed, i.config.Collection, err)
	}

	matches := make([]Match, len(results))
	for n, point := range results {
		payload := make(map[string]string, len(point.Payload))
		for k, v := range point.Payload {
			payload[k] = v.GetStringValue()
		}
		matches[n] = Match{
			ID:       payload[keyNoteID],
			Score:    point.Score,
			Metadata: metadataFromPayload(payload),
		}
	}

	span.SetAttributes(attribute.Int("results_count", len(matches)))
	span.SetStatus(codes.Ok, "success")
	return matches, nil
}

// Delete removes points by note id via a payload filter; missing ids
// simply match nothing.
func (i *QdrantIndex) Delete(ctx context.Context, ids ...string) error {
	ctx, span := qdrantTracer.Start(ctx, "QdrantIndex.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.Int("id_count", len(ids)),
		attribute.String("collection", i.config.Collection),
	)

	if len(ids) == 0 {
		return nil
	}

	err := i.retryOperation(ctx, "delete", func() error {
		_, err := i.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: i.config.Collection,
			Points: &qdrant.PointsSelector{
				PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
					Filter: &qdrant.Filter{
						Must: []*qdrant.Condition{
							{
								ConditionOneOf: &qdrant.Condition_Field{
									Field: &qdrant.FieldCondition{
										Key: keyNoteID,
										Match: &qdrant.Match{
											MatchValue: &qdrant.Match_Keywords{
												Keywords: &qdrant.RepeatedStrings{Strings: ids},
											},
										},
									},
								},
							},
						},
					},
				},
			},
		})
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting from collection %s: %w", i.config.Collection, err)
	}

	span.SetStatus(codes.Ok, "success")
	return nil
}

// Close closes the Qdrant gRPC connection.
func (i *QdrantIndex) Close() error {
	if i.client != nil {
		return i.client.Close()
	}
	return nil
}

// Ensure QdrantIndex implements Index.
var _ Index = (*QdrantIndex)(nil)
