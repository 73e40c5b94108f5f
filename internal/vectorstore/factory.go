package vectorstore

import (
	"fmt"

	"github.com/fyrsmithlabs/recalld/internal/config"
	"go.uber.org/zap"
)

// NewIndex creates an Index based on the configuration.
//
// The factory examines VectorStoreConfig.Provider:
//   - "chromem" (default): embedded ChromemIndex, no external service
//   - "qdrant": QdrantIndex, requires a reachable Qdrant server
//
// Both implementations enforce fail-closed owner isolation; operations
// without owner context return ErrMissingOwner.
func NewIndex(cfg *config.Config, logger *zap.Logger) (Index, error) {
	switch cfg.VectorStore.Provider {
	case "chromem", "":
		path, err := config.ExpandPath(cfg.VectorStore.Path)
		if err != nil {
			return nil, fmt.Errorf("expanding vectorstore path: %w", err)
		}
		return NewChromemIndex(ChromemConfig{
			Path:       path,
			Collection: cfg.VectorStore.Collection,
			Dimension:  cfg.Embeddings.Dimension,
		}, logger)
	case "qdrant":
		return NewQdrantIndex(QdrantConfig{
			Host:       cfg.VectorStore.QdrantHost,
			Port:       cfg.VectorStore.QdrantPort,
			APIKey:     cfg.VectorStore.QdrantAPIKey.Value(),
			UseTLS:     cfg.VectorStore.QdrantUseTLS,
			Collection: cfg.VectorStore.Collection,
			Dimension:  cfg.Embeddings.Dimension,
		})
	default:
		return nil, fmt.Errorf("%w: unknown vectorstore provider %q", ErrInvalidConfig, cfg.VectorStore.Provider)
	}
}
