// Package config provides configuration loading for recalld.
//
// Configuration is loaded from an optional YAML file with environment
// variable overrides. See LoadWithFile for precedence rules.
package config

import (
	"fmt"
	"time"
)

// Backend mode wire values for the chat API.
const (
	ModeOpenAI = "A"
	ModeGemini = "B"
)

// Config holds the complete recalld configuration.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	App         AppConfig         `koanf:"app"`
	Notes       NotesConfig       `koanf:"notes"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	Generation  GenerationConfig  `koanf:"generation"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Logging     LoggingConfig     `koanf:"logging"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"http_port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// AppConfig holds chat pipeline configuration.
type AppConfig struct {
	// Offline short-circuits every network-bound component and serves
	// canned responses. This is the single development-mode flag; nothing
	// else gates mock behavior.
	Offline bool `koanf:"offline"`

	// DefaultMode is the backend pair used when a chat request omits
	// modelMode. "A" = OpenAI, "B" = Gemini.
	DefaultMode string `koanf:"default_mode"`

	// TopK is the default number of notes retrieved per chat turn.
	TopK int `koanf:"top_k"`
}

// NotesConfig holds the note store configuration.
type NotesConfig struct {
	// Path is the SQLite database file. Default: ~/.config/recalld/notes.db
	Path string `koanf:"path"`
}

// EmbeddingsConfig holds embedding backend configuration.
type EmbeddingsConfig struct {
	// Dimension is the fixed index dimensionality. Every vector is padded
	// or truncated to this length before storage or query.
	Dimension int `koanf:"dimension"`

	OpenAIAPIKey Secret `koanf:"openai_api_key"`
	OpenAIModel  string `koanf:"openai_model"`
	GoogleAPIKey Secret `koanf:"google_api_key"`
	GoogleModel  string `koanf:"google_model"`
}

// GenerationConfig holds text-generation backend configuration.
type GenerationConfig struct {
	OpenAIModel string `koanf:"openai_model"`
	GoogleModel string `koanf:"google_model"`
}

// VectorStoreConfig holds vector index configuration.
type VectorStoreConfig struct {
	// Provider selects the backend: "chromem" (embedded) or "qdrant".
	Provider string `koanf:"provider"`

	// Path is the chromem persistence directory.
	Path string `koanf:"path"`

	// Collection is the collection name holding note vectors.
	Collection string `koanf:"collection"`

	QdrantHost   string `koanf:"qdrant_host"`
	QdrantPort   int    `koanf:"qdrant_port"`
	QdrantUseTLS bool   `koanf:"qdrant_use_tls"`
	QdrantAPIKey Secret `koanf:"qdrant_api_key"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the encoder: "json" or "console".
	Format string `koanf:"format"`
}

// TelemetryConfig holds OpenTelemetry export configuration.
type TelemetryConfig struct {
	Enabled        bool     `koanf:"enabled"`
	Endpoint       string   `koanf:"endpoint"`
	ServiceName    string   `koanf:"service_name"`
	ServiceVersion string   `koanf:"service_version"`
	Insecure       bool     `koanf:"insecure"`
	ShutdownGrace  Duration `koanf:"shutdown_grace"`
}

// applyDefaults fills unset fields with production-ready defaults.
func applyDefaults(c *Config) {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(10 * time.Second)
	}
	if c.App.DefaultMode == "" {
		c.App.DefaultMode = ModeOpenAI
	}
	if c.App.TopK == 0 {
		c.App.TopK = 3
	}
	if c.Notes.Path == "" {
		c.Notes.Path = "~/.config/recalld/notes.db"
	}
	if c.Embeddings.Dimension == 0 {
		c.Embeddings.Dimension = 1536
	}
	if c.Embeddings.OpenAIModel == "" {
		c.Embeddings.OpenAIModel = "text-embedding-ada-002"
	}
	if c.Embeddings.GoogleModel == "" {
		c.Embeddings.GoogleModel = "text-embedding-004"
	}
	if c.Generation.OpenAIModel == "" {
		c.Generation.OpenAIModel = "gpt-3.5-turbo"
	}
	if c.Generation.GoogleModel == "" {
		c.Generation.GoogleModel = "gemini-1.5-flash"
	}
	if c.VectorStore.Provider == "" {
		c.VectorStore.Provider = "chromem"
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = "~/.config/recalld/vectorstore"
	}
	if c.VectorStore.Collection == "" {
		c.VectorStore.Collection = "notes"
	}
	if c.VectorStore.QdrantHost == "" {
		c.VectorStore.QdrantHost = "localhost"
	}
	if c.VectorStore.QdrantPort == 0 {
		c.VectorStore.QdrantPort = 6334
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4317"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = "recalld"
	}
	if c.Telemetry.ServiceVersion == "" {
		c.Telemetry.ServiceVersion = "0.1.0"
	}
	if c.Telemetry.ShutdownGrace == 0 {
		c.Telemetry.ShutdownGrace = Duration(5 * time.Second)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout.Duration() <= 0 {
		return fmt.Errorf("shutdown timeout must be positive")
	}
	if c.App.DefaultMode != ModeOpenAI && c.App.DefaultMode != ModeGemini {
		return fmt.Errorf("invalid default mode %q (must be %q or %q)", c.App.DefaultMode, ModeOpenAI, ModeGemini)
	}
	if c.App.TopK < 1 {
		return fmt.Errorf("top_k must be positive, got %d", c.App.TopK)
	}
	if c.Embeddings.Dimension < 1 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.Embeddings.Dimension)
	}
	switch c.VectorStore.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("unknown vectorstore provider %q", c.VectorStore.Provider)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.Enabled && c.Telemetry.ServiceName == "" {
		return fmt.Errorf("service name required when telemetry is enabled")
	}
	return nil
}
