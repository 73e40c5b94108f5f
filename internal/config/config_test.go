package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ModeOpenAI, cfg.App.DefaultMode)
	assert.Equal(t, 3, cfg.App.TopK)
	assert.Equal(t, 1536, cfg.Embeddings.Dimension)
	assert.Equal(t, "text-embedding-ada-002", cfg.Embeddings.OpenAIModel)
	assert.Equal(t, "text-embedding-004", cfg.Embeddings.GoogleModel)
	assert.Equal(t, "gpt-3.5-turbo", cfg.Generation.OpenAIModel)
	assert.Equal(t, "gemini-1.5-flash", cfg.Generation.GoogleModel)
	assert.Equal(t, "chromem", cfg.VectorStore.Provider)
	assert.Equal(t, "notes", cfg.VectorStore.Collection)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.App.Offline)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadWithFile_YAML(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 9999
app:
  offline: true
  default_mode: "B"
  top_k: 5
vectorstore:
  provider: qdrant
  qdrant_host: qdrant.internal
logging:
  format: console
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.True(t, cfg.App.Offline)
	assert.Equal(t, ModeGemini, cfg.App.DefaultMode)
	assert.Equal(t, 5, cfg.App.TopK)
	assert.Equal(t, "qdrant", cfg.VectorStore.Provider)
	assert.Equal(t, "qdrant.internal", cfg.VectorStore.QdrantHost)
	assert.Equal(t, "console", cfg.Logging.Format)
}

func TestLoadWithFile_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 9999
`)
	t.Setenv("SERVER_HTTP_PORT", "7777")
	t.Setenv("APP_OFFLINE", "true")
	t.Setenv("EMBEDDINGS_OPENAI_API_KEY", "sk-test")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7777, cfg.Server.Port)
	assert.True(t, cfg.App.Offline)
	assert.Equal(t, "sk-test", cfg.Embeddings.OpenAIAPIKey.Value())
}

func TestLoadWithFile_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad mode", "app:\n  default_mode: \"C\"\n"},
		{"bad provider", "vectorstore:\n  provider: pinecone\n"},
		{"bad port", "server:\n  http_port: 99999\n"},
		{"bad log format", "logging:\n  format: xml\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithFile(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestSecret_Redacts(t *testing.T) {
	s := Secret("sk-very-secret")

	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "sk-very-secret", s.Value())

	out, err := s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]", string(out))
}

func TestDuration(t *testing.T) {
	d := Duration(5 * time.Second)
	assert.Equal(t, 5*time.Second, d.Duration())
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandPath("~/x/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x", "y"), got)

	got, err = ExpandPath("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}
