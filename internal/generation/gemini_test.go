package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

func TestGeminiMessages(t *testing.T) {
	msgs := geminiMessages("when was the wedding?", "📌 **w**\ncontent\n")
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.ChatMessageTypeSystem, msgs[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, msgs[1].Role)

	require.Len(t, msgs[0].Parts, 1)
	sys, ok := msgs[0].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Equal(t, SystemPrompt, sys.Text)

	require.Len(t, msgs[1].Parts, 1)
	human, ok := msgs[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Equal(t, UserPrompt("when was the wedding?", "📌 **w**\ncontent\n"), human.Text)
}
