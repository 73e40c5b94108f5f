package generation

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/recalld/internal/retrieval"
)

// SystemPrompt establishes the assistant's scope for every generation call.
const SystemPrompt = `You are a helpful AI assistant that answers questions based on the user's notes.
If the notes contain relevant information, use it to provide accurate answers.
If the notes don't contain relevant information, politely say so and suggest what kind of notes might help.
Keep responses concise and focused. Use Markdown formatting for better readability.`

// FormatEvidence renders retrieved notes as the markdown evidence block
// embedded in the user prompt. Each note renders as a pinned title line
// followed by its content; notes are joined by blank lines. No matches
// yields the empty string.
func FormatEvidence(results []retrieval.Result) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("📌 **%s**\n%s\n", r.Title, r.Content)
	}
	return strings.Join(parts, "\n")
}

// UserPrompt combines the evidence block and the raw question into the
// user message. The notes section is omitted entirely when no evidence
// was retrieved.
func UserPrompt(question, formattedNotes string) string {
	if formattedNotes == "" {
		return "My question: " + question
	}
	return fmt.Sprintf("My notes:\n%s\n\nMy question: %s", formattedNotes, question)
}

// CleanAnswer strips markdown markup from an answer for non-visual
// consumption such as speech synthesis: bold and italic markers and inline
// code markers are removed, and newlines collapse to single spaces.
func CleanAnswer(answer string) string {
	s := strings.NewReplacer(
		"**", "",
		"__", "",
		"*", "",
		"_", "",
		"`", "",
	).Replace(answer)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' })
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return strings.TrimSpace(strings.Join(fields, " "))
}
