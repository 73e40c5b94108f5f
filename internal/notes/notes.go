// Package notes provides durable storage for user notes.
//
// Notes are the source of truth; the vector index is a derived view kept
// in sync by the indexer pipeline. Storage is SQLite via the pure-Go
// modernc driver, so the daemon runs without cgo.
package notes

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates the requested note does not exist for the user.
	ErrNotFound = errors.New("note not found")

	// ErrInvalidNote indicates a note failed validation.
	ErrInvalidNote = errors.New("invalid note")
)

// Note is a single user note.
type Note struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Validate checks the note has the fields storage and indexing depend on.
func (n *Note) Validate() error {
	if strings.TrimSpace(n.ID) == "" {
		return fmt.Errorf("%w: id required", ErrInvalidNote)
	}
	if strings.TrimSpace(n.UserID) == "" {
		return fmt.Errorf("%w: userId required", ErrInvalidNote)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: title required", ErrInvalidNote)
	}
	return nil
}

// EmbeddingText returns the text submitted to the embedding provider:
// title and description joined with a single space.
func (n *Note) EmbeddingText() string {
	return n.Title + " " + n.Description
}
