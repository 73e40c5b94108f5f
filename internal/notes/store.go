package notes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id          TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	PRIMARY KEY (user_id, id)
);
CREATE INDEX IF NOT EXISTS idx_notes_user ON notes(user_id);
`

// Store persists notes in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (creating if needed) the notes database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The modernc driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent request handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts or replaces a note. CreatedAt is preserved for existing
// notes; UpdatedAt is always set to now.
func (s *Store) Save(ctx context.Context, note *Note) (*Note, error) {
	if err := note.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	saved := *note
	saved.UpdatedAt = now
	saved.CreatedAt = now

	if existing, err := s.Get(ctx, note.UserID, note.ID); err == nil {
		saved.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes(id, user_id, title, description, created_at, updated_at)
		 VALUES(?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, id) DO UPDATE SET
		   title = excluded.title,
		   description = excluded.description,
		   updated_at = excluded.updated_at`,
		saved.ID, saved.UserID, saved.Title, saved.Description,
		saved.CreatedAt.Format(time.RFC3339Nano), saved.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("saving note: %w", err)
	}
	return &saved, nil
}

// Get returns a single note scoped to the user.
func (s *Store) Get(ctx context.Context, userID, id string) (*Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, description, created_at, updated_at
		 FROM notes WHERE user_id = ? AND id = ?`, userID, id)
	return scanNote(row)
}

// List returns all notes for a user, newest first.
func (s *Store) List(ctx context.Context, userID string) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, description, created_at, updated_at
		 FROM notes WHERE user_id = ? ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var out []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Delete removes a note. Returns ErrNotFound if no row matched.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM notes WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*Note, error) {
	var n Note
	var createdAt, updatedAt string
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning note: %w", err)
	}
	if n.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &n, nil
}
