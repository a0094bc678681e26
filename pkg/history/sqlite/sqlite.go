// Package sqlite provides a SQLite-backed history.Store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sanahealth/sana/pkg/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT    NOT NULL,
	subject_id TEXT    NOT NULL,
	role       TEXT    NOT NULL,
	content    TEXT    NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_subject ON turns (subject_id, created_at, seq);
`

// Store implements history.Store on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite-backed history store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite-specific pragmas
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Append persists the turn. The seq column breaks created_at ties in
// insertion order.
func (s *Store) Append(ctx context.Context, turn *history.Turn) error {
	if turn == nil {
		return history.ErrNilTurn
	}
	if !turn.Role.Valid() {
		return history.InvalidRoleError{Role: turn.Role}
	}
	if turn.Role == history.RoleSystem {
		return history.ErrEphemeralRole
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns (id, subject_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		turn.ID, turn.SubjectID, string(turn.Role), turn.Content, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	return nil
}

// Recent returns the most recent limit turns for the subject, oldest first.
// The query selects newest-first and the rows are reversed on the way out.
func (s *Store) Recent(ctx context.Context, subjectID string, limit int) ([]history.Turn, error) {
	if limit <= 0 {
		return []history.Turn{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject_id, role, content, created_at
		 FROM turns
		 WHERE subject_id = ?
		 ORDER BY created_at DESC, seq DESC
		 LIMIT ?`,
		subjectID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	newestFirst := make([]history.Turn, 0, limit)
	for rows.Next() {
		var t history.Turn
		var role string
		if err := rows.Scan(&t.ID, &t.SubjectID, &role, &t.Content, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = history.Role(role)
		newestFirst = append(newestFirst, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	window := make([]history.Turn, len(newestFirst))
	for i, t := range newestFirst {
		window[len(newestFirst)-1-i] = t
	}

	return window, nil
}

// Count returns the number of turns persisted for the subject.
func (s *Store) Count(ctx context.Context, subjectID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM turns WHERE subject_id = ?`, subjectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting turns: %w", err)
	}

	return n, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
