// Package inmemory provides a history.Store backed by an in-memory map,
// used for tests and for running without a database.
package inmemory

import (
	"context"
	"sync"

	"github.com/sanahealth/sana/pkg/history"
)

// Store implements history.Store using a per-subject slice of turns.
type Store struct {
	// mu guards turns. Slices are append-only so insertion order is the
	// natural tie-break for equal timestamps.
	mu sync.RWMutex

	turns map[string][]history.Turn
}

// NewStore creates a new in-memory history store.
func NewStore() *Store {
	return &Store{
		turns: make(map[string][]history.Turn),
	}
}

// Append persists a copy of the turn at the end of the subject's log.
func (s *Store) Append(_ context.Context, turn *history.Turn) error {
	if turn == nil {
		return history.ErrNilTurn
	}
	if !turn.Role.Valid() {
		return history.InvalidRoleError{Role: turn.Role}
	}
	if turn.Role == history.RoleSystem {
		return history.ErrEphemeralRole
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns[turn.SubjectID] = append(s.turns[turn.SubjectID], *turn)
	return nil
}

// Recent returns the most recent limit turns for the subject, oldest first.
func (s *Store) Recent(_ context.Context, subjectID string, limit int) ([]history.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.turns[subjectID]
	if limit <= 0 || len(all) == 0 {
		return []history.Turn{}, nil
	}

	start := len(all) - limit
	if start < 0 {
		start = 0
	}

	window := make([]history.Turn, len(all)-start)
	copy(window, all[start:])
	return window, nil
}

// Count returns the number of turns persisted for the subject.
func (s *Store) Count(_ context.Context, subjectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.turns[subjectID]), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
