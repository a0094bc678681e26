// Package history defines the session history store: an append-only,
// per-subject log of conversation turns with bounded, oldest-first reads.
package history

import (
	"context"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"

	// RoleSystem exists for prompt assembly only. System turns are
	// ephemeral and are never persisted; stores reject them.
	RoleSystem Role = "system"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Turn is one persisted utterance in a subject's consultation.
// Turns are immutable once appended. Ordering is by CreatedAt with
// insertion order breaking ties.
type Turn struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the capability the conversation engine needs from persistence:
// append a turn for a subject, and fetch the most recent N turns for a
// subject ordered oldest first.
type Store interface {
	// Append persists a turn. Returns ErrEphemeralRole for system turns
	// and ErrNilTurn for a nil turn.
	Append(ctx context.Context, turn *Turn) error

	// Recent returns the most recent limit turns for the subject, ordered
	// oldest first. A subject with no turns yields an empty slice, not an
	// error. limit <= 0 yields an empty slice.
	Recent(ctx context.Context, subjectID string, limit int) ([]Turn, error)

	// Count returns the number of turns persisted for the subject.
	Count(ctx context.Context, subjectID string) (int, error)

	// Close closes the store and releases any resources.
	Close() error
}
