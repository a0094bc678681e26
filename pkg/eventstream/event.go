// Package eventstream defines transport-neutral turn events and the
// publisher capability used to emit them to an event stream backend.
package eventstream

import (
	"time"

	"github.com/sanahealth/sana/pkg/history"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnPersisted is emitted after a consultation round trip
	// (user turn plus assistant reply) is persisted.
	EventTypeTurnPersisted = "sana.turn.persisted"
)

// TurnPersistedEvent is a transport-neutral event payload for a persisted
// consultation round trip.
type TurnPersistedEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	SubjectID     string       `json:"subject_id"`
	UserTurn      history.Turn `json:"user_turn"`
	AssistantTurn history.Turn `json:"assistant_turn"`
	Symptoms      []string     `json:"symptoms,omitempty"`
	Categories    []string     `json:"categories,omitempty"`
	FinalResponse bool         `json:"final_response"`
}
