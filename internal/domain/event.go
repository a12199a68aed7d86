package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind classifies an event flowing through the relay.
type Kind string

const (
	KindSessionRequest   Kind = "session_request"
	KindAppActivated     Kind = "app_activated"
	KindAppDeactivated   Kind = "app_deactivated"
	KindVoiceInput       Kind = "voice_input"
	KindGesture          Kind = "gesture"
	KindConnectionStatus Kind = "connection_status"
	KindDisplayRequest   Kind = "display_request"
	KindUnknown          Kind = "unknown"
)

// ParseKind maps a wire-level type string to a Kind. Unrecognized
// strings map to KindUnknown; they are stored, never rejected.
func ParseKind(s string) Kind {
	switch Kind(s) {
	case KindSessionRequest, KindAppActivated, KindAppDeactivated,
		KindVoiceInput, KindGesture, KindConnectionStatus, KindDisplayRequest:
		return Kind(s)
	default:
		return KindUnknown
	}
}

// Event is an immutable record of one occurrence relayed between the
// device platform and the companion app. Once appended to the queue or
// a session history it must not be mutated.
type Event struct {
	ID        uuid.UUID
	Kind      Kind
	SessionID string // empty means broadcast/unscoped
	Timestamp time.Time
	Payload   Payload
}

type eventJSON struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      Payload   `json:"data"`
}

// MarshalJSON emits the wire shape {id, type, session_id, timestamp, data}.
func (e *Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:        e.ID,
		Type:      string(e.Kind),
		SessionID: e.SessionID,
		Timestamp: e.Timestamp,
		Data:      e.Payload,
	})
}
