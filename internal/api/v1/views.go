package v1

import (
	"time"

	"github.com/google/uuid"

	"github.com/codeofhonor/glassbridge/internal/domain"
)

// EventView is the wire shape of one event record.
type EventView struct {
	ID        uuid.UUID `json:"id" doc:"Event ID"`
	Type      string    `json:"type" doc:"Event kind"`
	SessionID string    `json:"session_id,omitempty" doc:"Originating session; empty means unscoped"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data" doc:"Kind-specific payload"`
}

func toEventView(ev *domain.Event) EventView {
	return EventView{
		ID:        ev.ID,
		Type:      string(ev.Kind),
		SessionID: ev.SessionID,
		Timestamp: ev.Timestamp,
		Data:      ev.Payload,
	}
}

func toEventViews(events []*domain.Event) []EventView {
	out := make([]EventView, len(events))
	for i, ev := range events {
		out[i] = toEventView(ev)
	}
	return out
}

// SessionSummary is the list-view shape of a session.
type SessionSummary struct {
	SessionID      string    `json:"session_id"`
	UserID         string    `json:"user_id,omitempty"`
	State          string    `json:"state"`
	LastTranscript string    `json:"last_transcript"`
	LastResponse   string    `json:"last_response"`
	EventCount     int       `json:"event_count"`
	ActivatedAt    time.Time `json:"activated_at"`
	LastActivity   time.Time `json:"last_activity"`
}

func toSessionSummary(s domain.Session) SessionSummary {
	return SessionSummary{
		SessionID:      s.ID,
		UserID:         s.UserID,
		State:          string(s.State),
		LastTranscript: s.CurrentTranscript,
		LastResponse:   s.LastResponse,
		EventCount:     len(s.History),
		ActivatedAt:    s.ActivatedAt,
		LastActivity:   s.LastActivity,
	}
}
