package domain

import "time"

// SessionState is the per-session display lifecycle state.
type SessionState string

const (
	StateListening  SessionState = "listening"
	StateProcessing SessionState = "processing"
	StateDisplaying SessionState = "displaying"
)

// Session is the mutable state tracked for one device session between
// activation and deactivation. The relay service is its sole owner;
// handlers only ever see snapshot copies.
type Session struct {
	ID                string
	UserID            string
	State             SessionState
	CurrentTranscript string
	LastResponse      string
	ActivatedAt       time.Time
	LastActivity      time.Time
	History           []*Event // bounded, most-recent-N
}
