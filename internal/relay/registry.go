package relay

import (
	"sync"
	"time"

	"github.com/codeofhonor/glassbridge/internal/domain"
)

// Registry maps session IDs to live session state. A session exists
// from activation until deactivation; operations on unknown IDs never
// create one implicitly. Iteration order of List is unspecified.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*domain.Session
	historyLimit int
	now          func() time.Time
}

// NewRegistry creates an empty Registry. historyLimit bounds the
// per-session event history (most-recent-N retained).
func NewRegistry(historyLimit int) *Registry {
	if historyLimit < 1 {
		historyLimit = 1
	}
	return &Registry{
		sessions:     make(map[string]*domain.Session),
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

// Activate creates or resets the session entry and returns a snapshot.
func (r *Registry) Activate(id, userID string) domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	s := &domain.Session{
		ID:           id,
		UserID:       userID,
		State:        domain.StateListening,
		ActivatedAt:  now,
		LastActivity: now,
	}
	r.sessions[id] = s
	return *s
}

// Deactivate removes the session entry. Removing a missing ID is a
// soft no-op; the return value reports whether an entry existed.
func (r *Registry) Deactivate(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Get returns a snapshot of the session, or false if absent.
func (r *Registry) Get(id string) (domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return domain.Session{}, false
	}
	return snapshot(s), true
}

// List returns snapshots of all active sessions in unspecified order.
func (r *Registry) List() []domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, snapshot(s))
	}
	return out
}

// IDs returns the active session IDs in unspecified order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		out = append(out, id)
	}
	return out
}

// Len returns the number of active sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// AppendTranscript appends a chunk to the session's transcript buffer.
// Chunks are joined with a single space.
func (r *Registry) AppendTranscript(id, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	if s.CurrentTranscript == "" {
		s.CurrentTranscript = text
	} else {
		s.CurrentTranscript += " " + text
	}
	s.LastActivity = r.now().UTC()
	return true
}

// ResetTranscript clears the transcript buffer after a finalized
// utterance and returns what it held.
func (r *Registry) ResetTranscript(id string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return "", false
	}
	t := s.CurrentTranscript
	s.CurrentTranscript = ""
	return t, true
}

// SetState transitions the session to state.
func (r *Registry) SetState(id string, state domain.SessionState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.State = state
	return true
}

// SetDisplayed records text as the session's last response and moves
// the session to the displaying state.
func (r *Registry) SetDisplayed(id, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.LastResponse = text
	s.State = domain.StateDisplaying
	s.LastActivity = r.now().UTC()
	return true
}

// Heartbeat bumps the session's last-activity timestamp.
func (r *Registry) Heartbeat(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.LastActivity = r.now().UTC()
	return true
}

// RecordHistory appends ev to the session's bounded history. Events
// are immutable, so the history shares records with the global queue.
func (r *Registry) RecordHistory(id string, ev *domain.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return false
	}
	s.History = append(s.History, ev)
	if len(s.History) > r.historyLimit {
		s.History = s.History[len(s.History)-r.historyLimit:]
	}
	return true
}

// snapshot copies the session for handler consumption. History records
// are immutable so copying the slice header contents is enough.
func snapshot(s *domain.Session) domain.Session {
	out := *s
	out.History = make([]*domain.Event, len(s.History))
	copy(out.History, s.History)
	return out
}
