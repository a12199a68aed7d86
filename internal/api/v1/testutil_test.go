package v1_test

import (
	"context"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"

	v1 "github.com/codeofhonor/glassbridge/internal/api/v1"
	"github.com/codeofhonor/glassbridge/internal/domain"
	"github.com/codeofhonor/glassbridge/internal/relay"
)

// ---------------------------------------------------------------------------
// Mock RelayService
// ---------------------------------------------------------------------------

type mockRelayService struct {
	pollFunc           func(since uint64, limit int) relay.PollResult
	requestDisplayFunc func(ctx context.Context, text, target string, durationMS int) ([]string, error)
	sessionsFunc       func() []domain.Session
	sessionFunc        func(id string) (domain.Session, error)
	heartbeatFunc      func(id string) error
	statsFunc          func() relay.Stats
	clearEventsFunc    func()
}

func (m *mockRelayService) Poll(since uint64, limit int) relay.PollResult {
	return m.pollFunc(since, limit)
}

func (m *mockRelayService) RequestDisplay(ctx context.Context, text, target string, durationMS int) ([]string, error) {
	return m.requestDisplayFunc(ctx, text, target, durationMS)
}

func (m *mockRelayService) Sessions() []domain.Session {
	return m.sessionsFunc()
}

func (m *mockRelayService) Session(id string) (domain.Session, error) {
	return m.sessionFunc(id)
}

func (m *mockRelayService) Heartbeat(id string) error {
	return m.heartbeatFunc(id)
}

func (m *mockRelayService) Stats() relay.Stats {
	return m.statsFunc()
}

func (m *mockRelayService) ClearEvents() {
	m.clearEventsFunc()
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func newTestAPI(t *testing.T) (humatest.TestAPI, *mockRelayService) {
	t.Helper()

	_, api := humatest.New(t)
	svc := &mockRelayService{}

	v1.RegisterHealthRoutes(api, svc)
	v1.RegisterEventRoutes(api, svc)
	v1.RegisterDisplayRoutes(api, svc)
	v1.RegisterSessionRoutes(api, svc)

	return api, svc
}

func makeEvent(kind domain.Kind, sessionID string) *domain.Event {
	return &domain.Event{
		ID:        uuid.New(),
		Kind:      kind,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Payload:   domain.DecodePayload(kind, map[string]any{"transcript": "hi"}),
	}
}

func makeSession(id string) domain.Session {
	now := time.Now().UTC()
	return domain.Session{
		ID:           id,
		UserID:       "user-1",
		State:        domain.StateListening,
		ActivatedAt:  now,
		LastActivity: now,
	}
}
