package relay_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeofhonor/glassbridge/internal/domain"
	"github.com/codeofhonor/glassbridge/internal/relay"
)

type displayCall struct {
	sessionID  string
	text       string
	durationMS int
}

// recordingDisplayer captures device display calls; async calls from
// the service make the mutex necessary.
type recordingDisplayer struct {
	mu    sync.Mutex
	calls []displayCall
	err   error
}

func (d *recordingDisplayer) Display(_ context.Context, sessionID, text string, durationMS int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, displayCall{sessionID, text, durationMS})
	return d.err
}

func (d *recordingDisplayer) snapshot() []displayCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]displayCall(nil), d.calls...)
}

func (d *recordingDisplayer) callWith(prefix string) (displayCall, bool) {
	for _, c := range d.snapshot() {
		if strings.HasPrefix(c.text, prefix) {
			return c, true
		}
	}
	return displayCall{}, false
}

func newTestService(disp relay.Displayer) *relay.Service {
	queue := relay.NewQueue(100)
	registry := relay.NewRegistry(10)
	return relay.NewService(queue, registry, nil, disp, 100, time.Second)
}

func countKind(t *testing.T, svc *relay.Service, kind domain.Kind) int {
	t.Helper()
	result := svc.Poll(0, 100)
	n := 0
	for _, ev := range result.Events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func TestServiceIngestLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("activation creates a listening session and queues the event", func(t *testing.T) {
		t.Parallel()

		disp := &recordingDisplayer{}
		svc := newTestService(disp)

		ev := svc.Ingest(context.Background(), "app_activated", "sess-1", map[string]any{"user_id": "u1"})
		assert.Equal(t, domain.KindAppActivated, ev.Kind)

		s, err := svc.Session("sess-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StateListening, s.State)
		assert.Equal(t, "u1", s.UserID)

		assert.Equal(t, 1, countKind(t, svc, domain.KindAppActivated))

		// Welcome message goes out fire-and-forget.
		assert.Eventually(t, func() bool {
			_, ok := disp.callWith("Glassbridge connected")
			return ok
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("deactivation removes the session but still queues the event", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&recordingDisplayer{})
		svc.Ingest(context.Background(), "app_activated", "sess-1", nil)
		svc.Ingest(context.Background(), "app_deactivated", "sess-1", nil)

		_, err := svc.Session("sess-1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 1, countKind(t, svc, domain.KindAppDeactivated))
	})

	t.Run("unknown kinds are stored, never rejected", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&recordingDisplayer{})
		ev := svc.Ingest(context.Background(), "telemetry_blob", "", map[string]any{"x": 1.0})

		assert.Equal(t, domain.KindUnknown, ev.Kind)
		assert.Equal(t, 1, countKind(t, svc, domain.KindUnknown))
	})

	t.Run("events for unknown sessions leave the registry untouched", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&recordingDisplayer{})
		svc.Ingest(context.Background(), "voice_input", "ghost", map[string]any{"transcript": "hi", "is_final": true})

		_, err := svc.Session("ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 1, countKind(t, svc, domain.KindVoiceInput))
	})
}

func TestServiceVoiceInput(t *testing.T) {
	t.Parallel()

	disp := &recordingDisplayer{}
	svc := newTestService(disp)
	ctx := context.Background()

	svc.Ingest(ctx, "app_activated", "sess-1", nil)

	svc.Ingest(ctx, "voice_input", "sess-1", map[string]any{"transcript": "par", "is_final": false})

	s, err := svc.Session("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "par", s.CurrentTranscript)
	assert.Equal(t, domain.StateListening, s.State)

	svc.Ingest(ctx, "voice_input", "sess-1", map[string]any{"transcript": "tial", "is_final": true})

	s, err = svc.Session("sess-1")
	require.NoError(t, err)
	assert.Empty(t, s.CurrentTranscript, "transcript buffer cleared after finalize")
	assert.Equal(t, domain.StateListening, s.State, "processing collapses back to listening")

	// One processing preview with the accumulated transcript.
	assert.Eventually(t, func() bool {
		c, ok := disp.callWith("Processing:")
		return ok && strings.Contains(c.text, "par tial")
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, countKind(t, svc, domain.KindVoiceInput))
}

func TestServiceRequestDisplay(t *testing.T) {
	t.Parallel()

	t.Run("broadcast updates every session and queues one audit record", func(t *testing.T) {
		t.Parallel()

		disp := &recordingDisplayer{}
		svc := newTestService(disp)
		ctx := context.Background()
		svc.Ingest(ctx, "app_activated", "a", nil)
		svc.Ingest(ctx, "app_activated", "b", nil)

		sessions, err := svc.RequestDisplay(ctx, "hello", "", 0)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, sessions)

		for _, id := range []string{"a", "b"} {
			s, getErr := svc.Session(id)
			require.NoError(t, getErr)
			assert.Equal(t, "hello", s.LastResponse)
			assert.Equal(t, domain.StateDisplaying, s.State)
		}

		assert.Equal(t, 1, countKind(t, svc, domain.KindDisplayRequest))
	})

	t.Run("targeted unknown session reports not found without an audit record", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&recordingDisplayer{})

		_, err := svc.RequestDisplay(context.Background(), "hello", "ghost", 0)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Equal(t, 0, countKind(t, svc, domain.KindDisplayRequest))
	})

	t.Run("empty text is invalid input", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&recordingDisplayer{})

		_, err := svc.RequestDisplay(context.Background(), "   ", "", 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("broadcast with empty registry reports no active sessions", func(t *testing.T) {
		t.Parallel()

		svc := newTestService(&recordingDisplayer{})

		_, err := svc.RequestDisplay(context.Background(), "hello", "", 0)
		assert.ErrorIs(t, err, domain.ErrNoActiveSessions)
	})

	t.Run("targeted device failure is surfaced", func(t *testing.T) {
		t.Parallel()

		disp := &recordingDisplayer{err: errors.New("socket closed")}
		svc := newTestService(disp)
		ctx := context.Background()
		svc.Ingest(ctx, "app_activated", "a", nil)

		_, err := svc.RequestDisplay(ctx, "hello", "a", 0)
		assert.ErrorIs(t, err, domain.ErrDisplayFailed)
		assert.Equal(t, 0, countKind(t, svc, domain.KindDisplayRequest))
	})

	t.Run("broadcast device failures do not abort remaining sessions", func(t *testing.T) {
		t.Parallel()

		disp := &recordingDisplayer{err: errors.New("socket closed")}
		svc := newTestService(disp)
		ctx := context.Background()
		svc.Ingest(ctx, "app_activated", "a", nil)
		svc.Ingest(ctx, "app_activated", "b", nil)

		sessions, err := svc.RequestDisplay(ctx, "hello", "", 0)
		require.NoError(t, err)
		assert.Len(t, sessions, 2)
		assert.Equal(t, 1, countKind(t, svc, domain.KindDisplayRequest))
	})
}

func TestServiceHeartbeat(t *testing.T) {
	t.Parallel()

	svc := newTestService(&recordingDisplayer{})
	svc.Ingest(context.Background(), "app_activated", "sess-1", nil)

	assert.NoError(t, svc.Heartbeat("sess-1"))
	assert.ErrorIs(t, svc.Heartbeat("ghost"), domain.ErrNotFound)
}

func TestServicePollClampsLimit(t *testing.T) {
	t.Parallel()

	queue := relay.NewQueue(100)
	registry := relay.NewRegistry(10)
	svc := relay.NewService(queue, registry, nil, nil, 5, time.Second)

	for range 20 {
		svc.Ingest(context.Background(), "gesture", "", map[string]any{"gesture_type": "nod"})
	}

	result := svc.Poll(0, 0)
	assert.Len(t, result.Events, 5)

	result = svc.Poll(0, 50)
	assert.Len(t, result.Events, 5, "limit above the maximum is clamped")

	result = svc.Poll(0, 3)
	assert.Len(t, result.Events, 3)
}

func TestServiceStatsAndClear(t *testing.T) {
	t.Parallel()

	svc := newTestService(&recordingDisplayer{})
	ctx := context.Background()
	svc.Ingest(ctx, "app_activated", "a", nil)
	svc.Ingest(ctx, "gesture", "a", map[string]any{"gesture_type": "nod"})
	svc.Ingest(ctx, "gesture", "a", map[string]any{"gesture_type": "shake"})

	stats := svc.Stats()
	assert.Equal(t, 3, stats.TotalEvents)
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 100, stats.QueueCapacity)
	assert.Equal(t, 2, stats.CountsByKind[string(domain.KindGesture)])

	svc.ClearEvents()
	assert.Equal(t, 0, svc.Stats().TotalEvents)

	// Session history keeps the records it already captured.
	s, err := svc.Session("a")
	require.NoError(t, err)
	assert.Len(t, s.History, 3)
}
