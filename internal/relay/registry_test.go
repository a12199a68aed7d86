package relay_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeofhonor/glassbridge/internal/domain"
	"github.com/codeofhonor/glassbridge/internal/relay"
)

func TestRegistryLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("activate then deactivate then get reports absent", func(t *testing.T) {
		t.Parallel()

		r := relay.NewRegistry(10)
		s := r.Activate("sess-1", "user-1")
		assert.Equal(t, domain.StateListening, s.State)
		assert.Equal(t, "user-1", s.UserID)
		assert.False(t, s.ActivatedAt.IsZero())

		assert.True(t, r.Deactivate("sess-1"))

		_, ok := r.Get("sess-1")
		assert.False(t, ok)
	})

	t.Run("deactivate on never-activated id is a no-op", func(t *testing.T) {
		t.Parallel()

		r := relay.NewRegistry(10)
		assert.False(t, r.Deactivate("ghost"))
		assert.Equal(t, 0, r.Len())
	})

	t.Run("activate resets existing state", func(t *testing.T) {
		t.Parallel()

		r := relay.NewRegistry(10)
		r.Activate("sess-1", "user-1")
		require.True(t, r.AppendTranscript("sess-1", "hello"))

		r.Activate("sess-1", "user-2")

		s, ok := r.Get("sess-1")
		require.True(t, ok)
		assert.Empty(t, s.CurrentTranscript)
		assert.Equal(t, "user-2", s.UserID)
	})

	t.Run("unknown ids never create sessions", func(t *testing.T) {
		t.Parallel()

		r := relay.NewRegistry(10)
		assert.False(t, r.AppendTranscript("ghost", "hi"))
		assert.False(t, r.SetDisplayed("ghost", "hi"))
		assert.False(t, r.Heartbeat("ghost"))
		assert.False(t, r.SetState("ghost", domain.StateProcessing))
		assert.Equal(t, 0, r.Len())
	})
}

func TestRegistryTranscript(t *testing.T) {
	t.Parallel()

	r := relay.NewRegistry(10)
	r.Activate("sess-1", "")

	require.True(t, r.AppendTranscript("sess-1", "par"))
	require.True(t, r.AppendTranscript("sess-1", "tial"))

	s, ok := r.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, "par tial", s.CurrentTranscript)

	got, ok := r.ResetTranscript("sess-1")
	require.True(t, ok)
	assert.Equal(t, "par tial", got)

	s, _ = r.Get("sess-1")
	assert.Empty(t, s.CurrentTranscript)
}

func TestRegistryDisplayed(t *testing.T) {
	t.Parallel()

	r := relay.NewRegistry(10)
	r.Activate("sess-1", "")

	require.True(t, r.SetDisplayed("sess-1", "hello"))

	s, ok := r.Get("sess-1")
	require.True(t, ok)
	assert.Equal(t, "hello", s.LastResponse)
	assert.Equal(t, domain.StateDisplaying, s.State)
}

func TestRegistryHistoryBound(t *testing.T) {
	t.Parallel()

	r := relay.NewRegistry(3)
	r.Activate("sess-1", "")

	var events []*domain.Event
	for range 5 {
		ev := makeEvent(domain.KindGesture, "sess-1")
		events = append(events, ev)
		require.True(t, r.RecordHistory("sess-1", ev))
	}

	s, ok := r.Get("sess-1")
	require.True(t, ok)
	require.Len(t, s.History, 3)
	assert.Equal(t, events[2:], s.History)
}

func TestRegistryList(t *testing.T) {
	t.Parallel()

	r := relay.NewRegistry(10)
	r.Activate("a", "")
	r.Activate("b", "")

	sessions := r.List()
	assert.Len(t, sessions, 2)
	assert.ElementsMatch(t, []string{"a", "b"}, r.IDs())
}
