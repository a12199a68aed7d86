package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeofhonor/glassbridge/internal/domain"
)

func TestParseKind(t *testing.T) {
	t.Parallel()

	known := []string{
		"session_request", "app_activated", "app_deactivated",
		"voice_input", "gesture", "connection_status", "display_request",
	}
	for _, s := range known {
		assert.Equal(t, domain.Kind(s), domain.ParseKind(s))
	}

	assert.Equal(t, domain.KindUnknown, domain.ParseKind("unknown"))
	assert.Equal(t, domain.KindUnknown, domain.ParseKind("telemetry_blob"))
	assert.Equal(t, domain.KindUnknown, domain.ParseKind(""))
}

func TestDecodePayload(t *testing.T) {
	t.Parallel()

	t.Run("voice input", func(t *testing.T) {
		t.Parallel()

		p := domain.DecodePayload(domain.KindVoiceInput, map[string]any{
			"transcript": "hello world",
			"is_final":   true,
		})
		voice, ok := p.(domain.VoiceInputPayload)
		require.True(t, ok)
		assert.Equal(t, "hello world", voice.Transcript)
		assert.True(t, voice.IsFinal)
	})

	t.Run("voice input accepts alternate keys", func(t *testing.T) {
		t.Parallel()

		p := domain.DecodePayload(domain.KindVoiceInput, map[string]any{
			"text":    "hi",
			"isFinal": true,
		})
		voice := p.(domain.VoiceInputPayload)
		assert.Equal(t, "hi", voice.Transcript)
		assert.True(t, voice.IsFinal)
	})

	t.Run("missing fields become zero values", func(t *testing.T) {
		t.Parallel()

		voice := domain.DecodePayload(domain.KindVoiceInput, nil).(domain.VoiceInputPayload)
		assert.Empty(t, voice.Transcript)
		assert.False(t, voice.IsFinal)

		gesture := domain.DecodePayload(domain.KindGesture, map[string]any{"gesture_type": 42.0}).(domain.GesturePayload)
		assert.Empty(t, gesture.GestureType)
	})

	t.Run("display request", func(t *testing.T) {
		t.Parallel()

		p := domain.DecodePayload(domain.KindDisplayRequest, map[string]any{
			"text":     "hi",
			"sessions": []any{"a", "b"},
			"duration": 3000.0,
		})
		display := p.(domain.DisplayPayload)
		assert.Equal(t, "hi", display.Text)
		assert.Equal(t, []string{"a", "b"}, display.Sessions)
		assert.Equal(t, 3000, display.DurationMS)
	})

	t.Run("unknown kind preserves the raw map", func(t *testing.T) {
		t.Parallel()

		raw := map[string]any{"battery": 0.97}
		unknown := domain.DecodePayload(domain.KindUnknown, raw).(domain.UnknownPayload)
		assert.Equal(t, raw, unknown.Raw)
	})
}

func TestEventMarshalJSON(t *testing.T) {
	t.Parallel()

	ev := &domain.Event{
		ID:        uuid.New(),
		Kind:      domain.KindVoiceInput,
		SessionID: "sess-1",
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Payload:   domain.VoiceInputPayload{Transcript: "hello", IsFinal: true},
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ev.ID.String(), decoded["id"])
	assert.Equal(t, "voice_input", decoded["type"])
	assert.Equal(t, "sess-1", decoded["session_id"])

	payload, ok := decoded["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hello", payload["transcript"])
	assert.Equal(t, true, payload["is_final"])
}

func TestUnknownPayloadMarshalJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(domain.UnknownPayload{Raw: map[string]any{"x": "y"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":"y"}`, string(data))

	data, err = json.Marshal(domain.UnknownPayload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestEventUnscopedOmitsSessionID(t *testing.T) {
	t.Parallel()

	ev := &domain.Event{
		ID:        uuid.New(),
		Kind:      domain.KindDisplayRequest,
		Timestamp: time.Now().UTC(),
		Payload:   domain.DisplayPayload{Text: "hi", Sessions: []string{"a"}},
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, present := decoded["session_id"]
	assert.False(t, present)
}
