package domain

import "encoding/json"

// Payload is the tagged union of per-kind event data. Variants are
// decoded once at the boundary so the core never digs through untyped
// maps. Missing fields decode to zero values, never errors.
type Payload interface {
	payload()
}

// SessionRequestPayload carries a webhook session bootstrap request.
type SessionRequestPayload struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// ActivationPayload carries the user identity for a session start.
type ActivationPayload struct {
	SessionID string `json:"session_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// DeactivationPayload carries an optional reason for a session end.
type DeactivationPayload struct {
	SessionID string `json:"session_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// VoiceInputPayload carries one transcription chunk.
type VoiceInputPayload struct {
	Transcript string `json:"transcript"`
	IsFinal    bool   `json:"is_final"`
}

// GesturePayload carries a head or button gesture.
type GesturePayload struct {
	GestureType string `json:"gesture_type"`
}

// ConnectionPayload carries a device connection status change.
type ConnectionPayload struct {
	Status string `json:"status"`
}

// DisplayPayload is the audit record for an outbound display request.
type DisplayPayload struct {
	Text       string   `json:"text"`
	Sessions   []string `json:"sessions"`
	DurationMS int      `json:"duration"`
}

// UnknownPayload preserves the raw data of an unrecognized kind.
type UnknownPayload struct {
	Raw map[string]any
}

func (SessionRequestPayload) payload() {}
func (ActivationPayload) payload()     {}
func (DeactivationPayload) payload()   {}
func (VoiceInputPayload) payload()     {}
func (GesturePayload) payload()        {}
func (ConnectionPayload) payload()     {}
func (DisplayPayload) payload()        {}
func (UnknownPayload) payload()        {}

// MarshalJSON passes the raw map through unchanged.
func (p UnknownPayload) MarshalJSON() ([]byte, error) {
	if p.Raw == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.Raw)
}

// DecodePayload builds the typed variant for kind from an open map.
// Fields that are absent or of the wrong type become zero values; the
// relay tolerates malformed payloads rather than rejecting them.
func DecodePayload(kind Kind, raw map[string]any) Payload {
	switch kind {
	case KindSessionRequest:
		return SessionRequestPayload{
			SessionID: rawString(raw, "session_id", "sessionId"),
			UserID:    rawString(raw, "user_id", "userId"),
		}
	case KindAppActivated:
		return ActivationPayload{
			SessionID: rawString(raw, "session_id", "sessionId"),
			UserID:    rawString(raw, "user_id", "userId"),
		}
	case KindAppDeactivated:
		return DeactivationPayload{
			SessionID: rawString(raw, "session_id", "sessionId"),
			Reason:    rawString(raw, "reason"),
		}
	case KindVoiceInput:
		return VoiceInputPayload{
			Transcript: rawString(raw, "transcript", "text"),
			IsFinal:    rawBool(raw, "is_final", "isFinal"),
		}
	case KindGesture:
		return GesturePayload{
			GestureType: rawString(raw, "gesture_type", "gestureType", "type"),
		}
	case KindConnectionStatus:
		return ConnectionPayload{
			Status: rawString(raw, "status"),
		}
	case KindDisplayRequest:
		return DisplayPayload{
			Text:       rawString(raw, "text"),
			Sessions:   rawStrings(raw, "sessions"),
			DurationMS: rawInt(raw, "duration"),
		}
	default:
		return UnknownPayload{Raw: raw}
	}
}

func rawString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func rawBool(raw map[string]any, keys ...string) bool {
	for _, k := range keys {
		if b, ok := raw[k].(bool); ok {
			return b
		}
	}
	return false
}

func rawInt(raw map[string]any, keys ...string) int {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return 0
}

func rawStrings(raw map[string]any, key string) []string {
	vs, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
