package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

// maxWebhookBody bounds webhook payloads to 1 MiB.
const maxWebhookBody = 1 << 20

// webhookEnvelope is the outer shape of device platform deliveries.
// Both snake_case and camelCase session keys appear in the wild.
type webhookEnvelope struct {
	Type         string         `json:"type"`
	SessionID    string         `json:"session_id"`
	SessionIDAlt string         `json:"sessionId"`
	Data         map[string]any `json:"data"`
}

// handleWebhook ingests one device event. When a webhook secret is
// configured, the X-Webhook-Signature header must carry the hex HMAC
// SHA-256 of the raw body. Malformed payload fields are tolerated
// downstream; only unreadable or non-JSON bodies are rejected.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	if secret := s.cfg.Device.WebhookSecret; secret != "" {
		if !verifySignature(secret, r.Header.Get("X-Webhook-Signature"), body) {
			log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var env webhookEnvelope
	if unmarshalErr := json.Unmarshal(body, &env); unmarshalErr != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	sessionID := env.SessionID
	if sessionID == "" {
		sessionID = env.SessionIDAlt
	}
	if sessionID == "" {
		// Fall back to a session id inside the payload, if any.
		if sid, ok := env.Data["session_id"].(string); ok {
			sessionID = sid
		}
	}

	ev := s.relay.Ingest(r.Context(), env.Type, sessionID, env.Data)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "received",
		"event_id":  ev.ID,
		"timestamp": ev.Timestamp,
	})
}

// verifySignature checks a hex-encoded HMAC SHA-256 of body. A
// "sha256=" prefix on the header value is accepted.
func verifySignature(secret, header string, body []byte) bool {
	header = strings.TrimPrefix(strings.TrimSpace(header), "sha256=")
	got, err := hex.DecodeString(header)
	if err != nil || len(got) == 0 {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
