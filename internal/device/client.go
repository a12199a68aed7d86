// Package device speaks the wearable platform's cloud protocol: a
// websocket connection that delivers transcription and gesture frames
// and accepts display frames. The relay core depends on it only through
// the relay.Displayer interface.
package device

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"

	"github.com/codeofhonor/glassbridge/internal/domain"
)

// Ingestor receives inbound device events. Satisfied by relay.Service.
type Ingestor interface {
	Ingest(ctx context.Context, kind, sessionID string, raw map[string]any) *domain.Event
}

// frameKinds maps cloud frame types to relay event kinds. Frames not
// listed here are forwarded under their own type name and land in the
// queue as unknown kinds.
var frameKinds = map[string]string{
	"session_request":          string(domain.KindSessionRequest),
	"session_start":            string(domain.KindAppActivated),
	"session_end":              string(domain.KindAppDeactivated),
	"transcription":            string(domain.KindVoiceInput),
	"head_position":            string(domain.KindGesture),
	"button_press":             string(domain.KindGesture),
	"glasses_connection_state": string(domain.KindConnectionStatus),
}

// inboundFrame is the envelope of every cloud-to-relay message.
type inboundFrame struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id"`
	Data      map[string]any `json:"data"`
}

// displayFrame is the relay-to-cloud display request.
type displayFrame struct {
	Type       string        `json:"type"`
	SessionID  string        `json:"session_id"`
	Layout     displayLayout `json:"layout"`
	DurationMS int           `json:"duration_ms"`
}

type displayLayout struct {
	Type      string `json:"layout_type"`
	Text      string `json:"text"`
	FontSize  string `json:"font_size"`
	Alignment string `json:"alignment"`
}

// Client maintains the device-cloud websocket connection.
type Client struct {
	url         string
	apiKey      string
	packageName string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewClient creates a Client for the given cloud endpoint. The client
// does not connect until Run is called.
func NewClient(url, apiKey, packageName string) *Client {
	return &Client{
		url:         url,
		apiKey:      apiKey,
		packageName: packageName,
	}
}

// Run dials the cloud, announces the app package, and forwards inbound
// frames to ingestor until the connection drops or ctx is cancelled.
func (c *Client) Run(ctx context.Context, ingestor Ingestor) error {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set("X-Package-Name", c.packageName)

	conn, _, err := websocket.Dial(ctx, c.url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return fmt.Errorf("device.Client.Run: dial: %w", err)
	}
	defer conn.CloseNow()

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
	}()

	init := map[string]string{"type": "connection_init", "package_name": c.packageName}
	if writeErr := wsjson.Write(ctx, conn, init); writeErr != nil {
		return fmt.Errorf("device.Client.Run: connection init: %w", writeErr)
	}

	log.Info().Str("url", c.url).Msg("device cloud connected")

	for {
		var frame inboundFrame
		if readErr := wsjson.Read(ctx, conn, &frame); readErr != nil {
			if ctx.Err() != nil {
				_ = conn.Close(websocket.StatusNormalClosure, "shutting down")
				return nil
			}
			return fmt.Errorf("device.Client.Run: read: %w", readErr)
		}
		c.dispatch(ctx, ingestor, frame)
	}
}

// dispatch routes one inbound frame to the relay. Protocol-level frames
// (acks, pings) are consumed here and never reach the queue.
func (c *Client) dispatch(ctx context.Context, ingestor Ingestor, frame inboundFrame) {
	switch frame.Type {
	case "connection_ack", "ping", "pong":
		return
	}

	kind, ok := frameKinds[frame.Type]
	if !ok {
		kind = frame.Type
	}
	ingestor.Ingest(ctx, kind, frame.SessionID, frame.Data)
}

// Display sends a text-wall display frame for the session. It fails
// when the cloud connection is down; callers treat that as a
// downstream display failure.
func (c *Client) Display(ctx context.Context, sessionID, text string, durationMS int) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return fmt.Errorf("device.Client.Display: not connected")
	}

	frame := displayFrame{
		Type:      "display_event",
		SessionID: sessionID,
		Layout: displayLayout{
			Type:      "text_wall",
			Text:      text,
			FontSize:  "medium",
			Alignment: "center",
		},
		DurationMS: durationMS,
	}

	if err := wsjson.Write(ctx, conn, frame); err != nil {
		return fmt.Errorf("device.Client.Display: write: %w", err)
	}

	log.Debug().Str("session_id", sessionID).Int("duration_ms", durationMS).Msg("display frame sent")
	return nil
}

// NopDisplayer is used when no device connection is configured; display
// requests succeed without a downstream call.
type NopDisplayer struct{}

// Display logs the request and reports success.
func (NopDisplayer) Display(_ context.Context, sessionID, text string, durationMS int) error {
	log.Info().
		Str("session_id", sessionID).
		Str("text", truncateLog(text)).
		Int("duration_ms", durationMS).
		Msg("display (no device connection)")
	return nil
}

func truncateLog(s string) string {
	const limit = 80
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

