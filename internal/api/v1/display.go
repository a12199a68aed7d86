package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/codeofhonor/glassbridge/internal/domain"
)

type DisplayInput struct {
	Body struct {
		Text      string `json:"text" doc:"Text to display on the device"`
		SessionID string `json:"session_id,omitempty" doc:"Target session; empty broadcasts to all active sessions"`
		Duration  int    `json:"duration,omitempty" doc:"Display duration in milliseconds (default 5000)"`
	}
}

type DisplayOutput struct {
	Body struct {
		Status    string    `json:"status"`
		Sessions  []string  `json:"sessions"`
		Text      string    `json:"text"`
		Timestamp time.Time `json:"timestamp"`
	}
}

// RegisterDisplayRoutes wires the app-to-device display operation.
func RegisterDisplayRoutes(api huma.API, svc RelayService) {
	huma.Register(api, huma.Operation{
		OperationID: "request-display",
		Method:      http.MethodPost,
		Path:        "/display",
		Summary:     "Display text on device sessions",
		Tags:        []string{"Display"},
	}, func(ctx context.Context, input *DisplayInput) (*DisplayOutput, error) {
		sessions, err := svc.RequestDisplay(ctx, input.Body.Text, input.Body.SessionID, input.Body.Duration)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidInput):
				return nil, huma.Error400BadRequest("text is required")
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("session not found")
			case errors.Is(err, domain.ErrNoActiveSessions):
				return nil, huma.Error404NotFound("no active sessions")
			case errors.Is(err, domain.ErrDisplayFailed):
				return nil, huma.Error502BadGateway("device display failed")
			default:
				return nil, huma.Error500InternalServerError("display request failed", err)
			}
		}

		out := &DisplayOutput{}
		out.Body.Status = "displayed"
		out.Body.Sessions = sessions
		out.Body.Text = input.Body.Text
		out.Body.Timestamp = time.Now().UTC()
		return out, nil
	})
}
