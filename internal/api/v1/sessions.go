package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/codeofhonor/glassbridge/internal/domain"
)

// detailHistoryLimit caps the history entries in a session detail view.
const detailHistoryLimit = 10

type ListSessionsOutput struct {
	Body struct {
		Sessions  []SessionSummary `json:"sessions"`
		Count     int              `json:"count"`
		Timestamp time.Time        `json:"timestamp"`
	}
}

type GetSessionInput struct {
	ID string `path:"id" doc:"Session ID"`
}

type GetSessionOutput struct {
	Body struct {
		SessionSummary
		CurrentTranscript string      `json:"current_transcript"`
		EventHistory      []EventView `json:"event_history" doc:"Most recent history entries"`
		Timestamp         time.Time   `json:"timestamp"`
	}
}

type HeartbeatInput struct {
	ID string `path:"id" doc:"Session ID"`
}

type HeartbeatOutput struct {
	Body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
}

// RegisterSessionRoutes wires the session inspection operations.
func RegisterSessionRoutes(api huma.API, svc RelayService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List active sessions",
		Tags:        []string{"Sessions"},
	}, func(_ context.Context, _ *struct{}) (*ListSessionsOutput, error) {
		sessions := svc.Sessions()

		summaries := make([]SessionSummary, len(sessions))
		for i, s := range sessions {
			summaries[i] = toSessionSummary(s)
		}

		out := &ListSessionsOutput{}
		out.Body.Sessions = summaries
		out.Body.Count = len(summaries)
		out.Body.Timestamp = time.Now().UTC()
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{id}",
		Summary:     "Get details for one session",
		Tags:        []string{"Sessions"},
	}, func(_ context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
		session, err := svc.Session(input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("session not found")
			}
			return nil, huma.Error500InternalServerError("failed to get session", err)
		}

		history := session.History
		if len(history) > detailHistoryLimit {
			history = history[len(history)-detailHistoryLimit:]
		}

		out := &GetSessionOutput{}
		out.Body.SessionSummary = toSessionSummary(session)
		out.Body.CurrentTranscript = session.CurrentTranscript
		out.Body.EventHistory = toEventViews(history)
		out.Body.Timestamp = time.Now().UTC()
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "session-heartbeat",
		Method:      http.MethodPost,
		Path:        "/sessions/{id}/heartbeat",
		Summary:     "Record a liveness ping for a session",
		Tags:        []string{"Sessions"},
	}, func(_ context.Context, input *HeartbeatInput) (*HeartbeatOutput, error) {
		if err := svc.Heartbeat(input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("session not found")
			}
			return nil, huma.Error500InternalServerError("heartbeat failed", err)
		}

		out := &HeartbeatOutput{}
		out.Body.Status = "updated"
		out.Body.Timestamp = time.Now().UTC()
		return out, nil
	})
}
