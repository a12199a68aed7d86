package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type PollEventsInput struct {
	Since uint64 `query:"since" minimum:"0" default:"0" doc:"Logical index to resume from"`
	Limit int    `query:"limit" minimum:"1" maximum:"100" default:"100" doc:"Max events to return"`
}

type PollEventsOutput struct {
	Body struct {
		Events      []EventView `json:"events"`
		Count       uint64      `json:"count" doc:"Total events ever appended"`
		LastIndex   uint64      `json:"last_index" doc:"Cursor for the next poll"`
		OldestIndex uint64      `json:"oldest_index" doc:"Oldest retained logical index; a since below this lost events to eviction"`
	}
}

type ClearEventsOutput struct {
	Body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
}

type StatsOutput struct {
	Body struct {
		TotalEvents    int            `json:"total_events"`
		EventTypes     map[string]int `json:"event_types"`
		ActiveSessions int            `json:"active_sessions"`
		QueueCapacity  int            `json:"queue_capacity"`
		Timestamp      time.Time      `json:"timestamp"`
	}
}

// RegisterEventRoutes wires the polling, clearing, and stats operations.
func RegisterEventRoutes(api huma.API, svc RelayService) {
	huma.Register(api, huma.Operation{
		OperationID: "poll-events",
		Method:      http.MethodGet,
		Path:        "/events",
		Summary:     "Poll for new events",
		Tags:        []string{"Events"},
	}, func(_ context.Context, input *PollEventsInput) (*PollEventsOutput, error) {
		result := svc.Poll(input.Since, input.Limit)

		out := &PollEventsOutput{}
		out.Body.Events = toEventViews(result.Events)
		out.Body.Count = result.Total
		out.Body.LastIndex = result.LastIndex
		out.Body.OldestIndex = result.OldestIndex
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-events",
		Method:      http.MethodDelete,
		Path:        "/events",
		Summary:     "Clear the event queue (operator action)",
		Tags:        []string{"Events"},
	}, func(_ context.Context, _ *struct{}) (*ClearEventsOutput, error) {
		svc.ClearEvents()

		out := &ClearEventsOutput{}
		out.Body.Status = "cleared"
		out.Body.Timestamp = time.Now().UTC()
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Aggregate event and session counts",
		Tags:        []string{"Events"},
	}, func(_ context.Context, _ *struct{}) (*StatsOutput, error) {
		stats := svc.Stats()

		out := &StatsOutput{}
		out.Body.TotalEvents = stats.TotalEvents
		out.Body.EventTypes = stats.CountsByKind
		out.Body.ActiveSessions = stats.ActiveSessions
		out.Body.QueueCapacity = stats.QueueCapacity
		out.Body.Timestamp = time.Now().UTC()
		return out, nil
	})
}
