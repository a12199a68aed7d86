package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

type HealthOutput struct {
	Body struct {
		Status         string    `json:"status"`
		EventsCount    int       `json:"events_count"`
		ActiveSessions int       `json:"active_sessions"`
		Timestamp      time.Time `json:"timestamp"`
	}
}

// RegisterHealthRoutes wires the detailed health check.
func RegisterHealthRoutes(api huma.API, svc RelayService) {
	huma.Register(api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Detailed health check",
		Tags:        []string{"Health"},
	}, func(_ context.Context, _ *struct{}) (*HealthOutput, error) {
		stats := svc.Stats()

		out := &HealthOutput{}
		out.Body.Status = "healthy"
		out.Body.EventsCount = stats.TotalEvents
		out.Body.ActiveSessions = stats.ActiveSessions
		out.Body.Timestamp = time.Now().UTC()
		return out, nil
	})
}
