package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/codeofhonor/glassbridge/internal/api/v1"
	"github.com/codeofhonor/glassbridge/internal/api/ws"
	"github.com/codeofhonor/glassbridge/internal/config"
	"github.com/codeofhonor/glassbridge/internal/relay"
	"github.com/codeofhonor/glassbridge/internal/server/middleware"
)

// Server is the HTTP server that wires all relay routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	relay      *relay.Service
	wsHub      *ws.Hub
	cfg        *config.Config
}

// New creates a Server with all routes wired. dashboardAssets may be
// nil; when provided, the monitoring dashboard is served on /dashboard
// (embedded via go:embed for single-binary distribution).
func New(ctx context.Context, cfg *config.Config, svc *relay.Service, broker *relay.Broker, dashboardAssets fs.FS) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID", "X-Webhook-Signature"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}).Handler)

	hub := ws.NewHub(broker)

	s := &Server{
		router: router,
		relay:  svc,
		wsHub:  hub,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// The polling API, rate limited per client IP.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

		apiConfig := huma.DefaultConfig("Glassbridge API", "1.0.0")
		api := humachi.New(r, apiConfig)
		v1.RegisterHealthRoutes(api, svc)
		v1.RegisterEventRoutes(api, svc)
		v1.RegisterDisplayRoutes(api, svc)
		v1.RegisterSessionRoutes(api, svc)
	})

	// Device-facing webhook ingest, outside the per-IP limit so bursts
	// of transcription chunks are never throttled.
	router.Post("/webhook", s.handleWebhook)

	// Live event stream for the dashboard.
	router.Get("/ws/events", hub.ServeEvents)

	// Service info (unauthenticated liveness).
	router.Get("/", s.handleInfo)

	// Embedded monitoring dashboard.
	if dashboardAssets != nil {
		registerDashboard(router, dashboardAssets)
		log.Info().Msg("embedded dashboard enabled")
	}

	return s
}

// handleInfo reports service identity and queue/session counts.
func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	stats := s.relay.Stats()

	writeJSON(w, http.StatusOK, map[string]any{
		"service":         "glassbridge relay",
		"status":          "healthy",
		"events_queued":   stats.TotalEvents,
		"active_sessions": stats.ActiveSessions,
		"package_name":    s.cfg.Device.PackageName,
		"timestamp":       time.Now().UTC(),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
