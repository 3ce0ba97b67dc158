// Package httpadapter serves the monitoring API alongside health, readiness
// and metrics endpoints.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/rockfall-risk-service/internal/display"
	"github.com/couchcryptid/rockfall-risk-service/internal/monitor"
	"github.com/couchcryptid/rockfall-risk-service/internal/poller"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor runs submissions. *monitor.Service satisfies it.
type Monitor interface {
	Submit(ctx context.Context, latRaw, lonRaw string) monitor.Outcome
	Stop() bool
}

// BoardView exposes the live display state.
type BoardView interface {
	Snapshot() display.State
}

// SessionView exposes the polling session.
type SessionView interface {
	Snapshot() poller.Session
}

// API groups the components behind the /api routes.
type API struct {
	Monitor Monitor
	Board   BoardView
	Session SessionView
}

// Server exposes the monitoring API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	api        API
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /api, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, api API, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		api:    api,
		logger: logger,
	}

	mux.HandleFunc("POST /api/location", s.handleLocation)
	mux.HandleFunc("POST /api/stop", s.handleStop)
	mux.HandleFunc("GET /api/state", s.handleState)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
