// Package server assembles the HTTP API on chi.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	apperrors "github.com/logai/logai/internal/errors"
	"github.com/logai/logai/internal/server/handlers"
	"github.com/logai/logai/internal/server/middleware"
)

// Deps are the wired endpoint handlers. Nil entries leave their routes
// unregistered, which keeps tests light.
type Deps struct {
	Search  http.Handler
	Spill   http.Handler
	Summary http.Handler

	// Metrics is the Prometheus scrape handler (promhttp).
	Metrics http.Handler

	Log *zap.Logger
}

// Server is the HTTP API listener.
type Server struct {
	host string
	port int
	mux  *chi.Mux
	http *http.Server
	log  *zap.Logger
}

// Timeouts configures the http.Server limits.
type Timeouts struct {
	Read  time.Duration
	Write time.Duration
	Idle  time.Duration
}

// New builds a server with routes registered.
func New(host string, port int, deps Deps) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}

	s := &Server{host: host, port: port, log: deps.Log}
	s.mux = s.routes(deps)
	return s
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens until ctx is done, then drains within the shutdown
// timeout.
func (s *Server) Start(ctx context.Context, t Timeouts, shutdownTimeout time.Duration) error {
	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.host, s.port),
		Handler:      s.mux,
		ReadTimeout:  t.Read,
		WriteTimeout: t.Write,
		IdleTimeout:  t.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) routes(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(chimiddleware.RealIP)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, http.StatusNotFound, "NOT_FOUND",
			fmt.Sprintf("no route for %s %s", req.Method, req.URL.Path), nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			fmt.Sprintf("%s not allowed on %s", req.Method, req.URL.Path), nil)
	})

	r.Get("/health", handlers.HealthHandler)
	r.Get("/health/live", handlers.LivenessHandler)
	r.Get("/health/ready", handlers.ReadinessHandler)
	r.Get("/health/startup", handlers.StartupHandler)
	r.Get("/version", handlers.VersionHandler)

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Search != nil {
			r.Method(http.MethodPost, "/search", deps.Search)
		}
		if deps.Spill != nil {
			r.Method(http.MethodGet, "/spill", deps.Spill)
		}
		if deps.Summary != nil {
			r.Method(http.MethodGet, "/metrics/summary", deps.Summary)
		}
	})

	return r
}
