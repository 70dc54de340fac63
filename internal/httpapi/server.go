// Package httpapi exposes the job submission, status, event-stream,
// and availability surface over HTTP, following the teacher's
// ServeMux + withMiddleware(http.Server) shape.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/bountyforge/bountyforge/internal/adapter"
	"github.com/bountyforge/bountyforge/internal/eventbus"
	"github.com/bountyforge/bountyforge/internal/queue"
	"github.com/bountyforge/bountyforge/internal/store"
)

// Server is the BountyForge HTTP API.
type Server struct {
	logger   arbor.ILogger
	router   *http.ServeMux
	server   *http.Server
	jobs     *JobsHandler
	events   *EventsHandler
	ws       *WSHandler
	avail    *AvailabilityHandler
}

// New constructs a Server bound to host:port, wired to the given
// queue, store, bus, and adapter registry.
func New(host string, port int, q queue.Queue, st store.Gateway, bus *eventbus.Bus, registry *adapter.Registry, logger arbor.ILogger) *Server {
	s := &Server{
		logger: logger,
		jobs:   NewJobsHandler(q, st, logger),
		events: NewEventsHandler(bus, logger),
		ws:     NewWSHandler(bus, logger),
		avail:  NewAvailabilityHandler(registry),
	}
	s.router = s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", host, port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // streaming endpoints (SSE/WS) hold the connection open
		IdleTimeout:  120 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", s.jobs.Submit)
	mux.HandleFunc("GET /jobs/{id}", s.jobs.Get)
	mux.HandleFunc("GET /jobs", s.jobs.List)
	mux.HandleFunc("GET /jobs/{id}/events", s.events.Stream)
	mux.HandleFunc("GET /jobs/{id}/ws", s.ws.Handle)
	mux.HandleFunc("GET /availability", s.avail.Get)
	return mux
}

func (s *Server) withMiddleware(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		start := time.Now()
		handler.ServeHTTP(w, r)
		s.logger.Debug().Str("method", r.Method).Str("path", r.URL.Path).Dur("duration", time.Since(start)).Msg("request handled")
	})
}

// Start runs the HTTP server; it blocks until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.server.Addr).Msg("HTTP API starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the composed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
