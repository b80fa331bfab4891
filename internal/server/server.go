package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/sentio/internal/app"
)

// Server wraps the HTTP server and routes requests to application handlers.
type Server struct {
	app          *app.App
	router       *http.ServeMux
	server       *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// New creates a new HTTP server for the given application.
func New(application *app.App) *Server {
	s := &Server{
		app:    application,
		router: http.NewServeMux(),
	}

	s.routes()

	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withMiddleware(s.router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetShutdownChannel wires the channel closed by the /api/shutdown endpoint.
// The main process selects on this channel to trigger graceful shutdown.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// Handler returns the fully wired HTTP handler, including middleware.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening for HTTP requests. Blocks until the server stops.
func (s *Server) Start() error {
	s.app.Logger.Info().
		Str("address", s.server.Addr).
		Msg("HTTP server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.app.Logger.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}
