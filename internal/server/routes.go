package server

import (
	"net/http"

	"github.com/ternarybob/sentio/internal/handlers"
)

// routes registers all HTTP endpoints on the router.
func (s *Server) routes() {
	// News ingestion
	s.router.HandleFunc("/api/news/process", s.app.NewsHandler.ProcessHandler)

	// Query
	s.router.HandleFunc("/api/query", s.app.QueryHandler.QueryNewsHandler)

	// Stories
	s.router.HandleFunc("/api/stories", s.app.StoryHandler.ListHandler)
	s.router.HandleFunc("/api/stories/", s.app.StoryHandler.GetHandler)

	// Service status
	s.router.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	s.router.HandleFunc("/health", s.app.StatusHandler.HealthHandler)

	// Real-time event stream
	s.router.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// Development-only remote shutdown
	s.router.HandleFunc("/api/shutdown", s.ShutdownHandler)
}

// ShutdownHandler triggers a graceful process shutdown via the shutdown
// channel. Only available in non-production environments.
func (s *Server) ShutdownHandler(w http.ResponseWriter, r *http.Request) {
	if !handlers.RequireMethod(w, r, http.MethodPost) {
		return
	}

	if s.app.Config.IsProduction() || s.shutdownChan == nil {
		http.NotFound(w, r)
		return
	}

	s.app.Logger.Info().Msg("Shutdown requested via API")
	handlers.WriteSuccess(w, "Shutting down")

	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
	})
}
