package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	storage   interfaces.StoryStorage
	embedder  interfaces.EmbeddingService
	scheduler interfaces.SchedulerService
	startTime time.Time
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(storage interfaces.StoryStorage, embedder interfaces.EmbeddingService, scheduler interfaces.SchedulerService, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		storage:   storage,
		embedder:  embedder,
		scheduler: scheduler,
		startTime: time.Now(),
		logger:    logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ctx := r.Context()

	status := map[string]interface{}{
		"service":    "sentio",
		"status":     "ONLINE",
		"version":    common.GetVersion(),
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
		"goroutines": common.GetGoroutineCount(),
	}

	if h.embedder != nil {
		status["embedder"] = map[string]interface{}{
			"available": h.embedder.IsAvailable(ctx),
			"dimension": h.embedder.Dimension(),
		}
	}

	if h.storage != nil {
		stats, err := h.storage.GetStats(ctx)
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to load store stats")
		} else {
			status["store"] = stats
		}
	}

	if h.scheduler != nil {
		status["jobs"] = h.scheduler.JobStatuses()
	}

	WriteJSON(w, http.StatusOK, status)
}

// HealthHandler handles GET /health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
