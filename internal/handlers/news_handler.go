package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
)

// ProcessRequest is the JSON body for POST /api/news/process.
type ProcessRequest struct {
	Articles []models.Article `json:"articles"`
}

// NewsHandler handles news ingestion HTTP requests
type NewsHandler struct {
	pipeline interfaces.PipelineService
	logger   arbor.ILogger
}

// NewNewsHandler creates a new news handler with dependencies
func NewNewsHandler(pipeline interfaces.PipelineService, logger arbor.ILogger) *NewsHandler {
	return &NewsHandler{
		pipeline: pipeline,
		logger:   logger,
	}
}

// ProcessHandler handles POST /api/news/process
func (h *NewsHandler) ProcessHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn().Err(err).Msg("Failed to decode process request body")
		WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	h.logger.Info().
		Int("articles", len(req.Articles)).
		Msg("Process request received")

	result, err := h.pipeline.ProcessNews(r.Context(), req.Articles)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to process news batch")
		WriteError(w, http.StatusInternalServerError, "Failed to process news batch")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
