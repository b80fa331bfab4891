package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
)

// QueryHandler handles natural language query HTTP requests
type QueryHandler struct {
	query  interfaces.QueryService
	logger arbor.ILogger
}

// NewQueryHandler creates a new query handler with dependencies
func NewQueryHandler(query interfaces.QueryService, logger arbor.ILogger) *QueryHandler {
	return &QueryHandler{
		query:  query,
		logger: logger,
	}
}

// QueryNewsHandler handles POST /api/query with a JSON body and
// GET /api/query?q=... for quick lookups.
func (h *QueryHandler) QueryNewsHandler(w http.ResponseWriter, r *http.Request) {
	var query string

	switch r.Method {
	case http.MethodGet:
		query = r.URL.Query().Get("q")
	case http.MethodPost:
		var req models.QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Warn().Err(err).Msg("Failed to decode query request body")
			WriteError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		query = req.Query
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response, err := h.query.QueryNews(r.Context(), query)
	if err != nil {
		if errors.Is(err, models.ErrInvalidQuery) {
			WriteError(w, http.StatusBadRequest, "Query must not be empty")
			return
		}
		h.logger.Error().Err(err).Str("query", query).Msg("Failed to execute query")
		WriteError(w, http.StatusInternalServerError, "Failed to execute query")
		return
	}

	WriteJSON(w, http.StatusOK, response)
}
