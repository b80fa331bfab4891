package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
)

// StoryHandler handles story browsing HTTP requests
type StoryHandler struct {
	storage interfaces.StoryStorage
	logger  arbor.ILogger
}

// NewStoryHandler creates a new story handler with dependencies
func NewStoryHandler(storage interfaces.StoryStorage, logger arbor.ILogger) *StoryHandler {
	return &StoryHandler{
		storage: storage,
		logger:  logger,
	}
}

// ListHandler handles GET /api/stories?limit=&offset=&filter=&sort=
func (h *StoryHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	offset := 0
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if parsed, err := strconv.Atoi(offsetStr); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	opts := &interfaces.ListOptions{
		Limit:          limit,
		Offset:         offset,
		HeadlineFilter: r.URL.Query().Get("filter"),
		SortBy:         r.URL.Query().Get("sort"),
	}

	ctx := r.Context()
	stories, err := h.storage.ListStories(ctx, opts)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list stories")
		WriteError(w, http.StatusInternalServerError, "Failed to list stories")
		return
	}

	total, err := h.storage.CountStories(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to count stories")
		WriteError(w, http.StatusInternalServerError, "Failed to count stories")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"stories": stories,
		"count":   len(stories),
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// GetHandler handles GET /api/stories/{id}
func (h *StoryHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/stories/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Story ID is required")
		return
	}

	story, err := h.storage.GetStory(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			WriteError(w, http.StatusNotFound, "Story not found")
			return
		}
		h.logger.Error().Err(err).Str("story_id", id).Msg("Failed to load story")
		WriteError(w, http.StatusInternalServerError, "Failed to load story")
		return
	}

	WriteJSON(w, http.StatusOK, story)
}
