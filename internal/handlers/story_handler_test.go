package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
	badgerstorage "github.com/ternarybob/sentio/internal/storage/badger"
)

func newTestStorage(t *testing.T) interfaces.StoryStorage {
	t.Helper()

	db, err := badgerstorage.NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return badgerstorage.NewStoryStorage(db, arbor.NewLogger())
}

func seedStories(t *testing.T, storage interfaces.StoryStorage) {
	t.Helper()

	stories := []*models.Story{
		{
			ID:          "story_a",
			Headline:    "HDFC Bank posts record profit",
			Content:     "Quarterly numbers beat estimates.",
			Sources:     []string{"Economic Times"},
			PublishedAt: time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          "story_b",
			Headline:    "RBI raises repo rate",
			Content:     "Policy tightening continues.",
			Sources:     []string{"Reuters"},
			PublishedAt: time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:          "story_c",
			Headline:    "TCS wins large deal",
			Content:     "Multi-year contract with US client.",
			Sources:     []string{"Mint"},
			PublishedAt: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		},
	}
	for _, story := range stories {
		if err := storage.UpsertStory(context.Background(), story, []float32{1, 0, 0}); err != nil {
			t.Fatalf("Failed to seed story %s: %v", story.ID, err)
		}
	}
}

type listResponse struct {
	Stories []models.Story `json:"stories"`
	Count   int            `json:"count"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

func doList(t *testing.T, handler *StoryHandler, target string) listResponse {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ListHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want %d", target, rec.Code, http.StatusOK)
	}
	var resp listResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode list response: %v", err)
	}
	return resp
}

func TestListHandlerDefaultsToNewestFirst(t *testing.T) {
	storage := newTestStorage(t)
	seedStories(t, storage)
	handler := NewStoryHandler(storage, arbor.NewLogger())

	resp := doList(t, handler, "/api/stories")

	if resp.Count != 3 || resp.Total != 3 {
		t.Errorf("count = %d total = %d, want 3 and 3", resp.Count, resp.Total)
	}
	if resp.Limit != 50 || resp.Offset != 0 {
		t.Errorf("limit = %d offset = %d, want 50 and 0", resp.Limit, resp.Offset)
	}
	want := []string{"story_b", "story_c", "story_a"}
	for i, story := range resp.Stories {
		if story.ID != want[i] {
			t.Errorf("stories[%d].ID = %s, want %s", i, story.ID, want[i])
		}
	}
}

func TestListHandlerSortByHeadline(t *testing.T) {
	storage := newTestStorage(t)
	seedStories(t, storage)
	handler := NewStoryHandler(storage, arbor.NewLogger())

	resp := doList(t, handler, "/api/stories?sort=headline")

	want := []string{"story_a", "story_b", "story_c"}
	for i, story := range resp.Stories {
		if story.ID != want[i] {
			t.Errorf("stories[%d].ID = %s, want %s", i, story.ID, want[i])
		}
	}
}

func TestListHandlerHeadlineFilter(t *testing.T) {
	storage := newTestStorage(t)
	seedStories(t, storage)
	handler := NewStoryHandler(storage, arbor.NewLogger())

	resp := doList(t, handler, "/api/stories?filter=hdfc")

	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}
	if resp.Stories[0].ID != "story_a" {
		t.Errorf("stories[0].ID = %s, want story_a", resp.Stories[0].ID)
	}
	// Total reflects the whole corpus, not the filtered page.
	if resp.Total != 3 {
		t.Errorf("total = %d, want 3", resp.Total)
	}
}

func TestListHandlerPagination(t *testing.T) {
	storage := newTestStorage(t)
	seedStories(t, storage)
	handler := NewStoryHandler(storage, arbor.NewLogger())

	resp := doList(t, handler, "/api/stories?limit=2")
	if resp.Count != 2 || resp.Limit != 2 {
		t.Errorf("count = %d limit = %d, want 2 and 2", resp.Count, resp.Limit)
	}

	resp = doList(t, handler, "/api/stories?limit=2&offset=2")
	if resp.Count != 1 || resp.Offset != 2 {
		t.Errorf("count = %d offset = %d, want 1 and 2", resp.Count, resp.Offset)
	}
	if resp.Stories[0].ID != "story_a" {
		t.Errorf("stories[0].ID = %s, want story_a", resp.Stories[0].ID)
	}
}

func TestListHandlerClampsLimit(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewStoryHandler(storage, arbor.NewLogger())

	resp := doList(t, handler, "/api/stories?limit=5000")
	if resp.Limit != 200 {
		t.Errorf("limit = %d, want 200", resp.Limit)
	}

	resp = doList(t, handler, "/api/stories?limit=-3")
	if resp.Limit != 50 {
		t.Errorf("limit = %d, want 50", resp.Limit)
	}
}

func TestGetHandlerReturnsStory(t *testing.T) {
	storage := newTestStorage(t)
	seedStories(t, storage)
	handler := NewStoryHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/stories/story_b", nil)
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var story models.Story
	if err := json.NewDecoder(rec.Body).Decode(&story); err != nil {
		t.Fatalf("Failed to decode story: %v", err)
	}
	if story.ID != "story_b" || story.Headline != "RBI raises repo rate" {
		t.Errorf("story = %s %q, want story_b with RBI headline", story.ID, story.Headline)
	}
}

func TestGetHandlerNotFound(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewStoryHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/stories/story_missing", nil)
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var envelope map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("Failed to decode error envelope: %v", err)
	}
	if envelope["status"] != "error" {
		t.Errorf("envelope status = %q, want error", envelope["status"])
	}
}

func TestGetHandlerRequiresID(t *testing.T) {
	storage := newTestStorage(t)
	handler := NewStoryHandler(storage, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/stories/", nil)
	rec := httptest.NewRecorder()
	handler.GetHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
