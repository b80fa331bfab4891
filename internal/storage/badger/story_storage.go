package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
)

// StoryStorage implements the StoryStorage interface for Badger. A single
// writer mutex makes the merge check and the following write one atomic
// step, so two similar stories arriving concurrently cannot both pass the
// no-match check and create duplicates.
type StoryStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// storyRecord is the persisted unit: the story document together with its
// embedding vector, so similarity scans never need a second lookup
type storyRecord struct {
	ID        string
	Story     models.Story
	Embedding []float32
}

// scoredRecord pairs a record with its similarity during a scan
type scoredRecord struct {
	record     storyRecord
	similarity float64
}

// NewStoryStorage creates a new StoryStorage instance
func NewStoryStorage(db *BadgerDB, logger arbor.ILogger) interfaces.StoryStorage {
	return &StoryStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertStory writes a story and its embedding. Zero timestamps are
// filled in; set timestamps are preserved.
func (s *StoryStorage) UpsertStory(ctx context.Context, story *models.Story, embedding []float32) error {
	if story == nil || story.ID == "" {
		return fmt.Errorf("story ID is required")
	}

	now := time.Now()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	if story.UpdatedAt.IsZero() {
		story.UpdatedAt = now
	}

	record := storyRecord{
		ID:        story.ID,
		Story:     *story,
		Embedding: embedding,
	}
	if err := s.db.Store().Upsert(story.ID, &record); err != nil {
		return fmt.Errorf("failed to save story: %w", err)
	}
	return nil
}

// MergeOrCreate folds the candidate into the closest stored story when one
// clears the threshold, otherwise inserts it as a new story. A merge keeps
// the existing story's identity, headline and embedding and only extends
// provenance; the returned bool reports whether a merge happened.
func (s *StoryStorage) MergeOrCreate(ctx context.Context, candidate *models.Story, embedding []float32, threshold float64) (*models.Story, bool, error) {
	if candidate == nil || candidate.ID == "" {
		return nil, false, fmt.Errorf("story ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	matches, err := s.scanNearest(embedding, threshold, 1)
	if err != nil {
		return nil, false, err
	}

	if len(matches) > 0 {
		existing := matches[0].record.Story
		for _, source := range candidate.Sources {
			existing.AddSource(source)
		}
		for _, url := range candidate.URLs {
			existing.AddURL(url)
		}
		if !candidate.PublishedAt.IsZero() &&
			(existing.PublishedAt.IsZero() || candidate.PublishedAt.Before(existing.PublishedAt)) {
			existing.PublishedAt = candidate.PublishedAt
		}
		existing.UpdatedAt = time.Now()

		record := storyRecord{
			ID:        existing.ID,
			Story:     existing,
			Embedding: matches[0].record.Embedding,
		}
		if err := s.db.Store().Upsert(existing.ID, &record); err != nil {
			return nil, false, fmt.Errorf("failed to save merged story: %w", err)
		}

		s.logger.Debug().
			Str("story_id", existing.ID).
			Float64("similarity", matches[0].similarity).
			Msg("Merged candidate into existing story")

		return &existing, true, nil
	}

	now := time.Now()
	if candidate.CreatedAt.IsZero() {
		candidate.CreatedAt = now
	}
	candidate.UpdatedAt = now

	record := storyRecord{
		ID:        candidate.ID,
		Story:     *candidate,
		Embedding: embedding,
	}
	if err := s.db.Store().Upsert(candidate.ID, &record); err != nil {
		return nil, false, fmt.Errorf("failed to save story: %w", err)
	}

	return candidate, false, nil
}

// Nearest returns up to limit stored stories whose embedding similarity to
// the probe meets the threshold, most similar first
func (s *StoryStorage) Nearest(ctx context.Context, embedding []float32, threshold float64, limit int) ([]interfaces.ScoredStory, error) {
	matches, err := s.scanNearest(embedding, threshold, limit)
	if err != nil {
		return nil, err
	}

	result := make([]interfaces.ScoredStory, 0, len(matches))
	for _, m := range matches {
		story := m.record.Story
		result = append(result, interfaces.ScoredStory{
			Story:      &story,
			Similarity: m.similarity,
		})
	}
	return result, nil
}

// scanNearest brute-force scans every stored embedding. The corpus is
// small enough that a linear cosine scan beats maintaining an index.
func (s *StoryStorage) scanNearest(embedding []float32, threshold float64, limit int) ([]scoredRecord, error) {
	var records []storyRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to scan stories: %w", err)
	}

	matches := make([]scoredRecord, 0, len(records))
	for _, record := range records {
		similarity := common.CosineSimilarity(embedding, record.Embedding)
		if similarity >= threshold {
			matches = append(matches, scoredRecord{record: record, similarity: similarity})
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].similarity != matches[j].similarity {
			return matches[i].similarity > matches[j].similarity
		}
		return matches[i].record.ID < matches[j].record.ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// GetStory retrieves a story by ID
func (s *StoryStorage) GetStory(ctx context.Context, id string) (*models.Story, error) {
	var record storyRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", models.ErrStoryNotFound, id)
		}
		return nil, fmt.Errorf("failed to get story: %w", err)
	}
	return &record.Story, nil
}

// GetEmbedding retrieves a story's stored embedding by ID
func (s *StoryStorage) GetEmbedding(ctx context.Context, id string) ([]float32, error) {
	var record storyRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("%w: %s", models.ErrStoryNotFound, id)
		}
		return nil, fmt.Errorf("failed to get story embedding: %w", err)
	}
	return record.Embedding, nil
}

// ListStories returns stories filtered and ordered per opts
func (s *StoryStorage) ListStories(ctx context.Context, opts *interfaces.ListOptions) ([]*models.Story, error) {
	var records []storyRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	stories := make([]*models.Story, 0, len(records))
	var filter string
	if opts != nil && opts.HeadlineFilter != "" {
		filter = strings.ToLower(opts.HeadlineFilter)
	}
	for i := range records {
		if filter != "" && !strings.Contains(strings.ToLower(records[i].Story.Headline), filter) {
			continue
		}
		stories = append(stories, &records[i].Story)
	}

	sortBy := ""
	if opts != nil {
		sortBy = opts.SortBy
	}
	sortStories(stories, sortBy)

	offset := 0
	limit := 50
	if opts != nil {
		if opts.Offset > 0 {
			offset = opts.Offset
		}
		if opts.Limit > 0 {
			limit = opts.Limit
		}
	}
	if offset >= len(stories) {
		return []*models.Story{}, nil
	}
	stories = stories[offset:]
	if len(stories) > limit {
		stories = stories[:limit]
	}
	return stories, nil
}

// sortStories orders the slice per the requested sort key. Ties fall back
// to story ID so pagination stays stable.
func sortStories(stories []*models.Story, sortBy string) {
	switch sortBy {
	case "date_asc":
		sort.Slice(stories, func(i, j int) bool {
			if !stories[i].PublishedAt.Equal(stories[j].PublishedAt) {
				return stories[i].PublishedAt.Before(stories[j].PublishedAt)
			}
			return stories[i].ID < stories[j].ID
		})
	case "headline":
		sort.Slice(stories, func(i, j int) bool {
			hi := strings.ToLower(stories[i].Headline)
			hj := strings.ToLower(stories[j].Headline)
			if hi != hj {
				return hi < hj
			}
			return stories[i].ID < stories[j].ID
		})
	default: // "date", newest first
		sort.Slice(stories, func(i, j int) bool {
			if !stories[i].PublishedAt.Equal(stories[j].PublishedAt) {
				return stories[i].PublishedAt.After(stories[j].PublishedAt)
			}
			return stories[i].ID < stories[j].ID
		})
	}
}

// CountStories returns the total number of stored stories
func (s *StoryStorage) CountStories(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&storyRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count stories: %w", err)
	}
	return int(count), nil
}

// GetStats summarizes the stored corpus for the status surface
func (s *StoryStorage) GetStats(ctx context.Context) (*models.StoryStats, error) {
	var records []storyRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to load stories for stats: %w", err)
	}

	stats := &models.StoryStats{
		TotalStories:    len(records),
		StoriesBySector: make(map[string]int),
	}
	for _, record := range records {
		stats.TotalImpacts += len(record.Story.Impacts)
		for _, sector := range record.Story.Entities.Sectors {
			stats.StoriesBySector[sector]++
		}
		if stats.VectorDimension == 0 && len(record.Embedding) > 0 {
			stats.VectorDimension = len(record.Embedding)
		}
		if record.Story.UpdatedAt.After(stats.LastUpdated) {
			stats.LastUpdated = record.Story.UpdatedAt
		}
	}
	return stats, nil
}

// ClearAll deletes every stored story
func (s *StoryStorage) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Store().DeleteMatching(&storyRecord{}, badgerhold.Where("ID").Ne("")); err != nil {
		return fmt.Errorf("failed to clear stories: %w", err)
	}
	s.logger.Info().Msg("Cleared all stored stories")
	return nil
}
