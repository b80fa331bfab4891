package interfaces

import (
	"context"

	"github.com/ternarybob/sentio/internal/models"
)

// ListOptions configures story browsing.
type ListOptions struct {
	// Limit maximum number of results (default 50)
	Limit int

	// Offset for pagination
	Offset int

	// HeadlineFilter keeps only stories whose headline contains this
	// substring (case-insensitive)
	HeadlineFilter string

	// SortBy orders results: "date" (default, newest first), "date_asc"
	// (oldest first) or "headline"
	SortBy string
}

// ScoredStory pairs a story with its similarity to a probe embedding.
type ScoredStory struct {
	Story      *models.Story
	Similarity float64
}

// StoryStorage persists consolidated stories together with their embeddings
// and extracted analysis. Upserts are atomic with respect to concurrent
// nearest-neighbor reads: a reader sees either the full story or none of it.
type StoryStorage interface {
	// UpsertStory writes a story and its embedding
	UpsertStory(ctx context.Context, story *models.Story, embedding []float32) error

	// MergeOrCreate either folds the candidate into an existing story whose
	// embedding clears the threshold (returning merged=true and the
	// surviving story) or persists the candidate as new. The merge check
	// and the write are a single atomic step.
	MergeOrCreate(ctx context.Context, candidate *models.Story, embedding []float32, threshold float64) (story *models.Story, merged bool, err error)

	// Nearest returns stored stories whose cosine similarity to the probe
	// is >= threshold, ordered by descending similarity
	Nearest(ctx context.Context, embedding []float32, threshold float64, limit int) ([]ScoredStory, error)

	// GetStory retrieves a single story by id
	GetStory(ctx context.Context, id string) (*models.Story, error)

	// GetEmbedding retrieves the stored embedding for a story
	GetEmbedding(ctx context.Context, id string) ([]float32, error)

	// ListStories browses the corpus with filtering and sorting
	ListStories(ctx context.Context, opts *ListOptions) ([]*models.Story, error)

	// CountStories returns the total number of stored stories
	CountStories(ctx context.Context) (int, error)

	// GetStats summarizes the corpus
	GetStats(ctx context.Context) (*models.StoryStats, error)

	// ClearAll removes every stored story
	ClearAll(ctx context.Context) error
}

// StorageManager is the composite handle over all storage concerns.
type StorageManager interface {
	StoryStorage() StoryStorage

	// DB returns the underlying database for maintenance operations
	DB() interface{}

	// RunValueLogGC reclaims disk space from the Badger value log
	RunValueLogGC(discardRatio float64) error

	Close() error
}
