package interfaces

import (
	"context"

	"github.com/ternarybob/sentio/internal/models"
)

// PipelineService ingests raw articles and consolidates them into stories.
type PipelineService interface {
	// ProcessNews runs the full pipeline over a batch of articles:
	// embedding, duplicate clustering, historical merge, entity
	// extraction and impact scoring. Per-article failures are collected
	// in the result rather than aborting the batch.
	ProcessNews(ctx context.Context, articles []models.Article) (*models.ProcessResult, error)
}

// QueryService answers natural-language questions over stored stories.
type QueryService interface {
	// QueryNews expands the query, retrieves relevant stories and builds
	// a ranked, explained response. An empty query is rejected before
	// any retrieval work.
	QueryNews(ctx context.Context, query string) (*models.QueryResponse, error)
}

// DedupService clusters a validated batch against itself and against
// stored history, persisting the surviving stories.
type DedupService interface {
	Deduplicate(ctx context.Context, articles []models.Article) ([]models.ClusteredStory, []models.Assignment, []models.ProcessingError, error)
}

// ExtractorService derives the entity set and stock impacts of a story.
type ExtractorService interface {
	Extract(story *models.Story) (models.EntitySet, []models.StockImpact, error)
}
