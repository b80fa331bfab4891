package pipeline

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
)

// Service runs the full ingestion pipeline: validation, deduplication,
// entity extraction and persistence. Per-article and per-story failures are
// collected into the result; only storage failures abort a call.
type Service struct {
	dedup     interfaces.DedupService
	extractor interfaces.ExtractorService
	storage   interfaces.StoryStorage
	events    interfaces.EventService
	validate  *validator.Validate
	logger    arbor.ILogger
}

// NewService creates a pipeline service
func NewService(
	dedupService interfaces.DedupService,
	extractorService interfaces.ExtractorService,
	storage interfaces.StoryStorage,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	return &Service{
		dedup:     dedupService,
		extractor: extractorService,
		storage:   storage,
		events:    events,
		validate:  validator.New(),
		logger:    logger,
	}
}

// ProcessNews consolidates a batch of raw articles into stories. Invalid
// articles and failed embeddings are excluded and recorded; extraction
// failures keep the story with empty entities. A storage failure aborts the
// whole call with no partial story persisted for the failing cluster.
func (s *Service) ProcessNews(ctx context.Context, articles []models.Article) (*models.ProcessResult, error) {
	start := time.Now()

	result := &models.ProcessResult{
		IngestedArticles: len(articles),
		ProcessedNews:    []models.ProcessedStory{},
		Assignments:      []models.Assignment{},
		Errors:           []models.ProcessingError{},
	}

	valid, originalIndex := s.validateArticles(articles, result)
	if len(valid) == 0 {
		s.logger.Info().
			Int("articles", len(articles)).
			Int("errors", len(result.Errors)).
			Msg("Batch contained no valid articles")
		return result, nil
	}

	clustered, assignments, procErrors, err := s.dedup.Deduplicate(ctx, valid)
	if err != nil {
		return nil, err
	}

	// Dedup indexes refer to the validated slice; translate back to the
	// caller's batch positions
	for _, procErr := range procErrors {
		procErr.ArticleIndex = originalIndex[procErr.ArticleIndex]
		result.Errors = append(result.Errors, procErr)
	}
	for _, assignment := range assignments {
		assignment.ArticleIndex = originalIndex[assignment.ArticleIndex]
		result.Assignments = append(result.Assignments, assignment)
	}

	mergedCount := 0
	for _, cluster := range clustered {
		story := cluster.Story

		entities, impacts, extractErr := s.extractor.Extract(story)
		if extractErr != nil {
			extractionErr := &models.ExtractionError{StoryID: story.ID, Err: extractErr}
			s.logger.Warn().Err(extractionErr).Str("story_id", story.ID).Msg("Extraction failed, keeping story with empty entities")
			result.Errors = append(result.Errors, models.ProcessingError{
				ArticleIndex: -1,
				Headline:     story.Headline,
				Stage:        models.StageExtraction,
				Message:      extractionErr.Error(),
			})
			entities = models.NewEntitySet()
			impacts = []models.StockImpact{}
		}
		story.Entities = entities
		story.Impacts = impacts

		if err := s.persist(ctx, story); err != nil {
			return nil, err
		}

		if cluster.Merged {
			mergedCount++
		}
		s.publishStoryEvent(story, cluster.Merged)

		result.ProcessedNews = append(result.ProcessedNews, models.ProcessedStory{
			StoryID:      story.ID,
			Headline:     story.Headline,
			Summary:      story.Summary,
			Sources:      story.Sources,
			Merged:       cluster.Merged,
			Entities:     story.Entities,
			StockImpacts: story.Impacts,
		})
	}
	result.ConsolidatedCount = len(result.ProcessedNews)

	if s.events != nil {
		s.events.Publish(interfaces.Event{
			Type: interfaces.EventBatchProcessed,
			Data: map[string]interface{}{
				"ingested_articles":    result.IngestedArticles,
				"consolidated_stories": result.ConsolidatedCount,
				"errors":               len(result.Errors),
			},
		})
	}

	s.logger.Info().
		Int("articles", len(articles)).
		Int("stories", result.ConsolidatedCount).
		Int("merged", mergedCount).
		Int("errors", len(result.Errors)).
		Dur("duration", time.Since(start)).
		Msg("Batch processed")

	return result, nil
}

// validateArticles normalizes and validates the batch, recording failures.
// It returns the surviving articles and their positions in the input batch.
func (s *Service) validateArticles(articles []models.Article, result *models.ProcessResult) ([]models.Article, []int) {
	valid := make([]models.Article, 0, len(articles))
	originalIndex := make([]int, 0, len(articles))

	for i := range articles {
		article := articles[i]
		article.Normalize()
		if err := s.validate.Struct(&article); err != nil {
			s.logger.Warn().
				Int("article_index", i).
				Str("headline", article.Headline).
				Err(err).
				Msg("Article failed validation")
			result.Errors = append(result.Errors, models.ProcessingError{
				ArticleIndex: i,
				Headline:     article.Headline,
				Stage:        models.StageValidation,
				Message:      err.Error(),
			})
			continue
		}
		valid = append(valid, article)
		originalIndex = append(originalIndex, i)
	}

	return valid, originalIndex
}

// persist writes the story with its extracted analysis over the copy the
// deduplicator stored, reusing the embedding already in the store
func (s *Service) persist(ctx context.Context, story *models.Story) error {
	embedding, err := s.storage.GetEmbedding(ctx, story.ID)
	if err != nil {
		return &models.StoreError{Op: "load embedding", Err: err}
	}
	if err := s.storage.UpsertStory(ctx, story, embedding); err != nil {
		return &models.StoreError{Op: "persist story", Err: err}
	}
	return nil
}

func (s *Service) publishStoryEvent(story *models.Story, merged bool) {
	if s.events == nil {
		return
	}

	eventType := interfaces.EventStoryCreated
	if merged {
		eventType = interfaces.EventStoryMerged
	}
	s.events.Publish(interfaces.Event{
		Type: eventType,
		Data: map[string]interface{}{
			"story_id": story.ID,
			"headline": story.Headline,
			"sources":  story.Sources,
		},
	})
}
