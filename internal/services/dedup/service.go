package dedup

import (
	"context"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
)

// Service clusters a batch of articles into stories and folds each cluster
// into the persisted corpus. Clustering is greedy first-match in input
// order: an article joins the first cluster whose representative (the
// cluster's first article) it matches at or above the similarity
// threshold, otherwise it starts a new cluster. The representative never
// changes as a cluster grows, so clustering depends only on input order.
type Service struct {
	embedder  interfaces.EmbeddingService
	storage   interfaces.StoryStorage
	threshold float64
	logger    arbor.ILogger
}

// embeddedArticle carries an article through clustering with its batch
// position and vector
type embeddedArticle struct {
	article models.Article
	index   int
	vector  []float32
}

type cluster struct {
	representative []float32
	articles       []embeddedArticle
}

// NewService creates a deduplicator. The threshold comes from pipeline
// configuration.
func NewService(embedder interfaces.EmbeddingService, storage interfaces.StoryStorage, threshold float64, logger arbor.ILogger) *Service {
	return &Service{
		embedder:  embedder,
		storage:   storage,
		threshold: threshold,
		logger:    logger,
	}
}

// Deduplicate consolidates a batch into stories. Per-article embedding
// failures are isolated into the returned error list and the batch
// continues without those articles; a storage failure is fatal and aborts
// the call.
func (s *Service) Deduplicate(ctx context.Context, articles []models.Article) ([]models.ClusteredStory, []models.Assignment, []models.ProcessingError, error) {
	var procErrors []models.ProcessingError

	embedded := make([]embeddedArticle, 0, len(articles))
	for i, article := range articles {
		vector, err := s.embedder.EmbedStory(ctx, article.Headline, article.Content)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Int("article_index", i).
				Str("headline", article.Headline).
				Msg("Embedding failed, skipping article")
			procErrors = append(procErrors, models.ProcessingError{
				ArticleIndex: i,
				Headline:     article.Headline,
				Stage:        models.StageEmbedding,
				Message:      err.Error(),
			})
			continue
		}
		embedded = append(embedded, embeddedArticle{article: article, index: i, vector: vector})
	}

	clusters := s.clusterBatch(embedded)

	stories := make([]models.ClusteredStory, 0, len(clusters))
	assignments := make([]models.Assignment, 0, len(embedded))
	for _, c := range clusters {
		candidate := buildCandidate(c)

		story, merged, err := s.storage.MergeOrCreate(ctx, candidate, c.representative, s.threshold)
		if err != nil {
			return nil, nil, procErrors, &models.StoreError{Op: "merge", Err: err}
		}

		stories = append(stories, models.ClusteredStory{Story: story, Merged: merged})
		for _, a := range c.articles {
			assignments = append(assignments, models.Assignment{
				ArticleIndex: a.index,
				StoryID:      story.ID,
			})
		}
	}

	s.logger.Info().
		Int("articles", len(articles)).
		Int("stories", len(stories)).
		Int("errors", len(procErrors)).
		Msg("Batch deduplicated")

	return stories, assignments, procErrors, nil
}

// clusterBatch groups embedded articles by greedy first-match against
// cluster representatives
func (s *Service) clusterBatch(embedded []embeddedArticle) []*cluster {
	var clusters []*cluster
	for _, item := range embedded {
		placed := false
		for _, c := range clusters {
			if common.CosineSimilarity(item.vector, c.representative) >= s.threshold {
				c.articles = append(c.articles, item)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, &cluster{
				representative: item.vector,
				articles:       []embeddedArticle{item},
			})
		}
	}
	return clusters
}

// buildCandidate shapes a cluster into a story candidate. The first
// article supplies the canonical headline and content; every article
// contributes its source and URL; the earliest date becomes PublishedAt.
func buildCandidate(c *cluster) *models.Story {
	first := c.articles[0].article

	story := &models.Story{
		ID:          common.NewStoryID(),
		Headline:    first.Headline,
		Content:     first.Content,
		Summary:     summarize(first.Content),
		PublishedAt: first.Date,
		Entities:    models.NewEntitySet(),
		Impacts:     []models.StockImpact{},
	}
	for _, a := range c.articles {
		story.AddSource(a.article.Source)
		story.AddURL(a.article.URL)
		if !a.article.Date.IsZero() && a.article.Date.Before(story.PublishedAt) {
			story.PublishedAt = a.article.Date
		}
	}
	return story
}

// summarize produces a short plain summary: the first sentence, capped
// at 200 runes
func summarize(content string) string {
	const maxLen = 200

	for i, r := range content {
		if r == '.' || r == '!' || r == '?' {
			candidate := content[:i+1]
			if len([]rune(candidate)) <= maxLen {
				return candidate
			}
			break
		}
	}

	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen]) + "..."
}

// Threshold exposes the configured similarity threshold
func (s *Service) Threshold() float64 {
	return s.threshold
}
