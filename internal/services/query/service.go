package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
	"github.com/ternarybob/sentio/internal/services/markets"
)

// overlapBoost is added to the embedding similarity once per entity, sector
// or regulator the query shares with a story. More shared signals always
// rank a story at least as high as fewer, all else equal.
const overlapBoost = 0.1

// Service answers natural-language questions over the stored story corpus.
// Retrieval is embedding similarity against the store; detected company,
// sector and regulator signals in the query text widen the candidate set
// (when expansion is enabled) and boost the final ranking.
type Service struct {
	embedder   interfaces.EmbeddingService
	storage    interfaces.StoryStorage
	normalizer *markets.Normalizer
	events     interfaces.EventService
	maxResults int
	expansion  bool
	logger     arbor.ILogger
}

// NewService creates a query service
func NewService(
	embedder interfaces.EmbeddingService,
	storage interfaces.StoryStorage,
	normalizer *markets.Normalizer,
	events interfaces.EventService,
	cfg *common.PipelineConfig,
	logger arbor.ILogger,
) *Service {
	maxResults := cfg.MaxQueryResults
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Service{
		embedder:   embedder,
		storage:    storage,
		normalizer: normalizer,
		events:     events,
		maxResults: maxResults,
		expansion:  cfg.QueryExpansionEnabled,
		logger:     logger,
	}
}

// candidate is a story under consideration for the response
type candidate struct {
	story      *models.Story
	similarity float64
	shared     []string
	relevance  float64
}

// QueryNews expands the query, retrieves relevant stories and builds a
// ranked, explained response. An empty query is rejected before any
// embedding or store access.
func (s *Service) QueryNews(ctx context.Context, query string) (*models.QueryResponse, error) {
	start := time.Now()

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, models.ErrInvalidQuery
	}

	signals := s.detectSignals(trimmed)

	embedding, err := s.embedder.Embed(ctx, trimmed)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// One scan over the corpus gives every story with its similarity;
	// threshold -1 admits everything so tag matches below the semantic
	// floor are still visible
	scored, err := s.storage.Nearest(ctx, embedding, -1, 0)
	if err != nil {
		return nil, &models.StoreError{Op: "query", Err: err}
	}

	candidates := s.selectCandidates(scored, signals)
	for _, cand := range candidates {
		cand.shared = signals.sharedWith(cand.story)
		cand.relevance = clamp01(cand.similarity + overlapBoost*float64(len(cand.shared)))
	}
	rankCandidates(candidates)
	if len(candidates) > s.maxResults {
		candidates = candidates[:s.maxResults]
	}

	response := s.buildResponse(trimmed, signals, candidates)

	if s.events != nil {
		s.events.Publish(interfaces.Event{
			Type: interfaces.EventQueryServed,
			Data: map[string]interface{}{
				"query":         trimmed,
				"total_results": response.TotalResults,
			},
		})
	}

	s.logger.Info().
		Str("query", trimmed).
		Int("total_results", response.TotalResults).
		Dur("duration", time.Since(start)).
		Msg("Query served")

	return response, nil
}

// selectCandidates keeps the top stories by similarity and, when expansion
// is enabled, additionally admits stories sharing any detected signal.
func (s *Service) selectCandidates(scored []interfaces.ScoredStory, signals querySignals) []*candidate {
	var candidates []*candidate
	semantic := 0
	for _, sc := range scored {
		// scored arrives ordered by descending similarity, so the first
		// maxResults non-negative entries are the semantic top-K
		if sc.Similarity >= 0 && semantic < s.maxResults {
			candidates = append(candidates, &candidate{story: sc.Story, similarity: sc.Similarity})
			semantic++
			continue
		}
		if !s.expansion || !signals.any() {
			continue
		}
		if len(signals.sharedWith(sc.Story)) > 0 {
			candidates = append(candidates, &candidate{story: sc.Story, similarity: sc.Similarity})
		}
	}
	return candidates
}

// rankCandidates orders by relevance descending; ties go to the newer story
func rankCandidates(candidates []*candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].relevance != candidates[j].relevance {
			return candidates[i].relevance > candidates[j].relevance
		}
		if !candidates[i].story.PublishedAt.Equal(candidates[j].story.PublishedAt) {
			return candidates[i].story.PublishedAt.After(candidates[j].story.PublishedAt)
		}
		if !candidates[i].story.UpdatedAt.Equal(candidates[j].story.UpdatedAt) {
			return candidates[i].story.UpdatedAt.After(candidates[j].story.UpdatedAt)
		}
		return candidates[i].story.ID < candidates[j].story.ID
	})
}

func (s *Service) buildResponse(query string, signals querySignals, candidates []*candidate) *models.QueryResponse {
	results := make([]models.ResultItem, 0, len(candidates))
	breakdown := models.NewEntitySet()
	for _, cand := range candidates {
		results = append(results, models.ResultItem{
			StoryID:        cand.story.ID,
			Headline:       cand.story.Headline,
			Summary:        cand.story.Summary,
			RelevanceScore: cand.relevance,
			MatchReason:    matchReason(cand),
			StockImpacts:   cand.story.Impacts,
		})
		breakdown.Merge(cand.story.Entities)
	}

	return &models.QueryResponse{
		Query:        query,
		TotalResults: len(results),
		EntityBreakdown: models.EntityBreakdown{
			Companies:  breakdown.Companies,
			Sectors:    breakdown.Sectors,
			Regulators: breakdown.Regulators,
		},
		Reasoning:     buildReasoning(signals.usedBy(candidates), len(results)),
		ImpactSummary: buildImpactSummary(results),
		Results:       results,
	}
}

// matchReason explains one result: the semantic score plus any signals the
// story shares with the query
func matchReason(cand *candidate) string {
	reason := fmt.Sprintf("semantic similarity %.2f", cand.similarity)
	if len(cand.shared) > 0 {
		reason += "; shares " + strings.Join(cand.shared, ", ")
	}
	return reason
}

// buildReasoning renders which signals drove retrieval. Zero results get an
// explicit no-matches sentence rather than an error.
func buildReasoning(signals querySignals, total int) string {
	if total == 0 {
		return "No stored stories matched the query."
	}

	noun := "stories"
	if total == 1 {
		noun = "story"
	}

	var parts []string
	for _, symbol := range signals.symbols {
		parts = append(parts, fmt.Sprintf("direct entity '%s'", signals.forms[symbol]))
	}
	for _, sector := range signals.sectors {
		parts = append(parts, fmt.Sprintf("sector '%s'", sector))
	}
	for _, regulator := range signals.regulators {
		parts = append(parts, fmt.Sprintf("regulator '%s'", regulator))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("Matched %d %s by semantic similarity.", total, noun)
	}
	return fmt.Sprintf("Matched %d %s via %s, re-ranked by semantic similarity and entity overlap.", total, noun, joinAnd(parts))
}

// buildImpactSummary aggregates impacts across results: per symbol the
// maximum confidence seen, rendered in symbol order
func buildImpactSummary(results []models.ResultItem) string {
	best := make(map[string]float64)
	for _, result := range results {
		for _, impact := range result.StockImpacts {
			if impact.Confidence > best[impact.Symbol] {
				best[impact.Symbol] = impact.Confidence
			}
		}
	}

	if len(best) == 0 {
		return "No stock impacts identified across results."
	}

	symbols := make([]string, 0, len(best))
	for symbol := range best {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	parts := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		parts = append(parts, fmt.Sprintf("%s (%.2f)", symbol, best[symbol]))
	}
	return "Impacted symbols: " + strings.Join(parts, ", ") + "."
}

// joinAnd renders a list as prose: "a", "a and b", "a, b and c"
func joinAnd(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
