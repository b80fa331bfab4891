package models

// ProcessingStage identifies where in the pipeline a per-item error occurred.
const (
	StageEmbedding  = "embedding"
	StageExtraction = "extraction"
	StageValidation = "validation"
)

// ProcessingError records a per-item failure collected during batch
// processing. The batch itself continues; callers inspect these alongside
// the successful results.
type ProcessingError struct {
	ArticleIndex int    `json:"article_index"`
	Headline     string `json:"headline,omitempty"`
	Stage        string `json:"stage"`
	Message      string `json:"message"`
}

// Assignment maps a batch article (by input position) to the story that
// absorbed it.
type Assignment struct {
	ArticleIndex int    `json:"article_index"`
	StoryID      string `json:"story_id"`
}

// ClusteredStory pairs a consolidated story with whether it was folded into
// a pre-existing story rather than created fresh.
type ClusteredStory struct {
	Story  *Story
	Merged bool
}

// ProcessedStory is one consolidated story as returned from a processing
// call, with its extracted entities and impacts attached.
type ProcessedStory struct {
	StoryID      string        `json:"story_id"`
	Headline     string        `json:"headline"`
	Summary      string        `json:"summary"`
	Sources      []string      `json:"sources"`
	Merged       bool          `json:"merged"` // true when folded into a pre-existing story
	Entities     EntitySet     `json:"entities"`
	StockImpacts []StockImpact `json:"stock_impacts"`
}

// ProcessResult is the structured outcome of a ProcessNews call. Errors are
// collected, never thrown past the pipeline boundary.
type ProcessResult struct {
	IngestedArticles  int               `json:"ingested_articles"`
	ConsolidatedCount int               `json:"consolidated_stories"`
	ProcessedNews     []ProcessedStory  `json:"processed_news"`
	Assignments       []Assignment      `json:"assignments"`
	Errors            []ProcessingError `json:"errors"`
}
