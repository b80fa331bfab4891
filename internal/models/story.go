package models

import (
	"time"
)

// Story is a deduplicated cluster of one or more articles judged to describe
// the same event. The deduplicator is the sole writer of the source list;
// entities and impacts are attached by the extractor and never change the
// story's identity.
type Story struct {
	// Identity
	ID string `json:"id"` // story_{uuid}

	// Content
	Headline string `json:"headline"` // canonical headline (first clustered article)
	Content  string `json:"content"`
	Summary  string `json:"summary,omitempty"`

	// Provenance
	Sources []string `json:"sources"` // contributing sources, in merge order
	URLs    []string `json:"urls,omitempty"`

	// Analysis
	Entities EntitySet     `json:"entities"`
	Impacts  []StockImpact `json:"impacts"`

	// Timestamps
	PublishedAt time.Time `json:"published_at"` // earliest contributing article
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"` // refreshed on every merge
}

// AddSource appends a contributing source, keeping the list duplicate-free
// while preserving merge order.
func (s *Story) AddSource(source string) {
	for _, existing := range s.Sources {
		if existing == source {
			return
		}
	}
	s.Sources = append(s.Sources, source)
}

// AddURL appends a contributing article URL, keeping the set duplicate-free.
func (s *Story) AddURL(url string) {
	if url == "" {
		return
	}
	for _, existing := range s.URLs {
		if existing == url {
			return
		}
	}
	s.URLs = append(s.URLs, url)
}

// StoryStats summarizes the persisted corpus for the status endpoint.
type StoryStats struct {
	TotalStories    int            `json:"total_stories"`
	TotalImpacts    int            `json:"total_impacts"`
	StoriesBySector map[string]int `json:"stories_by_sector"`
	VectorDimension int            `json:"vector_dimension"`
	LastUpdated     time.Time      `json:"last_updated"`
}
