package models

import (
	"strings"
	"time"
)

// Article represents a raw news item submitted for processing.
// Articles are immutable once ingested; identity is assigned only when the
// article is folded into a Story by deduplication.
type Article struct {
	Headline string    `json:"headline" validate:"required,min=1"`
	Content  string    `json:"content" validate:"required,min=1"`
	Source   string    `json:"source" validate:"required,min=1"`
	Date     time.Time `json:"date"`
	URL      string    `json:"url,omitempty" validate:"omitempty,url"`
}

// Text returns the combined headline and content used for embedding.
func (a *Article) Text() string {
	return a.Headline + "\n\n" + a.Content
}

// Normalize trims surrounding whitespace and defaults a missing date to now.
func (a *Article) Normalize() {
	a.Headline = strings.TrimSpace(a.Headline)
	a.Content = strings.TrimSpace(a.Content)
	a.Source = strings.TrimSpace(a.Source)
	a.URL = strings.TrimSpace(a.URL)
	if a.Date.IsZero() {
		a.Date = time.Now().UTC()
	}
}
