package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery is returned for empty or malformed query text, before
	// any retrieval is attempted.
	ErrInvalidQuery = errors.New("invalid query: query text must not be empty")

	// ErrStoryNotFound is returned when a story id does not exist in the store.
	ErrStoryNotFound = errors.New("story not found")
)

// EmbeddingError wraps a failure to embed a single article. The deduplicator
// isolates these per article; the batch continues without the failed item.
type EmbeddingError struct {
	Headline string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed for %q: %v", e.Headline, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// ExtractionError wraps a failure to extract entities for a single story.
// The story is kept with empty entities and the error is recorded.
type ExtractionError struct {
	StoryID string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for story %s: %v", e.StoryID, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StoreError wraps a storage failure. It is fatal for the enclosing call;
// no partial story or impact state is persisted.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
