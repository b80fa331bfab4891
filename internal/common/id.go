package common

import (
	"github.com/google/uuid"
)

// NewStoryID generates a unique story ID with the "story_" prefix
// Format: story_<uuid>
func NewStoryID() string {
	return "story_" + uuid.New().String()
}
