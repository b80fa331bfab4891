package interfaces

import "context"

// EmbeddingService generates vector embeddings. Implementations must be
// deterministic for identical input so deduplication stays reproducible.
type EmbeddingService interface {
	// Generate embedding for raw text
	Embed(ctx context.Context, text string) ([]float32, error)

	// Generate embedding for a story's combined headline and content
	EmbedStory(ctx context.Context, headline, content string) ([]float32, error)

	// Get the fixed output dimension
	Dimension() int

	// Check if the backing provider is reachable
	IsAvailable(ctx context.Context) bool

	// Release provider resources
	Close() error
}
