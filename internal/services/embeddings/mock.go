package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"strings"
)

// MockService generates deterministic synthetic embeddings for tests and
// offline development. Each distinct text maps to a pseudo-random unit
// vector seeded from its hash, so identical text always gives the same
// vector while different texts land nearly orthogonal and stay below any
// realistic similarity threshold.
type MockService struct {
	dimension int
}

// NewMockService creates a mock embedder with the given dimension
func NewMockService(dimension int) *MockService {
	return &MockService{dimension: dimension}
}

// Embed returns a deterministic unit vector derived from the text
func (s *MockService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	h := fnv.New64a()
	h.Write([]byte(text))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	embedding := make([]float32, s.dimension)
	var norm float64
	for i := range embedding {
		v := rng.Float64()*2 - 1
		embedding[i] = float32(v)
		norm += v * v
	}

	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range embedding {
			embedding[i] = float32(float64(embedding[i]) / norm)
		}
	}

	return embedding, nil
}

// EmbedStory generates an embedding for a story's combined text
func (s *MockService) EmbedStory(ctx context.Context, headline, content string) ([]float32, error) {
	return s.Embed(ctx, combineStoryText(headline, content))
}

// Dimension returns the configured embedding dimension
func (s *MockService) Dimension() int {
	return s.dimension
}

// IsAvailable always reports true
func (s *MockService) IsAvailable(ctx context.Context) bool {
	return true
}

// Close is a no-op
func (s *MockService) Close() error {
	return nil
}
