package embeddings

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
)

// NewEmbeddingService creates the embedding provider selected by
// config Embeddings.Mode
func NewEmbeddingService(cfg *common.Config, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	logger.Info().Str("mode", cfg.Embeddings.Mode).Msg("Initializing embedding service")

	switch cfg.Embeddings.Mode {
	case "local":
		return NewLocalService(&cfg.Embeddings, logger)

	case "gemini":
		return NewGeminiService(&cfg.Embeddings, logger)

	case "mock":
		logger.Warn().Msg("Using mock embeddings - vectors are synthetic")
		return NewMockService(cfg.Embeddings.Dimension), nil

	default:
		return nil, fmt.Errorf("invalid embeddings mode '%s': must be 'local', 'gemini', or 'mock'", cfg.Embeddings.Mode)
	}
}

// combineStoryText joins a story's headline and content into the single
// text that gets embedded. Either part may be empty.
func combineStoryText(headline, content string) string {
	headline = strings.TrimSpace(headline)
	content = strings.TrimSpace(content)

	switch {
	case headline == "":
		return content
	case content == "":
		return headline
	default:
		return headline + "\n\n" + content
	}
}
