package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/sentio/internal/common"
)

// GeminiService generates embeddings through the Google Gemini API using
// gemini-embedding-001 with a fixed output dimensionality so vectors stay
// interchangeable with the local provider.
type GeminiService struct {
	client    *genai.Client
	model     string
	dimension int
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

// NewGeminiService creates a Gemini embedding client. The API key comes
// from config or the GEMINI_API_KEY environment override; there is no
// fallback.
func NewGeminiService(cfg *common.EmbeddingsConfig, logger arbor.ILogger) (*GeminiService, error) {
	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or embeddings.gemini.api_key in config)")
	}

	model := cfg.Gemini.Model
	if model == "" {
		model = "gemini-embedding-001"
	}

	timeout := time.Minute
	var err error
	if cfg.Gemini.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Gemini.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid Gemini timeout '%s': %w", cfg.Gemini.Timeout, err)
		}
	}

	interval := 4 * time.Second
	if cfg.Gemini.RateLimit != "" {
		interval, err = time.ParseDuration(cfg.Gemini.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid Gemini rate limit '%s': %w", cfg.Gemini.RateLimit, err)
		}
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	service := &GeminiService{
		client:    client,
		model:     model,
		dimension: cfg.Dimension,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		logger:    logger,
	}

	logger.Info().
		Str("model", model).
		Int("dimension", cfg.Dimension).
		Dur("timeout", timeout).
		Msg("Gemini embedding service initialized")

	return service, nil
}

// Embed generates an embedding for the given text
func (s *GeminiService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	outputDim := int32(s.dimension)
	config := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
	}

	result, err := s.client.Models.EmbedContent(timeoutCtx, s.model,
		[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, config)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("text_length", len(text)).
			Msg("Gemini embedding generation failed")
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	var embedding []float32
	if result != nil && len(result.Embeddings) > 0 {
		embedding = result.Embeddings[0].Values
	}
	if len(embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned from API")
	}

	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	return embedding, nil
}

// EmbedStory generates an embedding for a story's combined text
func (s *GeminiService) EmbedStory(ctx context.Context, headline, content string) ([]float32, error) {
	return s.Embed(ctx, combineStoryText(headline, content))
}

// Dimension returns the configured embedding dimension
func (s *GeminiService) Dimension() int {
	return s.dimension
}

// IsAvailable exercises the model with a short probe
func (s *GeminiService) IsAvailable(ctx context.Context) bool {
	if s.client == nil {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := s.Embed(probeCtx, "health check probe")
	return err == nil
}

// Close releases the client reference
func (s *GeminiService) Close() error {
	s.client = nil
	return nil
}
