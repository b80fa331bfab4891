package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/sentio/internal/common"
)

// LocalService generates embeddings through a llama-server style HTTP
// endpoint. The endpoint must be on localhost; the transport rejects any
// other address so local mode can never leak text off the machine.
type LocalService struct {
	baseURL   string
	dimension int
	timeout   time.Duration
	limiter   *rate.Limiter
	client    *http.Client
	logger    arbor.ILogger
}

// embeddingRequest is the llama-server embedding request body
type embeddingRequest struct {
	Content string `json:"content"`
}

// embeddingResponse is the object-shaped response {"embedding": [...]}
type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// batchEmbeddingResponse is the batch-shaped response
// [{"index":0,"embedding":[[...]]}]
type batchEmbeddingResponse struct {
	Index     int         `json:"index"`
	Embedding [][]float32 `json:"embedding"`
}

// NewLocalService creates an embedding client for a local llama-server
func NewLocalService(cfg *common.EmbeddingsConfig, logger arbor.ILogger) (*LocalService, error) {
	if cfg.Local.URL == "" {
		return nil, fmt.Errorf("local embeddings URL is required")
	}

	parsed, err := url.Parse(cfg.Local.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid local embeddings URL '%s': %w", cfg.Local.URL, err)
	}
	if !isLocalhost(parsed.Hostname()) {
		return nil, fmt.Errorf("local embeddings URL must point at localhost, got '%s'", parsed.Hostname())
	}

	timeout := 30 * time.Second
	if cfg.Local.Timeout != "" {
		timeout, err = time.ParseDuration(cfg.Local.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid local embeddings timeout '%s': %w", cfg.Local.Timeout, err)
		}
	}

	interval := 50 * time.Millisecond
	if cfg.Local.RateLimit != "" {
		interval, err = time.ParseDuration(cfg.Local.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid local embeddings rate limit '%s': %w", cfg.Local.RateLimit, err)
		}
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, _, splitErr := net.SplitHostPort(addr)
				if splitErr != nil {
					host = addr
				}
				if !isLocalhost(host) {
					return nil, fmt.Errorf("refusing non-localhost embedding address: %s", addr)
				}
				return (&net.Dialer{}).DialContext(ctx, network, addr)
			},
		},
	}

	service := &LocalService{
		baseURL:   strings.TrimRight(cfg.Local.URL, "/"),
		dimension: cfg.Dimension,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Every(interval), 1),
		client:    client,
		logger:    logger,
	}

	logger.Info().
		Str("url", service.baseURL).
		Int("dimension", service.dimension).
		Dur("timeout", timeout).
		Msg("Local embedding service initialized")

	return service, nil
}

// isLocalhost reports whether host is a loopback name or address
func isLocalhost(host string) bool {
	if host == "localhost" {
		return true
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.IsLoopback()
	}
	return false
}

// Embed generates an embedding for text via POST /embedding. The server
// may answer with an object, a flat array, or a batch array; all three
// shapes are accepted.
func (s *LocalService) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	jsonData, err := json.Marshal(embeddingRequest{Content: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/embedding", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error().Err(err).Msg("Embedding request failed")
		return nil, fmt.Errorf("embedding server request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Error().
			Int("status_code", resp.StatusCode).
			Str("response", string(body)).
			Msg("Embedding server returned error")
		return nil, fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(body))
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	embedding, err := parseEmbeddingBody(bodyBytes)
	if err != nil {
		preview := len(bodyBytes)
		if preview > 200 {
			preview = 200
		}
		s.logger.Error().
			Err(err).
			Str("response_preview", string(bodyBytes[:preview])).
			Msg("Failed to parse embedding response")
		return nil, err
	}

	if len(embedding) != s.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.dimension, len(embedding))
	}

	return embedding, nil
}

// parseEmbeddingBody accepts the three llama-server response shapes:
// {"embedding": [...]}, a flat array, or [{"index":0,"embedding":[[...]]}]
func parseEmbeddingBody(body []byte) ([]float32, error) {
	var objResponse embeddingResponse
	if err := json.Unmarshal(body, &objResponse); err == nil && len(objResponse.Embedding) > 0 {
		return objResponse.Embedding, nil
	}

	var flat []float32
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	var batch []batchEmbeddingResponse
	if err := json.Unmarshal(body, &batch); err == nil && len(batch) > 0 {
		if len(batch[0].Embedding) > 0 && len(batch[0].Embedding[0]) > 0 {
			return batch[0].Embedding[0], nil
		}
		return nil, fmt.Errorf("batch embedding response has empty embedding array")
	}

	return nil, fmt.Errorf("unrecognized embedding response format")
}

// EmbedStory generates an embedding for a story's combined text
func (s *LocalService) EmbedStory(ctx context.Context, headline, content string) ([]float32, error) {
	return s.Embed(ctx, combineStoryText(headline, content))
}

// Dimension returns the configured embedding dimension
func (s *LocalService) Dimension() int {
	return s.dimension
}

// IsAvailable probes the server's /health endpoint
func (s *LocalService) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Close releases idle connections
func (s *LocalService) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
