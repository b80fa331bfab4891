package embeddings

import (
	"context"
	"math"
	"testing"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
)

func TestMockServiceDeterministic(t *testing.T) {
	service := NewMockService(384)
	ctx := context.Background()

	text := "HDFC Bank reports strong quarterly earnings"
	first, err := service.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	second, err := service.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if len(first) != 384 {
		t.Errorf("Expected 384-dimension embedding, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("Mock embeddings should be deterministic")
		}
	}
}

func TestMockServiceDistinctTexts(t *testing.T) {
	service := NewMockService(384)
	ctx := context.Background()

	a, err := service.Embed(ctx, "RBI raises repo rate by 25 basis points")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	b, err := service.Embed(ctx, "TCS wins major US banking contract")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different texts should produce different embeddings")
	}

	// Vectors from distinct texts should land nearly orthogonal so they
	// never clear a dedup threshold by accident
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if math.Abs(dot) > 0.5 {
		t.Errorf("Expected near-orthogonal vectors, got cosine %f", dot)
	}
}

func TestMockServiceUnitNorm(t *testing.T) {
	service := NewMockService(128)

	embedding, err := service.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if math.Abs(norm-1.0) > 0.01 {
		t.Errorf("Expected unit-norm vector, got norm %f", norm)
	}
}

func TestMockServiceEmptyText(t *testing.T) {
	service := NewMockService(384)

	if _, err := service.Embed(context.Background(), ""); err == nil {
		t.Error("Expected error for empty text, got nil")
	}
}

func TestMockServiceEmbedStory(t *testing.T) {
	service := NewMockService(64)
	ctx := context.Background()

	combined, err := service.Embed(ctx, "Headline\n\nBody text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	story, err := service.EmbedStory(ctx, "Headline", "Body text")
	if err != nil {
		t.Fatalf("EmbedStory failed: %v", err)
	}

	for i := range combined {
		if combined[i] != story[i] {
			t.Fatal("EmbedStory should embed the combined headline and content")
		}
	}
}

func TestNewEmbeddingServiceFactory(t *testing.T) {
	logger := arbor.NewLogger()

	cfg := common.NewDefaultConfig()
	cfg.Embeddings.Mode = "mock"
	service, err := NewEmbeddingService(cfg, logger)
	if err != nil {
		t.Fatalf("NewEmbeddingService(mock) failed: %v", err)
	}
	if service.Dimension() != cfg.Embeddings.Dimension {
		t.Errorf("Dimension() = %d, want %d", service.Dimension(), cfg.Embeddings.Dimension)
	}

	cfg.Embeddings.Mode = "gemini"
	cfg.Embeddings.Gemini.APIKey = ""
	if _, err := NewEmbeddingService(cfg, logger); err == nil {
		t.Error("Expected error for gemini mode without API key, got nil")
	}

	cfg.Embeddings.Mode = "turbo"
	if _, err := NewEmbeddingService(cfg, logger); err == nil {
		t.Error("Expected error for unknown mode, got nil")
	}
}
