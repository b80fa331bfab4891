package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/sentio/internal/models"
)

// DemoSeeder pushes a small batch of financial news through a running
// server and then exercises the query endpoint against it.
type DemoSeeder struct {
	baseURL string
	client  *http.Client
	logger  arbor.ILogger
}

func NewDemoSeeder(baseURL string, logger arbor.ILogger) *DemoSeeder {
	return &DemoSeeder{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// demoArticles is a representative news batch: the first two items are the
// same RBI rate decision reported by different outlets and should
// consolidate into a single story.
func demoArticles() []models.Article {
	return []models.Article{
		{
			Headline: "RBI increases repo rate by 25 basis points",
			Content:  "The Reserve Bank of India has announced a 25 basis point increase in the repo rate, bringing it to 6.5%. This move is expected to impact banking sector stocks and loan rates across the country.",
			Source:   "Financial Times",
			Date:     time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			URL:      "https://example.com/rbi-rate-hike-1",
		},
		{
			Headline: "Reserve Bank hikes interest rate by 0.25%",
			Content:  "India's central bank has raised the policy rate by 25 bps to 6.5%. Banking stocks are likely to see volatility following this decision.",
			Source:   "Economic Times",
			Date:     time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
			URL:      "https://example.com/rbi-rate-hike-2",
		},
		{
			Headline: "HDFC Bank reports strong Q3 earnings",
			Content:  "HDFC Bank announced quarterly earnings that beat analyst expectations. The bank's net profit rose 18% year-on-year, driven by strong loan growth and improved asset quality.",
			Source:   "Business Standard",
			Date:     time.Date(2024, 1, 16, 9, 0, 0, 0, time.UTC),
			URL:      "https://example.com/hdfc-earnings",
		},
		{
			Headline: "ICICI Bank and Axis Bank see surge in digital transactions",
			Content:  "Major private sector banks including ICICI Bank and Axis Bank have reported a significant increase in digital transaction volumes. The banking sector continues to digitize rapidly.",
			Source:   "Mint",
			Date:     time.Date(2024, 1, 17, 14, 0, 0, 0, time.UTC),
			URL:      "https://example.com/banking-digital",
		},
		{
			Headline: "SEBI announces new guidelines for insider trading",
			Content:  "The Securities and Exchange Board of India has introduced stricter guidelines to prevent insider trading. All listed companies must comply with the new regulations by next quarter.",
			Source:   "Livemint",
			Date:     time.Date(2024, 1, 18, 10, 0, 0, 0, time.UTC),
			URL:      "https://example.com/sebi-guidelines",
		},
		{
			Headline: "TCS wins major IT contract from US client",
			Content:  "Tata Consultancy Services has secured a $500 million IT services contract from a major US corporation. This deal is expected to boost the company's revenue significantly.",
			Source:   "Times of India",
			Date:     time.Date(2024, 1, 19, 8, 0, 0, 0, time.UTC),
			URL:      "https://example.com/tcs-contract",
		},
	}
}

// demoQueries covers the main retrieval paths: direct company lookup,
// sector browsing, regulator news and free-form questions.
func demoQueries() []string {
	return []string{
		"HDFC Bank news",
		"Banking sector update",
		"RBI policy changes",
		"Interest rate impact",
		"What are the latest IT sector developments?",
	}
}

// ProcessDemoBatch submits the demo articles and reports the consolidation
// outcome.
func (d *DemoSeeder) ProcessDemoBatch() error {
	articles := demoArticles()

	payload, err := json.Marshal(map[string]interface{}{
		"articles": articles,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal articles: %w", err)
	}

	d.logger.Info().Int("articles", len(articles)).Msg("Submitting demo news batch")

	resp, err := d.client.Post(d.baseURL+"/api/news/process", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to submit batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("batch processing failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result models.ProcessResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode process result: %w", err)
	}

	d.logger.Info().
		Int("ingested", result.IngestedArticles).
		Int("consolidated", result.ConsolidatedCount).
		Msg("✓ Batch processed")

	for _, procErr := range result.Errors {
		d.logger.Warn().
			Int("article_index", procErr.ArticleIndex).
			Str("stage", procErr.Stage).
			Msg(procErr.Message)
	}

	for _, story := range result.ProcessedNews {
		event := d.logger.Info().
			Str("story_id", story.StoryID).
			Int("sources", len(story.Sources)).
			Int("impacts", len(story.StockImpacts))
		if story.Merged {
			event.Bool("merged", true)
		}
		if len(story.Entities.Companies) > 0 {
			event.Strs("companies", story.Entities.Companies)
		}
		if len(story.Entities.Sectors) > 0 {
			event.Strs("sectors", story.Entities.Sectors)
		}
		if len(story.Entities.Regulators) > 0 {
			event.Strs("regulators", story.Entities.Regulators)
		}
		event.Msg("  • " + story.Headline)
	}

	return nil
}

// RunDemoQueries runs each demo query and prints the ranked results.
func (d *DemoSeeder) RunDemoQueries() error {
	for _, query := range demoQueries() {
		d.logger.Info().Msg("")
		d.logger.Info().Msgf("Query: %q", query)

		response, err := d.runQuery(query)
		if err != nil {
			d.logger.Error().Err(err).Msg("Query failed")
			continue
		}

		d.logger.Info().
			Int("results", response.TotalResults).
			Msg(response.Reasoning)

		if len(response.EntityBreakdown.Companies) > 0 {
			d.logger.Info().Msg("  Companies: " + strings.Join(response.EntityBreakdown.Companies, ", "))
		}
		if len(response.EntityBreakdown.Sectors) > 0 {
			d.logger.Info().Msg("  Sectors: " + strings.Join(response.EntityBreakdown.Sectors, ", "))
		}
		if len(response.EntityBreakdown.Regulators) > 0 {
			d.logger.Info().Msg("  Regulators: " + strings.Join(response.EntityBreakdown.Regulators, ", "))
		}
		d.logger.Info().Msg("  " + response.ImpactSummary)

		for i, item := range response.Results {
			if i >= 3 {
				break
			}
			d.logger.Info().
				Float64("relevance", item.RelevanceScore).
				Str("match", item.MatchReason).
				Msgf("  %d. %s", i+1, item.Headline)
		}
	}

	return nil
}

func (d *DemoSeeder) runQuery(query string) (*models.QueryResponse, error) {
	payload, err := json.Marshal(models.QueryRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	resp, err := d.client.Post(d.baseURL+"/api/query", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("query failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response models.QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	return &response, nil
}

func main() {
	// Initialize Arbor logger for console output
	logger := arbor.NewLogger().WithConsoleWriter(arbormodels.WriterConfiguration{
		Type:             arbormodels.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		TextOutput:       true,
		DisableTimestamp: false,
	})

	// Get server URL from environment or use default
	serverURL := os.Getenv("SENTIO_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	seeder := NewDemoSeeder(serverURL, logger)

	// Check if server is running
	resp, err := http.Get(serverURL + "/health")
	if err != nil {
		logger.Fatal().
			Str("server_url", serverURL).
			Msg("❌ Server is not running - start it first: ./sentio -c sentio.toml")
	}
	resp.Body.Close()

	if err := seeder.ProcessDemoBatch(); err != nil {
		logger.Fatal().Err(err).Msg("Seeding failed")
	}

	if err := seeder.RunDemoQueries(); err != nil {
		logger.Fatal().Err(err).Msg("Demo queries failed")
	}

	logger.Info().Msg("")
	logger.Info().Msg("✅ Demo complete")
}
