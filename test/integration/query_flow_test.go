package integration

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/sentio/internal/handlers"
	"github.com/ternarybob/sentio/internal/models"
)

// TestQueryFlow processes a batch and asks natural-language questions over
// the resulting corpus through the HTTP API.
func TestQueryFlow(t *testing.T) {
	ts := startApp(t)

	var result models.ProcessResult
	code := postJSON(t, ts.URL+"/api/news/process", handlers.ProcessRequest{Articles: demoBatch()}, &result)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 5, result.ConsolidatedCount)

	hdfc := findStory(&result, "HDFC Bank reports 20 percent quarterly profit growth")
	require.NotNil(t, hdfc)
	wire := findStory(&result, "RBI raises repo rate by 25 basis points")
	require.NotNil(t, wire)

	var resp models.QueryResponse
	code = postJSON(t, ts.URL+"/api/query", models.QueryRequest{Query: "HDFC Bank quarterly results"}, &resp)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "HDFC Bank quarterly results", resp.Query)
	assert.Equal(t, resp.TotalResults, len(resp.Results))
	assert.GreaterOrEqual(t, resp.TotalResults, 3, "Company and sector matches should all be admitted")

	var hit *models.ResultItem
	for i := range resp.Results {
		if resp.Results[i].StoryID == hdfc.StoryID {
			hit = &resp.Results[i]
			break
		}
	}
	require.NotNil(t, hit, "HDFC story should be retrieved")
	assert.Contains(t, hit.MatchReason, "company 'HDFC Bank'")
	assert.Contains(t, hit.MatchReason, "sector 'Banking'")
	assert.Greater(t, hit.RelevanceScore, 0.0)
	require.Len(t, hit.StockImpacts, 1)
	assert.Equal(t, "HDFCBANK", hit.StockImpacts[0].Symbol)

	assert.Contains(t, resp.EntityBreakdown.Companies, "HDFC Bank")
	assert.Contains(t, resp.EntityBreakdown.Sectors, "Banking")
	assert.Contains(t, resp.EntityBreakdown.Regulators, "RBI",
		"Wire story shares the Banking sector and joins the result set")

	assert.Contains(t, resp.Reasoning, "direct entity 'HDFC Bank'")
	assert.Contains(t, resp.ImpactSummary, "HDFCBANK (1.00)")
	t.Log("✓ Company query answered with ranked, explained results")

	// GET form with a regulator question
	var regulator models.QueryResponse
	code = getJSON(t, ts.URL+"/api/query?q="+url.QueryEscape("RBI policy changes"), &regulator)
	require.Equal(t, http.StatusOK, code)
	assert.GreaterOrEqual(t, regulator.TotalResults, 1)

	var wireHit *models.ResultItem
	for i := range regulator.Results {
		if regulator.Results[i].StoryID == wire.StoryID {
			wireHit = &regulator.Results[i]
			break
		}
	}
	require.NotNil(t, wireHit, "Wire story should be retrieved for the regulator query")
	assert.Contains(t, wireHit.MatchReason, "regulator 'RBI'")
	assert.Contains(t, regulator.Reasoning, "regulator 'RBI'")
	assert.Contains(t, regulator.EntityBreakdown.Regulators, "RBI")
	t.Log("✓ Regulator query retrieved the consolidated wire story")
}

// TestQueryValidation exercises the query endpoint's rejection paths.
func TestQueryValidation(t *testing.T) {
	ts := startApp(t)

	code := postJSON(t, ts.URL+"/api/query", models.QueryRequest{Query: "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, code, "Blank query should be rejected")

	code = getJSON(t, ts.URL+"/api/query", nil)
	assert.Equal(t, http.StatusBadRequest, code, "Missing q parameter should be rejected")

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/query", strings.NewReader("{}"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

// TestQueryAgainstEmptyCorpus verifies a query over an empty store answers
// cleanly instead of failing.
func TestQueryAgainstEmptyCorpus(t *testing.T) {
	ts := startApp(t)

	var resp models.QueryResponse
	code := postJSON(t, ts.URL+"/api/query", models.QueryRequest{Query: "HDFC Bank results"}, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0, resp.TotalResults)
	assert.Empty(t, resp.Results)
	assert.Equal(t, "No stored stories matched the query.", resp.Reasoning)
	assert.Equal(t, "No stock impacts identified across results.", resp.ImpactSummary)
}
