package models

// QueryRequest is the body accepted by the query endpoint.
type QueryRequest struct {
	Query string `json:"query"`
}

// EntityBreakdown aggregates the entities of every story in a result set.
// It reflects what was returned, not what the query itself mentioned.
type EntityBreakdown struct {
	Companies  []string `json:"companies"`
	Sectors    []string `json:"sectors"`
	Regulators []string `json:"regulators"`
}

// ResultItem is a single ranked story in a query response.
type ResultItem struct {
	StoryID        string        `json:"story_id"`
	Headline       string        `json:"headline"`
	Summary        string        `json:"summary"`
	RelevanceScore float64       `json:"relevance_score"` // [0,1]
	MatchReason    string        `json:"match_reason"`
	StockImpacts   []StockImpact `json:"stock_impacts"`
}

// QueryResponse is constructed fresh per query call and never persisted.
type QueryResponse struct {
	Query           string          `json:"query"`
	TotalResults    int             `json:"total_results"`
	EntityBreakdown EntityBreakdown `json:"entity_breakdown"`
	Reasoning       string          `json:"reasoning"`
	ImpactSummary   string          `json:"impact_summary"`
	Results         []ResultItem    `json:"results"`
}
