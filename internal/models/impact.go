package models

import "sort"

const (
	// ImpactTypeDirect marks an impact produced by a direct company mention.
	ImpactTypeDirect = "direct"
	// ImpactTypeSector marks an impact produced by sector classification.
	ImpactTypeSector = "sector"
	// ImpactTypeRegulator marks an impact produced by regulator classification.
	ImpactTypeRegulator = "regulator"
)

// StockImpact links a story to a stock symbol with a rule-derived confidence.
// Symbols are unique within a story's impact list; when several rules hit the
// same symbol the maximum confidence wins and the reasons are concatenated.
type StockImpact struct {
	Symbol     string  `json:"symbol"`
	Confidence float64 `json:"confidence"` // [0,1], from the configured rule table
	Type       string  `json:"type"`       // direct, sector, regulator
	Reason     string  `json:"reason"`
}

// SortImpacts orders impacts by descending confidence, ascending symbol on
// ties. The ordering is deterministic for identical inputs.
func SortImpacts(impacts []StockImpact) {
	sort.SliceStable(impacts, func(i, j int) bool {
		if impacts[i].Confidence != impacts[j].Confidence {
			return impacts[i].Confidence > impacts[j].Confidence
		}
		return impacts[i].Symbol < impacts[j].Symbol
	})
}
