package ner

import (
	"regexp"
	"sort"

	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/services/markets"
)

// Service is a deterministic gazetteer entity recognizer. Organization
// spans come from dictionary surface-form occurrences plus a
// capitalized-name + corporate-suffix pattern for companies outside the
// dictionary; person spans come from honorific patterns. No model files,
// no external calls, same input always gives the same spans.
type Service struct {
	normalizer *markets.Normalizer
}

// orgSuffixPattern catches org-looking names that are not in the
// dictionary ("Adani Enterprises", "Yes Bank") so unmatched mentions can
// still be kept as free-text entities downstream.
var orgSuffixPattern = regexp.MustCompile(`\b(?:[A-Z][A-Za-z&.']+ ){1,3}(?:Ltd|Limited|Corp|Corporation|Inc|Enterprises|Industries|Group|Bank|Motors|Airlines)\b`)

// personPattern catches honorific-prefixed names; the capture group is
// the name without the honorific.
var personPattern = regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof|Governor|Minister|Chairman|CEO|CFO)\.? ([A-Z][a-z]+(?: [A-Z][a-z]+){0,2})`)

// NewService creates a gazetteer recognizer over the given normalizer's
// dictionaries
func NewService(normalizer *markets.Normalizer) *Service {
	return &Service{normalizer: normalizer}
}

// span is an internal match with positions for de-overlapping
type span struct {
	text  string
	typ   string
	start int
	end   int
}

// ExtractSpans finds organization and person mentions in text order.
// Dictionary organizations win over pattern matches covering the same
// range, so "Dr. Reddy's" is one org span, not an org plus a person.
func (s *Service) ExtractSpans(text string) []interfaces.Span {
	if text == "" {
		return nil
	}

	var spans []span

	// Dictionary companies first; these anchor the de-overlap
	for _, m := range s.normalizer.ResolveAll(text) {
		spans = append(spans, span{
			text:  text[m.Start:m.End],
			typ:   interfaces.SpanTypeOrg,
			start: m.Start,
			end:   m.End,
		})
	}

	// Suffix-pattern organizations outside the dictionary
	for _, loc := range orgSuffixPattern.FindAllStringIndex(text, -1) {
		cand := span{
			text:  text[loc[0]:loc[1]],
			typ:   interfaces.SpanTypeOrg,
			start: loc[0],
			end:   loc[1],
		}
		if !overlapsAny(cand, spans) {
			spans = append(spans, cand)
		}
	}

	// Honorific-prefixed people; the name is capture group 1
	for _, loc := range personPattern.FindAllStringSubmatchIndex(text, -1) {
		cand := span{
			text:  text[loc[2]:loc[3]],
			typ:   interfaces.SpanTypePerson,
			start: loc[0],
			end:   loc[1],
		}
		if !overlapsAny(cand, spans) {
			spans = append(spans, cand)
		}
	}

	if len(spans) == 0 {
		return nil
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i].start < spans[j].start
	})

	result := make([]interfaces.Span, 0, len(spans))
	for _, sp := range spans {
		result = append(result, interfaces.Span{Text: sp.text, Type: sp.typ})
	}
	return result
}

func overlapsAny(cand span, accepted []span) bool {
	for _, acc := range accepted {
		if cand.start < acc.end && acc.start < cand.end {
			return true
		}
	}
	return false
}
