package markets

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ternarybob/sentio/internal/common"
)

// Normalizer resolves free-text company mentions to canonical exchange
// symbols and tags text with sector/regulator labels. It is fast and
// deterministic: every answer comes from the loaded dictionaries, no
// external calls.
//
// Company lookup is case-insensitive substring matching against the
// dictionary surface forms, longest form first so a short alias ("HDFC")
// never shadows a more specific multi-word name ("HDFC Bank") when both
// are present. Length ties are broken by which form appears earliest in
// the probed text.
//
// Sector and regulator tagging is keyword-set membership, case-insensitive
// and word-boundary aware, so the IT sector keyword "IT" does not fire
// inside "Italy".
type Normalizer struct {
	dicts *common.Dictionaries

	// forms sorted longest-first for the shadowing policy
	forms []formEntry

	sectorNames       []string
	sectorKeywords    map[string][]string // sector -> lowered keywords
	regulatorNames    []string
	regulatorKeywords map[string][]string // regulator -> lowered keywords
}

// formEntry is a prepared dictionary surface form
type formEntry struct {
	lowered string
	form    string
	symbol  string
}

// Match is one resolved company occurrence inside a probed text
type Match struct {
	// Form is the dictionary surface form that matched, as written
	Form string

	// Symbol is the canonical exchange symbol the form maps to
	Symbol string

	// Start and End are byte offsets of the occurrence
	Start int
	End   int
}

// NewNormalizer prepares a normalizer from loaded dictionaries
func NewNormalizer(dicts *common.Dictionaries) *Normalizer {
	forms := make([]formEntry, 0)
	for form, symbol := range dicts.SymbolForms() {
		forms = append(forms, formEntry{
			lowered: strings.ToLower(form),
			form:    form,
			symbol:  symbol,
		})
	}
	// Longest first; equal lengths ordered alphabetically for determinism
	sort.Slice(forms, func(i, j int) bool {
		if len(forms[i].lowered) != len(forms[j].lowered) {
			return len(forms[i].lowered) > len(forms[j].lowered)
		}
		return forms[i].lowered < forms[j].lowered
	})

	return &Normalizer{
		dicts:             dicts,
		forms:             forms,
		sectorNames:       dicts.SectorNames(),
		sectorKeywords:    lowerKeywordMap(dicts.Sectors),
		regulatorNames:    dicts.RegulatorNames(),
		regulatorKeywords: lowerKeywordMap(dicts.Regulators),
	}
}

func lowerKeywordMap(src map[string][]string) map[string][]string {
	lowered := make(map[string][]string, len(src))
	for name, keywords := range src {
		words := make([]string, 0, len(keywords))
		for _, kw := range keywords {
			words = append(words, strings.ToLower(kw))
		}
		lowered[name] = words
	}
	return lowered
}

// Dictionaries returns the dictionaries this normalizer was built from
func (n *Normalizer) Dictionaries() *common.Dictionaries {
	return n.dicts
}

// Normalize resolves a free-text mention to a canonical symbol.
// Returns ok=false when no dictionary form occurs in the mention.
func (n *Normalizer) Normalize(mention string) (symbol string, ok bool) {
	if mention == "" {
		return "", false
	}

	lowered := strings.ToLower(mention)

	bestLen := -1
	bestStart := -1
	bestSymbol := ""
	for _, entry := range n.forms {
		idx := strings.Index(lowered, entry.lowered)
		if idx < 0 {
			continue
		}
		// Longer form wins; among equal lengths the earliest occurrence wins
		if len(entry.lowered) > bestLen || (len(entry.lowered) == bestLen && idx < bestStart) {
			bestLen = len(entry.lowered)
			bestStart = idx
			bestSymbol = entry.symbol
		}
	}

	if bestLen < 0 {
		return "", false
	}
	return bestSymbol, true
}

// ResolveAll finds every company occurrence in a text, longest form first
// with overlapping shorter matches discarded, returned in text order.
// "Kotak Mahindra Bank" resolves once to KOTAKBANK; the embedded
// "Mahindra" does not additionally fire for M&M.
func (n *Normalizer) ResolveAll(text string) []Match {
	if text == "" {
		return nil
	}

	lowered := strings.ToLower(text)

	// Collect all candidate occurrences of all forms
	var candidates []Match
	for _, entry := range n.forms {
		offset := 0
		for {
			idx := strings.Index(lowered[offset:], entry.lowered)
			if idx < 0 {
				break
			}
			start := offset + idx
			candidates = append(candidates, Match{
				Form:   entry.form,
				Symbol: entry.symbol,
				Start:  start,
				End:    start + len(entry.lowered),
			})
			offset = start + 1
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	// Longest first, then earliest, then form name for full determinism
	sort.Slice(candidates, func(i, j int) bool {
		li, lj := candidates[i].End-candidates[i].Start, candidates[j].End-candidates[j].Start
		if li != lj {
			return li > lj
		}
		if candidates[i].Start != candidates[j].Start {
			return candidates[i].Start < candidates[j].Start
		}
		return candidates[i].Form < candidates[j].Form
	})

	// Greedy selection, discarding anything overlapping an accepted match
	var accepted []Match
	for _, cand := range candidates {
		overlaps := false
		for _, acc := range accepted {
			if cand.Start < acc.End && acc.Start < cand.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			accepted = append(accepted, cand)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return accepted
}

// ClassifySectors tags a text with every sector whose keyword set fires.
// Tags come back sorted; empty input yields no tags, never an error.
func (n *Normalizer) ClassifySectors(text string) []string {
	return n.classify(text, n.sectorNames, n.sectorKeywords)
}

// ClassifyRegulators tags a text with every regulator whose keyword set
// fires. Tags come back sorted; empty input yields no tags, never an error.
func (n *Normalizer) ClassifyRegulators(text string) []string {
	return n.classify(text, n.regulatorNames, n.regulatorKeywords)
}

func (n *Normalizer) classify(text string, names []string, keywords map[string][]string) []string {
	if text == "" {
		return nil
	}

	lowered := strings.ToLower(text)

	var tags []string
	for _, name := range names {
		for _, kw := range keywords[name] {
			if containsWord(lowered, kw) {
				tags = append(tags, name)
				break
			}
		}
	}
	return tags
}

// containsWord reports whether keyword occurs in text bounded by
// non-alphanumeric runes on both sides. Both arguments must already be
// lowercased.
func containsWord(text, keyword string) bool {
	if keyword == "" {
		return false
	}

	offset := 0
	for {
		idx := strings.Index(text[offset:], keyword)
		if idx < 0 {
			return false
		}
		start := offset + idx
		end := start + len(keyword)

		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		offset = start + 1
	}
}

func boundaryBefore(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:pos])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, pos int) bool {
	if pos >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[pos:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
