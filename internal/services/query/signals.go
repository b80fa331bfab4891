package query

import (
	"fmt"

	"github.com/ternarybob/sentio/internal/models"
)

// querySignals holds the companies, sectors and regulators detected in the
// raw query text. Symbols keep detection order; the surface form that first
// resolved each symbol is retained for readable reasoning output.
type querySignals struct {
	symbols    []string
	forms      map[string]string
	sectors    []string
	regulators []string
}

// detectSignals runs the market classifiers over the query text
func (s *Service) detectSignals(text string) querySignals {
	signals := querySignals{forms: make(map[string]string)}

	for _, match := range s.normalizer.ResolveAll(text) {
		if _, seen := signals.forms[match.Symbol]; seen {
			continue
		}
		signals.forms[match.Symbol] = match.Form
		signals.symbols = append(signals.symbols, match.Symbol)
	}

	signals.sectors = s.normalizer.ClassifySectors(text)
	signals.regulators = s.normalizer.ClassifyRegulators(text)
	return signals
}

// any reports whether the query text produced at least one signal
func (q querySignals) any() bool {
	return len(q.symbols) > 0 || len(q.sectors) > 0 || len(q.regulators) > 0
}

// sharedWith lists the detected signals the story also carries, rendered for
// match reasons. Companies compare on canonical symbol against the story's
// impact list; sectors and regulators compare against its entity tags.
func (q querySignals) sharedWith(story *models.Story) []string {
	var shared []string

	for _, symbol := range q.symbols {
		if impactsSymbol(story, symbol) {
			shared = append(shared, fmt.Sprintf("company '%s'", q.forms[symbol]))
		}
	}
	for _, sector := range q.sectors {
		if containsString(story.Entities.Sectors, sector) {
			shared = append(shared, fmt.Sprintf("sector '%s'", sector))
		}
	}
	for _, regulator := range q.regulators {
		if containsString(story.Entities.Regulators, regulator) {
			shared = append(shared, fmt.Sprintf("regulator '%s'", regulator))
		}
	}

	return shared
}

// usedBy filters the signals down to those at least one returned story
// shares, so reasoning never cites a signal that matched nothing
func (q querySignals) usedBy(candidates []*candidate) querySignals {
	used := querySignals{forms: q.forms}
	for _, symbol := range q.symbols {
		for _, cand := range candidates {
			if impactsSymbol(cand.story, symbol) {
				used.symbols = append(used.symbols, symbol)
				break
			}
		}
	}
	for _, sector := range q.sectors {
		for _, cand := range candidates {
			if containsString(cand.story.Entities.Sectors, sector) {
				used.sectors = append(used.sectors, sector)
				break
			}
		}
	}
	for _, regulator := range q.regulators {
		for _, cand := range candidates {
			if containsString(cand.story.Entities.Regulators, regulator) {
				used.regulators = append(used.regulators, regulator)
				break
			}
		}
	}
	return used
}

func impactsSymbol(story *models.Story, symbol string) bool {
	for _, impact := range story.Impacts {
		if impact.Symbol == symbol {
			return true
		}
	}
	return false
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
