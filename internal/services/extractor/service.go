package extractor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/sentio/internal/common"
	"github.com/ternarybob/sentio/internal/interfaces"
	"github.com/ternarybob/sentio/internal/models"
	"github.com/ternarybob/sentio/internal/services/markets"
)

// Service turns a story's text into entities and stock impacts using a
// fixed rule table. Direct company mentions carry full confidence; sector
// and regulator tags score higher in the headline than in the body, and
// they attach only to symbols that are already directly mentioned. A tag
// with no co-occurring direct mention stays an entity tag and never
// becomes an impact, unless sector fan-out is explicitly enabled.
type Service struct {
	ner        interfaces.NERService
	normalizer *markets.Normalizer
	confidence common.ConfidenceScores
	fanout     bool
	logger     arbor.ILogger
}

// NewService creates an extractor. The confidence table and the fan-out
// switch come from configuration.
func NewService(ner interfaces.NERService, normalizer *markets.Normalizer, confidence common.ConfidenceScores, fanout bool, logger arbor.ILogger) *Service {
	return &Service{
		ner:        ner,
		normalizer: normalizer,
		confidence: confidence,
		fanout:     fanout,
		logger:     logger,
	}
}

// Extract analyzes a story and returns its entity set and impact list.
// Missing entities are a valid result, not an error; the error return
// exists for swapped-in recognizers that can fail.
func (s *Service) Extract(story *models.Story) (models.EntitySet, []models.StockImpact, error) {
	entities := models.NewEntitySet()
	if story == nil {
		return entities, []models.StockImpact{}, nil
	}

	fullText := story.Headline
	if story.Content != "" {
		if fullText != "" {
			fullText += "\n\n"
		}
		fullText += story.Content
	}

	// Company and person entities from NER; org spans that resolve
	// against the dictionary become direct-mention symbols
	directForm := make(map[string]string)
	var directOrder []string
	seenCompanies := make(map[string]bool)
	seenPeople := make(map[string]bool)

	for _, span := range s.ner.ExtractSpans(fullText) {
		switch span.Type {
		case interfaces.SpanTypeOrg:
			key := strings.ToLower(span.Text)
			if !seenCompanies[key] {
				seenCompanies[key] = true
				entities.Companies = append(entities.Companies, span.Text)
			}
			if symbol, ok := s.normalizer.Normalize(span.Text); ok {
				if _, exists := directForm[symbol]; !exists {
					directForm[symbol] = span.Text
					directOrder = append(directOrder, symbol)
				}
			}
		case interfaces.SpanTypePerson:
			key := strings.ToLower(span.Text)
			if !seenPeople[key] {
				seenPeople[key] = true
				entities.People = append(entities.People, span.Text)
			}
		}
	}

	headlineSectors := toSet(s.normalizer.ClassifySectors(story.Headline))
	bodySectors := toSet(s.normalizer.ClassifySectors(story.Content))
	entities.Sectors = unionSorted(headlineSectors, bodySectors)

	headlineRegulators := toSet(s.normalizer.ClassifyRegulators(story.Headline))
	bodyRegulators := toSet(s.normalizer.ClassifyRegulators(story.Content))
	entities.Regulators = unionSorted(headlineRegulators, bodyRegulators)

	impacts := s.buildImpacts(directOrder, directForm, entities, headlineSectors, headlineRegulators)

	s.logger.Debug().
		Str("story_id", story.ID).
		Int("companies", len(entities.Companies)).
		Int("sectors", len(entities.Sectors)).
		Int("regulators", len(entities.Regulators)).
		Int("impacts", len(impacts)).
		Msg("Entities extracted")

	return entities, impacts, nil
}

// buildImpacts applies the rule table and merges per symbol: the maximum
// confidence wins, never a sum, and reasons concatenate in rule order
func (s *Service) buildImpacts(directOrder []string, directForm map[string]string, entities models.EntitySet, headlineSectors, headlineRegulators map[string]bool) []models.StockImpact {
	merged := make(map[string]*models.StockImpact)
	var order []string

	apply := func(symbol string, confidence float64, impactType, reason string) {
		if existing, ok := merged[symbol]; ok {
			if confidence > existing.Confidence {
				existing.Confidence = confidence
				existing.Type = impactType
			}
			existing.Reason += "; " + reason
			return
		}
		merged[symbol] = &models.StockImpact{
			Symbol:     symbol,
			Confidence: confidence,
			Type:       impactType,
			Reason:     reason,
		}
		order = append(order, symbol)
	}

	for _, symbol := range directOrder {
		apply(symbol, s.confidence.DirectMention, models.ImpactTypeDirect,
			fmt.Sprintf("direct mention of %s", directForm[symbol]))
	}

	direct := make(map[string]bool, len(directOrder))
	for _, symbol := range directOrder {
		direct[symbol] = true
	}
	sectorSymbols := s.normalizer.Dictionaries().SectorSymbols()

	for _, tag := range entities.Sectors {
		confidence := s.confidence.SectorMedium
		location := "body"
		if headlineSectors[tag] {
			confidence = s.confidence.SectorHigh
			location = "headline"
		}
		reason := fmt.Sprintf("sector %s in %s", tag, location)
		for _, symbol := range sectorSymbols[tag] {
			if !s.fanout && !direct[symbol] {
				continue
			}
			apply(symbol, confidence, models.ImpactTypeSector, reason)
		}
	}

	for _, tag := range entities.Regulators {
		confidence := s.confidence.RegulatorMedium
		location := "body"
		if headlineRegulators[tag] {
			confidence = s.confidence.RegulatorHigh
			location = "headline"
		}
		reason := fmt.Sprintf("regulator %s in %s", tag, location)
		for _, symbol := range directOrder {
			apply(symbol, confidence, models.ImpactTypeRegulator, reason)
		}
	}

	impacts := make([]models.StockImpact, 0, len(order))
	for _, symbol := range order {
		impacts = append(impacts, *merged[symbol])
	}
	models.SortImpacts(impacts)
	return impacts
}

func toSet(tags []string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag] = true
	}
	return set
}

func unionSorted(a, b map[string]bool) []string {
	seen := make(map[string]bool, len(a)+len(b))
	result := make([]string, 0, len(a)+len(b))
	for tag := range a {
		if !seen[tag] {
			seen[tag] = true
			result = append(result, tag)
		}
	}
	for tag := range b {
		if !seen[tag] {
			seen[tag] = true
			result = append(result, tag)
		}
	}
	sort.Strings(result)
	return result
}
