package common

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Dictionaries holds the market knowledge the pipeline classifies against:
// company surface forms grouped by sector, sector and regulator keyword
// sets, and the confidence scores attached to each match kind. Loaded once
// at startup and treated as immutable afterwards.
type Dictionaries struct {
	// SymbolGroups maps sector -> company surface form -> exchange symbol
	SymbolGroups map[string]map[string]string `yaml:"symbols"`

	// Sectors maps sector name -> keywords that tag it
	Sectors map[string][]string `yaml:"sectors"`

	// Regulators maps regulator name -> keywords that tag it
	Regulators map[string][]string `yaml:"regulators"`

	// Confidence holds the score assigned to each match kind
	Confidence ConfidenceScores `yaml:"confidence"`
}

// ConfidenceScores grades how strongly a match implies stock impact.
// Direct company mentions outrank sector context, and headline placement
// outranks body-only placement.
type ConfidenceScores struct {
	DirectMention   float64 `yaml:"direct_mention"`
	SectorHigh      float64 `yaml:"sector_high"`      // Sector keyword in headline
	SectorMedium    float64 `yaml:"sector_medium"`    // Sector keyword in body only
	RegulatorHigh   float64 `yaml:"regulator_high"`   // Regulator keyword in headline
	RegulatorMedium float64 `yaml:"regulator_medium"` // Regulator keyword in body only
}

// defaultSymbolGroups maps sector -> company surface form -> NSE symbol.
// Multiple surface forms may resolve to the same symbol (full names,
// abbreviations, common shorthand).
var defaultSymbolGroups = map[string]map[string]string{
	"Banking": {
		"HDFC Bank":            "HDFCBANK",
		"HDFC":                 "HDFCBANK",
		"ICICI Bank":           "ICICIBANK",
		"ICICI":                "ICICIBANK",
		"State Bank of India":  "SBIN",
		"SBI":                  "SBIN",
		"Axis Bank":            "AXISBANK",
		"Kotak Mahindra Bank":  "KOTAKBANK",
		"Kotak Bank":           "KOTAKBANK",
		"Punjab National Bank": "PNB",
		"Bank of Baroda":       "BANKBARODA",
		"IndusInd Bank":        "INDUSINDBK",
	},
	"IT": {
		"TCS":                       "TCS",
		"Tata Consultancy Services": "TCS",
		"Infosys":                   "INFY",
		"Wipro":                     "WIPRO",
		"HCL Technologies":          "HCLTECH",
		"HCL":                       "HCLTECH",
		"Tech Mahindra":             "TECHM",
	},
	"Pharma": {
		"Sun Pharma":         "SUNPHARMA",
		"Sun Pharmaceutical": "SUNPHARMA",
		"Dr. Reddy's":        "DRREDDY",
		"Dr Reddy's":         "DRREDDY",
		"Cipla":              "CIPLA",
		"Lupin":              "LUPIN",
	},
	"Auto": {
		"Maruti Suzuki":       "MARUTI",
		"Tata Motors":         "TATAMOTORS",
		"Mahindra":            "M&M",
		"Mahindra & Mahindra": "M&M",
		"Bajaj Auto":          "BAJAJ-AUTO",
	},
	"FMCG": {
		"Hindustan Unilever": "HINDUNILVR",
		"HUL":                "HINDUNILVR",
		"ITC":                "ITC",
		"Nestle":             "NESTLEIND",
	},
	"Energy": {
		"Reliance Industries":             "RELIANCE",
		"Reliance":                        "RELIANCE",
		"ONGC":                            "ONGC",
		"Oil and Natural Gas Corporation": "ONGC",
	},
}

// defaultSectorKeywords maps sector -> keywords that tag a story with it
var defaultSectorKeywords = map[string][]string{
	"Banking": {"bank", "banking", "lender", "loan", "credit", "deposit", "NPA", "NPAs", "bad loans"},
	"IT":      {"IT", "software", "technology", "digital", "tech", "IT services", "outsourcing"},
	"Pharma":  {"pharma", "pharmaceutical", "drug", "medicine", "FDA", "clinical trial"},
	"Auto":    {"automobile", "auto", "vehicle", "car", "SUV", "two-wheeler"},
	"FMCG":    {"FMCG", "consumer goods", "fast-moving", "retail"},
	"Energy":  {"oil", "gas", "petroleum", "refinery", "crude", "energy"},
}

// defaultRegulatorKeywords maps regulator -> keywords that tag a story with it
var defaultRegulatorKeywords = map[string][]string{
	"RBI":   {"RBI", "Reserve Bank", "Reserve Bank of India", "central bank", "repo rate", "CRR", "SLR"},
	"SEBI":  {"SEBI", "Securities and Exchange Board", "market regulator", "insider trading"},
	"FED":   {"Federal Reserve", "Fed", "FOMC", "US central bank"},
	"IRDAI": {"IRDAI", "Insurance Regulatory", "insurance regulator"},
}

// defaultConfidenceScores grades each match kind
var defaultConfidenceScores = ConfidenceScores{
	DirectMention:   1.0,
	SectorHigh:      0.8,
	SectorMedium:    0.6,
	RegulatorHigh:   0.7,
	RegulatorMedium: 0.5,
}

// DefaultDictionaries returns a fresh copy of the compiled-in market
// dictionaries. Callers own the returned maps.
func DefaultDictionaries() *Dictionaries {
	groups := make(map[string]map[string]string, len(defaultSymbolGroups))
	for sector, forms := range defaultSymbolGroups {
		copied := make(map[string]string, len(forms))
		for form, symbol := range forms {
			copied[form] = symbol
		}
		groups[sector] = copied
	}

	return &Dictionaries{
		SymbolGroups: groups,
		Sectors:      copyKeywordMap(defaultSectorKeywords),
		Regulators:   copyKeywordMap(defaultRegulatorKeywords),
		Confidence:   defaultConfidenceScores,
	}
}

func copyKeywordMap(src map[string][]string) map[string][]string {
	copied := make(map[string][]string, len(src))
	for key, words := range src {
		copied[key] = append([]string(nil), words...)
	}
	return copied
}

// LoadDictionaries builds the active dictionaries: compiled-in defaults,
// optionally overlaid from a YAML file. A table present in the file
// replaces the whole default table; absent tables keep their defaults.
func LoadDictionaries(path string) (*Dictionaries, error) {
	dicts := DefaultDictionaries()

	if path == "" {
		return dicts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file %s: %w", path, err)
	}

	var overlay Dictionaries
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, fmt.Errorf("failed to parse dictionary file %s: %w", path, err)
	}

	if len(overlay.SymbolGroups) > 0 {
		// Overlay authors may write exchange-qualified symbols
		for _, forms := range overlay.SymbolGroups {
			for form, symbol := range forms {
				forms[form] = NormalizeSymbol(symbol)
			}
		}
		dicts.SymbolGroups = overlay.SymbolGroups
	}
	if len(overlay.Sectors) > 0 {
		dicts.Sectors = overlay.Sectors
	}
	if len(overlay.Regulators) > 0 {
		dicts.Regulators = overlay.Regulators
	}
	if overlay.Confidence != (ConfidenceScores{}) {
		dicts.Confidence = overlay.Confidence
	}

	if err := dicts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dictionary file %s: %w", path, err)
	}

	return dicts, nil
}

// Validate checks dictionary integrity after loading
func (d *Dictionaries) Validate() error {
	if len(d.SymbolGroups) == 0 {
		return fmt.Errorf("symbol mapping is empty")
	}
	for sector, forms := range d.SymbolGroups {
		if len(forms) == 0 {
			return fmt.Errorf("sector %q has no company mappings", sector)
		}
		for form, symbol := range forms {
			if form == "" {
				return fmt.Errorf("sector %q has an empty surface form", sector)
			}
			if !ValidSymbol(symbol) {
				return fmt.Errorf("sector %q maps %q to invalid symbol %q", sector, form, symbol)
			}
		}
	}

	scores := []float64{
		d.Confidence.DirectMention,
		d.Confidence.SectorHigh,
		d.Confidence.SectorMedium,
		d.Confidence.RegulatorHigh,
		d.Confidence.RegulatorMedium,
	}
	for _, score := range scores {
		if score <= 0 || score > 1 {
			return fmt.Errorf("confidence scores must be in (0, 1], got %v", score)
		}
	}

	return nil
}

// SymbolForms flattens the grouped mapping into surface form -> symbol
func (d *Dictionaries) SymbolForms() map[string]string {
	forms := make(map[string]string)
	for _, group := range d.SymbolGroups {
		for form, symbol := range group {
			forms[form] = symbol
		}
	}
	return forms
}

// SectorSymbols derives the sector -> member symbols fan-out map from the
// symbol groups, each member list sorted and de-duplicated.
func (d *Dictionaries) SectorSymbols() map[string][]string {
	result := make(map[string][]string, len(d.SymbolGroups))
	for sector, forms := range d.SymbolGroups {
		seen := make(map[string]bool)
		symbols := make([]string, 0, len(forms))
		for _, symbol := range forms {
			if !seen[symbol] {
				seen[symbol] = true
				symbols = append(symbols, symbol)
			}
		}
		sort.Strings(symbols)
		result[sector] = symbols
	}
	return result
}

// SectorNames returns the known sector names, sorted
func (d *Dictionaries) SectorNames() []string {
	names := make([]string, 0, len(d.Sectors))
	for name := range d.Sectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegulatorNames returns the known regulator names, sorted
func (d *Dictionaries) RegulatorNames() []string {
	names := make([]string, 0, len(d.Regulators))
	for name := range d.Regulators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
