package models

import "sort"

// EntitySet holds the entities recognized in a story. Companies that resolve
// against the symbol dictionary additionally surface as StockImpact entries;
// unresolved mentions are retained here as free text only.
type EntitySet struct {
	Companies  []string `json:"companies"`
	Sectors    []string `json:"sectors"`
	Regulators []string `json:"regulators"`
	People     []string `json:"people,omitempty"`
}

// NewEntitySet returns an EntitySet with empty, non-nil slices so JSON
// renders [] rather than null.
func NewEntitySet() EntitySet {
	return EntitySet{
		Companies:  []string{},
		Sectors:    []string{},
		Regulators: []string{},
	}
}

// IsEmpty reports whether nothing was recognized.
func (e *EntitySet) IsEmpty() bool {
	return len(e.Companies) == 0 && len(e.Sectors) == 0 && len(e.Regulators) == 0 && len(e.People) == 0
}

// Merge folds another set into this one, deduplicating and keeping each
// list sorted for stable output.
func (e *EntitySet) Merge(other EntitySet) {
	e.Companies = mergeSorted(e.Companies, other.Companies)
	e.Sectors = mergeSorted(e.Sectors, other.Sectors)
	e.Regulators = mergeSorted(e.Regulators, other.Regulators)
	e.People = mergeSorted(e.People, other.People)
}

func mergeSorted(dst, src []string) []string {
	if len(src) == 0 {
		return dst
	}
	seen := make(map[string]bool, len(dst)+len(src))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range src {
		if v != "" && !seen[v] {
			seen[v] = true
			dst = append(dst, v)
		}
	}
	sort.Strings(dst)
	return dst
}
