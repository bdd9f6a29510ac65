package features

import (
	"fmt"
	"sort"
	"strings"
)

// Vocabulary is the set of values clients are expected to send per category
type Vocabulary struct {
	Activities       []string `json:"activities"`
	DestinationTypes []string `json:"destination_types"`
	Budgets          []string `json:"budgets"`
	Durations        []string `json:"durations"`
}

func (v Vocabulary) values(c Category) []string {
	switch c {
	case CategoryActivity:
		return v.Activities
	case CategoryDestinationType:
		return v.DestinationTypes
	case CategoryBudget:
		return v.Budgets
	case CategoryDuration:
		return v.Durations
	}
	return nil
}

// VocabularyReport is the result of checking a vocabulary against a schema
type VocabularyReport struct {
	// Missing holds vocabulary values whose column does not exist; requests
	// using them silently lose that signal.
	Missing map[Category][]string `json:"missing,omitempty"`

	// Unreachable holds columns no vocabulary value maps to
	Unreachable []string `json:"unreachable,omitempty"`
}

// OK reports whether every vocabulary value has a column
func (r *VocabularyReport) OK() bool {
	return len(r.Missing) == 0
}

// Err returns ErrSchemaMismatch describing the missing values, or nil
func (r *VocabularyReport) Err() error {
	if r.OK() {
		return nil
	}
	var parts []string
	for _, c := range Categories {
		if vals := r.Missing[c]; len(vals) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", c, strings.Join(vals, ", ")))
		}
	}
	return fmt.Errorf("%w: no column for %s", ErrSchemaMismatch, strings.Join(parts, "; "))
}

// CheckVocabulary maps every vocabulary value onto s and reports values that
// would be dropped at request time, plus columns nothing can reach.
func CheckVocabulary(v Vocabulary, s *Schema) *VocabularyReport {
	r := &VocabularyReport{Missing: make(map[Category][]string)}
	reached := make(map[string]bool, s.Width())

	for _, c := range Categories {
		for _, value := range v.values(c) {
			col := ColumnFor(c, value)
			if s.Has(col) {
				reached[col] = true
				continue
			}
			r.Missing[c] = append(r.Missing[c], value)
		}
	}

	for _, col := range s.columns {
		if !reached[col] {
			r.Unreachable = append(r.Unreachable, col)
		}
	}
	sort.Strings(r.Unreachable)

	if len(r.Missing) == 0 {
		r.Missing = nil
	}
	return r
}
