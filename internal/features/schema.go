// Package features turns traveler preferences into the one-hot feature
// vectors the destination classifiers were trained on.
//
// The column layout is owned by the training pipeline and shipped in each
// artifact bundle as feature_columns.json. Activities and destination types
// map to columns of the same name; budget and duration map to columns
// prefixed with "budget_" and "duration_".
package features

import (
	"errors"
)

// ErrSchemaMismatch reports that artifacts or vocabularies disagree with the
// feature column layout.
var ErrSchemaMismatch = errors.New("feature schema mismatch")

// Column name prefixes for the single-valued categories
const (
	BudgetPrefix   = "budget_"
	DurationPrefix = "duration_"
)

// Category names a preference field
type Category string

const (
	CategoryActivity        Category = "activities"
	CategoryDestinationType Category = "destinationType"
	CategoryBudget          Category = "budget"
	CategoryDuration        Category = "duration"
)

// Categories lists every category in request field order
var Categories = []Category{CategoryActivity, CategoryBudget, CategoryDestinationType, CategoryDuration}

// ColumnFor returns the column name a value of the given category maps to
func ColumnFor(c Category, value string) string {
	switch c {
	case CategoryBudget:
		return BudgetPrefix + value
	case CategoryDuration:
		return DurationPrefix + value
	default:
		return value
	}
}

// Schema is the ordered feature column layout of one trained model.
// It is immutable after construction and safe for concurrent use.
type Schema struct {
	columns []string
	index   map[string][]int
}

// NewSchema builds a schema over columns, keeping their order. A name that
// appears more than once maps to every position it occupies.
func NewSchema(columns []string) *Schema {
	s := &Schema{
		columns: append([]string(nil), columns...),
		index:   make(map[string][]int, len(columns)),
	}
	for i, name := range s.columns {
		s.index[name] = append(s.index[name], i)
	}
	return s
}

// Width is the length of every vector encoded against this schema
func (s *Schema) Width() int {
	return len(s.columns)
}

// Columns returns a copy of the column names in order
func (s *Schema) Columns() []string {
	return append([]string(nil), s.columns...)
}

// Has reports whether name is a column
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *Schema) positions(name string) []int {
	return s.index[name]
}
