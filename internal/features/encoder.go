package features

import (
	"github.com/smarttrip/tripcast/internal/models"
)

// Encode builds the one-hot feature vector for req. The vector has exactly
// s.Width() entries, each 0 or 1; values with no matching column are dropped.
func Encode(req models.PreferenceRequest, s *Schema) []float64 {
	vec := make([]float64, s.Width())
	set := func(c Category, value string) {
		for _, pos := range s.positions(ColumnFor(c, value)) {
			vec[pos] = 1
		}
	}

	for _, a := range req.Activities {
		set(CategoryActivity, a)
	}
	for _, d := range req.DestinationType {
		set(CategoryDestinationType, d)
	}
	set(CategoryBudget, req.Budget)
	set(CategoryDuration, req.Duration)

	return vec
}

// Report lists the request values that had no column and were therefore
// ignored by Encode
type Report struct {
	Ignored map[Category][]string
}

// Count is the total number of ignored values
func (r Report) Count() int {
	n := 0
	for _, v := range r.Ignored {
		n += len(v)
	}
	return n
}

// Inspect reports which values of req Encode would ignore
func Inspect(req models.PreferenceRequest, s *Schema) Report {
	r := Report{Ignored: make(map[Category][]string)}
	check := func(c Category, value string) {
		if !s.Has(ColumnFor(c, value)) {
			r.Ignored[c] = append(r.Ignored[c], value)
		}
	}

	for _, a := range req.Activities {
		check(CategoryActivity, a)
	}
	for _, d := range req.DestinationType {
		check(CategoryDestinationType, d)
	}
	check(CategoryBudget, req.Budget)
	check(CategoryDuration, req.Duration)

	return r
}
