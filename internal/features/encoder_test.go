package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttrip/tripcast/internal/models"
)

var trainedColumns = []string{
	"Trekking", "budget_Medium", "Mountain", "duration_5-7 days",
	"Beach", "Scuba Diving", "budget_Low", "budget_High", "duration_2-3 days", "Heritage",
}

func TestEncodeSetsMatchingColumns(t *testing.T) {
	s := NewSchema(trainedColumns)
	req := models.PreferenceRequest{
		Activities:      []string{"Trekking"},
		Budget:          "Medium",
		DestinationType: []string{"Mountain"},
		Duration:        "5-7 days",
	}

	vec := Encode(req, s)

	require.Len(t, vec, len(trainedColumns))
	want := []float64{1, 1, 1, 1, 0, 0, 0, 0, 0, 0}
	assert.Equal(t, want, vec)
}

func TestEncodeUnknownValuesGiveZeroVector(t *testing.T) {
	s := NewSchema(trainedColumns)
	req := models.PreferenceRequest{
		Activities:      []string{"Skydiving", "trekking"},
		Budget:          "Luxury",
		DestinationType: []string{"Space"},
		Duration:        "forever",
	}

	for i, v := range Encode(req, s) {
		assert.Zerof(t, v, "position %d (%s) should be 0", i, trainedColumns[i])
	}
}

func TestEncodeShapeAndValues(t *testing.T) {
	requests := []models.PreferenceRequest{
		{},
		{Activities: []string{"Trekking", "Trekking", "Scuba Diving"}},
		{Budget: "Low", Duration: "2-3 days"},
		{DestinationType: []string{"Beach", "Heritage", "Mountain", "Nowhere"}, Budget: "High"},
	}
	s := NewSchema(trainedColumns)

	for _, req := range requests {
		vec := Encode(req, s)
		require.Len(t, vec, s.Width())
		for _, v := range vec {
			assert.True(t, v == 0 || v == 1, "value %v is not 0 or 1", v)
		}
	}
}

func TestEncodeIsPure(t *testing.T) {
	s := NewSchema(trainedColumns)
	req := models.PreferenceRequest{
		Activities:      []string{"Scuba Diving"},
		Budget:          "Low",
		DestinationType: []string{"Beach"},
		Duration:        "2-3 days",
	}

	first := Encode(req, s)
	second := Encode(req, s)
	assert.Equal(t, first, second)

	first[0] = 42
	assert.NotEqual(t, first, Encode(req, s), "vectors must not share storage")
}

func TestEncodeEmptySchema(t *testing.T) {
	vec := Encode(models.PreferenceRequest{Activities: []string{"Trekking"}}, NewSchema(nil))
	assert.Empty(t, vec)
}

func TestEncodeDuplicateColumnSetsEveryPosition(t *testing.T) {
	s := NewSchema([]string{"Beach", "budget_Low", "Beach"})
	vec := Encode(models.PreferenceRequest{DestinationType: []string{"Beach"}}, s)
	assert.Equal(t, []float64{1, 0, 1}, vec)
}

func TestActivityAndDestinationTypeShareColumns(t *testing.T) {
	s := NewSchema([]string{"Wildlife"})
	fromActivity := Encode(models.PreferenceRequest{Activities: []string{"Wildlife"}}, s)
	fromType := Encode(models.PreferenceRequest{DestinationType: []string{"Wildlife"}}, s)
	assert.Equal(t, fromActivity, fromType)
	assert.Equal(t, []float64{1}, fromType)
}

func TestInspectReportsIgnoredValues(t *testing.T) {
	s := NewSchema(trainedColumns)
	req := models.PreferenceRequest{
		Activities:      []string{"Trekking", "Skydiving"},
		Budget:          "Luxury",
		DestinationType: []string{"Mountain"},
		Duration:        "5-7 days",
	}

	r := Inspect(req, s)

	assert.Equal(t, 2, r.Count())
	assert.Equal(t, []string{"Skydiving"}, r.Ignored[CategoryActivity])
	assert.Equal(t, []string{"Luxury"}, r.Ignored[CategoryBudget])
	assert.Empty(t, r.Ignored[CategoryDestinationType])
	assert.Empty(t, r.Ignored[CategoryDuration])
}

func TestColumnFor(t *testing.T) {
	tests := []struct {
		cat   Category
		value string
		want  string
	}{
		{CategoryActivity, "Hiking", "Hiking"},
		{CategoryDestinationType, "Beaches", "Beaches"},
		{CategoryBudget, "Medium", "budget_Medium"},
		{CategoryDuration, "4-5 days", "duration_4-5 days"},
	}
	for _, tt := range tests {
		if got := ColumnFor(tt.cat, tt.value); got != tt.want {
			t.Errorf("ColumnFor(%s, %q) = %q, want %q", tt.cat, tt.value, got, tt.want)
		}
	}
}

func TestCheckVocabulary(t *testing.T) {
	s := NewSchema(trainedColumns)

	t.Run("all values covered", func(t *testing.T) {
		v := Vocabulary{
			Activities:       []string{"Trekking", "Scuba Diving"},
			DestinationTypes: []string{"Mountain", "Beach", "Heritage"},
			Budgets:          []string{"Low", "Medium", "High"},
			Durations:        []string{"2-3 days", "5-7 days"},
		}
		r := CheckVocabulary(v, s)
		assert.True(t, r.OK())
		assert.NoError(t, r.Err())
		assert.Empty(t, r.Unreachable)
	})

	t.Run("missing values are reported", func(t *testing.T) {
		v := Vocabulary{
			Activities:       []string{"Trekking"},
			DestinationTypes: []string{"Mountains"},
			Budgets:          []string{"Medium"},
			Durations:        []string{"6-8 days"},
		}
		r := CheckVocabulary(v, s)
		require.False(t, r.OK())
		assert.Equal(t, []string{"Mountains"}, r.Missing[CategoryDestinationType])
		assert.Equal(t, []string{"6-8 days"}, r.Missing[CategoryDuration])
		assert.Contains(t, r.Unreachable, "Mountain")
		assert.NotContains(t, r.Unreachable, "Trekking")

		err := r.Err()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrSchemaMismatch))
		assert.Contains(t, err.Error(), "Mountains")
	})
}
