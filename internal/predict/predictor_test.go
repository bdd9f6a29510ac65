package predict

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttrip/tripcast/internal/config"
	"github.com/smarttrip/tripcast/internal/destinfo"
	"github.com/smarttrip/tripcast/internal/features"
	"github.com/smarttrip/tripcast/internal/models"
	"github.com/smarttrip/tripcast/internal/nn"
)

// stubClassifier returns a fixed distribution and records its input
type stubClassifier struct {
	in    int
	probs []float64
	err   error
	got   []float64
}

func (s *stubClassifier) InputDim() int  { return s.in }
func (s *stubClassifier) OutputDim() int { return len(s.probs) }

func (s *stubClassifier) PredictProbabilities(x []float64) ([]float64, error) {
	s.got = append([]float64(nil), x...)
	if s.err != nil {
		return nil, s.err
	}
	return append([]float64(nil), s.probs...), nil
}

var columns = []string{"Trekking", "budget_Medium", "Mountain", "duration_5-7 days", "Beach", "budget_Low"}

func trekkingRequest() models.PreferenceRequest {
	return models.PreferenceRequest{
		Activities:      []string{"Trekking"},
		Budget:          "Medium",
		DestinationType: []string{"Mountain"},
		Duration:        "5-7 days",
	}
}

func newTestPredictor(t *testing.T, clf nn.Classifier, labels nn.Labels, enricher *destinfo.Enricher) *Predictor {
	t.Helper()
	p, err := New(Options{
		Name:     "india",
		Schema:   features.NewSchema(columns),
		Labels:   labels,
		Model:    clf,
		Enricher: enricher,
	})
	require.NoError(t, err)
	return p
}

func TestTopK(t *testing.T) {
	tests := []struct {
		name  string
		probs []float64
		k     int
		want  []int
	}{
		{"descending", []float64{0.1, 0.5, 0.15, 0.25}, 3, []int{1, 3, 2}},
		{"fewer classes than k", []float64{0.3, 0.7}, 3, []int{1, 0}},
		{"ties keep index order", []float64{0.2, 0.4, 0.2, 0.2}, 3, []int{1, 0, 2}},
		{"empty", nil, 3, []int{}},
		{"k zero", []float64{0.5, 0.5}, 0, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TopK(tt.probs, tt.k))
		})
	}
}

func TestTopKProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 200; trial++ {
		n := rng.IntN(8)
		probs := make([]float64, n)
		sum := 0.0
		for i := range probs {
			probs[i] = rng.Float64()
			sum += probs[i]
		}
		for i := range probs {
			probs[i] /= sum
		}

		top := TopK(probs, DefaultTopK)

		require.Len(t, top, min(DefaultTopK, n))
		for i := 1; i < len(top); i++ {
			assert.GreaterOrEqual(t, probs[top[i-1]], probs[top[i]])
		}
	}
}

func TestPredictRanksAndEncodes(t *testing.T) {
	clf := &stubClassifier{in: len(columns), probs: []float64{0.1, 0.6, 0.05, 0.25}}
	p := newTestPredictor(t, clf, nn.Labels{"Goa", "Manali", "Jaipur", "Shimla"}, nil)

	res, err := p.Predict(context.Background(), trekkingRequest())
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 1, 1, 1, 0, 0}, clf.got)
	require.Len(t, res.Predictions, 3)
	assert.Equal(t, models.PredictionEntry{Destination: "Manali", Confidence: 0.6}, res.Predictions[0])
	assert.Equal(t, "Shimla", res.Predictions[1].Destination)
	assert.Equal(t, "Goa", res.Predictions[2].Destination)
	assert.Nil(t, res.Info)

	resp := res.Response()
	assert.Equal(t, "Manali", resp.PredictedDestination)
	assert.Equal(t, 0.6, resp.ConfidenceScore)
	assert.Len(t, resp.AlternativeDestinations, 2)
	assert.Nil(t, resp.DestinationInfo)
}

func TestPredictFewerClassesThanTopK(t *testing.T) {
	clf := &stubClassifier{in: len(columns), probs: []float64{0.3, 0.7}}
	p := newTestPredictor(t, clf, nn.Labels{"Bali", "Kyoto"}, nil)

	res, err := p.Predict(context.Background(), models.PreferenceRequest{})
	require.NoError(t, err)
	require.Len(t, res.Predictions, 2)

	resp := res.Response()
	assert.Equal(t, "Kyoto", resp.PredictedDestination)
	assert.Equal(t, []models.PredictionEntry{{Destination: "Bali", Confidence: 0.3}}, resp.AlternativeDestinations)
}

func TestPredictEnrichesPrimaryDestination(t *testing.T) {
	clf := &stubClassifier{in: len(columns), probs: []float64{0.2, 0.8}}
	table := destinfo.MapTable{"Manali": {"best_time": "March to June"}}
	p := newTestPredictor(t, clf, nn.Labels{"Goa", "Manali"}, destinfo.NewEnricher(table))

	res, err := p.Predict(context.Background(), trekkingRequest())
	require.NoError(t, err)

	assert.Equal(t, destinfo.SourceTable, res.InfoSource)
	resp := res.Response()
	require.NotNil(t, resp.DestinationInfo)
	assert.Equal(t, "March to June", (*resp.DestinationInfo)["best_time"])
}

func TestPredictEnrichmentFallback(t *testing.T) {
	clf := &stubClassifier{in: len(columns), probs: []float64{0.9, 0.1}}
	p := newTestPredictor(t, clf, nn.Labels{"Hampi", "Goa"}, destinfo.NewEnricher(nil))

	res, err := p.Predict(context.Background(), trekkingRequest())
	require.NoError(t, err)

	assert.Equal(t, destinfo.SourceFallback, res.InfoSource)
	assert.Equal(t, "Hindi, English, Local languages", res.Info[destinfo.KeyLanguage])
	assert.Equal(t, "March to June, September to November", res.Info[destinfo.KeyBestTime])
	assert.Equal(t, "₹3,000 - ₹7,000 per day", res.Info[destinfo.KeyAvgCost])
}

func TestPredictReportsIgnoredValues(t *testing.T) {
	clf := &stubClassifier{in: len(columns), probs: []float64{0.5, 0.5}}
	p := newTestPredictor(t, clf, nn.Labels{"Goa", "Manali"}, nil)

	req := trekkingRequest()
	req.Activities = append(req.Activities, "Skydiving")
	res, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Ignored.Count())
	assert.Equal(t, []float64{1, 1, 1, 1, 0, 0}, clf.got)
}

func TestPredictClassifierError(t *testing.T) {
	boom := errors.New("boom")
	clf := &stubClassifier{in: len(columns), probs: []float64{0.5, 0.5}, err: boom}
	p := newTestPredictor(t, clf, nn.Labels{"Goa", "Manali"}, nil)

	res, err := p.Predict(context.Background(), trekkingRequest())
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
}

func TestPredictEmptyDistribution(t *testing.T) {
	clf := &stubClassifier{in: len(columns), probs: []float64{0.5}}
	p := newTestPredictor(t, clf, nn.Labels{"Goa"}, nil)
	clf.probs = nil

	_, err := p.Predict(context.Background(), trekkingRequest())
	assert.ErrorIs(t, err, ErrNoClasses)
}

func TestNewRejectsMismatchedArtifacts(t *testing.T) {
	_, err := New(Options{
		Name:   "india",
		Schema: features.NewSchema(columns),
		Labels: nn.Labels{"Goa"},
		Model:  &stubClassifier{in: 3, probs: []float64{1}},
	})
	assert.ErrorIs(t, err, features.ErrSchemaMismatch)

	_, err = New(Options{
		Name:   "india",
		Schema: features.NewSchema(columns),
		Labels: nn.Labels{"Goa"},
		Model:  &stubClassifier{in: len(columns), probs: []float64{0.5, 0.5}},
	})
	assert.ErrorIs(t, err, features.ErrSchemaMismatch)
}

func TestNewDefaults(t *testing.T) {
	p := newTestPredictor(t, &stubClassifier{in: len(columns), probs: []float64{1}}, nn.Labels{"Goa"}, nil)
	assert.Equal(t, "india", p.Route())
	assert.Equal(t, DefaultTopK, p.opts.TopK)
	assert.False(t, p.Enriches())
}

func TestRegistry(t *testing.T) {
	mk := func(name, route string) *Predictor {
		p, err := New(Options{
			Name:   name,
			Route:  route,
			Schema: features.NewSchema(columns),
			Labels: nn.Labels{"A"},
			Model:  &stubClassifier{in: len(columns), probs: []float64{1}},
		})
		require.NoError(t, err)
		return p
	}

	r, err := NewRegistry(mk("not_india", "not-india"), mk("india", "india"))
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	p, err := r.Get("not-india")
	require.NoError(t, err)
	assert.Equal(t, "not_india", p.Name())

	_, err = r.Get("mars")
	assert.ErrorIs(t, err, ErrUnknownVariant)

	all := r.All()
	assert.Equal(t, "india", all[0].Route())

	_, err = NewRegistry(mk("a", "same"), mk("b", "same"))
	assert.Error(t, err)
}

func writeTestBundle(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	files := map[string]string{
		"feature_columns.json": `["Trekking","budget_Medium","Mountain","duration_5-7 days"]`,
		"labels.json":          `["Manali","Goa"]`,
		"model.json":           `{"layers":[{"weights":[[2,0],[0,0],[1,0],[0,0]],"biases":[0,0]}]}`,
		"manifest.json":        `{"version":"test-1"}`,
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
}

func testConfig(t *testing.T) *config.Config {
	root := t.TempDir()
	writeTestBundle(t, filepath.Join(root, "india"))
	writeTestBundle(t, filepath.Join(root, "world"))

	vocab := config.Vocabulary{
		Activities:       []string{"Trekking"},
		DestinationTypes: []string{"Mountain"},
		Budgets:          []string{"Medium"},
		Durations:        []string{"5-7 days"},
	}
	cfg := config.Default()
	cfg.Variants = map[string]config.VariantConfig{
		"india":     {Route: "india", ArtifactDir: filepath.Join(root, "india"), Enrich: true, TopK: 3, Vocabulary: vocab},
		"not_india": {Route: "not-india", ArtifactDir: filepath.Join(root, "world"), TopK: 3, Vocabulary: vocab},
	}
	return cfg
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry(testConfig(t))
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	india, err := reg.Get("india")
	require.NoError(t, err)
	assert.True(t, india.Enriches())
	assert.Equal(t, "test-1", india.Manifest().Version)

	res, err := india.Predict(context.Background(), trekkingRequest())
	require.NoError(t, err)
	assert.Equal(t, "Manali", res.Predictions[0].Destination)
	assert.Equal(t, destinfo.SourceFallback, res.InfoSource)

	world, err := reg.Get("not-india")
	require.NoError(t, err)
	assert.False(t, world.Enriches())
}

func TestLoadRegistryStrictVocabulary(t *testing.T) {
	cfg := testConfig(t)
	india := cfg.Variants["india"]
	india.Vocabulary.Durations = []string{"6-8 days"}

	cfg.Variants["india"] = india
	_, err := LoadRegistry(cfg)
	require.NoError(t, err, "non-strict mismatch only warns")

	india.Strict = true
	cfg.Variants["india"] = india
	_, err = LoadRegistry(cfg)
	assert.ErrorIs(t, err, features.ErrSchemaMismatch)
}

func TestLoadRegistryMissingBundle(t *testing.T) {
	cfg := testConfig(t)
	world := cfg.Variants["not_india"]
	world.ArtifactDir = filepath.Join(t.TempDir(), "missing")
	cfg.Variants["not_india"] = world

	_, err := LoadRegistry(cfg)
	assert.Error(t, err)
}
