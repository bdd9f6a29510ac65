// Package predict ranks destinations for a traveler's preferences.
//
// A Predictor is one variant of the service: a feature schema, a trained
// classifier with its labels, and an optional destination enricher. The
// India and worldwide variants are the same component configured with
// different bundles.
package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smarttrip/tripcast/internal/artifacts"
	"github.com/smarttrip/tripcast/internal/destinfo"
	"github.com/smarttrip/tripcast/internal/features"
	"github.com/smarttrip/tripcast/internal/logging"
	"github.com/smarttrip/tripcast/internal/metrics"
	"github.com/smarttrip/tripcast/internal/models"
	"github.com/smarttrip/tripcast/internal/nn"
)

var (
	// ErrNoClasses is returned when a classifier produces an empty distribution
	ErrNoClasses = errors.New("classifier returned no classes")

	// ErrUnknownVariant is returned for routes no predictor serves
	ErrUnknownVariant = errors.New("unknown prediction variant")
)

// Options configures a Predictor
type Options struct {
	Name  string
	Route string
	TopK  int

	Schema   *features.Schema
	Labels   nn.Labels
	Model    nn.Classifier
	Manifest artifacts.Manifest

	// Enricher is nil for variants without destination info
	Enricher *destinfo.Enricher

	// Vocabulary is what clients are expected to send; it only feeds the
	// schema report
	Vocabulary features.Vocabulary
}

// Predictor serves one variant. It is read-only after New and safe for
// concurrent use.
type Predictor struct {
	opts   Options
	report *features.VocabularyReport
}

// Result is a ranked prediction for one request
type Result struct {
	Predictions []models.PredictionEntry

	// Info describes Predictions[0]; nil when the variant does not enrich
	Info       models.DestinationInfo
	InfoSource destinfo.Source

	Ignored features.Report
}

// New validates opts and builds a predictor
func New(opts Options) (*Predictor, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("predictor name is required")
	}
	if opts.Schema == nil || opts.Model == nil {
		return nil, fmt.Errorf("predictor %s: schema and model are required", opts.Name)
	}
	if err := artifacts.Check(opts.Schema, opts.Labels, opts.Model); err != nil {
		return nil, fmt.Errorf("predictor %s: %w", opts.Name, err)
	}
	if opts.TopK < 1 {
		opts.TopK = DefaultTopK
	}
	if opts.Route == "" {
		opts.Route = opts.Name
	}

	return &Predictor{
		opts:   opts,
		report: features.CheckVocabulary(opts.Vocabulary, opts.Schema),
	}, nil
}

// FromBundle builds a predictor over a loaded bundle
func FromBundle(name string, b *artifacts.Bundle, opts Options) (*Predictor, error) {
	opts.Name = name
	opts.Schema = b.Schema
	opts.Labels = b.Labels
	opts.Model = b.Model
	opts.Manifest = b.Manifest
	return New(opts)
}

// Name is the variant name
func (p *Predictor) Name() string { return p.opts.Name }

// Route is the URL segment the variant is served under
func (p *Predictor) Route() string { return p.opts.Route }

// Schema is the feature layout requests are encoded against
func (p *Predictor) Schema() *features.Schema { return p.opts.Schema }

// Manifest describes the loaded bundle
func (p *Predictor) Manifest() artifacts.Manifest { return p.opts.Manifest }

// Classes is the number of destinations the classifier knows
func (p *Predictor) Classes() int { return len(p.opts.Labels) }

// Enriches reports whether results carry destination info
func (p *Predictor) Enriches() bool { return p.opts.Enricher != nil }

// Vocabulary is the configured client vocabulary
func (p *Predictor) Vocabulary() features.Vocabulary { return p.opts.Vocabulary }

// VocabularyReport is the vocabulary check computed at construction
func (p *Predictor) VocabularyReport() *features.VocabularyReport { return p.report }

// Predict ranks destinations for req
func (p *Predictor) Predict(ctx context.Context, req models.PreferenceRequest) (*Result, error) {
	start := time.Now()
	res, err := p.predict(ctx, req)
	metrics.RecordPrediction(p.opts.Name, time.Since(start), err)
	return res, err
}

func (p *Predictor) predict(ctx context.Context, req models.PreferenceRequest) (*Result, error) {
	logger := logging.Ctx(ctx)

	res := &Result{Ignored: features.Inspect(req, p.opts.Schema)}
	if n := res.Ignored.Count(); n > 0 {
		for cat, vals := range res.Ignored.Ignored {
			metrics.RecordIgnoredValues(p.opts.Name, string(cat), len(vals))
		}
		logger.Debug().
			Str("variant", p.opts.Name).
			Int("ignored", n).
			Interface("values", res.Ignored.Ignored).
			Msg("Preference values with no feature column were ignored")
	}

	vec := features.Encode(req, p.opts.Schema)
	probs, err := p.opts.Model.PredictProbabilities(vec)
	if err != nil {
		return nil, fmt.Errorf("classifier failed: %w", err)
	}
	if len(probs) == 0 {
		return nil, ErrNoClasses
	}

	top := TopK(probs, p.opts.TopK)
	res.Predictions = make([]models.PredictionEntry, 0, len(top))
	for _, idx := range top {
		name, err := p.opts.Labels.Decode(idx)
		if err != nil {
			return nil, err
		}
		res.Predictions = append(res.Predictions, models.PredictionEntry{
			Destination: name,
			Confidence:  probs[idx],
		})
	}

	if p.opts.Enricher != nil {
		res.Info, res.InfoSource = p.opts.Enricher.Resolve(res.Predictions[0].Destination, req)
		metrics.RecordDestinationInfo(p.opts.Name, string(res.InfoSource))
	}

	return res, nil
}

// Response converts the result to its wire form: the first entry is the
// primary prediction, the rest are alternatives.
func (r *Result) Response() *models.PredictionResponse {
	resp := &models.PredictionResponse{
		AlternativeDestinations: []models.PredictionEntry{},
	}
	if len(r.Predictions) > 0 {
		resp.PredictedDestination = r.Predictions[0].Destination
		resp.ConfidenceScore = r.Predictions[0].Confidence
		resp.AlternativeDestinations = append(resp.AlternativeDestinations, r.Predictions[1:]...)
	}
	if r.Info != nil {
		info := r.Info
		resp.DestinationInfo = &info
	}
	return resp
}
