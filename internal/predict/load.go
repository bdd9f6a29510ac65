package predict

import (
	"errors"
	"fmt"

	"github.com/smarttrip/tripcast/internal/artifacts"
	"github.com/smarttrip/tripcast/internal/config"
	"github.com/smarttrip/tripcast/internal/destinfo"
	"github.com/smarttrip/tripcast/internal/features"
	"github.com/smarttrip/tripcast/internal/logging"
	"github.com/smarttrip/tripcast/internal/metrics"
)

// LoadVariant loads the bundle for one configured variant and builds its
// predictor. The vocabulary check is computed but never fatal here.
func LoadVariant(name string, vc config.VariantConfig) (*Predictor, error) {
	b, err := artifacts.Load(vc.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("variant %s: %w", name, err)
	}
	// everything needed is in memory once the predictor is built
	defer b.Close()

	opts := Options{
		Route:      vc.Route,
		TopK:       vc.TopK,
		Vocabulary: toVocabulary(vc.Vocabulary),
	}
	if vc.Enrich {
		path := vc.DestinationInfoPath
		if path == "" {
			path = b.DestinationInfoPath
		}
		opts.Enricher = destinfo.NewEnricher(destinfo.LoadOrEmpty(path))
	}

	p, err := FromBundle(name, b, opts)
	if err != nil {
		return nil, err
	}
	metrics.SetModelInfo(name, p.Manifest().Version, p.Schema().Width(), p.Classes())
	return p, nil
}

// LoadRegistry loads every configured variant. Any bundle failure is fatal.
// Vocabulary mismatches are logged, and fatal for variants marked strict.
func LoadRegistry(cfg *config.Config) (*Registry, error) {
	var predictors []*Predictor
	var errs []error

	for _, name := range cfg.VariantNames() {
		vc := cfg.Variants[name]
		p, err := LoadVariant(name, vc)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		report := p.VocabularyReport()
		if !report.OK() {
			if vc.Strict {
				errs = append(errs, fmt.Errorf("variant %s: %w", name, report.Err()))
				continue
			}
			logging.Warn().
				Str("variant", name).
				Interface("missing", report.Missing).
				Msg("Vocabulary values have no feature column and will be ignored")
		}
		if len(report.Unreachable) > 0 {
			logging.Debug().
				Str("variant", name).
				Strs("columns", report.Unreachable).
				Msg("Feature columns not reachable from the vocabulary")
		}

		logging.Info().
			Str("variant", name).
			Str("route", p.Route()).
			Bool("enrich", p.Enriches()).
			Msg("Prediction variant ready")
		predictors = append(predictors, p)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return NewRegistry(predictors...)
}

func toVocabulary(v config.Vocabulary) features.Vocabulary {
	return features.Vocabulary{
		Activities:       v.Activities,
		DestinationTypes: v.DestinationTypes,
		Budgets:          v.Budgets,
		Durations:        v.Durations,
	}
}
