// Package artifacts loads the trained model bundles the predictors serve.
//
// A bundle is a directory (or a .zip of one) produced by the training
// pipeline:
//
//	feature_columns.json    ordered feature column names
//	labels.json             class index to destination name
//	model.json | model.gob  dense softmax network
//	manifest.json           optional version metadata
//	destination_info.json   optional enrichment table (or destination_info.db)
package artifacts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/smarttrip/tripcast/internal/features"
	"github.com/smarttrip/tripcast/internal/logging"
	"github.com/smarttrip/tripcast/internal/nn"
)

// Bundle file names
const (
	ColumnsFile  = "feature_columns.json"
	LabelsFile   = "labels.json"
	ModelJSON    = "model.json"
	ModelGob     = "model.gob"
	ManifestFile = "manifest.json"
	DestInfoJSON = "destination_info.json"
	DestInfoDB   = "destination_info.db"
)

// Manifest describes a bundle
type Manifest struct {
	Format      string `json:"format"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Created     string `json:"created"`
}

// Bundle is a loaded, validated set of artifacts for one variant. All fields
// are read-only after Load.
type Bundle struct {
	Dir      string
	Manifest Manifest
	Schema   *features.Schema
	Labels   nn.Labels
	Model    nn.Classifier

	// DestinationInfoPath is the enrichment table found in the bundle, if any
	DestinationInfoPath string

	extracted string
}

// Load reads and cross-checks the bundle at path. A .zip path is extracted
// to a temporary directory that Close removes.
func Load(path string) (*Bundle, error) {
	b := &Bundle{Dir: path}

	if IsArchive(path) {
		tmp, err := os.MkdirTemp("", "tripcast-bundle-*")
		if err != nil {
			return nil, fmt.Errorf("could not create extraction directory: %w", err)
		}
		root, err := Unpack(path, tmp)
		if err != nil {
			os.RemoveAll(tmp)
			return nil, fmt.Errorf("failed to unpack bundle %s: %w", path, err)
		}
		b.Dir = root
		b.extracted = tmp
	}

	if err := b.load(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Bundle) load() error {
	info, err := os.Stat(b.Dir)
	if err != nil {
		return fmt.Errorf("bundle not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("bundle %s is not a directory or .zip archive", b.Dir)
	}

	var columns []string
	if err := readJSON(filepath.Join(b.Dir, ColumnsFile), &columns); err != nil {
		return fmt.Errorf("failed to load feature columns: %w", err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: %s lists no columns", features.ErrSchemaMismatch, ColumnsFile)
	}
	b.Schema = features.NewSchema(columns)

	b.Labels, err = nn.LoadLabels(filepath.Join(b.Dir, LabelsFile))
	if err != nil {
		return fmt.Errorf("failed to load labels: %w", err)
	}
	if len(b.Labels) == 0 {
		return fmt.Errorf("%w: %s lists no classes", features.ErrSchemaMismatch, LabelsFile)
	}

	modelPath, err := b.firstExisting(ModelJSON, ModelGob)
	if err != nil {
		return fmt.Errorf("no model file: expected %s or %s", ModelJSON, ModelGob)
	}
	model, err := nn.Load(modelPath)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	b.Model = model

	if err := Check(b.Schema, b.Labels, b.Model); err != nil {
		return err
	}

	if err := readJSON(filepath.Join(b.Dir, ManifestFile), &b.Manifest); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Str("bundle", b.Dir).Msg("Ignoring unreadable manifest")
	}

	if p, err := b.firstExisting(DestInfoJSON, DestInfoDB); err == nil {
		b.DestinationInfoPath = p
	}

	logging.Info().
		Str("bundle", b.Dir).
		Str("version", b.Manifest.Version).
		Int("columns", b.Schema.Width()).
		Int("classes", len(b.Labels)).
		Msg("Loaded model bundle")
	return nil
}

// Check verifies that a classifier fits the schema and labels it is served with
func Check(schema *features.Schema, labels nn.Labels, model nn.Classifier) error {
	if model.InputDim() != schema.Width() {
		return fmt.Errorf("%w: model expects %d features, %s has %d columns",
			features.ErrSchemaMismatch, model.InputDim(), ColumnsFile, schema.Width())
	}
	if model.OutputDim() != len(labels) {
		return fmt.Errorf("%w: model outputs %d classes, %s has %d labels",
			features.ErrSchemaMismatch, model.OutputDim(), LabelsFile, len(labels))
	}
	return nil
}

// Close removes any directory extracted from an archive
func (b *Bundle) Close() error {
	if b.extracted == "" {
		return nil
	}
	err := os.RemoveAll(b.extracted)
	b.extracted = ""
	return err
}

func (b *Bundle) firstExisting(names ...string) (string, error) {
	for _, name := range names {
		p := filepath.Join(b.Dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", os.ErrNotExist
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
