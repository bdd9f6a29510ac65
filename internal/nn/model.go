// Package nn holds the destination classifiers. A classifier is a small
// feed-forward network whose final layer is normalised with softmax, so
// every prediction is a probability distribution over destination classes.
package nn

import (
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrInputDimension is returned when a feature vector does not match the
	// classifier's input width
	ErrInputDimension = errors.New("input dimension mismatch")

	// ErrInvalidModel is returned for malformed model files
	ErrInvalidModel = errors.New("invalid model")
)

// Classifier maps a feature vector to class probabilities
type Classifier interface {
	InputDim() int
	OutputDim() int
	PredictProbabilities(features []float64) ([]float64, error)
}

// Activation names a hidden-layer nonlinearity
type Activation string

const (
	ActivationReLU    Activation = "relu"
	ActivationTanh    Activation = "tanh"
	ActivationSigmoid Activation = "sigmoid"
	ActivationLinear  Activation = "linear"
)

func (a Activation) apply(v *mat.VecDense) error {
	var f func(float64) float64
	switch a {
	case ActivationReLU:
		f = func(x float64) float64 { return math.Max(0, x) }
	case ActivationTanh:
		f = math.Tanh
	case ActivationSigmoid:
		f = func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
	case ActivationLinear, "":
		return nil
	default:
		return fmt.Errorf("%w: unknown activation %q", ErrInvalidModel, a)
	}
	raw := v.RawVector().Data
	for i := range raw {
		raw[i] = f(raw[i])
	}
	return nil
}

// Layer is the serialised form of one dense layer. Weights is indexed
// [input][output].
type Layer struct {
	Weights    [][]float64 `json:"weights"`
	Biases     []float64   `json:"biases"`
	Activation Activation  `json:"activation,omitempty"`
}

// ModelFile is the on-disk model layout shared by the JSON and gob encodings
type ModelFile struct {
	Layers []Layer `json:"layers"`
}

type denseLayer struct {
	w   *mat.Dense // in x out
	b   *mat.VecDense
	act Activation
}

// DenseModel is a feed-forward softmax classifier. It is read-only after
// construction and safe for concurrent use.
type DenseModel struct {
	layers    []denseLayer
	inputDim  int
	outputDim int
}

// NewDenseModel validates layers and builds the model. The activation of
// the last layer is ignored; softmax is always applied to it.
func NewDenseModel(layers []Layer) (*DenseModel, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrInvalidModel)
	}

	m := &DenseModel{layers: make([]denseLayer, len(layers))}
	prevOut := -1
	for i, l := range layers {
		in := len(l.Weights)
		if in == 0 {
			return nil, fmt.Errorf("%w: layer %d has no weights", ErrInvalidModel, i)
		}
		out := len(l.Weights[0])
		if out == 0 {
			return nil, fmt.Errorf("%w: layer %d has zero outputs", ErrInvalidModel, i)
		}
		if prevOut >= 0 && in != prevOut {
			return nil, fmt.Errorf("%w: layer %d takes %d inputs, previous layer gives %d", ErrInvalidModel, i, in, prevOut)
		}
		if len(l.Biases) != out {
			return nil, fmt.Errorf("%w: layer %d has %d biases for %d outputs", ErrInvalidModel, i, len(l.Biases), out)
		}

		backing := make([]float64, 0, in*out)
		for r, row := range l.Weights {
			if len(row) != out {
				return nil, fmt.Errorf("%w: layer %d row %d has %d weights, want %d", ErrInvalidModel, i, r, len(row), out)
			}
			backing = append(backing, row...)
		}

		act := l.Activation
		if i == len(layers)-1 {
			act = ActivationLinear
		} else if err := act.apply(mat.NewVecDense(1, nil)); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}

		m.layers[i] = denseLayer{
			w:   mat.NewDense(in, out, backing),
			b:   mat.NewVecDense(out, append([]float64(nil), l.Biases...)),
			act: act,
		}
		prevOut = out
	}

	m.inputDim = len(layers[0].Weights)
	m.outputDim = prevOut
	return m, nil
}

// ModelConfig describes a freshly initialised network
type ModelConfig struct {
	InputDim   int
	HiddenDims []int
	OutputDim  int
	Activation Activation
}

// NewRandomModel builds an untrained network with Xavier-initialised weights.
// rng may be nil.
func NewRandomModel(cfg ModelConfig, rng *rand.Rand) (*DenseModel, error) {
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	dims := append([]int{cfg.InputDim}, cfg.HiddenDims...)
	dims = append(dims, cfg.OutputDim)

	layers := make([]Layer, 0, len(dims)-1)
	for i := 0; i < len(dims)-1; i++ {
		rows, cols := dims[i], dims[i+1]
		if rows < 1 || cols < 1 {
			return nil, fmt.Errorf("%w: layer %d has shape %dx%d", ErrInvalidModel, i, rows, cols)
		}
		scale := math.Sqrt(2.0 / float64(rows+cols))
		w := make([][]float64, rows)
		for r := range w {
			w[r] = make([]float64, cols)
			for c := range w[r] {
				w[r][c] = (rng.Float64()*2 - 1) * scale
			}
		}
		layers = append(layers, Layer{Weights: w, Biases: make([]float64, cols), Activation: cfg.Activation})
	}
	return NewDenseModel(layers)
}

// InputDim is the feature vector width the model expects
func (m *DenseModel) InputDim() int { return m.inputDim }

// OutputDim is the number of classes
func (m *DenseModel) OutputDim() int { return m.outputDim }

// PredictProbabilities runs a forward pass and returns one probability per
// class. The result sums to 1.
func (m *DenseModel) PredictProbabilities(input []float64) ([]float64, error) {
	if len(input) != m.inputDim {
		return nil, fmt.Errorf("%w: got %d features, model expects %d", ErrInputDimension, len(input), m.inputDim)
	}

	h := mat.NewVecDense(len(input), append([]float64(nil), input...))
	for i, l := range m.layers {
		_, out := l.w.Dims()
		next := mat.NewVecDense(out, nil)
		next.MulVec(l.w.T(), h)
		next.AddVec(next, l.b)
		if err := l.act.apply(next); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		h = next
	}

	probs := append([]float64(nil), h.RawVector().Data...)
	softmax(probs)
	return probs, nil
}

// softmax normalises logits in place
func softmax(v []float64) {
	if len(v) == 0 {
		return
	}
	floats.AddConst(-floats.Max(v), v)
	for i := range v {
		v[i] = math.Exp(v[i])
	}
	floats.Scale(1/floats.Sum(v), v)
}

// File returns the serialisable form of the model
func (m *DenseModel) File() ModelFile {
	f := ModelFile{Layers: make([]Layer, len(m.layers))}
	for i, l := range m.layers {
		in, _ := l.w.Dims()
		w := make([][]float64, in)
		for r := range w {
			w[r] = mat.Row(nil, r, l.w)
		}
		f.Layers[i] = Layer{
			Weights:    w,
			Biases:     append([]float64(nil), l.b.RawVector().Data...),
			Activation: l.act,
		}
	}
	return f
}

// GetConfig returns a summary of the architecture
func (m *DenseModel) GetConfig() map[string]interface{} {
	hidden := make([]int, 0, len(m.layers)-1)
	for _, l := range m.layers[:len(m.layers)-1] {
		_, out := l.w.Dims()
		hidden = append(hidden, out)
	}
	return map[string]interface{}{
		"input_dim":   m.inputDim,
		"hidden_dims": hidden,
		"output_dim":  m.outputDim,
		"num_layers":  len(m.layers),
	}
}

// Save writes the model to path. The encoding follows the extension:
// .gob for gob, anything else for JSON.
func (m *DenseModel) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := m.File()
	if isGob(path) {
		err = gob.NewEncoder(f).Encode(data)
	} else {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(data)
	}
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return f.Close()
}

// Load reads a model written by Save or exported by the training pipeline
func Load(path string) (*DenseModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var data ModelFile
	if isGob(path) {
		err = gob.NewDecoder(f).Decode(&data)
	} else {
		err = json.NewDecoder(f).Decode(&data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidModel, filepath.Base(path), err)
	}

	return NewDenseModel(data.Layers)
}

func isGob(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".gob")
}
