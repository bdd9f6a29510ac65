package nn

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// ErrLabelOutOfRange is returned when a class index has no label
var ErrLabelOutOfRange = errors.New("class index out of range")

// Labels maps class indices to destination names
type Labels []string

// Decode returns the destination name for class idx
func (l Labels) Decode(idx int) (string, error) {
	if idx < 0 || idx >= len(l) {
		return "", fmt.Errorf("%w: %d not in [0, %d)", ErrLabelOutOfRange, idx, len(l))
	}
	return l[idx], nil
}

// LoadLabels reads a JSON array of class names
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var l Labels
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to parse labels %s: %w", path, err)
	}
	return l, nil
}
