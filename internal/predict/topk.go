package predict

import (
	"cmp"
	"slices"

	"github.com/smarttrip/tripcast/internal/config"
)

// DefaultTopK is the number of destinations returned per prediction
const DefaultTopK = config.DefaultTopK

// TopK returns the indices of the k largest probabilities, highest first.
// Equal probabilities keep index order. Fewer than k classes yields all of
// them.
func TopK(probs []float64, k int) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})
	if k < len(idx) {
		idx = idx[:max(k, 0)]
	}
	return idx
}
