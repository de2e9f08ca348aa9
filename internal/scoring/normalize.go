package scoring

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// NormalizeWeights rescales non-negative weights so they sum to one. The input
// is not modified.
func NormalizeWeights(weights []float64) ([]float64, error) {
	result := make([]float64, len(weights))
	copy(result, weights)

	for j, w := range result {
		if w < 0 {
			return nil, fmt.Errorf("weights[%d]=%g is negative: %w", j, w, ErrWeightSum)
		}
	}

	sum := floats.Sum(result)
	if sum <= 0 {
		return nil, fmt.Errorf("weights sum to %g: %w", sum, ErrWeightSum)
	}
	floats.Scale(1.0/sum, result)

	return result, nil
}
