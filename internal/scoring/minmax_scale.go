package scoring

import (
	"gonum.org/v1/gonum/floats"
)

// MinMaxScale maps scores onto [0, 1], best to 1. Constant input maps to all
// zeros.
func MinMaxScale(scores []float64) []float64 {
	result := make([]float64, len(scores))
	copy(result, scores)
	if len(result) == 0 {
		return result
	}

	min := floats.Min(result)
	max := floats.Max(result)

	if max != min {
		floats.AddConst(-min, result)
		floats.Scale(1.0/(max-min), result)
	} else {
		floats.Scale(0, result)
	}

	return result
}
