package scoring

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ColumnDeviations returns the population standard deviation of every column:
// u_j = sqrt(mean_i((mean(x_j) - x_ij)^2)).
func ColumnDeviations(matrix *mat.Dense) ([]float64, error) {
	if matrix == nil || matrix.IsEmpty() {
		return nil, fmt.Errorf("matrix: nil or empty: %w", ErrShapeMismatch)
	}

	rows, cols := matrix.Dims()
	deviations := make([]float64, cols)
	column := make([]float64, rows)

	for j := range cols {
		mat.Col(column, j, matrix)
		u, err := stats.StandardDeviationPopulation(column)
		if err != nil {
			return nil, fmt.Errorf("column %d: %w", j, err)
		}
		deviations[j] = u
	}

	return deviations, nil
}

// DefaultThresholds derives the PROSA-C thresholds from the data spread:
// p_j = 2*u_j and q_j = 0.5*u_j.
func DefaultThresholds(matrix *mat.Dense) (p, q []float64, err error) {
	u, err := ColumnDeviations(matrix)
	if err != nil {
		return nil, nil, err
	}

	p = make([]float64, len(u))
	q = make([]float64, len(u))
	floats.ScaleTo(p, PreferenceDeviationFactor, u)
	floats.ScaleTo(q, IndifferenceDeviationFactor, u)

	log.Trace().Floats64("u", u).Floats64("p", p).Floats64("q", q).Msg("derived default thresholds")
	return p, q, nil
}

// SustainabilityVector repeats s for each of n criteria.
func SustainabilityVector(n int, s float64) []float64 {
	out := make([]float64, n)
	for j := range out {
		out[j] = s
	}
	return out
}
