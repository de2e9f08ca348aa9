package ranking

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var ErrLengthMismatch = errors.New("ranking: vectors differ in length")

func checkLengths(a, b []float64) error {
	if len(a) != len(b) {
		return fmt.Errorf("got %d and %d: %w", len(a), len(b), ErrLengthMismatch)
	}
	return nil
}

// Spearman is the rank correlation coefficient of two rankings without ties:
// 1 - 6*sum(d^2) / (n*(n^2-1)).
func Spearman(x, y []float64) (float64, error) {
	if err := checkLengths(x, y); err != nil {
		return 0, err
	}
	n := float64(len(x))
	if n < 2 {
		return 1, nil
	}

	var sum float64
	for i := range x {
		d := x[i] - y[i]
		sum += d * d
	}
	return 1 - 6*sum/(n*(n*n-1)), nil
}

// WeightedSpearman weighs disagreements near the top of the rankings more
// heavily than those near the bottom.
func WeightedSpearman(x, y []float64) (float64, error) {
	if err := checkLengths(x, y); err != nil {
		return 0, err
	}
	n := float64(len(x))
	if n < 2 {
		return 1, nil
	}

	var sum float64
	for i := range x {
		d := x[i] - y[i]
		sum += d * d * ((n - x[i] + 1) + (n - y[i] + 1))
	}
	return 1 - 6*sum/(n*n*n*n+n*n*n-n*n-n), nil
}

// WSCoefficient is the rank similarity coefficient WS. It is asymmetric: x is
// the reference ranking, and a swap at the top of x costs more than one lower
// down.
func WSCoefficient(x, y []float64) (float64, error) {
	if err := checkLengths(x, y); err != nil {
		return 0, err
	}
	n := float64(len(x))
	if n < 2 {
		return 1, nil
	}

	var sum float64
	for i := range x {
		sum += math.Pow(2, -x[i]) * math.Abs(x[i]-y[i]) / math.Max(math.Abs(x[i]-1), math.Abs(x[i]-n))
	}
	return 1 - sum, nil
}

// Pearson is the linear correlation of two score or rank vectors. Constant
// input yields 0.
func Pearson(x, y []float64) (float64, error) {
	if err := checkLengths(x, y); err != nil {
		return 0, err
	}
	if len(x) < 2 {
		return 0, nil
	}

	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, nil
	}
	return r, nil
}

// Cosine is the cosine similarity of two vectors. A zero vector yields 0.
func Cosine(a, b []float64) (float64, error) {
	if err := checkLengths(a, b); err != nil {
		return 0, err
	}

	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return floats.Dot(a, b) / (normA * normB), nil
}

// Agreement bundles every coefficient for two rankings, x being the reference.
type Agreement struct {
	Spearman         float64 `json:"spearman"`
	WeightedSpearman float64 `json:"weighted_spearman"`
	WS               float64 `json:"ws"`
	Pearson          float64 `json:"pearson"`
}

func Compare(x, y []float64) (Agreement, error) {
	var a Agreement
	var err error
	if a.Spearman, err = Spearman(x, y); err != nil {
		return Agreement{}, err
	}
	if a.WeightedSpearman, err = WeightedSpearman(x, y); err != nil {
		return Agreement{}, err
	}
	if a.WS, err = WSCoefficient(x, y); err != nil {
		return Agreement{}, err
	}
	if a.Pearson, err = Pearson(x, y); err != nil {
		return Agreement{}, err
	}
	return a, nil
}
