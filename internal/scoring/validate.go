package scoring

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/outrank/internal/preference"
)

// MatrixFromRows copies a row-major grid into a dense matrix. Ragged or empty
// grids are rejected.
func MatrixFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("matrix: empty: %w", ErrShapeMismatch)
	}

	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("matrix row %d: %w", i, shapeErrorf("matrix row", len(row), cols))
		}
		data = append(data, row...)
	}

	return mat.NewDense(len(rows), cols, data), nil
}

// validateInput runs every structural check up front so no numeric work starts
// on bad input. needS is set for methods that consume sustainability
// coefficients; P and Q may be nil only when defaultable is set.
func (e *Engine) validateInput(in Input, defaultable, needS bool) error {
	if in.Matrix == nil || in.Matrix.IsEmpty() {
		return fmt.Errorf("matrix: nil or empty: %w", ErrShapeMismatch)
	}
	rows, cols := in.Matrix.Dims()

	vectors := []struct {
		name     string
		length   int
		optional bool
		present  bool
	}{
		{"weights", len(in.Weights), false, true},
		{"types", len(in.Types), false, true},
		{"preference functions", len(in.Functions), false, true},
		{"p", len(in.P), defaultable, in.P != nil},
		{"q", len(in.Q), defaultable, in.Q != nil},
		{"s", len(in.S), true, needS && in.S != nil},
	}
	for _, v := range vectors {
		if v.optional && !v.present {
			continue
		}
		if v.length != cols {
			return shapeErrorf(v.name, v.length, cols)
		}
	}

	if rows < 2 {
		return fmt.Errorf("matrix has %d alternative(s): %w", rows, ErrDegenerateInput)
	}

	for j, t := range in.Types {
		if !t.Valid() {
			return fmt.Errorf("types[%d]=%d: %w", j, int(t), ErrInvalidCriterionType)
		}
	}
	for j, fn := range in.Functions {
		if !fn.Valid() {
			return fmt.Errorf("preference functions[%d]=%s: %w", j, fn, preference.ErrUnknownFunction)
		}
	}

	if err := checkFinite(in, needS); err != nil {
		return err
	}

	if e.WeightTolerance > 0 {
		if err := checkWeights(in.Weights, e.WeightTolerance); err != nil {
			return err
		}
	}

	return nil
}

// checkFinite ignores s unless the method reads it.
func checkFinite(in Input, needS bool) error {
	rows, cols := in.Matrix.Dims()
	for i := range rows {
		for j := range cols {
			if v := in.Matrix.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("matrix[%d,%d]: %w", i, j, ErrNonFinite)
			}
		}
	}

	named := []struct {
		name string
		vec  []float64
	}{{"weights", in.Weights}, {"p", in.P}, {"q", in.Q}}
	if needS {
		named = append(named, struct {
			name string
			vec  []float64
		}{"s", in.S})
	}
	for _, n := range named {
		for j, v := range n.vec {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s[%d]: %w", n.name, j, ErrNonFinite)
			}
		}
	}
	return nil
}

// checkThresholds runs on the resolved thresholds, so a caller p paired with
// a derived q is checked as well.
func checkThresholds(in Input, p, q []float64) error {
	for j, fn := range in.Functions {
		if err := fn.CheckThresholds(p[j], q[j]); err != nil {
			return fmt.Errorf("criterion %d: %w", j, err)
		}
	}
	return nil
}

func checkWeights(weights []float64, tol float64) error {
	for j, w := range weights {
		if w < 0 {
			return fmt.Errorf("weights[%d]=%g is negative: %w", j, w, ErrWeightSum)
		}
	}
	if sum := floats.Sum(weights); math.Abs(sum-1) > tol {
		return fmt.Errorf("weights sum to %.6f: %w", sum, ErrWeightSum)
	}
	return nil
}
