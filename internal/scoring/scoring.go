// Package scoring computes outranking scores for a set of alternatives with
// PROMETHEE II and PROSA-C.
package scoring

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/outrank/internal/preference"
)

// CriterionFlows returns the m x n matrix of single-criterion net flows.
// Column j is built from the m x m matrix of preference degrees on criterion j
// reduced as rowsum(P - P^T) / (m-1). The diagonal of P - P^T is zero, so
// comparing an alternative with itself never contributes.
// Inputs are assumed validated; m must be at least 2.
func CriterionFlows(
	matrix *mat.Dense,
	types []CriterionType,
	functions []preference.Function,
	p, q []float64,
) *mat.Dense {
	rows, cols := matrix.Dims()

	phi := mat.NewDense(rows, cols, nil)
	degrees := mat.NewDense(rows, rows, nil)
	balance := mat.NewDense(rows, rows, nil)
	column := make([]float64, rows)
	flow := make([]float64, rows)
	others := float64(rows - 1)

	for j := range cols {
		mat.Col(column, j, matrix)
		PreferenceMatrix(degrees, column, types[j], functions[j], p[j], q[j])

		balance.Sub(degrees, degrees.T())
		for i := range rows {
			flow[i] = floats.Sum(balance.RawRowView(i)) / others
		}
		phi.SetCol(j, flow)
	}

	return phi
}

// PreferenceMatrix fills dst (m x m) with the degree to which alternative i is
// preferred over alternative k on one criterion.
func PreferenceMatrix(
	dst *mat.Dense,
	column []float64,
	t CriterionType,
	fn preference.Function,
	p, q float64,
) {
	sign := float64(t)
	for i, xi := range column {
		for k, xk := range column {
			dst.Set(i, k, fn.Evaluate(sign*(xi-xk), p, q))
		}
	}
}

// NetFlows aggregates single-criterion flows into the overall net flow
// phi_net = phi * w.
func NetFlows(phi *mat.Dense, weights []float64) []float64 {
	rows, _ := phi.Dims()

	w := mat.NewVecDense(len(weights), append([]float64(nil), weights...))
	net := mat.NewVecDense(rows, nil)
	net.MulVec(phi, w)

	return append([]float64(nil), net.RawVector().Data...)
}

// CompensationPenalties computes the PROSA-C weighted mean absolute deviation
// WMAD_i = sum_j |phi_net_i - phi_ij| * w_j * s_j.
func CompensationPenalties(phi *mat.Dense, net, weights, s []float64) []float64 {
	rows, cols := phi.Dims()

	ws := make([]float64, cols)
	floats.MulTo(ws, weights, s)

	penalties := make([]float64, rows)
	row := make([]float64, cols)
	for i := range rows {
		mat.Row(row, i, phi)
		for j := range cols {
			penalties[i] += math.Abs(net[i]-row[j]) * ws[j]
		}
	}

	return penalties
}
