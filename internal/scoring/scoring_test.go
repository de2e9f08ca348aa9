package scoring

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/outrank/internal/preference"
	"github.com/tensorplex-labs/outrank/internal/ranking"
)

const tol = 1e-9

func workedMatrix() *mat.Dense {
	return mat.NewDense(6, 4, []float64{
		8, 7, 2, 1,
		5, 3, 7, 5,
		7, 5, 6, 4,
		9, 9, 7, 3,
		11, 10, 3, 7,
		6, 9, 5, 4,
	})
}

func repeat[T any](v T, n int) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// workedInput is the four-criterion example with the same preference function
// on every criterion, p=2 and q=1.
func workedInput(fn preference.Function) Input {
	return Input{
		Matrix:    workedMatrix(),
		Weights:   []float64{0.4, 0.3, 0.1, 0.2},
		Types:     repeat(Profit, 4),
		Functions: repeat(fn, 4),
		P:         repeat(2.0, 4),
		Q:         repeat(1.0, 4),
	}
}

func TestPrometheeIIWorkedExample(t *testing.T) {
	scores, err := PrometheeII(workedInput(preference.Level))
	require.NoError(t, err)

	want := []float64{-0.25, -0.46, -0.22, 0.32, 0.65, -0.04}
	assert.InDeltaSlice(t, want, scores, tol)

	ranks := ranking.Rank(scores, true)
	assert.Equal(t, 1, ranks[4], "row [11,10,3,7] must rank first")
	assert.Equal(t, []int{5, 6, 4, 2, 1, 3}, ranks)
}

func TestPrometheeIIPerFunction(t *testing.T) {
	tests := []struct {
		fn   preference.Function
		want []float64
	}{
		{preference.Usual, []float64{-0.28, -0.5, -0.24, 0.32, 0.84, -0.14}},
		{preference.UShape, []float64{-0.26, -0.52, -0.22, 0.36, 0.7, -0.06}},
		{preference.VShape, []float64{-0.27, -0.51, -0.23, 0.34, 0.77, -0.1}},
		{preference.Linear, []float64{-0.26, -0.52, -0.22, 0.36, 0.7, -0.06}},
		{preference.Gaussian, []float64{
			-0.2339413055029671, -0.4535783164848428, -0.22131821225680864,
			0.30478838396255864, 0.6568506336278204, -0.05280118334576047,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.fn.String(), func(t *testing.T) {
			scores, err := PrometheeII(workedInput(tt.fn))
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, scores, tol)
			// net flows of a complete comparison always balance out
			assert.InDelta(t, 0, floats.Sum(scores), tol)
		})
	}
}

func TestCriterionFlowsWorkedExample(t *testing.T) {
	in := workedInput(preference.Level)
	phi := CriterionFlows(in.Matrix, in.Types, in.Functions, in.P, in.Q)

	want := mat.NewDense(6, 4, []float64{
		0.1, -0.1, -0.8, -0.9,
		-0.7, -0.9, 0.5, 0.2,
		-0.2, -0.6, 0.4, 0.0,
		0.4, 0.5, 0.5, -0.2,
		0.9, 0.6, -0.7, 0.9,
		-0.5, 0.5, 0.1, 0.0,
	})
	assert.True(t, mat.EqualApprox(want, phi, tol), "phi =\n%v", mat.Formatted(phi))
}

func TestProsaCWorkedExample(t *testing.T) {
	t.Run("explicit thresholds", func(t *testing.T) {
		res, err := NewEngine(WithMethod(MethodProsaC)).Evaluate(workedInput(preference.Level))
		require.NoError(t, err)

		assert.InDeltaSlice(t, []float64{-0.25, -0.46, -0.22, 0.32, 0.65, -0.04}, res.NetFlows, tol)
		assert.InDeltaSlice(t, []float64{-0.361, -0.5968, -0.2884, 0.2576, 0.56, -0.1504}, res.Scores, tol)
		assert.Equal(t, repeat(DefaultSustainability, 4), res.S)

		for i := range res.Scores {
			assert.InDelta(t, res.NetFlows[i]-res.Penalties[i], res.Scores[i], tol)
			assert.GreaterOrEqual(t, res.Penalties[i], 0.0)
		}
	})

	t.Run("default thresholds", func(t *testing.T) {
		in := workedInput(preference.Linear)
		in.P, in.Q = nil, nil

		scores, err := ProsaC(in)
		require.NoError(t, err)

		want := []float64{
			-0.30289170215106104, -0.5131200198071364, -0.25072354497146015,
			0.20038830497101337, 0.48249699675065105, -0.12628825525396875,
		}
		assert.InDeltaSlice(t, want, scores, tol)
		assert.Equal(t, 1, ranking.Rank(scores, true)[4])
	})

	t.Run("zero sustainability reduces to PROMETHEE II", func(t *testing.T) {
		in := workedInput(preference.VShape)
		in.S = repeat(0.0, 4)

		prosa, err := ProsaC(in)
		require.NoError(t, err)
		promethee, err := PrometheeII(in)
		require.NoError(t, err)
		assert.InDeltaSlice(t, promethee, prosa, tol)
	})

	t.Run("engine default sustainability", func(t *testing.T) {
		in := workedInput(preference.Level)

		res, err := NewEngine(WithMethod(MethodProsaC), WithDefaultSustainability(0.6)).Evaluate(in)
		require.NoError(t, err)
		base, err := NewEngine(WithMethod(MethodProsaC)).Evaluate(in)
		require.NoError(t, err)

		for i := range res.Penalties {
			assert.InDelta(t, 2*base.Penalties[i], res.Penalties[i], tol)
		}
	})
}

func TestDefaultThresholds(t *testing.T) {
	m := workedMatrix()

	u, err := ColumnDeviations(m)
	require.NoError(t, err)

	rows, cols := m.Dims()
	for j := range cols {
		col := mat.Col(nil, j, m)
		mean := floats.Sum(col) / float64(rows)
		var ss float64
		for _, x := range col {
			ss += (mean - x) * (mean - x)
		}
		assert.InDelta(t, math.Sqrt(ss/float64(rows)), u[j], 1e-12, "column %d", j)
	}
	assert.InDeltaSlice(t, []float64{
		1.9720265943665387, 2.4776781245530843, 1.9148542155126762, 1.8257418583505538,
	}, u, 1e-12)

	p, q, err := DefaultThresholds(m)
	require.NoError(t, err)
	for j := range u {
		assert.InDelta(t, 2*u[j], p[j], 1e-12)
		assert.InDelta(t, 0.5*u[j], q[j], 1e-12)
	}

	res, err := NewEngine(WithMethod(MethodProsaC)).Evaluate(Input{
		Matrix:    m,
		Weights:   []float64{0.25, 0.25, 0.25, 0.25},
		Types:     repeat(Profit, 4),
		Functions: repeat(preference.Linear, 4),
		Q:         []float64{0, 0, 0, 0},
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, p, res.P, 1e-12, "missing p is derived independently of q")
	assert.Equal(t, []float64{0, 0, 0, 0}, res.Q)
}

func TestDeterminism(t *testing.T) {
	for _, method := range []Method{MethodPrometheeII, MethodProsaC} {
		e := NewEngine(WithMethod(method))
		first, err := e.Score(workedInput(preference.Gaussian))
		require.NoError(t, err)

		for range 5 {
			again, err := e.Score(workedInput(preference.Gaussian))
			require.NoError(t, err)
			assert.Equal(t, first, again, method.String())
		}
	}
}

func TestSelfComparisonNeutrality(t *testing.T) {
	in := workedInput(preference.Linear)
	phi := CriterionFlows(in.Matrix, in.Types, in.Functions, in.P, in.Q)

	rows, cols := in.Matrix.Dims()
	for j := range cols {
		fn, p, q := in.Functions[j], in.P[j], in.Q[j]
		for i := range rows {
			var withSelf, withoutSelf float64
			for k := range rows {
				d := float64(in.Types[j]) * (in.Matrix.At(i, j) - in.Matrix.At(k, j))
				contribution := fn.Evaluate(d, p, q) - fn.Evaluate(-d, p, q)
				withSelf += contribution
				if i != k {
					withoutSelf += contribution
				}
			}
			assert.Equal(t, withSelf, withoutSelf)
			assert.InDelta(t, withoutSelf/float64(rows-1), phi.At(i, j), tol)
		}
	}
}

func TestTypeFlipSymmetry(t *testing.T) {
	in := workedInput(preference.VShape)
	flipped := workedInput(preference.VShape)

	flipped.Types[2] = Cost
	rows, _ := flipped.Matrix.Dims()
	for i := range rows {
		flipped.Matrix.Set(i, 2, -flipped.Matrix.At(i, 2))
	}

	phi := CriterionFlows(in.Matrix, in.Types, in.Functions, in.P, in.Q)
	phiFlipped := CriterionFlows(flipped.Matrix, flipped.Types, flipped.Functions, flipped.P, flipped.Q)

	assert.InDeltaSlice(t, mat.Col(nil, 2, phi), mat.Col(nil, 2, phiFlipped), tol)
}

func TestCostCriterionReversesFlows(t *testing.T) {
	in := workedInput(preference.Usual)
	costly := workedInput(preference.Usual)
	costly.Types = repeat(Cost, 4)

	a, err := PrometheeII(in)
	require.NoError(t, err)
	b, err := PrometheeII(costly)
	require.NoError(t, err)

	for i := range a {
		assert.InDelta(t, -a[i], b[i], tol)
	}
}

func TestWeightLinearity(t *testing.T) {
	in := workedInput(preference.Level)
	phi := CriterionFlows(in.Matrix, in.Types, in.Functions, in.P, in.Q)

	w1 := []float64{0.4, 0.3, 0.1, 0.2}
	w2 := []float64{0.1, 0.1, 0.7, 0.1}
	a, b := 0.3, 0.7

	combined := make([]float64, 4)
	floats.AddScaledTo(combined, floats.ScaleTo(make([]float64, 4), a, w1), b, w2)

	want := make([]float64, 6)
	floats.AddScaledTo(want, floats.ScaleTo(make([]float64, 6), a, NetFlows(phi, w1)), b, NetFlows(phi, w2))

	assert.InDeltaSlice(t, want, NetFlows(phi, combined), tol)
}

func TestPrometheeIIWeightScaleInvariance(t *testing.T) {
	in := workedInput(preference.Linear)
	base, err := PrometheeII(in)
	require.NoError(t, err)

	scaled := workedInput(preference.Linear)
	floats.Scale(7.5, scaled.Weights)
	scaled.Weights, err = NormalizeWeights(scaled.Weights)
	require.NoError(t, err)

	again, err := PrometheeII(scaled)
	require.NoError(t, err)
	assert.Equal(t, ranking.Rank(base, true), ranking.Rank(again, true))

	floats.Scale(3, in.Weights)
	tripled, err := PrometheeII(in)
	require.NoError(t, err)
	assert.Equal(t, ranking.Rank(base, true), ranking.Rank(tripled, true))
	for i := range base {
		assert.InDelta(t, 3*base[i], tripled[i], tol)
	}
}

func TestInputIsNotMutated(t *testing.T) {
	in := workedInput(preference.Linear)
	in.P, in.Q = nil, nil
	before := mat.DenseCopyOf(in.Matrix)
	weights := append([]float64(nil), in.Weights...)

	_, err := ProsaC(in)
	require.NoError(t, err)

	assert.True(t, mat.Equal(before, in.Matrix))
	assert.Equal(t, weights, in.Weights)
	assert.Nil(t, in.P)
	assert.Nil(t, in.Q)
	assert.Nil(t, in.S)
}

func TestConcurrentEvaluations(t *testing.T) {
	defer leaktest.CheckTimeout(t, 5*time.Second)()

	e := NewEngine(WithMethod(MethodProsaC))
	want, err := e.Score(workedInput(preference.Level))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]float64, 16)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = e.Score(workedInput(preference.Level))
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		opts   []EngineOption
		mutate func(*Input)
		want   error
		msg    string
	}{
		{
			name:   "weights too short",
			mutate: func(in *Input) { in.Weights = []float64{0.4, 0.3, 0.3} },
			want:   ErrShapeMismatch,
			msg:    "weights: got length 3, want 4",
		},
		{
			name:   "types too long",
			mutate: func(in *Input) { in.Types = repeat(Profit, 5) },
			want:   ErrShapeMismatch,
			msg:    "types",
		},
		{
			name:   "functions missing",
			mutate: func(in *Input) { in.Functions = nil },
			want:   ErrShapeMismatch,
			msg:    "preference functions",
		},
		{
			name:   "p wrong length",
			mutate: func(in *Input) { in.P = []float64{1} },
			want:   ErrShapeMismatch,
			msg:    "p: got length 1",
		},
		{
			name:   "PROMETHEE II needs q",
			method: MethodPrometheeII,
			mutate: func(in *Input) { in.Q = nil },
			want:   ErrShapeMismatch,
			msg:    "q: got length 0",
		},
		{
			name:   "s wrong length",
			mutate: func(in *Input) { in.S = []float64{0.3} },
			want:   ErrShapeMismatch,
			msg:    "s: got length 1",
		},
		{
			name:   "nil matrix",
			mutate: func(in *Input) { in.Matrix = nil },
			want:   ErrShapeMismatch,
			msg:    "matrix",
		},
		{
			name:   "single alternative",
			mutate: func(in *Input) { in.Matrix = mat.NewDense(1, 4, []float64{1, 2, 3, 4}) },
			want:   ErrDegenerateInput,
		},
		{
			name:   "single alternative with PROMETHEE II",
			method: MethodPrometheeII,
			mutate: func(in *Input) { in.Matrix = mat.NewDense(1, 4, []float64{1, 2, 3, 4}) },
			want:   ErrDegenerateInput,
		},
		{
			name:   "zero type",
			mutate: func(in *Input) { in.Types[1] = 0 },
			want:   ErrInvalidCriterionType,
			msg:    "types[1]",
		},
		{
			name:   "unknown function",
			mutate: func(in *Input) { in.Functions[3] = preference.Function(17) },
			want:   preference.ErrUnknownFunction,
		},
		{
			name:   "NaN in matrix",
			mutate: func(in *Input) { in.Matrix.Set(2, 1, math.NaN()) },
			want:   ErrNonFinite,
			msg:    "matrix[2,1]",
		},
		{
			name:   "Inf weight",
			mutate: func(in *Input) { in.Weights[0] = math.Inf(1) },
			want:   ErrNonFinite,
		},
		{
			name:   "strict thresholds",
			opts:   []EngineOption{WithStrictThresholds()},
			mutate: func(in *Input) { in.P[2] = 0.5 },
			want:   ErrParameterRange,
			msg:    "criterion 2",
		},
		{
			name: "strict thresholds with derived q",
			opts: []EngineOption{WithStrictThresholds()},
			mutate: func(in *Input) {
				in.P = repeat(0.1, 4)
				in.Q = nil
			},
			want: ErrParameterRange,
			msg:  "criterion 0",
		},
		{
			name:   "NaN sustainability",
			mutate: func(in *Input) { in.S = []float64{0.3, math.NaN(), 0.3, 0.3} },
			want:   ErrNonFinite,
			msg:    "s[1]",
		},
		{
			name:   "weights do not sum to one",
			opts:   []EngineOption{WithWeightTolerance(1e-6)},
			mutate: func(in *Input) { in.Weights[0] = 0.5 },
			want:   ErrWeightSum,
		},
		{
			name:   "negative weight",
			opts:   []EngineOption{WithWeightTolerance(1e-6)},
			mutate: func(in *Input) { in.Weights = []float64{0.6, 0.5, 0.1, -0.2} },
			want:   ErrWeightSum,
		},
		{
			name:   "unknown method",
			method: Method(9),
			mutate: func(in *Input) {},
			want:   ErrUnknownMethod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == 0 {
				method = MethodProsaC
			}
			in := workedInput(preference.Linear)
			tt.mutate(&in)

			opts := append([]EngineOption{WithMethod(method)}, tt.opts...)
			res, err := NewEngine(opts...).Evaluate(in)

			require.Error(t, err)
			assert.Nil(t, res, "no partial result on failure")
			assert.True(t, errors.Is(err, tt.want), "got %v, want %v", err, tt.want)
			assert.True(t, IsValidationError(err))
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestLenientByDefault(t *testing.T) {
	in := workedInput(preference.Level)
	in.Weights = []float64{1, 1, 1, 1}
	in.P = repeat(1.0, 4)
	in.Q = repeat(2.0, 4)

	_, err := NewEngine().Score(in)
	assert.NoError(t, err)
}

func TestPrometheeIIIgnoresSustainability(t *testing.T) {
	in := workedInput(preference.Level)
	in.S = []float64{math.NaN(), math.Inf(1), 0.3, 0.3}

	res, err := NewEngine(WithMethod(MethodPrometheeII)).Evaluate(in)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-0.25, -0.46, -0.22, 0.32, 0.65, -0.04}, res.Scores, tol)
}

func TestMatrixFromRows(t *testing.T) {
	m, err := MatrixFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 6.0, m.At(2, 1))

	_, err = MatrixFromRows([][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = MatrixFromRows(nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestParseEnums(t *testing.T) {
	m, err := ParseMethod("PROMETHEE-II")
	require.NoError(t, err)
	assert.Equal(t, MethodPrometheeII, m)

	m, err = ParseMethod("prosa_c")
	require.NoError(t, err)
	assert.Equal(t, MethodProsaC, m)

	_, err = ParseMethod("topsis")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	ct, err := ParseCriterionType("min")
	require.NoError(t, err)
	assert.Equal(t, Cost, ct)

	ct, err = ParseCriterionType("+1")
	require.NoError(t, err)
	assert.Equal(t, Profit, ct)

	_, err = ParseCriterionType("maybe")
	assert.ErrorIs(t, err, ErrInvalidCriterionType)

	text, err := MethodProsaC.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "prosa-c", string(text))
}

func randomInput(rows, cols int) Input {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = rand.Float64() * 100
	}
	weights := repeat(1/float64(cols), cols)
	return Input{
		Matrix:    mat.NewDense(rows, cols, data),
		Weights:   weights,
		Types:     repeat(Profit, cols),
		Functions: repeat(preference.Linear, cols),
	}
}

func BenchmarkProsaC(b *testing.B) {
	sizes := []struct {
		alternatives int
		criteria     int
	}{
		{10, 4},
		{50, 8},
		{250, 4},
	}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Alternatives%d_Criteria%d", size.alternatives, size.criteria), func(b *testing.B) {
			in := randomInput(size.alternatives, size.criteria)
			e := NewEngine(WithMethod(MethodProsaC))

			b.ResetTimer()
			for b.Loop() {
				_, _ = e.Score(in)
			}
		})
	}
}
