package scoring

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"

	"github.com/tensorplex-labs/outrank/internal/utils/logger"
)

// Engine holds scoring configuration. It carries no per-call state, so one
// Engine may serve concurrent calls.
type Engine struct {
	Method                Method
	DefaultSustainability float64
	StrictThresholds      bool
	WeightTolerance       float64 // 0 disables the sum-to-one check
}

type EngineOption func(*Engine)

func WithMethod(method Method) EngineOption {
	return func(e *Engine) {
		e.Method = method
	}
}

func WithDefaultSustainability(s float64) EngineOption {
	return func(e *Engine) {
		e.DefaultSustainability = s
	}
}

// WithStrictThresholds rejects thresholds that the selected preference
// functions cannot use (e.g. p <= q for Linear) instead of leaving them to the
// caller.
func WithStrictThresholds() EngineOption {
	return func(e *Engine) {
		e.StrictThresholds = true
	}
}

func WithWeightTolerance(tol float64) EngineOption {
	return func(e *Engine) {
		e.WeightTolerance = tol
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := DefaultEngineConfig()

	for _, opt := range opts {
		opt(&e)
	}

	return &e
}

// PrometheeII scores in with a default PROMETHEE II engine.
func PrometheeII(in Input) ([]float64, error) {
	return NewEngine(WithMethod(MethodPrometheeII)).Score(in)
}

// ProsaC scores in with a default PROSA-C engine.
func ProsaC(in Input) ([]float64, error) {
	return NewEngine(WithMethod(MethodProsaC)).Score(in)
}

// Score returns one preference value per alternative, in matrix row order.
// Higher is better.
func (e *Engine) Score(in Input) ([]float64, error) {
	res, err := e.Evaluate(in)
	if err != nil {
		return nil, err
	}
	return res.Scores, nil
}

// Evaluate validates in, computes the outranking flows and aggregates them
// according to the engine's method.
func (e *Engine) Evaluate(in Input) (*Result, error) {
	startTime := time.Now()

	var defaultable, needS bool
	switch e.Method {
	case MethodPrometheeII:
	case MethodProsaC:
		defaultable, needS = true, true
	default:
		return nil, fmt.Errorf("%s: %w", e.Method, ErrUnknownMethod)
	}

	if err := e.validateInput(in, defaultable, needS); err != nil {
		return nil, err
	}

	rows, cols := in.Matrix.Dims()
	logger.Sugar().Debugw("Evaluating decision matrix",
		"method", e.Method.String(),
		"alternatives", rows,
		"criteria", cols,
	)

	p, q, err := e.thresholds(in)
	if err != nil {
		return nil, err
	}
	if e.StrictThresholds {
		if err := checkThresholds(in, p, q); err != nil {
			return nil, err
		}
	}

	phi := CriterionFlows(in.Matrix, in.Types, in.Functions, p, q)
	net := NetFlows(phi, in.Weights)

	res := &Result{
		Method:         e.Method,
		CriterionFlows: phi,
		NetFlows:       net,
		Penalties:      make([]float64, rows),
		P:              p,
		Q:              q,
	}

	switch e.Method {
	case MethodPrometheeII:
		res.Scores = append([]float64(nil), net...)
	case MethodProsaC:
		s := in.S
		if s == nil {
			s = SustainabilityVector(cols, e.DefaultSustainability)
		}
		res.S = append([]float64(nil), s...)
		res.Penalties = CompensationPenalties(phi, net, in.Weights, s)
		res.Scores = make([]float64, rows)
		floats.SubTo(res.Scores, net, res.Penalties)
	}

	log.Debug().
		Str("method", e.Method.String()).
		Floats64("scores", res.Scores).
		Msgf("Scored %d alternatives on %d criteria in %v", rows, cols, time.Since(startTime))

	return res, nil
}

// thresholds returns copies of the caller's p and q, filling in the PROSA-C
// defaults for whichever is missing.
func (e *Engine) thresholds(in Input) (p, q []float64, err error) {
	p = append([]float64(nil), in.P...)
	q = append([]float64(nil), in.Q...)
	if in.P != nil && in.Q != nil {
		return p, q, nil
	}

	defP, defQ, err := DefaultThresholds(in.Matrix)
	if err != nil {
		return nil, nil, err
	}
	if in.P == nil {
		p = defP
	}
	if in.Q == nil {
		q = defQ
	}
	return p, q, nil
}
