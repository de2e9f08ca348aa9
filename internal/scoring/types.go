package scoring

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/tensorplex-labs/outrank/internal/preference"
)

// CriterionType tells whether larger (Profit) or smaller (Cost) values are better.
type CriterionType int

const (
	Cost   CriterionType = -1
	Profit CriterionType = 1
)

func (t CriterionType) Valid() bool {
	return t == Profit || t == Cost
}

func (t CriterionType) String() string {
	switch t {
	case Profit:
		return "profit"
	case Cost:
		return "cost"
	}
	return fmt.Sprintf("CriterionType(%d)", int(t))
}

func ParseCriterionType(s string) (CriterionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "profit", "benefit", "max", "1", "+1":
		return Profit, nil
	case "cost", "min", "-1":
		return Cost, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrInvalidCriterionType)
}

func (t CriterionType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%d: %w", int(t), ErrInvalidCriterionType)
	}
	return []byte(t.String()), nil
}

func (t *CriterionType) UnmarshalText(text []byte) error {
	parsed, err := ParseCriterionType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Method selects how per-criterion flows are aggregated into scores.
type Method int

const (
	// MethodPrometheeII scores alternatives by their weighted net outranking flow.
	MethodPrometheeII Method = iota + 1
	// MethodProsaC subtracts a weighted mean absolute deviation between the net
	// flow and each criterion flow, penalising weakly compensated alternatives.
	MethodProsaC
)

func (m Method) String() string {
	switch m {
	case MethodPrometheeII:
		return "promethee-ii"
	case MethodProsaC:
		return "prosa-c"
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "promethee-ii", "promethee_ii", "prometheeii", "promethee2", "promethee":
		return MethodPrometheeII, nil
	case "prosa-c", "prosa_c", "prosac", "prosa":
		return MethodProsaC, nil
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownMethod)
}

func (m Method) MarshalText() ([]byte, error) {
	if m != MethodPrometheeII && m != MethodProsaC {
		return nil, fmt.Errorf("%d: %w", int(m), ErrUnknownMethod)
	}
	return []byte(m.String()), nil
}

func (m *Method) UnmarshalText(text []byte) error {
	parsed, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Input is one decision problem: m alternatives (rows) evaluated on n criteria
// (columns). Every vector is indexed by criterion. For PROSA-C, nil P, Q or S
// fall back to the engine's default policy.
type Input struct {
	Matrix    *mat.Dense
	Weights   []float64
	Types     []CriterionType
	Functions []preference.Function
	P         []float64 // preference thresholds
	Q         []float64 // indifference thresholds
	S         []float64 // sustainability coefficients, PROSA-C only
}

// Result keeps the intermediate flows next to the final scores.
type Result struct {
	Method         Method
	CriterionFlows *mat.Dense // m x n, single-criterion net flows
	NetFlows       []float64  // weighted sum of CriterionFlows
	Penalties      []float64  // WMAD per alternative; zero for PROMETHEE II
	Scores         []float64

	// thresholds actually used, after defaults were applied
	P []float64
	Q []float64
	S []float64
}
