// Package problem reads and writes decision-problem documents and converts
// them into scoring inputs.
package problem

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tensorplex-labs/outrank/internal/preference"
	"github.com/tensorplex-labs/outrank/internal/scoring"
)

var (
	ErrUnsupportedFormat = errors.New("problem: unsupported document format")
	ErrMalformed         = errors.New("problem: malformed document")
)

// Problem is a decision matrix together with the description of its criteria.
// Matrix rows are alternatives; columns follow Criteria.
type Problem struct {
	Name         string      `yaml:"name" json:"name"`
	Method       string      `yaml:"method,omitempty" json:"method,omitempty"`
	Alternatives []string    `yaml:"alternatives,omitempty" json:"alternatives,omitempty"`
	Criteria     []Criterion `yaml:"criteria" json:"criteria"`
	Matrix       [][]float64 `yaml:"matrix" json:"matrix"`
}

// Criterion describes one column. Empty Type means profit and empty Function
// means usual. P, Q and S must be given for every criterion or for none.
type Criterion struct {
	Name     string   `yaml:"name" json:"name"`
	Weight   float64  `yaml:"weight" json:"weight"`
	Type     string   `yaml:"type,omitempty" json:"type,omitempty"`
	Function string   `yaml:"function,omitempty" json:"function,omitempty"`
	P        *float64 `yaml:"p,omitempty" json:"p,omitempty"`
	Q        *float64 `yaml:"q,omitempty" json:"q,omitempty"`
	S        *float64 `yaml:"s,omitempty" json:"s,omitempty"`
}

func (c Criterion) criterionType() (scoring.CriterionType, error) {
	if c.Type == "" {
		return scoring.Profit, nil
	}
	return scoring.ParseCriterionType(c.Type)
}

func (c Criterion) function() (preference.Function, error) {
	if c.Function == "" {
		return preference.Usual, nil
	}
	return preference.Parse(c.Function)
}

// Labels returns the alternative names, defaulting to A1..Am.
func (p *Problem) Labels() []string {
	if len(p.Alternatives) == len(p.Matrix) {
		return append([]string(nil), p.Alternatives...)
	}
	labels := make([]string, len(p.Matrix))
	for i := range labels {
		labels[i] = fmt.Sprintf("A%d", i+1)
	}
	return labels
}

// ResolveMethod returns the document's method, or def when none is set.
func (p *Problem) ResolveMethod(def scoring.Method) (scoring.Method, error) {
	if strings.TrimSpace(p.Method) == "" {
		return def, nil
	}
	return scoring.ParseMethod(p.Method)
}

// Validate checks that the document is internally consistent. Numeric checks
// are left to the scoring engine.
func (p *Problem) Validate() error {
	n := len(p.Criteria)
	if n == 0 {
		return fmt.Errorf("criteria: none defined: %w", scoring.ErrShapeMismatch)
	}
	if len(p.Matrix) == 0 {
		return fmt.Errorf("matrix: no alternatives: %w", scoring.ErrShapeMismatch)
	}
	for i, row := range p.Matrix {
		if len(row) != n {
			return fmt.Errorf("matrix row %d: got %d values for %d criteria: %w",
				i, len(row), n, scoring.ErrShapeMismatch)
		}
	}
	if p.Alternatives != nil && len(p.Alternatives) != len(p.Matrix) {
		return fmt.Errorf("alternatives: got %d names for %d rows: %w",
			len(p.Alternatives), len(p.Matrix), scoring.ErrShapeMismatch)
	}

	thresholds := []struct {
		name string
		get  func(Criterion) *float64
	}{
		{"p", func(c Criterion) *float64 { return c.P }},
		{"q", func(c Criterion) *float64 { return c.Q }},
		{"s", func(c Criterion) *float64 { return c.S }},
	}
	for _, th := range thresholds {
		if given := countGiven(p.Criteria, th.get); given != 0 && given != n {
			return fmt.Errorf("%s: given for %d of %d criteria: %w", th.name, given, n, scoring.ErrShapeMismatch)
		}
	}

	for j, c := range p.Criteria {
		if _, err := c.criterionType(); err != nil {
			return fmt.Errorf("criterion %d (%s): %w", j, c.Name, err)
		}
		if _, err := c.function(); err != nil {
			return fmt.Errorf("criterion %d (%s): %w", j, c.Name, err)
		}
	}

	if _, err := p.ResolveMethod(scoring.DefaultMethod); err != nil {
		return err
	}
	return nil
}

func countGiven(criteria []Criterion, get func(Criterion) *float64) int {
	given := 0
	for _, c := range criteria {
		if get(c) != nil {
			given++
		}
	}
	return given
}

type inputConfig struct {
	normalizeWeights bool
}

type InputOption func(*inputConfig)

// NormalizeWeights rescales the criterion weights to sum to one before
// scoring. The matrix itself is never rescaled.
func NormalizeWeights() InputOption {
	return func(c *inputConfig) {
		c.normalizeWeights = true
	}
}

// Input converts the document into a scoring.Input. Thresholds omitted on
// every criterion stay nil so the engine's default policy applies.
func (p *Problem) Input(opts ...InputOption) (scoring.Input, error) {
	var cfg inputConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := p.Validate(); err != nil {
		return scoring.Input{}, err
	}

	matrix, err := scoring.MatrixFromRows(p.Matrix)
	if err != nil {
		return scoring.Input{}, err
	}

	n := len(p.Criteria)
	in := scoring.Input{
		Matrix:    matrix,
		Weights:   make([]float64, n),
		Types:     make([]scoring.CriterionType, n),
		Functions: make([]preference.Function, n),
	}
	for j, c := range p.Criteria {
		in.Weights[j] = c.Weight
		in.Types[j], _ = c.criterionType()
		in.Functions[j], _ = c.function()
	}
	in.P = collect(p.Criteria, func(c Criterion) *float64 { return c.P })
	in.Q = collect(p.Criteria, func(c Criterion) *float64 { return c.Q })
	in.S = collect(p.Criteria, func(c Criterion) *float64 { return c.S })

	if cfg.normalizeWeights {
		if in.Weights, err = scoring.NormalizeWeights(in.Weights); err != nil {
			return scoring.Input{}, err
		}
	}
	return in, nil
}

func collect(criteria []Criterion, get func(Criterion) *float64) []float64 {
	if get(criteria[0]) == nil {
		return nil
	}
	out := make([]float64, len(criteria))
	for j, c := range criteria {
		out[j] = *get(c)
	}
	return out
}

func ptr(v float64) *float64 { return &v }

// Example returns the reference problem: six alternatives on four profit
// criteria, scored with the level preference function.
func Example() *Problem {
	names := []string{"C1", "C2", "C3", "C4"}
	weights := []float64{0.4, 0.3, 0.1, 0.2}

	criteria := make([]Criterion, len(names))
	for j, name := range names {
		criteria[j] = Criterion{
			Name:     name,
			Weight:   weights[j],
			Type:     scoring.Profit.String(),
			Function: preference.Level.String(),
			P:        ptr(2),
			Q:        ptr(1),
			S:        ptr(scoring.DefaultSustainability),
		}
	}

	return &Problem{
		Name:         "example",
		Alternatives: []string{"A1", "A2", "A3", "A4", "A5", "A6"},
		Criteria:     criteria,
		Matrix: [][]float64{
			{8, 7, 2, 1},
			{5, 3, 7, 5},
			{7, 5, 6, 4},
			{9, 9, 7, 3},
			{11, 10, 3, 7},
			{6, 9, 5, 4},
		},
	}
}
