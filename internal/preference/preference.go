// Package preference implements the PROMETHEE preference functions that map a
// signed deviation between two alternatives on one criterion to a preference
// degree in [0, 1].
package preference

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownFunction = errors.New("preference: unknown preference function")
	ErrParameterRange  = errors.New("preference: threshold out of range")
)

// Function selects one of the six generalised criteria. The zero value is Usual.
type Function int

const (
	Usual Function = iota
	UShape
	VShape
	Level
	Linear
	Gaussian
)

var names = [...]string{
	Usual:    "usual",
	UShape:   "u-shape",
	VShape:   "v-shape",
	Level:    "level",
	Linear:   "linear",
	Gaussian: "gaussian",
}

var aliases = map[string]Function{
	"usual":                Usual,
	"type1":                Usual,
	"u-shape":              UShape,
	"ushape":               UShape,
	"u_shape":              UShape,
	"type2":                UShape,
	"v-shape":              VShape,
	"vshape":               VShape,
	"v_shape":              VShape,
	"type3":                VShape,
	"level":                Level,
	"type4":                Level,
	"linear":               Linear,
	"v-shape-indifference": Linear,
	"type5":                Linear,
	"gaussian":             Gaussian,
	"type6":                Gaussian,
}

// All lists every supported function in declaration order.
func All() []Function {
	return []Function{Usual, UShape, VShape, Level, Linear, Gaussian}
}

func (f Function) Valid() bool {
	return f >= Usual && f <= Gaussian
}

func (f Function) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Function(%d)", int(f))
	}
	return names[f]
}

// Parse resolves a function name or alias, ignoring case and surrounding space.
func Parse(name string) (Function, error) {
	if f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return Usual, fmt.Errorf("%q: %w", name, ErrUnknownFunction)
}

func (f Function) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("%d: %w", int(f), ErrUnknownFunction)
	}
	return []byte(names[f]), nil
}

func (f *Function) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// RequiresP reports whether the preference threshold p takes part in the rule.
func (f Function) RequiresP() bool {
	switch f {
	case VShape, Level, Linear, Gaussian:
		return true
	}
	return false
}

// RequiresQ reports whether the indifference threshold q takes part in the rule.
func (f Function) RequiresQ() bool {
	switch f {
	case UShape, Level, Linear, Gaussian:
		return true
	}
	return false
}

// CheckThresholds verifies p and q against what the function needs:
// q >= 0 when q is used, p > 0 when p is used, and p > q for Level and
// Linear. Gaussian only uses (p+q)/2, so it accepts p <= q.
// Evaluate never calls it; the outranking engine does when asked to.
func (f Function) CheckThresholds(p, q float64) error {
	if !f.Valid() {
		return fmt.Errorf("%d: %w", int(f), ErrUnknownFunction)
	}
	if f.RequiresQ() && q < 0 {
		return fmt.Errorf("%s: q=%g must be >= 0: %w", f, q, ErrParameterRange)
	}
	if f.RequiresP() && p <= 0 {
		return fmt.Errorf("%s: p=%g must be > 0: %w", f, p, ErrParameterRange)
	}
	if (f == Level || f == Linear) && p <= q {
		return fmt.Errorf("%s: p=%g must exceed q=%g: %w", f, p, q, ErrParameterRange)
	}
	return nil
}

// Evaluate returns the preference degree of a deviation d under f.
// Unknown functions yield 0.
func Evaluate(f Function, d, p, q float64) float64 {
	switch f {
	case Usual:
		return usual(d)
	case UShape:
		return uShape(d, q)
	case VShape:
		return vShape(d, p)
	case Level:
		return level(d, p, q)
	case Linear:
		return linear(d, p, q)
	case Gaussian:
		return gaussian(d, p, q)
	}
	return 0
}

// Evaluate is the method form of the package-level Evaluate.
func (f Function) Evaluate(d, p, q float64) float64 {
	return Evaluate(f, d, p, q)
}

// alternatives are indifferent only when equal
func usual(d float64) float64 {
	if d <= 0 {
		return 0
	}
	return 1
}

func uShape(d, q float64) float64 {
	if d <= q {
		return 0
	}
	return 1
}

func vShape(d, p float64) float64 {
	switch {
	case d <= 0:
		return 0
	case d <= p:
		return d / p
	default:
		return 1
	}
}

func level(d, p, q float64) float64 {
	switch {
	case d <= q:
		return 0
	case d <= p:
		return 0.5
	default:
		return 1
	}
}

// V-shape with an indifference zone
func linear(d, p, q float64) float64 {
	switch {
	case d <= q:
		return 0
	case d <= p:
		return (d - q) / (p - q)
	default:
		return 1
	}
}

// The inflection point sits halfway between q and p.
func gaussian(d, p, q float64) float64 {
	if d <= 0 {
		return 0
	}
	s := (p + q) / 2
	return 1 - math.Exp(-(d*d)/(2*s*s))
}
