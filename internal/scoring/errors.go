package scoring

import (
	"errors"
	"fmt"

	"github.com/tensorplex-labs/outrank/internal/preference"
)

// Callers match these with errors.Is; returned errors carry the offending
// vector or criterion as context.
var (
	ErrShapeMismatch        = errors.New("scoring: shape mismatch")
	ErrDegenerateInput      = errors.New("scoring: at least two alternatives are required")
	ErrInvalidCriterionType = errors.New("scoring: criterion type must be 1 (profit) or -1 (cost)")
	ErrNonFinite            = errors.New("scoring: NaN or Inf encountered")
	ErrWeightSum            = errors.New("scoring: weights must be non-negative and sum to 1")
	ErrUnknownMethod        = errors.New("scoring: unknown method")

	// ErrParameterRange is shared with the preference package so a single
	// errors.Is check covers both layers.
	ErrParameterRange = preference.ErrParameterRange
)

// IsValidationError reports whether err stems from rejected input rather
// than from an internal failure.
func IsValidationError(err error) bool {
	for _, target := range []error{
		ErrShapeMismatch,
		ErrDegenerateInput,
		ErrInvalidCriterionType,
		ErrNonFinite,
		ErrWeightSum,
		ErrUnknownMethod,
		ErrParameterRange,
		preference.ErrUnknownFunction,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func shapeErrorf(vector string, got, want int) error {
	return fmt.Errorf("%s: got length %d, want %d: %w", vector, got, want, ErrShapeMismatch)
}
