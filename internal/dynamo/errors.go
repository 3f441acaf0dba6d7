package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for grid construction, model construction and solving.
var (
	// ErrInvalidGrid indicates malformed bounds, cell counts or periodic axes.
	ErrInvalidGrid = errors.New("dynamo: invalid grid")

	// ErrInvalidMode indicates control and disturbance modes that do not oppose.
	ErrInvalidMode = errors.New("dynamo: control and disturbance modes must oppose")

	// ErrInvalidConfig indicates a solve configuration rejected before stepping.
	ErrInvalidConfig = errors.New("dynamo: invalid solve configuration")

	// ErrNumericalDivergence indicates a non-finite rate or a degenerate step size.
	ErrNumericalDivergence = errors.New("dynamo: numerical divergence")

	// ErrSolverState indicates an operation not allowed in the solver's current state.
	ErrSolverState = errors.New("dynamo: solver is not idle")

	// ErrDimensionMismatch indicates mismatched field, state or gradient dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// SolveError wraps an error with the location in the solve where it occurred.
// Axis and Node are -1 when the failure is not tied to one.
type SolveError struct {
	Sample  int
	Time    float64
	Axis    int
	Node    int
	Wrapped error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("sample %d (t=%.4f) axis %d node %d: %v", e.Sample, e.Time, e.Axis, e.Node, e.Wrapped)
}

func (e *SolveError) Unwrap() error {
	return e.Wrapped
}
