// Package integrators advances a value function by one explicit time step.
//
// A [Stepper] evaluates the field's rate of change through a [RateFunc],
// asks a [StepPicker] for the step size given the first stage's dissipation
// summary, and updates the field in place. Multi-stage steppers reuse the
// first stage's step for every stage.
package integrators

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/hamiltonian"
)

// RateFunc writes the time derivative of field into rate.
type RateFunc func(ctx context.Context, field, rate []float64) (hamiltonian.Summary, error)

// StepPicker chooses the step size from the first stage's summary.
type StepPicker func(sum hamiltonian.Summary) (float64, error)

type Stepper interface {
	Name() string
	// Step advances field in place and returns the step size taken.
	Step(ctx context.Context, eval RateFunc, field []float64, pick StepPicker) (float64, error)
}

// New returns the stepper registered under name.
func New(name string) (Stepper, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "euler":
		return NewEuler(), nil
	case "rk2", "tvdrk2":
		return NewTVDRK2(), nil
	case "", "rk3", "tvdrk3":
		return NewTVDRK3(), nil
	}
	return nil, fmt.Errorf("%w: unknown integrator %q", dynamo.ErrInvalidConfig, name)
}

// Names lists the registered steppers.
func Names() []string {
	return []string{"euler", "rk2", "rk3"}
}

func ensure(buf []float64, n int) []float64 {
	if len(buf) != n {
		return make([]float64, n)
	}
	return buf
}

// checkFinite rejects a step whose size cannot be applied.
func checkFinite(dt float64) error {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return fmt.Errorf("%w: step size %v", dynamo.ErrNumericalDivergence, dt)
	}
	return nil
}
