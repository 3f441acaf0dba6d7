package integrators

import (
	"context"

	"gonum.org/v1/gonum/floats"
)

type Euler struct {
	rate []float64
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(ctx context.Context, eval RateFunc, field []float64, pick StepPicker) (float64, error) {
	e.rate = ensure(e.rate, len(field))

	sum, err := eval(ctx, field, e.rate)
	if err != nil {
		return 0, err
	}
	dt, err := pick(sum)
	if err != nil {
		return 0, err
	}
	if err := checkFinite(dt); err != nil {
		return 0, err
	}

	floats.AddScaled(field, dt, e.rate)
	return dt, nil
}
