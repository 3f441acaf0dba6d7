package integrators

import (
	"context"

	"gonum.org/v1/gonum/floats"
)

// TVDRK2 is Heun's method written as a convex combination of Euler steps.
type TVDRK2 struct {
	rate, u0 []float64
}

func NewTVDRK2() *TVDRK2 {
	return &TVDRK2{}
}

func (r *TVDRK2) Name() string { return "rk2" }

func (r *TVDRK2) ensureScratch(n int) {
	r.rate = ensure(r.rate, n)
	r.u0 = ensure(r.u0, n)
}

func (r *TVDRK2) Step(ctx context.Context, eval RateFunc, field []float64, pick StepPicker) (float64, error) {
	r.ensureScratch(len(field))
	copy(r.u0, field)

	sum, err := eval(ctx, field, r.rate)
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
	floats.AddScaled(field, dt, r.rate)

	if _, err := eval(ctx, field, r.rate); err != nil {
		return 0, err
	}
	for i := range field {
		field[i] = 0.5*r.u0[i] + 0.5*(field[i]+dt*r.rate[i])
	}
	return dt, nil
}

// TVDRK3 is the third order Shu-Osher scheme.
type TVDRK3 struct {
	rate, u0 []float64
}

func NewTVDRK3() *TVDRK3 {
	return &TVDRK3{}
}

func (r *TVDRK3) Name() string { return "rk3" }

func (r *TVDRK3) ensureScratch(n int) {
	r.rate = ensure(r.rate, n)
	r.u0 = ensure(r.u0, n)
}

func (r *TVDRK3) Step(ctx context.Context, eval RateFunc, field []float64, pick StepPicker) (float64, error) {
	r.ensureScratch(len(field))
	copy(r.u0, field)

	sum, err := eval(ctx, field, r.rate)
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
	floats.AddScaled(field, dt, r.rate)

	if _, err := eval(ctx, field, r.rate); err != nil {
		return 0, err
	}
	for i := range field {
		field[i] = 0.75*r.u0[i] + 0.25*(field[i]+dt*r.rate[i])
	}

	if _, err := eval(ctx, field, r.rate); err != nil {
		return 0, err
	}
	for i := range field {
		field[i] = r.u0[i]/3 + 2*(field[i]+dt*r.rate[i])/3
	}
	return dt, nil
}
