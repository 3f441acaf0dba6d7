// Package metrics summarises a running solve. Every metric is a
// solver.Observer that reduces progress callbacks to a single number.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/hjreach/internal/solver"
)

type Metric interface {
	solver.Observer
	Name() string
	Value() float64
	Reset()
}

// StepSize tracks the sub-step sizes chosen by the CFL rule. Value is the
// mean step.
type StepSize struct {
	name  string
	sum   float64
	count int
	min   float64
	max   float64
}

func NewStepSize() *StepSize {
	s := &StepSize{name: "step_size"}
	s.Reset()
	return s
}

func (s *StepSize) Name() string { return s.name }

func (s *StepSize) OnSubStep(step solver.SubStep) {
	s.sum += step.Dt
	s.count++
	s.min = math.Min(s.min, step.Dt)
	s.max = math.Max(s.max, step.Dt)
}

func (s *StepSize) OnSample(int, float64, []float64) {}

func (s *StepSize) Value() float64 {
	if s.count == 0 {
		return 0
	}
	return s.sum / float64(s.count)
}

func (s *StepSize) Count() int { return s.count }

// Min and Max are zero before the first sub-step.
func (s *StepSize) Min() float64 {
	if s.count == 0 {
		return 0
	}
	return s.min
}

func (s *StepSize) Max() float64 { return s.max }

func (s *StepSize) Reset() {
	s.sum = 0
	s.count = 0
	s.min = math.Inf(1)
	s.max = 0
}

// WaveSpeed records the largest dissipation coefficient seen on any axis.
type WaveSpeed struct {
	name    string
	perAxis []float64
}

func NewWaveSpeed() *WaveSpeed {
	return &WaveSpeed{name: "max_wave_speed"}
}

func (w *WaveSpeed) Name() string { return w.name }

func (w *WaveSpeed) OnSubStep(step solver.SubStep) {
	if len(w.perAxis) != len(step.MaxAlpha) {
		w.perAxis = make([]float64, len(step.MaxAlpha))
	}
	for axis, a := range step.MaxAlpha {
		w.perAxis[axis] = math.Max(w.perAxis[axis], a)
	}
}

func (w *WaveSpeed) OnSample(int, float64, []float64) {}

func (w *WaveSpeed) Value() float64 {
	if len(w.perAxis) == 0 {
		return 0
	}
	return floats.Max(w.perAxis)
}

// PerAxis returns the running maxima by axis.
func (w *WaveSpeed) PerAxis() []float64 {
	return append([]float64(nil), w.perAxis...)
}

func (w *WaveSpeed) Reset() { w.perAxis = nil }

// ReachFraction is the share of nodes inside the zero sublevel set at the
// most recent sample.
type ReachFraction struct {
	name     string
	fraction float64
	history  []float64
}

func NewReachFraction() *ReachFraction {
	return &ReachFraction{name: "reach_fraction"}
}

func (r *ReachFraction) Name() string { return r.name }

func (r *ReachFraction) OnSubStep(solver.SubStep) {}

func (r *ReachFraction) OnSample(_ int, _ float64, field []float64) {
	r.fraction = Fraction(field)
	r.history = append(r.history, r.fraction)
}

func (r *ReachFraction) Value() float64 { return r.fraction }

// History returns the fraction at every sample seen so far.
func (r *ReachFraction) History() []float64 {
	return append([]float64(nil), r.history...)
}

func (r *ReachFraction) Reset() {
	r.fraction = 0
	r.history = nil
}

// Fraction returns the share of values that are <= 0.
func Fraction(field []float64) float64 {
	if len(field) == 0 {
		return 0
	}
	inside := 0
	for _, v := range field {
		if v <= 0 {
			inside++
		}
	}
	return float64(inside) / float64(len(field))
}
