package physics

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/hjreach/internal/dynamo"
)

func allModels(t *testing.T) map[string]dynamo.System {
	t.Helper()

	pe, err := NewPursuitEvasion(DefaultPursuitEvasionConfig())
	if err != nil {
		t.Fatal(err)
	}
	dc, err := NewDubinsCapture(1, 1, 1, dynamo.Maximize, dynamo.Minimize)
	if err != nil {
		t.Fatal(err)
	}
	u, d := DefaultDubinsCar4DBounds()
	car, err := NewDubinsCar4D(u, d, dynamo.Minimize, dynamo.Maximize)
	if err != nil {
		t.Fatal(err)
	}
	p1, err := NewPlane1D(1, 0.5, dynamo.Minimize, dynamo.Maximize)
	if err != nil {
		t.Fatal(err)
	}
	p2, err := NewPlane2D(1, 0.5, dynamo.Maximize, dynamo.Minimize)
	if err != nil {
		t.Fatal(err)
	}

	return map[string]dynamo.System{
		"pursuit_evasion": pe,
		"dubins_capture":  dc,
		"dubins_car4d":    car,
		"plane1d":         p1,
		"plane2d":         p2,
		"still":           NewStill(2),
	}
}

func TestModeOpposition(t *testing.T) {
	cfg := DefaultPursuitEvasionConfig()
	cfg.UMode, cfg.DMode = dynamo.Minimize, dynamo.Minimize
	if _, err := NewPursuitEvasion(cfg); !errors.Is(err, dynamo.ErrInvalidMode) {
		t.Errorf("min/min: expected ErrInvalidMode, got %v", err)
	}

	cfg.UMode, cfg.DMode = dynamo.Minimize, dynamo.Maximize
	if _, err := NewPursuitEvasion(cfg); err != nil {
		t.Errorf("min/max: unexpected error %v", err)
	}

	if _, err := NewDubinsCapture(1, 1, 1, dynamo.Maximize, dynamo.Maximize); !errors.Is(err, dynamo.ErrInvalidMode) {
		t.Errorf("dubins capture max/max: expected ErrInvalidMode, got %v", err)
	}
	u, d := DefaultDubinsCar4DBounds()
	if _, err := NewDubinsCar4D(u, d, dynamo.Minimize, dynamo.Minimize); !errors.Is(err, dynamo.ErrInvalidMode) {
		t.Errorf("dubins car min/min: expected ErrInvalidMode, got %v", err)
	}
	if _, err := NewPlane1D(1, 1, dynamo.Maximize, dynamo.Maximize); !errors.Is(err, dynamo.ErrInvalidMode) {
		t.Errorf("plane max/max: expected ErrInvalidMode, got %v", err)
	}
}

func TestBoundsRejected(t *testing.T) {
	cfg := DefaultPursuitEvasionConfig()
	cfg.UMin = []float64{2, -1}
	if _, err := NewPursuitEvasion(cfg); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
	cfg = DefaultPursuitEvasionConfig()
	cfg.DMax = []float64{1}
	if _, err := NewPursuitEvasion(cfg); !errors.Is(err, dynamo.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := NewDubinsCapture(-1, 1, 1, dynamo.Minimize, dynamo.Maximize); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestPursuitEvasionOptimalInputs(t *testing.T) {
	pe, err := NewPursuitEvasion(DefaultPursuitEvasionConfig())
	if err != nil {
		t.Fatal(err)
	}
	x := dynamo.State{0.5, -0.5, 0.1, 0.2}

	// ax multiplies -p2 in H; minimizing with p2 > 0 means the largest ax.
	u := pe.OptimalControl(x, []float64{0, 0, 2, -3}, nil)
	if u[0] != 1 || u[1] != -1 {
		t.Errorf("control = %v, want [1 -1]", u)
	}
	d := pe.OptimalDisturbance(x, []float64{0, 0, 2, -3}, nil)
	if d[0] != 0.25 || d[1] != -0.25 {
		t.Errorf("disturbance = %v, want [0.25 -0.25]", d)
	}

	u = pe.OptimalControl(x, []float64{1, 1, 0, 0}, nil)
	if u[0] != 0 || u[1] != 0 {
		t.Errorf("zero gradient control = %v, want neutral [0 0]", u)
	}
	d = pe.OptimalDisturbance(x, []float64{1, 1, 0, 0}, nil)
	if d[0] != 0 || d[1] != 0 {
		t.Errorf("zero gradient disturbance = %v, want neutral [0 0]", d)
	}

	f := pe.Derive(x, dynamo.Control{1, -1}, dynamo.Disturbance{0.25, -0.25}, nil)
	want := dynamo.State{0.1, 0.2, -0.75, 0.75}
	for i := range want {
		if math.Abs(f[i]-want[i]) > 1e-12 {
			t.Errorf("f[%d] = %v, want %v", i, f[i], want[i])
		}
	}
}

// For every model, the chosen inputs must be no worse for their player than
// any corner of the input box.
func TestOptimalInputsExtremizeHamiltonian(t *testing.T) {
	x := dynamo.State{0.3, -0.7, 0.4, 1.1}
	grads := [][]float64{
		{1, -2, 0.5, 3},
		{-1, 0.3, -2, -0.1},
		{0.2, 0.2, 0.2, -0.2},
	}

	for name, sys := range allModels(t) {
		t.Run(name, func(t *testing.T) {
			n := sys.StateDim()
			xs := x[:n]
			uMode, dMode := modes(sys)

			for _, g := range grads {
				p := g[:n]
				u := sys.OptimalControl(xs, p, nil)
				d := sys.OptimalDisturbance(xs, p, nil)
				best := floats.Dot(sys.Derive(xs, u, d, nil), p)

				for _, cu := range corners(sys, true) {
					hu := floats.Dot(sys.Derive(xs, cu, d, nil), p)
					if uMode == dynamo.Minimize && hu < best-1e-12 {
						t.Errorf("control corner %v beats optimum: %v < %v", cu, hu, best)
					}
					if uMode == dynamo.Maximize && hu > best+1e-12 {
						t.Errorf("control corner %v beats optimum: %v > %v", cu, hu, best)
					}
				}
				for _, cd := range corners(sys, false) {
					hd := floats.Dot(sys.Derive(xs, u, cd, nil), p)
					if dMode == dynamo.Maximize && hd > best+1e-12 {
						t.Errorf("disturbance corner %v beats optimum: %v > %v", cd, hd, best)
					}
					if dMode == dynamo.Minimize && hd < best-1e-12 {
						t.Errorf("disturbance corner %v beats optimum: %v < %v", cd, hd, best)
					}
				}
			}
		})
	}
}

func TestWaveSpeedBoundsDerivative(t *testing.T) {
	states := []dynamo.State{
		{0.3, -0.7, 0.4, 1.1},
		{-2, 1.5, -0.9, -2.8},
	}

	for name, sys := range allModels(t) {
		ws, ok := sys.(dynamo.WaveSpeeder)
		if !ok {
			t.Fatalf("%s does not implement WaveSpeeder", name)
		}
		n := sys.StateDim()
		bound := make([]float64, n)
		for _, x := range states {
			xs := x[:n]
			ws.WaveSpeed(xs, bound)
			for _, cu := range corners(sys, true) {
				for _, cd := range corners(sys, false) {
					f := sys.Derive(xs, cu, cd, nil)
					for i := range f {
						if math.Abs(f[i]) > bound[i]+1e-12 {
							t.Errorf("%s: |f[%d]| = %v exceeds bound %v", name, i, math.Abs(f[i]), bound[i])
						}
					}
				}
			}
		}
	}
}

func TestStill(t *testing.T) {
	s := NewStill(3)
	f := s.Derive(dynamo.State{1, 2, 3}, nil, nil, nil)
	for i, v := range f {
		if v != 0 {
			t.Errorf("f[%d] = %v, want 0", i, v)
		}
	}
	if u := s.OptimalControl(dynamo.State{1, 2, 3}, []float64{1, 1, 1}, nil); len(u) != 0 {
		t.Errorf("still control = %v, want empty", u)
	}
}

func TestDubinsCaptureHeadingTieBreak(t *testing.T) {
	dc, err := NewDubinsCapture(1, 1, 1, dynamo.Maximize, dynamo.Minimize)
	if err != nil {
		t.Fatal(err)
	}
	d := dc.OptimalDisturbance(dynamo.State{1, 1, 0}, []float64{1, 1, 0}, nil)
	if d[0] != 0 {
		t.Errorf("disturbance at zero heading gradient = %v, want 0", d[0])
	}
}

func modes(sys dynamo.System) (dynamo.Mode, dynamo.Mode) {
	switch s := sys.(type) {
	case *PursuitEvasion:
		return s.UMode, s.DMode
	case *DubinsCapture:
		return s.UMode, s.DMode
	case *DubinsCar4D:
		return s.UMode, s.DMode
	case *Plane:
		return s.UMode, s.DMode
	}
	return dynamo.Minimize, dynamo.Maximize
}

// corners enumerates the vertices of a model's control or disturbance box.
func corners(sys dynamo.System, control bool) [][]float64 {
	var b dynamo.Bounds
	switch s := sys.(type) {
	case *PursuitEvasion:
		b = pick(s.U, s.D, control)
	case *DubinsCar4D:
		b = pick(s.U, s.D, control)
	case *Plane:
		b = pick(s.U, s.D, control)
	case *DubinsCapture:
		if control {
			b = dynamo.Bounds{Min: []float64{-s.WMax}, Max: []float64{s.WMax}}
		} else {
			b = dynamo.Bounds{Min: []float64{-s.DMax}, Max: []float64{s.DMax}}
		}
	default:
		return [][]float64{{}}
	}

	out := [][]float64{{}}
	for i := range b.Min {
		var next [][]float64
		for _, c := range out {
			for _, v := range []float64{b.Min[i], b.Max[i]} {
				next = append(next, append(append([]float64(nil), c...), v))
			}
		}
		out = next
	}
	return out
}

func pick(u, d dynamo.Bounds, control bool) dynamo.Bounds {
	if control {
		return u
	}
	return d
}
