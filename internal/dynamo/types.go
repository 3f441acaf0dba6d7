package dynamo

import (
	"fmt"
	"math"
	"strings"
)

type State []float64

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}


type Control []float64

type Disturbance []float64

// Mode selects whether a player minimizes or maximizes the Hamiltonian.
type Mode int

const (
	Minimize Mode = iota
	Maximize
)

func (m Mode) String() string {
	switch m {
	case Minimize:
		return "min"
	case Maximize:
		return "max"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Opposite returns the mode of the other player.
func (m Mode) Opposite() Mode {
	if m == Minimize {
		return Maximize
	}
	return Minimize
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "min", "minimize":
		return Minimize, nil
	case "max", "maximize":
		return Maximize, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidMode, s)
}

// CheckModes rejects control/disturbance mode pairs that do not oppose.
func CheckModes(uMode, dMode Mode) error {
	if uMode != Minimize && uMode != Maximize {
		return fmt.Errorf("%w: control mode %v", ErrInvalidMode, uMode)
	}
	if dMode != uMode.Opposite() {
		return fmt.Errorf("%w: uMode=%v dMode=%v", ErrInvalidMode, uMode, dMode)
	}
	return nil
}

// Extremize picks v in [lo, hi] that minimizes or maximizes coeff*v.
// A zero coefficient yields the midpoint of the bounds.
func Extremize(coeff, lo, hi float64, mode Mode) float64 {
	switch {
	case coeff > 0:
		if mode == Minimize {
			return lo
		}
		return hi
	case coeff < 0:
		if mode == Minimize {
			return hi
		}
		return lo
	}
	return 0.5 * (lo + hi)
}

// System is the dynamics contract of a system under study. Implementations
// are immutable and are called concurrently at every grid node.
//
// Each method writes its result into dst when dst has enough capacity and
// returns the filled slice, so the solver's inner loop can reuse buffers.
type System interface {
	// OptimalControl returns the control extremizing p·f under the control mode.
	OptimalControl(x State, p []float64, dst Control) Control
	// OptimalDisturbance returns the disturbance extremizing p·f under the
	// disturbance mode.
	OptimalDisturbance(x State, p []float64, dst Disturbance) Disturbance
	// Derive returns the state derivative f(x, u, d).
	Derive(x State, u Control, d Disturbance, dst State) State
	StateDim() int
	ControlDim() int
	DisturbanceDim() int
}

// WaveSpeeder is implemented by systems that can bound |f_i(x, u, d)| over
// their whole control and disturbance sets. The bound drives the
// Lax-Friedrichs dissipation and the CFL step.
type WaveSpeeder interface {
	WaveSpeed(x State, dst []float64)
}

// Configurable exposes the resolved parameters a model was built with.
type Configurable interface {
	GetParams() map[string]float64
}

// Resize returns s with length n, reusing its backing array when possible.
func Resize[T ~[]float64](s T, n int) T {
	if cap(s) >= n {
		return s[:n]
	}
	return make(T, n)
}

// Bounds is a box of admissible inputs.
type Bounds struct {
	Min []float64
	Max []float64
}

// Validate checks that the box has matching non-empty sides with Min <= Max.
func (b Bounds) Validate(name string, dim int) error {
	if len(b.Min) != dim || len(b.Max) != dim {
		return fmt.Errorf("%w: %s bounds need %d components, got min=%d max=%d", ErrDimensionMismatch, name, dim, len(b.Min), len(b.Max))
	}
	for i := range b.Min {
		if b.Min[i] > b.Max[i] {
			return fmt.Errorf("%w: %s bound %d has min %g > max %g", ErrParameterBounds, name, i, b.Min[i], b.Max[i])
		}
	}
	return nil
}

// MaxAbs returns the largest magnitude reachable in component i.
func (b Bounds) MaxAbs(i int) float64 {
	return math.Max(math.Abs(b.Min[i]), math.Abs(b.Max[i]))
}
