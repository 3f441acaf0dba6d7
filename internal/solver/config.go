package solver

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/hjreach/internal/deriv"
	"github.com/san-kum/hjreach/internal/dynamo"
)

// TargetSetMode selects how the evolving field combines with a fixed
// reference field after every accepted sub-step.
type TargetSetMode int

const (
	// None leaves the evolved field untouched (backward reachable set).
	None TargetSetMode = iota
	// MinWithInitial keeps the running minimum with the initial field
	// (backward reachable tube).
	MinWithInitial
	// MaxWithInitial keeps the running maximum with the initial field
	// (avoid tube).
	MaxWithInitial
	// MinWithTarget keeps the running minimum with Config.Aux.
	MinWithTarget
	// MaxWithObstacle keeps the running maximum with Config.Aux.
	MaxWithObstacle
)

var modeNames = map[TargetSetMode]string{
	None:            "none",
	MinWithInitial:  "min_with_initial",
	MaxWithInitial:  "max_with_initial",
	MinWithTarget:   "min_with_target",
	MaxWithObstacle: "max_with_obstacle",
}

func (m TargetSetMode) String() string {
	if s, ok := modeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("TargetSetMode(%d)", int(m))
}

func (m TargetSetMode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

// NeedsAux reports whether the mode combines against Config.Aux.
func (m TargetSetMode) NeedsAux() bool {
	return m == MinWithTarget || m == MaxWithObstacle
}

// ParseTargetSetMode accepts the canonical names and a few legacy aliases.
func ParseTargetSetMode(s string) (TargetSetMode, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	switch key {
	case "", "none", "brs":
		return None, nil
	case "minvwithv0", "minvwithinit", "brt":
		return MinWithInitial, nil
	case "maxvwithv0", "maxvwithinit":
		return MaxWithInitial, nil
	case "minvwithvtarget":
		return MinWithTarget, nil
	case "maxvwithobstacle":
		return MaxWithObstacle, nil
	}
	for m, name := range modeNames {
		if name == key {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown target set mode %q", dynamo.ErrInvalidConfig, s)
}

// ModeNames lists the canonical TargetSetMode names.
func ModeNames() []string {
	return []string{"none", "min_with_initial", "max_with_initial", "min_with_target", "max_with_obstacle"}
}

const DefaultCFL = 0.8

type Config struct {
	// Times are the strictly increasing sample times, starting time first.
	Times []float64
	Mode  TargetSetMode
	// Aux is the target or obstacle field for the modes that need one.
	Aux []float64
	// SaveAllSteps keeps a snapshot per time sample instead of only the last.
	SaveAllSteps bool
	// CFL scales the largest stable step; 0 selects DefaultCFL.
	CFL      float64
	Accuracy deriv.Accuracy
	// Integrator names the explicit stepper; empty selects rk3.
	Integrator string
	// Workers bounds the per-node fan-out; 0 uses GOMAXPROCS.
	Workers int
	// MaxSubSteps aborts a solve that needs more sub-steps; 0 is unlimited.
	MaxSubSteps int
}

func DefaultConfig() Config {
	return Config{
		Times:      []float64{0, 1},
		Mode:       None,
		CFL:        DefaultCFL,
		Accuracy:   deriv.Fifth,
		Integrator: "rk3",
	}
}

// Samples builds the sample sequence 0, step, 2*step, ... up to horizon.
// The last sample is horizon itself.
func Samples(horizon, step float64) ([]float64, error) {
	if !(horizon > 0) || !(step > 0) || math.IsInf(horizon, 0) {
		return nil, fmt.Errorf("%w: horizon %v and step %v must be positive", dynamo.ErrInvalidConfig, horizon, step)
	}
	n := int(math.Ceil(horizon/step - 1e-9))
	times := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		times = append(times, float64(i)*step)
	}
	return append(times, horizon), nil
}

func (c *Config) applyDefaults() {
	if c.CFL == 0 {
		c.CFL = DefaultCFL
	}
	if c.Accuracy == 0 {
		c.Accuracy = deriv.Fifth
	}
	if c.Integrator == "" {
		c.Integrator = "rk3"
	}
}

func (c Config) validate(size int) error {
	if len(c.Times) < 2 {
		return fmt.Errorf("%w: need at least 2 time samples, got %d", dynamo.ErrInvalidConfig, len(c.Times))
	}
	for i, t := range c.Times {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("%w: time sample %d is %v", dynamo.ErrInvalidConfig, i, t)
		}
		if i > 0 && t <= c.Times[i-1] {
			return fmt.Errorf("%w: time samples must increase strictly, sample %d (%v) <= sample %d (%v)", dynamo.ErrInvalidConfig, i, t, i-1, c.Times[i-1])
		}
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: unrecognized target set mode %v", dynamo.ErrInvalidConfig, c.Mode)
	}
	if c.Mode.NeedsAux() && len(c.Aux) != size {
		return fmt.Errorf("%w: mode %v needs an auxiliary field of %d values, got %d", dynamo.ErrInvalidConfig, c.Mode, size, len(c.Aux))
	}
	if !(c.CFL > 0 && c.CFL <= 1) {
		return fmt.Errorf("%w: CFL number %v outside (0, 1]", dynamo.ErrInvalidConfig, c.CFL)
	}
	if !c.Accuracy.Valid() {
		return fmt.Errorf("%w: unsupported accuracy %v", dynamo.ErrInvalidConfig, c.Accuracy)
	}
	if c.MaxSubSteps < 0 {
		return fmt.Errorf("%w: negative sub-step limit %d", dynamo.ErrInvalidConfig, c.MaxSubSteps)
	}
	return nil
}
