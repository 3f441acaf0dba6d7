package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/hjreach/internal/deriv"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/integrators"
	"github.com/san-kum/hjreach/internal/solver"
)

const (
	DefaultModel      = "plane1d"
	DefaultCells      = 101
	DefaultHorizon    = 1.0
	DefaultStep       = 0.1
	DefaultAccuracy   = "high"
	DefaultIntegrator = "rk3"
)

// Config describes one reachability problem as read from a YAML file.
type Config struct {
	Name    string       `yaml:"name,omitempty"`
	Grid    GridConfig   `yaml:"grid"`
	Model   ModelConfig  `yaml:"model"`
	Initial ShapeConfig  `yaml:"initial"`
	Target  *ShapeConfig `yaml:"target,omitempty"`
	Time    TimeConfig   `yaml:"time"`
	Solver  SolverConfig `yaml:"solver"`
}

type GridConfig struct {
	Min      []float64 `yaml:"min" validate:"required,min=1"`
	Max      []float64 `yaml:"max" validate:"required,min=1"`
	Cells    []int     `yaml:"cells" validate:"required,min=1,dive,gte=3"`
	Periodic []int     `yaml:"periodic,omitempty" validate:"dive,gte=0"`
}

type ModelConfig struct {
	Name   string             `yaml:"name" validate:"required"`
	UMode  string             `yaml:"u_mode" validate:"omitempty,oneof=min max"`
	DMode  string             `yaml:"d_mode" validate:"omitempty,oneof=min max"`
	Params map[string]float64 `yaml:"params,omitempty"`
}

// ShapeConfig selects an implicit surface for the initial or target field.
type ShapeConfig struct {
	Kind       string    `yaml:"kind" validate:"required,oneof=cylinder sphere rectangle lower upper union intersection"`
	Center     []float64 `yaml:"center,omitempty"`
	Radius     float64   `yaml:"radius,omitempty" validate:"gte=0"`
	Ignore     []int     `yaml:"ignore,omitempty" validate:"dive,gte=0"`
	Lo         []float64 `yaml:"lo,omitempty"`
	Hi         []float64 `yaml:"hi,omitempty"`
	Axis       int       `yaml:"axis,omitempty" validate:"gte=0"`
	Value      float64   `yaml:"value,omitempty"`
	Complement bool      `yaml:"complement,omitempty"`

	// Parts are the operands of union and intersection.
	Parts []ShapeConfig `yaml:"parts,omitempty" validate:"dive"`
}

// TimeConfig gives either explicit samples or a horizon split into steps.
type TimeConfig struct {
	Horizon float64   `yaml:"horizon,omitempty" validate:"gte=0"`
	Step    float64   `yaml:"step,omitempty" validate:"gte=0"`
	Samples []float64 `yaml:"samples,omitempty"`
}

type SolverConfig struct {
	Mode        string  `yaml:"mode"`
	Accuracy    string  `yaml:"accuracy"`
	Integrator  string  `yaml:"integrator"`
	CFL         float64 `yaml:"cfl" validate:"gt=0,lte=1"`
	SaveAll     bool    `yaml:"save_all"`
	Workers     int     `yaml:"workers,omitempty" validate:"gte=0"`
	MaxSubSteps int     `yaml:"max_substeps,omitempty" validate:"gte=0"`
}

var validate = validator.New()

func DefaultConfig() *Config {
	return &Config{
		Name: "default",
		Grid: GridConfig{
			Min:   []float64{-4},
			Max:   []float64{4},
			Cells: []int{DefaultCells},
		},
		Model: ModelConfig{
			Name:  DefaultModel,
			UMode: "min",
			DMode: "max",
		},
		Initial: ShapeConfig{Kind: "sphere", Center: []float64{0}, Radius: 1},
		Time:    TimeConfig{Horizon: DefaultHorizon, Step: DefaultStep},
		Solver: SolverConfig{
			Mode:       "none",
			Accuracy:   DefaultAccuracy,
			Integrator: DefaultIntegrator,
			CFL:        solver.DefaultCFL,
		},
	}
}

// Load reads a problem file on top of the defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", dynamo.ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate runs the struct tag rules and then the cross-field checks.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", dynamo.ErrInvalidConfig, fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("%w: %v", dynamo.ErrInvalidConfig, err)
	}

	dims := c.Dims()
	if len(c.Grid.Max) != dims || len(c.Grid.Cells) != dims {
		return fmt.Errorf("%w: grid min, max and cells must have the same length", dynamo.ErrInvalidConfig)
	}
	for _, axis := range c.Grid.Periodic {
		if axis >= dims {
			return fmt.Errorf("%w: periodic axis %d out of range", dynamo.ErrInvalidConfig, axis)
		}
	}
	if _, err := c.Times(); err != nil {
		return err
	}

	mode, err := solver.ParseTargetSetMode(c.Solver.Mode)
	if err != nil {
		return err
	}
	if mode.NeedsAux() && c.Target == nil {
		return fmt.Errorf("%w: mode %v needs a target shape", dynamo.ErrInvalidConfig, mode)
	}
	if _, err := deriv.ParseAccuracy(c.Solver.Accuracy); err != nil {
		return err
	}
	if _, err := integrators.New(c.Solver.Integrator); err != nil {
		return err
	}
	if err := c.Initial.check("initial", dims); err != nil {
		return err
	}
	if c.Target != nil {
		if err := c.Target.check("target", dims); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Dims() int { return len(c.Grid.Min) }

// Times returns the sample sequence, preferring explicit samples.
func (c *Config) Times() ([]float64, error) {
	if len(c.Time.Samples) > 0 {
		return append([]float64(nil), c.Time.Samples...), nil
	}
	return solver.Samples(c.Time.Horizon, c.Time.Step)
}

// Modes parses the control and disturbance modes, defaulting to min/max.
func (c *Config) Modes() (u, d dynamo.Mode, err error) {
	u, d = dynamo.Minimize, dynamo.Maximize
	if c.Model.UMode != "" {
		if u, err = dynamo.ParseMode(c.Model.UMode); err != nil {
			return 0, 0, err
		}
	}
	if c.Model.DMode != "" {
		if d, err = dynamo.ParseMode(c.Model.DMode); err != nil {
			return 0, 0, err
		}
	} else {
		d = u.Opposite()
	}
	return u, d, nil
}

func (s *ShapeConfig) check(name string, dims int) error {
	switch s.Kind {
	case "cylinder", "sphere":
		if len(s.Center) != dims {
			return fmt.Errorf("%w: %s center needs %d components", dynamo.ErrInvalidConfig, name, dims)
		}
		if s.Radius <= 0 {
			return fmt.Errorf("%w: %s radius must be positive", dynamo.ErrInvalidConfig, name)
		}
	case "rectangle":
		if len(s.Lo) != dims || len(s.Hi) != dims {
			return fmt.Errorf("%w: %s corners need %d components", dynamo.ErrInvalidConfig, name, dims)
		}
	case "lower", "upper":
		if s.Axis >= dims {
			return fmt.Errorf("%w: %s axis %d out of range", dynamo.ErrInvalidConfig, name, s.Axis)
		}
	case "union", "intersection":
		if len(s.Parts) == 0 {
			return fmt.Errorf("%w: %s %s has no parts", dynamo.ErrInvalidConfig, name, s.Kind)
		}
		for i := range s.Parts {
			if err := s.Parts[i].check(fmt.Sprintf("%s part %d", name, i), dims); err != nil {
				return err
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Grid = GridConfig{
		Min:      clone(c.Grid.Min),
		Max:      clone(c.Grid.Max),
		Cells:    append([]int(nil), c.Grid.Cells...),
		Periodic: append([]int(nil), c.Grid.Periodic...),
	}
	if c.Model.Params != nil {
		out.Model.Params = make(map[string]float64, len(c.Model.Params))
		for k, v := range c.Model.Params {
			out.Model.Params[k] = v
		}
	}
	out.Initial = c.Initial.clone()
	if c.Target != nil {
		t := c.Target.clone()
		out.Target = &t
	}
	out.Time.Samples = clone(c.Time.Samples)
	return &out
}

func (s ShapeConfig) clone() ShapeConfig {
	s.Center = clone(s.Center)
	s.Ignore = append([]int(nil), s.Ignore...)
	s.Lo = clone(s.Lo)
	s.Hi = clone(s.Hi)
	if s.Parts != nil {
		parts := make([]ShapeConfig, len(s.Parts))
		for i, p := range s.Parts {
			parts[i] = p.clone()
		}
		s.Parts = parts
	}
	return s
}

func clone(s []float64) []float64 {
	if s == nil {
		return nil
	}
	return append([]float64(nil), s...)
}
