package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/hjreach/internal/config"
	"github.com/san-kum/hjreach/internal/deriv"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/grid"
	"github.com/san-kum/hjreach/internal/shapes"
	"github.com/san-kum/hjreach/internal/solver"
)

// Experiment is a problem file resolved into solver inputs.
type Experiment struct {
	cfg     *config.Config
	grid    *grid.Grid
	sys     dynamo.System
	initial []float64
	aux     []float64
	times   []float64
}

func New(reg *Registry, cfg *config.Config) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g, err := grid.New(cfg.Grid.Min, cfg.Grid.Max, cfg.Grid.Cells, cfg.Grid.Periodic)
	if err != nil {
		return nil, err
	}
	uMode, dMode, err := cfg.Modes()
	if err != nil {
		return nil, err
	}
	sys, err := reg.GetModel(cfg.Model.Name, cfg.Model.Params, uMode, dMode)
	if err != nil {
		return nil, err
	}
	if sys.StateDim() != g.Dims() {
		return nil, fmt.Errorf("%w: model %s has %d states, grid has %d axes", dynamo.ErrDimensionMismatch, cfg.Model.Name, sys.StateDim(), g.Dims())
	}

	initial, err := BuildShape(g, cfg.Initial)
	if err != nil {
		return nil, fmt.Errorf("initial shape: %w", err)
	}
	var aux []float64
	if cfg.Target != nil {
		if aux, err = BuildShape(g, *cfg.Target); err != nil {
			return nil, fmt.Errorf("target shape: %w", err)
		}
	}
	times, err := cfg.Times()
	if err != nil {
		return nil, err
	}

	return &Experiment{
		cfg:     cfg,
		grid:    g,
		sys:     sys,
		initial: initial,
		aux:     aux,
		times:   times,
	}, nil
}

func (e *Experiment) Config() *config.Config { return e.cfg }
func (e *Experiment) Grid() *grid.Grid       { return e.grid }
func (e *Experiment) System() dynamo.System  { return e.sys }
func (e *Experiment) Initial() []float64     { return e.initial }
func (e *Experiment) Times() []float64       { return e.times }

func (e *Experiment) SolverConfig() (solver.Config, error) {
	mode, err := solver.ParseTargetSetMode(e.cfg.Solver.Mode)
	if err != nil {
		return solver.Config{}, err
	}
	acc, err := deriv.ParseAccuracy(e.cfg.Solver.Accuracy)
	if err != nil {
		return solver.Config{}, err
	}
	return solver.Config{
		Times:        e.times,
		Mode:         mode,
		Aux:          e.aux,
		SaveAllSteps: e.cfg.Solver.SaveAll,
		CFL:          e.cfg.Solver.CFL,
		Accuracy:     acc,
		Integrator:   e.cfg.Solver.Integrator,
		Workers:      e.cfg.Solver.Workers,
		MaxSubSteps:  e.cfg.Solver.MaxSubSteps,
	}, nil
}

// Setup builds a fresh solver for the experiment.
func (e *Experiment) Setup(opts ...solver.Option) (*solver.Solver, error) {
	cfg, err := e.SolverConfig()
	if err != nil {
		return nil, err
	}
	return solver.New(e.grid, e.sys, e.initial, cfg, opts...)
}

func (e *Experiment) Run(ctx context.Context, opts ...solver.Option) (*solver.Result, error) {
	s, err := e.Setup(opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// BuildShape samples the configured implicit surface on g.
func BuildShape(g *grid.Grid, sc config.ShapeConfig) ([]float64, error) {
	var (
		field []float64
		err   error
	)
	switch sc.Kind {
	case "cylinder":
		field, err = shapes.Cylinder(g, sc.Ignore, sc.Center, sc.Radius)
	case "sphere":
		field, err = shapes.Sphere(g, sc.Center, sc.Radius)
	case "rectangle":
		field, err = shapes.Rectangle(g, sc.Lo, sc.Hi)
	case "lower":
		field, err = shapes.Lower(g, sc.Axis, sc.Value)
	case "upper":
		field, err = shapes.Upper(g, sc.Axis, sc.Value)
	case "union", "intersection":
		parts := make([][]float64, len(sc.Parts))
		for i, p := range sc.Parts {
			if parts[i], err = BuildShape(g, p); err != nil {
				return nil, fmt.Errorf("part %d: %w", i, err)
			}
		}
		if sc.Kind == "union" {
			field, err = shapes.Union(parts...)
		} else {
			field, err = shapes.Intersection(parts...)
		}
	default:
		return nil, fmt.Errorf("%w: unknown shape %q", dynamo.ErrInvalidConfig, sc.Kind)
	}
	if err != nil {
		return nil, err
	}
	if sc.Complement {
		field = shapes.Complement(field)
	}
	return field, nil
}
