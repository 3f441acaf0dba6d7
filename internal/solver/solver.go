// Package solver marches a value function backward through a sequence of
// time samples.
//
// A [Solver] is built once per problem from a grid, a dynamics model, an
// initial field and a [Config]. [Solver.Run] subdivides every interval
// between consecutive samples into CFL-limited sub-steps, advances the field
// with an explicit TVD Runge-Kutta stepper, and applies the configured
// [TargetSetMode] after each accepted sub-step.
//
// # Lifecycle
//
// A solver moves Idle -> Stepping -> Done or Failed and runs once. Calling
// Run again returns [dynamo.ErrSolverState].
//
// # Time direction
//
// Solver time runs forward from Times[0] and measures time-to-go of a
// problem posed backward in physical time, so the field grows at the rate
// +H(x, grad V).
package solver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/grid"
	"github.com/san-kum/hjreach/internal/hamiltonian"
	"github.com/san-kum/hjreach/internal/integrators"
)

type State int

const (
	Idle State = iota
	Stepping
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Stepping:
		return "stepping"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// SubStep describes one accepted sub-step.
type SubStep struct {
	// Sample is the index of the time sample being approached.
	Sample int
	// Index counts sub-steps across the whole solve, starting at 1.
	Index      int
	Time       float64
	Dt         float64
	MaxAlpha   []float64
	MaxAbsRate float64
}

// Observer receives progress from a running solve. Callbacks run on the
// solving goroutine and must not retain field.
type Observer interface {
	OnSubStep(step SubStep)
	OnSample(sample int, t float64, field []float64)
}

type Result struct {
	// Times holds the sample time of every entry in Fields.
	Times []float64
	// Fields holds one snapshot per sample when SaveAllSteps is set,
	// otherwise only the final field.
	Fields   [][]float64
	SubSteps int
	Elapsed  time.Duration
}

// Final returns the field at the last sample.
func (r *Result) Final() []float64 {
	if len(r.Fields) == 0 {
		return nil
	}
	return r.Fields[len(r.Fields)-1]
}

type Option func(*Solver)

func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Solver) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

type Solver struct {
	grid      *grid.Grid
	sys       dynamo.System
	cfg       Config
	initial   []float64
	eval      *hamiltonian.Evaluator
	stepper   integrators.Stepper
	logger    *slog.Logger
	observers []Observer

	mu    sync.Mutex
	state State
}

// New validates the problem and prepares a solver. The initial field is
// copied; the caller keeps ownership of its slice.
func New(g *grid.Grid, sys dynamo.System, initial []float64, cfg Config, opts ...Option) (*Solver, error) {
	if g == nil || sys == nil {
		return nil, fmt.Errorf("%w: grid and dynamics are required", dynamo.ErrInvalidConfig)
	}
	cfg.applyDefaults()
	if err := g.CheckField("initial", initial); err != nil {
		return nil, err
	}
	for i, v := range initial {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: initial value at node %d is %v", dynamo.ErrInvalidConfig, i, v)
		}
	}
	if err := cfg.validate(g.Len()); err != nil {
		return nil, err
	}

	stepper, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, err
	}
	eval, err := hamiltonian.New(g, sys, cfg.Accuracy, cfg.Workers)
	if err != nil {
		return nil, err
	}

	cfg.Times = append([]float64(nil), cfg.Times...)
	if cfg.Aux != nil {
		cfg.Aux = append([]float64(nil), cfg.Aux...)
	}

	s := &Solver{
		grid:    g,
		sys:     sys,
		cfg:     cfg,
		initial: append([]float64(nil), initial...),
		eval:    eval,
		stepper: stepper,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Solver) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Solver) Config() Config { return s.cfg }

func (s *Solver) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run performs the solve. On failure no partial result is returned.
func (s *Solver) Run(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if s.state != Idle {
		st := s.state
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: solver is %v", dynamo.ErrSolverState, st)
	}
	s.state = Stepping
	s.mu.Unlock()

	res, err := s.run(ctx)
	if err != nil {
		s.setState(Failed)
		s.logger.Error("solve failed", "error", err)
		return nil, err
	}
	s.setState(Done)
	return res, nil
}

func (s *Solver) run(ctx context.Context) (*Result, error) {
	start := time.Now()
	times := s.cfg.Times
	s.logger.Info("solve started",
		"nodes", s.grid.Len(),
		"shape", s.grid.Shape(),
		"samples", len(times),
		"mode", s.cfg.Mode.String(),
		"accuracy", s.cfg.Accuracy.String(),
		"integrator", s.stepper.Name(),
		"cfl", s.cfg.CFL,
	)

	field := append([]float64(nil), s.initial...)
	res := &Result{}
	if s.cfg.SaveAllSteps {
		res.Times = append(res.Times, times[0])
		res.Fields = append(res.Fields, append([]float64(nil), field...))
	}
	for _, o := range s.observers {
		o.OnSample(0, times[0], field)
	}

	rate := func(ctx context.Context, f, r []float64) (hamiltonian.Summary, error) {
		return s.eval.Evaluate(ctx, f, r)
	}

	for k := 1; k < len(times); k++ {
		t, next := times[k-1], times[k]
		for t < next {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if s.cfg.MaxSubSteps > 0 && res.SubSteps >= s.cfg.MaxSubSteps {
				return nil, s.wrap(k, t, fmt.Errorf("%w: sub-step limit %d reached before t=%v", dynamo.ErrNumericalDivergence, s.cfg.MaxSubSteps, next))
			}

			var last hamiltonian.Summary
			remaining := next - t
			pick := func(sum hamiltonian.Summary) (float64, error) {
				last = sum
				return s.pickStep(sum, remaining)
			}

			dt, err := s.stepper.Step(ctx, rate, field, pick)
			if err != nil {
				if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
					return nil, err
				}
				return nil, s.wrap(k, t, err)
			}
			if dt >= remaining {
				t = next
			} else {
				t += dt
			}
			s.combine(field)
			res.SubSteps++

			for _, o := range s.observers {
				o.OnSubStep(SubStep{
					Sample:     k,
					Index:      res.SubSteps,
					Time:       t,
					Dt:         dt,
					MaxAlpha:   last.MaxAlpha,
					MaxAbsRate: last.MaxAbsRate,
				})
			}
		}

		s.logger.Debug("sample reached",
			"sample", k,
			"t", next,
			"substeps", res.SubSteps,
			"min", floats.Min(field),
			"max", floats.Max(field),
		)
		if s.cfg.SaveAllSteps {
			res.Times = append(res.Times, next)
			res.Fields = append(res.Fields, append([]float64(nil), field...))
		}
		for _, o := range s.observers {
			o.OnSample(k, next, field)
		}
	}

	if !s.cfg.SaveAllSteps {
		res.Times = []float64{times[len(times)-1]}
		res.Fields = [][]float64{field}
	}
	res.Elapsed = time.Since(start)
	s.logger.Info("solve finished", "substeps", res.SubSteps, "elapsed", res.Elapsed)
	return res, nil
}

// pickStep returns the CFL-limited step, shortened to land on the next
// sample. A field with no dissipation anywhere is stationary only if every
// rate is zero too; then the whole interval is covered at once.
func (s *Solver) pickStep(sum hamiltonian.Summary, remaining float64) (float64, error) {
	inv := 0.0
	for axis, a := range sum.MaxAlpha {
		inv += a / s.grid.Spacing(axis)
	}
	if inv == 0 {
		if sum.MaxAbsRate == 0 {
			return remaining, nil
		}
		return 0, fmt.Errorf("%w: rate %v with zero dissipation on every axis", dynamo.ErrNumericalDivergence, sum.MaxAbsRate)
	}
	dt := s.cfg.CFL / inv
	if dt >= remaining {
		return remaining, nil
	}
	return dt, nil
}

func (s *Solver) combine(field []float64) {
	switch s.cfg.Mode {
	case MinWithInitial:
		minInto(field, s.initial)
	case MaxWithInitial:
		maxInto(field, s.initial)
	case MinWithTarget:
		minInto(field, s.cfg.Aux)
	case MaxWithObstacle:
		maxInto(field, s.cfg.Aux)
	}
}

func minInto(dst, ref []float64) {
	for i, v := range ref {
		if v < dst[i] {
			dst[i] = v
		}
	}
}

func maxInto(dst, ref []float64) {
	for i, v := range ref {
		if v > dst[i] {
			dst[i] = v
		}
	}
}

// wrap tags err with the sample and time it happened at, keeping any axis
// and node already recorded.
func (s *Solver) wrap(sample int, t float64, err error) error {
	var se *dynamo.SolveError
	if errors.As(err, &se) {
		se.Sample = sample
		se.Time = t
		return err
	}
	return &dynamo.SolveError{Sample: sample, Time: t, Axis: -1, Node: -1, Wrapped: err}
}
