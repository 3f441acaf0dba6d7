// Package hamiltonian evaluates the Lax-Friedrichs numerical Hamiltonian of
// a value function at every grid node.
//
// At a node with left/right derivative estimates pL, pR the flux is
//
//	p̄     = (pL + pR) / 2
//	u, d  = optimal control and disturbance at p̄
//	H     = p̄ · f(x, u, d)
//	rate  = H + Σ α_i (pR_i - pL_i) / 2
//
// where α_i bounds |f_i| over the input sets. The dissipation term is a
// discrete second difference scaled by α_i h_i / 2, so it smooths the field
// and keeps the explicit update convergent to the viscosity solution.
package hamiltonian

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/hjreach/internal/deriv"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/grid"
)

// Summary describes one evaluation over the whole field.
type Summary struct {
	// MaxAlpha is the largest dissipation coefficient per axis.
	MaxAlpha []float64
	// MaxAbsRate is the largest |rate| over all nodes.
	MaxAbsRate float64
}

type Evaluator struct {
	grid    *grid.Grid
	sys     dynamo.System
	speeder dynamo.WaveSpeeder
	engine  *deriv.Engine
	workers int

	left  [][]float64
	right [][]float64
}

func New(g *grid.Grid, sys dynamo.System, acc deriv.Accuracy, workers int) (*Evaluator, error) {
	if sys.StateDim() != g.Dims() {
		return nil, fmt.Errorf("%w: system has %d states, grid has %d axes", dynamo.ErrDimensionMismatch, sys.StateDim(), g.Dims())
	}
	engine, err := deriv.New(g, acc, workers)
	if err != nil {
		return nil, err
	}

	e := &Evaluator{
		grid:    g,
		sys:     sys,
		engine:  engine,
		workers: workers,
		left:    make([][]float64, g.Dims()),
		right:   make([][]float64, g.Dims()),
	}
	if ws, ok := sys.(dynamo.WaveSpeeder); ok {
		e.speeder = ws
	}
	for axis := range e.left {
		e.left[axis] = make([]float64, g.Len())
		e.right[axis] = make([]float64, g.Len())
	}
	return e, nil
}

// workspace holds per-worker scratch so the node loop does not allocate.
type workspace struct {
	x, pl, pr, p, alpha []float64
	u                   dynamo.Control
	d                   dynamo.Disturbance
	f                   dynamo.State
	maxAlpha            []float64
	maxAbsRate          float64
}

func newWorkspace(sys dynamo.System, dims int) *workspace {
	return &workspace{
		x:        make([]float64, dims),
		pl:       make([]float64, dims),
		pr:       make([]float64, dims),
		p:        make([]float64, dims),
		alpha:    make([]float64, dims),
		u:        make(dynamo.Control, sys.ControlDim()),
		d:        make(dynamo.Disturbance, sys.DisturbanceDim()),
		f:        make(dynamo.State, dims),
		maxAlpha: make([]float64, dims),
	}
}

// Evaluate writes the numerical Hamiltonian of field into rate. A non-finite
// state derivative or rate is reported as a *dynamo.SolveError wrapping
// dynamo.ErrNumericalDivergence.
func (e *Evaluator) Evaluate(ctx context.Context, field, rate []float64) (Summary, error) {
	g := e.grid
	dims := g.Dims()
	if err := g.CheckField("rate", rate); err != nil {
		return Summary{}, err
	}

	for axis := 0; axis < dims; axis++ {
		if err := e.engine.Compute(ctx, field, axis, e.left[axis], e.right[axis]); err != nil {
			return Summary{}, err
		}
	}

	sum := Summary{MaxAlpha: make([]float64, dims)}
	var mu sync.Mutex

	err := dynamo.ParallelFor(ctx, g.Len(), 256, e.workers, func(start, end int) error {
		ws := newWorkspace(e.sys, dims)
		for i := start; i < end; i++ {
			g.State(i, ws.x)
			for axis := 0; axis < dims; axis++ {
				ws.pl[axis] = e.left[axis][i]
				ws.pr[axis] = e.right[axis][i]
			}
			r, err := e.node(ws)
			if err != nil {
				var se *dynamo.SolveError
				if errors.As(err, &se) {
					se.Node = i
				}
				return err
			}
			rate[i] = r
		}

		mu.Lock()
		for axis, a := range ws.maxAlpha {
			sum.MaxAlpha[axis] = math.Max(sum.MaxAlpha[axis], a)
		}
		sum.MaxAbsRate = math.Max(sum.MaxAbsRate, ws.maxAbsRate)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}

func (e *Evaluator) node(ws *workspace) (float64, error) {
	for axis := range ws.p {
		ws.p[axis] = 0.5 * (ws.pl[axis] + ws.pr[axis])
	}

	ws.u = e.sys.OptimalControl(ws.x, ws.p, ws.u)
	ws.d = e.sys.OptimalDisturbance(ws.x, ws.p, ws.d)
	ws.f = e.sys.Derive(ws.x, ws.u, ws.d, ws.f)

	if e.speeder != nil {
		e.speeder.WaveSpeed(ws.x, ws.alpha)
	}

	rate := 0.0
	for axis, fa := range ws.f {
		if math.IsNaN(fa) || math.IsInf(fa, 0) {
			return 0, &dynamo.SolveError{Sample: -1, Axis: axis, Node: -1, Wrapped: fmt.Errorf("%w: state derivative is %v", dynamo.ErrNumericalDivergence, fa)}
		}
		if e.speeder == nil {
			ws.alpha[axis] = math.Abs(fa)
		}
		rate += fa*ws.p[axis] + 0.5*ws.alpha[axis]*(ws.pr[axis]-ws.pl[axis])
		if ws.alpha[axis] > ws.maxAlpha[axis] {
			ws.maxAlpha[axis] = ws.alpha[axis]
		}
	}

	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0, &dynamo.SolveError{Sample: -1, Axis: -1, Node: -1, Wrapped: fmt.Errorf("%w: rate is %v", dynamo.ErrNumericalDivergence, rate)}
	}
	if a := math.Abs(rate); a > ws.maxAbsRate {
		ws.maxAbsRate = a
	}
	return rate, nil
}

// Point evaluates the numerical Hamiltonian at a single state from its
// left and right derivative estimates. alpha receives the per-axis
// dissipation coefficients.
func Point(sys dynamo.System, x dynamo.State, pl, pr, alpha []float64) (float64, error) {
	dims := sys.StateDim()
	if len(x) != dims || len(pl) != dims || len(pr) != dims || len(alpha) != dims {
		return 0, fmt.Errorf("%w: point evaluation needs %d components", dynamo.ErrDimensionMismatch, dims)
	}
	e := &Evaluator{sys: sys}
	if ws, ok := sys.(dynamo.WaveSpeeder); ok {
		e.speeder = ws
	}
	ws := newWorkspace(sys, dims)
	copy(ws.x, x)
	copy(ws.pl, pl)
	copy(ws.pr, pr)
	r, err := e.node(ws)
	if err != nil {
		return 0, err
	}
	copy(alpha, ws.alpha)
	return r, nil
}
