package hamiltonian

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/hjreach/internal/deriv"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/grid"
	"github.com/san-kum/hjreach/internal/physics"
	"github.com/stretchr/testify/require"
)

func line(t *testing.T) *grid.Grid {
	t.Helper()
	g, err := grid.New([]float64{-4}, []float64{4}, []int{101}, nil)
	require.NoError(t, err)
	return g
}

func fill(g *grid.Grid, fn func(x []float64) float64) []float64 {
	field := make([]float64, g.Len())
	x := make([]float64, g.Dims())
	for i := range field {
		g.State(i, x)
		field[i] = fn(x)
	}
	return field
}

func TestPoint_Dissipation(t *testing.T) {
	sys, err := physics.NewPlane1D(1, 1, dynamo.Minimize, dynamo.Maximize)
	require.NoError(t, err)

	alpha := make([]float64, 1)
	rate, err := Point(sys, dynamo.State{0}, []float64{1}, []float64{3}, alpha)
	require.NoError(t, err)

	// u = -1 and d = +1 cancel, so only dissipation remains.
	require.InDelta(t, 2.0, alpha[0], 1e-12)
	require.InDelta(t, 2.0, rate, 1e-12)
}

func TestPoint_DimensionMismatch(t *testing.T) {
	sys := physics.NewStill(2)
	_, err := Point(sys, dynamo.State{0}, []float64{1}, []float64{1}, []float64{0})
	require.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}

func TestEvaluate_Drift(t *testing.T) {
	g := line(t)
	sys, err := physics.NewPlane(
		dynamo.Bounds{Min: []float64{-1}, Max: []float64{1}},
		dynamo.Bounds{Min: []float64{0}, Max: []float64{0}},
		dynamo.Minimize, dynamo.Maximize,
	)
	require.NoError(t, err)

	ev, err := New(g, sys, deriv.Fifth, 2)
	require.NoError(t, err)

	field := fill(g, func(x []float64) float64 { return x[0] })
	rate := make([]float64, g.Len())
	sum, err := ev.Evaluate(context.Background(), field, rate)
	require.NoError(t, err)

	for i, r := range rate {
		require.InDelta(t, -1.0, r, 1e-9, "node %d", i)
	}
	require.InDelta(t, 1.0, sum.MaxAlpha[0], 1e-12)
	require.InDelta(t, 1.0, sum.MaxAbsRate, 1e-9)
}

func TestEvaluate_Still(t *testing.T) {
	g := line(t)
	ev, err := New(g, physics.NewStill(1), deriv.First, 0)
	require.NoError(t, err)

	field := fill(g, func(x []float64) float64 { return math.Abs(x[0]) - 1 })
	rate := make([]float64, g.Len())
	sum, err := ev.Evaluate(context.Background(), field, rate)
	require.NoError(t, err)
	require.Zero(t, sum.MaxAlpha[0])
	require.Zero(t, sum.MaxAbsRate)
	for _, r := range rate {
		require.Zero(t, r)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	g, err := grid.New([]float64{-2, -2, -math.Pi}, []float64{2, 2, math.Pi}, []int{12, 12, 10}, []int{2})
	require.NoError(t, err)
	sys, err := physics.NewDubinsCapture(1, 1, 1, dynamo.Maximize, dynamo.Minimize)
	require.NoError(t, err)

	field := fill(g, func(x []float64) float64 { return math.Hypot(x[0], x[1]) - 1 })
	ev1, err := New(g, sys, deriv.Fifth, 1)
	require.NoError(t, err)
	ev4, err := New(g, sys, deriv.Fifth, 4)
	require.NoError(t, err)

	r1 := make([]float64, g.Len())
	r4 := make([]float64, g.Len())
	s1, err := ev1.Evaluate(context.Background(), field, r1)
	require.NoError(t, err)
	s4, err := ev4.Evaluate(context.Background(), field, r4)
	require.NoError(t, err)

	require.Equal(t, r1, r4)
	require.Equal(t, s1.MaxAlpha, s4.MaxAlpha)
}

type exploding struct{}

func (exploding) StateDim() int       { return 1 }
func (exploding) ControlDim() int     { return 0 }
func (exploding) DisturbanceDim() int { return 0 }
func (exploding) OptimalControl(x dynamo.State, p []float64, dst dynamo.Control) dynamo.Control {
	return dst[:0]
}
func (exploding) OptimalDisturbance(x dynamo.State, p []float64, dst dynamo.Disturbance) dynamo.Disturbance {
	return dst[:0]
}
func (exploding) Derive(x dynamo.State, u dynamo.Control, d dynamo.Disturbance, dst dynamo.State) dynamo.State {
	dst = dynamo.Resize(dst, 1)
	dst[0] = 1 / (x[0] - x[0])
	if x[0] < 0 {
		dst[0] = 1
	}
	return dst
}

func TestEvaluate_Divergence(t *testing.T) {
	g := line(t)
	ev, err := New(g, exploding{}, deriv.First, 1)
	require.NoError(t, err)

	field := fill(g, func(x []float64) float64 { return x[0] })
	_, err = ev.Evaluate(context.Background(), field, make([]float64, g.Len()))
	require.ErrorIs(t, err, dynamo.ErrNumericalDivergence)

	var se *dynamo.SolveError
	require.True(t, errors.As(err, &se))
	require.Equal(t, 0, se.Axis)
	require.GreaterOrEqual(t, se.Node, 0)
	x := make([]float64, 1)
	g.State(se.Node, x)
	require.GreaterOrEqual(t, x[0], 0.0)
}

func TestNew_DimensionMismatch(t *testing.T) {
	g := line(t)
	_, err := New(g, physics.NewStill(2), deriv.First, 1)
	require.ErrorIs(t, err, dynamo.ErrDimensionMismatch)
}
