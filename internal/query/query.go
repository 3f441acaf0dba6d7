// Package query reads a solved value function back at arbitrary states
// without re-solving: the nearest node, the value there, gradient
// estimates and the optimal control and disturbance they imply.
package query

import (
	"fmt"
	"math"

	"github.com/san-kum/hjreach/internal/deriv"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/grid"
)

// Gradient holds one-sided derivative estimates at a node.
type Gradient struct {
	Node  int
	Left  []float64
	Right []float64
}

// Mean is the central estimate (Left + Right) / 2.
func (gr Gradient) Mean() []float64 {
	p := make([]float64, len(gr.Left))
	for i := range p {
		p[i] = 0.5 * (gr.Left[i] + gr.Right[i])
	}
	return p
}

// NearestIndices returns the multi-index of the node closest to x.
func NearestIndices(g *grid.Grid, x dynamo.State) ([]int, error) {
	if len(x) != g.Dims() {
		return nil, fmt.Errorf("%w: state has %d components, grid has %d axes", dynamo.ErrDimensionMismatch, len(x), g.Dims())
	}
	if !x.IsValid() {
		return nil, fmt.Errorf("%w: state %v is not finite", dynamo.ErrParameterBounds, x)
	}
	idx := make([]int, g.Dims())
	for axis, v := range x {
		idx[axis] = g.NearestIndex(axis, v)
	}
	return idx, nil
}

// Value returns the field at the node closest to x.
func Value(g *grid.Grid, field []float64, x dynamo.State) (float64, error) {
	if err := g.CheckField("field", field); err != nil {
		return math.NaN(), err
	}
	idx, err := NearestIndices(g, x)
	if err != nil {
		return math.NaN(), err
	}
	return field[g.Index(idx)], nil
}

// GradientAt estimates the derivatives of field at the node closest to x.
// Only the grid lines through that node are differentiated.
func GradientAt(g *grid.Grid, field []float64, x dynamo.State, acc deriv.Accuracy) (Gradient, error) {
	if err := g.CheckField("field", field); err != nil {
		return Gradient{}, err
	}
	if !acc.Valid() {
		return Gradient{}, fmt.Errorf("%w: unsupported accuracy %v", dynamo.ErrInvalidConfig, acc)
	}
	idx, err := NearestIndices(g, x)
	if err != nil {
		return Gradient{}, err
	}

	node := g.Index(idx)
	gr := Gradient{
		Node:  node,
		Left:  make([]float64, g.Dims()),
		Right: make([]float64, g.Dims()),
	}
	for axis := range idx {
		n := g.NodeCount(axis)
		stride := g.Stride(axis)
		start := node - idx[axis]*stride

		v := make([]float64, n)
		for k := range v {
			v[k] = field[start+k*stride]
		}
		left := make([]float64, n)
		right := make([]float64, n)
		deriv.Line(v, g.Spacing(axis), g.IsPeriodic(axis), acc, left, right)
		gr.Left[axis] = left[idx[axis]]
		gr.Right[axis] = right[idx[axis]]
	}
	return gr, nil
}

// ControlAt returns the optimal control at the node closest to x.
func ControlAt(sys dynamo.System, g *grid.Grid, field []float64, x dynamo.State, acc deriv.Accuracy) (dynamo.Control, error) {
	node, p, err := costate(sys, g, field, x, acc)
	if err != nil {
		return nil, err
	}
	return sys.OptimalControl(node, p, nil), nil
}

// DisturbanceAt returns the worst-case disturbance at the node closest to x.
func DisturbanceAt(sys dynamo.System, g *grid.Grid, field []float64, x dynamo.State, acc deriv.Accuracy) (dynamo.Disturbance, error) {
	node, p, err := costate(sys, g, field, x, acc)
	if err != nil {
		return nil, err
	}
	return sys.OptimalDisturbance(node, p, nil), nil
}

// costate returns the node state and the central gradient there.
func costate(sys dynamo.System, g *grid.Grid, field []float64, x dynamo.State, acc deriv.Accuracy) (dynamo.State, []float64, error) {
	if sys.StateDim() != g.Dims() {
		return nil, nil, fmt.Errorf("%w: system has %d states, grid has %d axes", dynamo.ErrDimensionMismatch, sys.StateDim(), g.Dims())
	}
	gr, err := GradientAt(g, field, x, acc)
	if err != nil {
		return nil, nil, err
	}
	node := make(dynamo.State, g.Dims())
	g.State(gr.Node, node)
	return node, gr.Mean(), nil
}
