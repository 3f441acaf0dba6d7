// Package shapes builds initial value functions whose zero sublevel set is a
// simple geometric target.
//
// Every builder samples an implicit surface function at each grid node, so
// the returned field is negative inside the shape, zero on its boundary and
// positive outside. [Union], [Intersection] and [Complement] compose fields
// built on the same grid.
package shapes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/grid"
)

// Cylinder is the distance to a sphere of the given radius measured only
// over the axes not listed in ignore. Periodic axes use the wrapped
// difference.
func Cylinder(g *grid.Grid, ignore []int, center []float64, radius float64) ([]float64, error) {
	if len(center) != g.Dims() {
		return nil, fmt.Errorf("%w: center has %d components, grid has %d axes", dynamo.ErrDimensionMismatch, len(center), g.Dims())
	}
	if !(radius > 0) {
		return nil, fmt.Errorf("%w: radius %v must be positive", dynamo.ErrParameterBounds, radius)
	}
	skip := make([]bool, g.Dims())
	period := make([]float64, g.Dims())
	lo, hi := g.Min(), g.Max()
	for axis := range period {
		if g.IsPeriodic(axis) {
			period[axis] = hi[axis] - lo[axis]
		}
	}
	for _, axis := range ignore {
		if axis < 0 || axis >= g.Dims() {
			return nil, fmt.Errorf("%w: ignored axis %d out of range", dynamo.ErrDimensionMismatch, axis)
		}
		skip[axis] = true
	}

	out := make([]float64, g.Len())
	x := make([]float64, g.Dims())
	diff := make([]float64, g.Dims())
	for i := range out {
		g.State(i, x)
		for axis := range x {
			if skip[axis] {
				diff[axis] = 0
				continue
			}
			diff[axis] = delta(x[axis]-center[axis], period[axis])
		}
		out[i] = floats.Norm(diff, 2) - radius
	}
	return out, nil
}

// Sphere is a Cylinder that ignores no axis.
func Sphere(g *grid.Grid, center []float64, radius float64) ([]float64, error) {
	return Cylinder(g, nil, center, radius)
}

// Rectangle is the box lo <= x <= hi described as the largest per-axis
// violation.
func Rectangle(g *grid.Grid, lo, hi []float64) ([]float64, error) {
	if len(lo) != g.Dims() || len(hi) != g.Dims() {
		return nil, fmt.Errorf("%w: rectangle corners need %d components", dynamo.ErrDimensionMismatch, g.Dims())
	}
	for axis := range lo {
		if lo[axis] > hi[axis] {
			return nil, fmt.Errorf("%w: axis %d has lower corner %v above upper %v", dynamo.ErrParameterBounds, axis, lo[axis], hi[axis])
		}
	}

	out := make([]float64, g.Len())
	x := make([]float64, g.Dims())
	for i := range out {
		g.State(i, x)
		v := math.Inf(-1)
		for axis, xa := range x {
			v = math.Max(v, math.Max(lo[axis]-xa, xa-hi[axis]))
		}
		out[i] = v
	}
	return out, nil
}

// Lower is the half space x[axis] <= value.
func Lower(g *grid.Grid, axis int, value float64) ([]float64, error) {
	return halfSpace(g, axis, value, 1)
}

// Upper is the half space x[axis] >= value.
func Upper(g *grid.Grid, axis int, value float64) ([]float64, error) {
	return halfSpace(g, axis, value, -1)
}

func halfSpace(g *grid.Grid, axis int, value, sign float64) ([]float64, error) {
	if axis < 0 || axis >= g.Dims() {
		return nil, fmt.Errorf("%w: axis %d out of range", dynamo.ErrDimensionMismatch, axis)
	}
	coords := g.Coordinates(axis)
	stride := g.Stride(axis)
	n := g.NodeCount(axis)

	out := make([]float64, g.Len())
	for i := range out {
		out[i] = sign * (coords[(i/stride)%n] - value)
	}
	return out, nil
}

// Union is the pointwise minimum of fields.
func Union(fields ...[]float64) ([]float64, error) {
	return combine(fields, math.Min)
}

// Intersection is the pointwise maximum of fields.
func Intersection(fields ...[]float64) ([]float64, error) {
	return combine(fields, math.Max)
}

// Complement negates a field so inside and outside swap.
func Complement(field []float64) []float64 {
	out := make([]float64, len(field))
	copy(out, field)
	floats.Scale(-1, out)
	return out
}

func combine(fields [][]float64, pick func(a, b float64) float64) ([]float64, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to combine", dynamo.ErrDimensionMismatch)
	}
	out := append([]float64(nil), fields[0]...)
	for k, f := range fields[1:] {
		if len(f) != len(out) {
			return nil, fmt.Errorf("%w: field %d has %d values, want %d", dynamo.ErrDimensionMismatch, k+1, len(f), len(out))
		}
		for i, v := range f {
			out[i] = pick(out[i], v)
		}
	}
	return out, nil
}

// delta wraps d into [-period/2, period/2); a zero period leaves it alone.
func delta(d, period float64) float64 {
	if period == 0 {
		return d
	}
	d = math.Mod(d+period/2, period)
	if d < 0 {
		d += period
	}
	return d - period/2
}
