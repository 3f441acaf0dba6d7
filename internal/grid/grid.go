// Package grid describes the structured N-dimensional domain a value
// function lives on.
//
// Fields are dense []float64 slices in row-major order: the last axis varies
// fastest. A bounded axis with n cells has n+1 nodes spanning [min, max]
// inclusive. A periodic axis with n cells has n nodes; node n is node 0.
package grid

import (
	"fmt"
	"math"

	"github.com/san-kum/hjreach/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// MinCells is the smallest cell count accepted on any axis.
const MinCells = 3

type Grid struct {
	min      []float64
	max      []float64
	cells    []int
	shape    []int
	strides  []int
	spacing  []float64
	periodic []bool
	coords   [][]float64
	size     int
}

// New builds a grid over [min[i], max[i]] with cells[i] cells per axis.
// periodic lists the axes that wrap around.
func New(min, max []float64, cells []int, periodic []int) (*Grid, error) {
	dims := len(cells)
	if dims == 0 {
		return nil, fmt.Errorf("%w: no axes", dynamo.ErrInvalidGrid)
	}
	if len(min) != dims || len(max) != dims {
		return nil, fmt.Errorf("%w: %d axes but %d min and %d max bounds", dynamo.ErrInvalidGrid, dims, len(min), len(max))
	}

	g := &Grid{
		min:      append([]float64(nil), min...),
		max:      append([]float64(nil), max...),
		cells:    append([]int(nil), cells...),
		shape:    make([]int, dims),
		strides:  make([]int, dims),
		spacing:  make([]float64, dims),
		periodic: make([]bool, dims),
		coords:   make([][]float64, dims),
	}

	for _, axis := range periodic {
		if axis < 0 || axis >= dims {
			return nil, fmt.Errorf("%w: periodic axis %d out of range [0,%d)", dynamo.ErrInvalidGrid, axis, dims)
		}
		if g.periodic[axis] {
			return nil, fmt.Errorf("%w: periodic axis %d listed twice", dynamo.ErrInvalidGrid, axis)
		}
		g.periodic[axis] = true
	}

	for i := 0; i < dims; i++ {
		if math.IsNaN(min[i]) || math.IsNaN(max[i]) || math.IsInf(min[i], 0) || math.IsInf(max[i], 0) {
			return nil, fmt.Errorf("%w: axis %d has non-finite bounds", dynamo.ErrInvalidGrid, i)
		}
		if min[i] >= max[i] {
			return nil, fmt.Errorf("%w: axis %d has min %g >= max %g", dynamo.ErrInvalidGrid, i, min[i], max[i])
		}
		if cells[i] < MinCells {
			return nil, fmt.Errorf("%w: axis %d has %d cells, need at least %d", dynamo.ErrInvalidGrid, i, cells[i], MinCells)
		}

		g.spacing[i] = (max[i] - min[i]) / float64(cells[i])
		g.shape[i] = cells[i] + 1
		if g.periodic[i] {
			g.shape[i] = cells[i]
		}

		// Span fills endpoints inclusively, so periodic axes stop one cell short.
		end := max[i]
		if g.periodic[i] {
			end = max[i] - g.spacing[i]
		}
		g.coords[i] = floats.Span(make([]float64, g.shape[i]), min[i], end)
		g.coords[i][g.shape[i]-1] = end
	}

	g.size = 1
	for i := dims - 1; i >= 0; i-- {
		g.strides[i] = g.size
		g.size *= g.shape[i]
	}

	return g, nil
}

// Dims returns the number of axes.
func (g *Grid) Dims() int { return len(g.shape) }

// Len returns the number of nodes, which is the length of every field.
func (g *Grid) Len() int { return g.size }

// Shape returns the node count per axis.
func (g *Grid) Shape() []int { return append([]int(nil), g.shape...) }

// Cells returns the configured cell count per axis.
func (g *Grid) Cells() []int { return append([]int(nil), g.cells...) }

func (g *Grid) Min() []float64 { return append([]float64(nil), g.min...) }
func (g *Grid) Max() []float64 { return append([]float64(nil), g.max...) }

// PeriodicAxes returns the wrapping axes in increasing order.
func (g *Grid) PeriodicAxes() []int {
	var axes []int
	for i, p := range g.periodic {
		if p {
			axes = append(axes, i)
		}
	}
	return axes
}

func (g *Grid) NodeCount(axis int) int   { return g.shape[axis] }
func (g *Grid) Spacing(axis int) float64 { return g.spacing[axis] }
func (g *Grid) IsPeriodic(axis int) bool { return g.periodic[axis] }
func (g *Grid) Stride(axis int) int      { return g.strides[axis] }

// CoordinateOf returns the physical coordinate of index along axis. Indices
// up to the cell count are accepted on every axis; on periodic axes they
// wrap, so index cellCount maps back to min.
func (g *Grid) CoordinateOf(axis, index int) float64 {
	if g.periodic[axis] {
		index = Wrap(index, g.shape[axis])
		return g.coords[axis][index]
	}
	if index >= 0 && index < g.shape[axis] {
		return g.coords[axis][index]
	}
	return g.min[axis] + float64(index)*g.spacing[axis]
}

// Coordinates returns the coordinate table of axis. The slice is shared and
// must not be modified.
func (g *Grid) Coordinates(axis int) []float64 {
	return g.coords[axis]
}

// NearestIndex returns the node closest to value along axis. Bounded axes
// clamp to the domain; periodic axes wrap value into the period first.
func (g *Grid) NearestIndex(axis int, value float64) int {
	h := g.spacing[axis]
	pos := (value - g.min[axis]) / h
	idx := int(math.Round(pos))
	if g.periodic[axis] {
		return Wrap(idx, g.shape[axis])
	}
	if idx < 0 {
		return 0
	}
	if idx >= g.shape[axis] {
		return g.shape[axis] - 1
	}
	return idx
}

// Index converts a multi-index into a flat offset. Periodic components wrap.
func (g *Grid) Index(multi []int) int {
	flat := 0
	for axis, i := range multi {
		if g.periodic[axis] {
			i = Wrap(i, g.shape[axis])
		}
		flat += i * g.strides[axis]
	}
	return flat
}

// Unravel writes the multi-index of flat into dst, which must hold Dims values.
func (g *Grid) Unravel(flat int, dst []int) {
	for axis := range g.shape {
		dst[axis] = (flat / g.strides[axis]) % g.shape[axis]
	}
}

// State writes the physical coordinates of node flat into dst.
func (g *Grid) State(flat int, dst []float64) {
	for axis := range g.shape {
		dst[axis] = g.coords[axis][(flat/g.strides[axis])%g.shape[axis]]
	}
}

// Lines returns the number of one-dimensional lines of nodes along axis.
func (g *Grid) Lines(axis int) int {
	return g.size / g.shape[axis]
}

// LineStart returns the flat offset of the first node of line l along axis.
// Lines are numbered over the remaining axes in row-major order.
func (g *Grid) LineStart(axis, l int) int {
	stride := g.strides[axis]
	outer := l / stride
	inner := l % stride
	return outer*stride*g.shape[axis] + inner
}

// CheckField reports whether field matches the grid's node count.
func (g *Grid) CheckField(name string, field []float64) error {
	if len(field) != g.size {
		return fmt.Errorf("%w: %s has %d values, grid has %d nodes", dynamo.ErrDimensionMismatch, name, len(field), g.size)
	}
	return nil
}

func (g *Grid) String() string {
	return fmt.Sprintf("grid(dims=%d shape=%v min=%v max=%v periodic=%v)", g.Dims(), g.shape, g.min, g.max, g.PeriodicAxes())
}

// Wrap maps i into [0, n).
func Wrap(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
