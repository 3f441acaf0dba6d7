// Package deriv computes left- and right-biased spatial derivatives of a
// field along one grid axis.
//
// Three accuracy levels are available:
//
//   - [First]: one-sided first differences
//   - [Second]: second order ENO
//   - [Fifth]: fifth order WENO (Jiang-Peng weights)
//
// On bounded axes, nodes closer to an edge than the stencil half-width fall
// back to first order, and the outermost node copies the one-sided
// difference it does have, so no stencil ever reads outside the field. On
// periodic axes every node uses the requested order and indices wrap.
//
// The engine is stateless: repeated calls on the same input produce
// bit-identical output.
package deriv

import (
	"context"
	"fmt"
	"strings"

	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/grid"
)

type Accuracy int

const (
	First Accuracy = iota + 1
	Second
	Fifth
)

func (a Accuracy) String() string {
	switch a {
	case First:
		return "low"
	case Second:
		return "medium"
	case Fifth:
		return "high"
	}
	return fmt.Sprintf("Accuracy(%d)", int(a))
}

// HalfWidth is the number of neighbours the stencil needs on each side.
func (a Accuracy) HalfWidth() int {
	switch a {
	case Second:
		return 2
	case Fifth:
		return 3
	}
	return 1
}

func (a Accuracy) Valid() bool {
	return a == First || a == Second || a == Fifth
}

func ParseAccuracy(s string) (Accuracy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "first", "1":
		return First, nil
	case "medium", "second", "eno2", "2":
		return Second, nil
	case "high", "fifth", "weno5", "5":
		return Fifth, nil
	}
	return 0, fmt.Errorf("%w: unknown accuracy %q", dynamo.ErrInvalidConfig, s)
}

// Engine computes derivatives of fields defined on one grid.
type Engine struct {
	grid    *grid.Grid
	acc     Accuracy
	workers int
}

func New(g *grid.Grid, acc Accuracy, workers int) (*Engine, error) {
	if !acc.Valid() {
		return nil, fmt.Errorf("%w: unsupported accuracy %v", dynamo.ErrInvalidConfig, acc)
	}
	return &Engine{grid: g, acc: acc, workers: workers}, nil
}

func (e *Engine) Accuracy() Accuracy { return e.acc }

// Compute writes the left- and right-biased derivatives of field along axis
// into left and right, which must have the grid's length.
func (e *Engine) Compute(ctx context.Context, field []float64, axis int, left, right []float64) error {
	g := e.grid
	if axis < 0 || axis >= g.Dims() {
		return fmt.Errorf("%w: axis %d out of range [0,%d)", dynamo.ErrDimensionMismatch, axis, g.Dims())
	}
	if err := g.CheckField("field", field); err != nil {
		return err
	}
	if err := g.CheckField("left", left); err != nil {
		return err
	}
	if err := g.CheckField("right", right); err != nil {
		return err
	}

	n := g.NodeCount(axis)
	stride := g.Stride(axis)
	h := g.Spacing(axis)
	periodic := g.IsPeriodic(axis)

	return dynamo.ParallelFor(ctx, g.Lines(axis), 8, e.workers, func(start, end int) error {
		v := make([]float64, n)
		l := make([]float64, n)
		r := make([]float64, n)
		for line := start; line < end; line++ {
			base := g.LineStart(axis, line)
			for k := 0; k < n; k++ {
				v[k] = field[base+k*stride]
			}
			Line(v, h, periodic, e.acc, l, r)
			for k := 0; k < n; k++ {
				left[base+k*stride] = l[k]
				right[base+k*stride] = r[k]
			}
		}
		return nil
	})
}

// Derivatives allocates and returns the left- and right-biased derivatives
// of field along axis.
func Derivatives(g *grid.Grid, field []float64, axis int, acc Accuracy) (left, right []float64, err error) {
	e, err := New(g, acc, 0)
	if err != nil {
		return nil, nil, err
	}
	left = make([]float64, g.Len())
	right = make([]float64, g.Len())
	if err := e.Compute(context.Background(), field, axis, left, right); err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

// Line computes derivatives of the one-dimensional samples v with spacing h.
func Line(v []float64, h float64, periodic bool, acc Accuracy, left, right []float64) {
	n := len(v)
	hw := acc.HalfWidth()

	at := func(i int) float64 {
		if periodic {
			return v[grid.Wrap(i, n)]
		}
		return v[i]
	}

	for i := 0; i < n; i++ {
		if !periodic && (i < hw || i > n-1-hw) {
			left[i], right[i] = firstOrderEdge(v, i, h)
			continue
		}

		switch acc {
		case Second:
			left[i] = eno2Left(at(i-2), at(i-1), at(i), at(i+1), h)
			right[i] = eno2Right(at(i-1), at(i), at(i+1), at(i+2), h)
		case Fifth:
			left[i] = weno5(
				(at(i-2)-at(i-3))/h,
				(at(i-1)-at(i-2))/h,
				(at(i)-at(i-1))/h,
				(at(i+1)-at(i))/h,
				(at(i+2)-at(i+1))/h,
			)
			right[i] = weno5(
				(at(i+3)-at(i+2))/h,
				(at(i+2)-at(i+1))/h,
				(at(i+1)-at(i))/h,
				(at(i)-at(i-1))/h,
				(at(i-1)-at(i-2))/h,
			)
		default:
			left[i] = (at(i) - at(i-1)) / h
			right[i] = (at(i+1) - at(i)) / h
		}
	}
}

// firstOrderEdge is the bounded-axis fallback. A missing neighbour is
// replaced by the difference on the other side.
func firstOrderEdge(v []float64, i int, h float64) (float64, float64) {
	n := len(v)
	var l, r float64
	if i > 0 {
		l = (v[i] - v[i-1]) / h
	}
	if i < n-1 {
		r = (v[i+1] - v[i]) / h
	}
	if i == 0 {
		l = r
	}
	if i == n-1 {
		r = l
	}
	return l, r
}

func eno2Left(vm2, vm1, v0, vp1, h float64) float64 {
	d1 := (v0 - vm1) / h
	c := smallerMagnitude(
		(v0-2*vm1+vm2)/(2*h*h),
		(vp1-2*v0+vm1)/(2*h*h),
	)
	return d1 + c*h
}

func eno2Right(vm1, v0, vp1, vp2, h float64) float64 {
	d1 := (vp1 - v0) / h
	c := smallerMagnitude(
		(vp1-2*v0+vm1)/(2*h*h),
		(vp2-2*vp1+v0)/(2*h*h),
	)
	return d1 - c*h
}

func smallerMagnitude(a, b float64) float64 {
	if abs(a) <= abs(b) {
		return a
	}
	return b
}

// weno5 combines the five upwind differences v1..v5, ordered from the far
// upwind side toward the downwind side.
func weno5(v1, v2, v3, v4, v5 float64) float64 {
	p1 := v1/3 - 7*v2/6 + 11*v3/6
	p2 := -v2/6 + 5*v3/6 + v4/3
	p3 := v3/3 + 5*v4/6 - v5/6

	s1 := 13.0/12*sq(v1-2*v2+v3) + 0.25*sq(v1-4*v2+3*v3)
	s2 := 13.0/12*sq(v2-2*v3+v4) + 0.25*sq(v2-v4)
	s3 := 13.0/12*sq(v3-2*v4+v5) + 0.25*sq(3*v3-4*v4+v5)

	eps := 1e-6*max(sq(v1), sq(v2), sq(v3), sq(v4), sq(v5)) + 1e-99

	a1 := 0.1 / sq(s1+eps)
	a2 := 0.6 / sq(s2+eps)
	a3 := 0.3 / sq(s3+eps)
	sum := a1 + a2 + a3

	return (a1*p1 + a2*p2 + a3*p3) / sum
}

func sq(x float64) float64 { return x * x }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
