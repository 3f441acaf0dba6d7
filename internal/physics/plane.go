package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/hjreach/internal/dynamo"
)

// Plane is a single integrator in one or more dimensions with an additive
// disturbance: x_i' = u_i + d_i.
type Plane struct {
	U     dynamo.Bounds
	D     dynamo.Bounds
	UMode dynamo.Mode
	DMode dynamo.Mode
	dim   int
}

func NewPlane(u, d dynamo.Bounds, uMode, dMode dynamo.Mode) (*Plane, error) {
	if err := dynamo.CheckModes(uMode, dMode); err != nil {
		return nil, err
	}
	dim := len(u.Min)
	if dim == 0 {
		return nil, fmt.Errorf("plane: %w: empty control bounds", dynamo.ErrDimensionMismatch)
	}
	p := &Plane{
		U:     dynamo.Bounds{Min: clone(u.Min), Max: clone(u.Max)},
		D:     dynamo.Bounds{Min: clone(d.Min), Max: clone(d.Max)},
		UMode: uMode,
		DMode: dMode,
		dim:   dim,
	}
	if err := p.U.Validate("control", dim); err != nil {
		return nil, fmt.Errorf("plane: %w", err)
	}
	if err := p.D.Validate("disturbance", dim); err != nil {
		return nil, fmt.Errorf("plane: %w", err)
	}
	return p, nil
}

// NewPlane1D builds a scalar integrator with symmetric bounds ±uMax, ±dMax.
func NewPlane1D(uMax, dMax float64, uMode, dMode dynamo.Mode) (*Plane, error) {
	return NewPlane(symmetric(uMax, 1), symmetric(dMax, 1), uMode, dMode)
}

// NewPlane2D builds a planar integrator with symmetric bounds on both axes.
func NewPlane2D(uMax, dMax float64, uMode, dMode dynamo.Mode) (*Plane, error) {
	return NewPlane(symmetric(uMax, 2), symmetric(dMax, 2), uMode, dMode)
}

func symmetric(m float64, dim int) dynamo.Bounds {
	b := dynamo.Bounds{Min: make([]float64, dim), Max: make([]float64, dim)}
	for i := 0; i < dim; i++ {
		b.Min[i] = -m
		b.Max[i] = m
	}
	return b
}

func (p *Plane) StateDim() int       { return p.dim }
func (p *Plane) ControlDim() int     { return p.dim }
func (p *Plane) DisturbanceDim() int { return p.dim }

func (p *Plane) OptimalControl(x dynamo.State, grad []float64, dst dynamo.Control) dynamo.Control {
	dst = dynamo.Resize(dst, p.dim)
	for i := range dst {
		dst[i] = dynamo.Extremize(grad[i], p.U.Min[i], p.U.Max[i], p.UMode)
	}
	return dst
}

func (p *Plane) OptimalDisturbance(x dynamo.State, grad []float64, dst dynamo.Disturbance) dynamo.Disturbance {
	dst = dynamo.Resize(dst, p.dim)
	for i := range dst {
		dst[i] = dynamo.Extremize(grad[i], p.D.Min[i], p.D.Max[i], p.DMode)
	}
	return dst
}

func (p *Plane) Derive(x dynamo.State, u dynamo.Control, d dynamo.Disturbance, dst dynamo.State) dynamo.State {
	dst = dynamo.Resize(dst, p.dim)
	for i := range dst {
		dst[i] = u[i] + d[i]
	}
	return dst
}

func (p *Plane) WaveSpeed(x dynamo.State, dst []float64) {
	for i := 0; i < p.dim; i++ {
		dst[i] = math.Max(math.Abs(p.U.Min[i]+p.D.Min[i]), math.Abs(p.U.Max[i]+p.D.Max[i]))
	}
}

func (p *Plane) GetParams() map[string]float64 {
	params := make(map[string]float64, 4*p.dim)
	for i := 0; i < p.dim; i++ {
		params[fmt.Sprintf("u%d_min", i)] = p.U.Min[i]
		params[fmt.Sprintf("u%d_max", i)] = p.U.Max[i]
		params[fmt.Sprintf("d%d_min", i)] = p.D.Min[i]
		params[fmt.Sprintf("d%d_max", i)] = p.D.Max[i]
	}
	return params
}
