package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/hjreach/internal/dynamo"
)

// DubinsCar4D is a Dubins car with speed as a state. State is (x, y, v, θ),
// the control is (acceleration, turn rate) and the disturbance pushes the
// position directly:
//
//	x' = v cos θ + d0
//	y' = v sin θ + d1
//	v' = a
//	θ' = w
type DubinsCar4D struct {
	U     dynamo.Bounds
	D     dynamo.Bounds
	UMode dynamo.Mode
	DMode dynamo.Mode
}

func NewDubinsCar4D(u, d dynamo.Bounds, uMode, dMode dynamo.Mode) (*DubinsCar4D, error) {
	if err := dynamo.CheckModes(uMode, dMode); err != nil {
		return nil, err
	}
	car := &DubinsCar4D{
		U:     dynamo.Bounds{Min: clone(u.Min), Max: clone(u.Max)},
		D:     dynamo.Bounds{Min: clone(d.Min), Max: clone(d.Max)},
		UMode: uMode,
		DMode: dMode,
	}
	if err := car.U.Validate("control", 2); err != nil {
		return nil, fmt.Errorf("dubins car 4d: %w", err)
	}
	if err := car.D.Validate("disturbance", 2); err != nil {
		return nil, fmt.Errorf("dubins car 4d: %w", err)
	}
	return car, nil
}

// DefaultDubinsCar4DBounds returns ±1.5 acceleration, ±π/18 turn rate and no
// disturbance.
func DefaultDubinsCar4DBounds() (u, d dynamo.Bounds) {
	u = dynamo.Bounds{Min: []float64{-1.5, -math.Pi / 18}, Max: []float64{1.5, math.Pi / 18}}
	d = dynamo.Bounds{Min: []float64{0, 0}, Max: []float64{0, 0}}
	return u, d
}

func (c *DubinsCar4D) StateDim() int       { return 4 }
func (c *DubinsCar4D) ControlDim() int     { return 2 }
func (c *DubinsCar4D) DisturbanceDim() int { return 2 }

func (c *DubinsCar4D) OptimalControl(x dynamo.State, p []float64, dst dynamo.Control) dynamo.Control {
	dst = dynamo.Resize(dst, 2)
	dst[0] = dynamo.Extremize(p[2], c.U.Min[0], c.U.Max[0], c.UMode)
	dst[1] = dynamo.Extremize(p[3], c.U.Min[1], c.U.Max[1], c.UMode)
	return dst
}

func (c *DubinsCar4D) OptimalDisturbance(x dynamo.State, p []float64, dst dynamo.Disturbance) dynamo.Disturbance {
	dst = dynamo.Resize(dst, 2)
	dst[0] = dynamo.Extremize(p[0], c.D.Min[0], c.D.Max[0], c.DMode)
	dst[1] = dynamo.Extremize(p[1], c.D.Min[1], c.D.Max[1], c.DMode)
	return dst
}

func (c *DubinsCar4D) Derive(x dynamo.State, u dynamo.Control, d dynamo.Disturbance, dst dynamo.State) dynamo.State {
	dst = dynamo.Resize(dst, 4)
	sin, cos := math.Sincos(x[3])
	dst[0] = x[2]*cos + d[0]
	dst[1] = x[2]*sin + d[1]
	dst[2] = u[0]
	dst[3] = u[1]
	return dst
}

func (c *DubinsCar4D) WaveSpeed(x dynamo.State, dst []float64) {
	sin, cos := math.Sincos(x[3])
	dst[0] = math.Abs(x[2]*cos) + c.D.MaxAbs(0)
	dst[1] = math.Abs(x[2]*sin) + c.D.MaxAbs(1)
	dst[2] = c.U.MaxAbs(0)
	dst[3] = c.U.MaxAbs(1)
}

func (c *DubinsCar4D) GetParams() map[string]float64 {
	return map[string]float64{
		"a_min": c.U.Min[0], "a_max": c.U.Max[0],
		"w_min": c.U.Min[1], "w_max": c.U.Max[1],
		"d0_min": c.D.Min[0], "d0_max": c.D.Max[0],
		"d1_min": c.D.Min[1], "d1_max": c.D.Max[1],
	}
}
