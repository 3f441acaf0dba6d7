package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/hjreach/internal/dynamo"
)

// DubinsCapture is the relative-coordinate game between two Dubins vehicles
// moving at equal speed. State is (x, y, θ) in the evader's frame; the
// control is the evader's turn rate w, the disturbance the pursuer's turn
// rate d:
//
//	x' = -v + v cos θ + w y
//	y' = v sin θ - w x
//	θ' = d - w
//
// w enters H with coefficient p0 y - p1 x - p2, d with p2. θ is meant to
// live on a periodic axis.
type DubinsCapture struct {
	Speed float64
	WMax  float64
	DMax  float64
	UMode dynamo.Mode
	DMode dynamo.Mode
}

func NewDubinsCapture(speed, wMax, dMax float64, uMode, dMode dynamo.Mode) (*DubinsCapture, error) {
	if err := dynamo.CheckModes(uMode, dMode); err != nil {
		return nil, err
	}
	if speed < 0 || wMax < 0 || dMax < 0 {
		return nil, fmt.Errorf("dubins capture: %w: speed=%g wMax=%g dMax=%g", dynamo.ErrParameterBounds, speed, wMax, dMax)
	}
	return &DubinsCapture{Speed: speed, WMax: wMax, DMax: dMax, UMode: uMode, DMode: dMode}, nil
}

func (dc *DubinsCapture) StateDim() int       { return 3 }
func (dc *DubinsCapture) ControlDim() int     { return 1 }
func (dc *DubinsCapture) DisturbanceDim() int { return 1 }

func (dc *DubinsCapture) OptimalControl(x dynamo.State, p []float64, dst dynamo.Control) dynamo.Control {
	dst = dynamo.Resize(dst, 1)
	coeff := p[0]*x[1] - p[1]*x[0] - p[2]
	dst[0] = dynamo.Extremize(coeff, -dc.WMax, dc.WMax, dc.UMode)
	return dst
}

func (dc *DubinsCapture) OptimalDisturbance(x dynamo.State, p []float64, dst dynamo.Disturbance) dynamo.Disturbance {
	dst = dynamo.Resize(dst, 1)
	dst[0] = dynamo.Extremize(p[2], -dc.DMax, dc.DMax, dc.DMode)
	return dst
}

func (dc *DubinsCapture) Derive(x dynamo.State, u dynamo.Control, d dynamo.Disturbance, dst dynamo.State) dynamo.State {
	dst = dynamo.Resize(dst, 3)
	sin, cos := math.Sincos(x[2])
	dst[0] = -dc.Speed + dc.Speed*cos + u[0]*x[1]
	dst[1] = dc.Speed*sin - u[0]*x[0]
	dst[2] = d[0] - u[0]
	return dst
}

func (dc *DubinsCapture) WaveSpeed(x dynamo.State, dst []float64) {
	sin, cos := math.Sincos(x[2])
	dst[0] = math.Abs(dc.Speed*(cos-1)) + dc.WMax*math.Abs(x[1])
	dst[1] = math.Abs(dc.Speed*sin) + dc.WMax*math.Abs(x[0])
	dst[2] = dc.DMax + dc.WMax
}

func (dc *DubinsCapture) GetParams() map[string]float64 {
	return map[string]float64{"speed": dc.Speed, "w_max": dc.WMax, "d_max": dc.DMax}
}
