package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/hjreach/internal/dynamo"
)

// PursuitEvasion models two double integrators in relative coordinates.
// State is (x, y, vx, vy), the evader's position and velocity relative to the
// pursuer. The control is the evader's acceleration (ax, ay), the
// disturbance the pursuer's acceleration (dx, dy):
//
//	x' = vx    y' = vy
//	vx' = dx - ax
//	vy' = dy - ay
//
// Only the velocity axes carry inputs, so p[2] and p[3] decide the optimal
// inputs. ax enters H with coefficient -p[2], dx with +p[2].
type PursuitEvasion struct {
	U     dynamo.Bounds
	D     dynamo.Bounds
	UMode dynamo.Mode
	DMode dynamo.Mode
}

type PursuitEvasionConfig struct {
	UMin, UMax   []float64
	DMin, DMax   []float64
	UMode, DMode dynamo.Mode
}

func DefaultPursuitEvasionConfig() PursuitEvasionConfig {
	return PursuitEvasionConfig{
		UMin:  []float64{-1, -1},
		UMax:  []float64{1, 1},
		DMin:  []float64{-0.25, -0.25},
		DMax:  []float64{0.25, 0.25},
		UMode: dynamo.Minimize,
		DMode: dynamo.Maximize,
	}
}

func NewPursuitEvasion(cfg PursuitEvasionConfig) (*PursuitEvasion, error) {
	if err := dynamo.CheckModes(cfg.UMode, cfg.DMode); err != nil {
		return nil, err
	}
	pe := &PursuitEvasion{
		U:     dynamo.Bounds{Min: clone(cfg.UMin), Max: clone(cfg.UMax)},
		D:     dynamo.Bounds{Min: clone(cfg.DMin), Max: clone(cfg.DMax)},
		UMode: cfg.UMode,
		DMode: cfg.DMode,
	}
	if err := pe.U.Validate("control", 2); err != nil {
		return nil, fmt.Errorf("pursuit evasion: %w", err)
	}
	if err := pe.D.Validate("disturbance", 2); err != nil {
		return nil, fmt.Errorf("pursuit evasion: %w", err)
	}
	return pe, nil
}

func (pe *PursuitEvasion) StateDim() int       { return 4 }
func (pe *PursuitEvasion) ControlDim() int     { return 2 }
func (pe *PursuitEvasion) DisturbanceDim() int { return 2 }

func (pe *PursuitEvasion) OptimalControl(x dynamo.State, p []float64, dst dynamo.Control) dynamo.Control {
	dst = dynamo.Resize(dst, 2)
	dst[0] = dynamo.Extremize(-p[2], pe.U.Min[0], pe.U.Max[0], pe.UMode)
	dst[1] = dynamo.Extremize(-p[3], pe.U.Min[1], pe.U.Max[1], pe.UMode)
	return dst
}

func (pe *PursuitEvasion) OptimalDisturbance(x dynamo.State, p []float64, dst dynamo.Disturbance) dynamo.Disturbance {
	dst = dynamo.Resize(dst, 2)
	dst[0] = dynamo.Extremize(p[2], pe.D.Min[0], pe.D.Max[0], pe.DMode)
	dst[1] = dynamo.Extremize(p[3], pe.D.Min[1], pe.D.Max[1], pe.DMode)
	return dst
}

func (pe *PursuitEvasion) Derive(x dynamo.State, u dynamo.Control, d dynamo.Disturbance, dst dynamo.State) dynamo.State {
	dst = dynamo.Resize(dst, 4)
	dst[0] = x[2]
	dst[1] = x[3]
	dst[2] = d[0] - u[0]
	dst[3] = d[1] - u[1]
	return dst
}

func (pe *PursuitEvasion) WaveSpeed(x dynamo.State, dst []float64) {
	dst[0] = math.Abs(x[2])
	dst[1] = math.Abs(x[3])
	dst[2] = math.Max(math.Abs(pe.D.Max[0]-pe.U.Min[0]), math.Abs(pe.D.Min[0]-pe.U.Max[0]))
	dst[3] = math.Max(math.Abs(pe.D.Max[1]-pe.U.Min[1]), math.Abs(pe.D.Min[1]-pe.U.Max[1]))
}

func (pe *PursuitEvasion) GetParams() map[string]float64 {
	return map[string]float64{
		"ax_min": pe.U.Min[0], "ax_max": pe.U.Max[0],
		"ay_min": pe.U.Min[1], "ay_max": pe.U.Max[1],
		"dx_min": pe.D.Min[0], "dx_max": pe.D.Max[0],
		"dy_min": pe.D.Min[1], "dy_max": pe.D.Max[1],
	}
}

func clone(s []float64) []float64 {
	return append([]float64(nil), s...)
}
