package physics

import "github.com/san-kum/hjreach/internal/dynamo"

// Still has no inputs and no motion: f ≡ 0. Its value function never changes.
type Still struct {
	Dim int
}

func NewStill(dim int) *Still {
	return &Still{Dim: dim}
}

func (s *Still) StateDim() int       { return s.Dim }
func (s *Still) ControlDim() int     { return 0 }
func (s *Still) DisturbanceDim() int { return 0 }

func (s *Still) OptimalControl(x dynamo.State, p []float64, dst dynamo.Control) dynamo.Control {
	return dst[:0]
}

func (s *Still) OptimalDisturbance(x dynamo.State, p []float64, dst dynamo.Disturbance) dynamo.Disturbance {
	return dst[:0]
}

func (s *Still) Derive(x dynamo.State, u dynamo.Control, d dynamo.Disturbance, dst dynamo.State) dynamo.State {
	dst = dynamo.Resize(dst, s.Dim)
	for i := range dst {
		dst[i] = 0
	}
	return dst
}

func (s *Still) WaveSpeed(x dynamo.State, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
}
