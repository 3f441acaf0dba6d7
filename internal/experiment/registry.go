package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/metrics"
	"github.com/san-kum/hjreach/internal/physics"
)

// ModelFactory builds a dynamics model from merged parameters.
type ModelFactory func(params map[string]float64, uMode, dMode dynamo.Mode) (dynamo.System, error)

type ModelInfo struct {
	Name        string
	Description string
	// Dims is 0 for models whose dimension comes from their params.
	Dims        int
	Defaults    map[string]float64
}

type modelEntry struct {
	info    ModelInfo
	factory ModelFactory
}

type Registry struct {
	models map[string]modelEntry
}

func NewRegistry() *Registry {
	r := &Registry{models: make(map[string]modelEntry)}

	r.Register(ModelInfo{
		Name: "plane1d", Description: "scalar integrator x' = u + d", Dims: 1,
		Defaults: map[string]float64{"u_max": 1, "d_max": 0},
	}, func(p map[string]float64, u, d dynamo.Mode) (dynamo.System, error) {
		return physics.NewPlane1D(p["u_max"], p["d_max"], u, d)
	})
	r.Register(ModelInfo{
		Name: "plane2d", Description: "planar integrator with additive disturbance", Dims: 2,
		Defaults: map[string]float64{"u_max": 1, "d_max": 0},
	}, func(p map[string]float64, u, d dynamo.Mode) (dynamo.System, error) {
		return physics.NewPlane2D(p["u_max"], p["d_max"], u, d)
	})
	r.Register(ModelInfo{
		Name: "pursuit_evasion", Description: "relative double integrator, pursuer vs evader", Dims: 4,
		Defaults: map[string]float64{"u_max": 1, "d_max": 0.25},
	}, func(p map[string]float64, u, d dynamo.Mode) (dynamo.System, error) {
		cfg := physics.PursuitEvasionConfig{
			UMin: []float64{-p["u_max"], -p["u_max"]}, UMax: []float64{p["u_max"], p["u_max"]},
			DMin: []float64{-p["d_max"], -p["d_max"]}, DMax: []float64{p["d_max"], p["d_max"]},
			UMode: u, DMode: d,
		}
		return physics.NewPursuitEvasion(cfg)
	})
	r.Register(ModelInfo{
		Name: "dubins_capture", Description: "relative Dubins capture game, heading on axis 2", Dims: 3,
		Defaults: map[string]float64{"speed": 1, "w_max": 1, "d_max": 1},
	}, func(p map[string]float64, u, d dynamo.Mode) (dynamo.System, error) {
		return physics.NewDubinsCapture(p["speed"], p["w_max"], p["d_max"], u, d)
	})
	r.Register(ModelInfo{
		Name: "dubins_car4d", Description: "car with speed and heading states, heading on axis 3", Dims: 4,
		Defaults: map[string]float64{"a_max": 1.5, "w_max": math.Pi / 18, "d_max": 0},
	}, func(p map[string]float64, u, d dynamo.Mode) (dynamo.System, error) {
		ub := dynamo.Bounds{Min: []float64{-p["a_max"], -p["w_max"]}, Max: []float64{p["a_max"], p["w_max"]}}
		db := dynamo.Bounds{Min: []float64{-p["d_max"], -p["d_max"]}, Max: []float64{p["d_max"], p["d_max"]}}
		return physics.NewDubinsCar4D(ub, db, u, d)
	})
	r.Register(ModelInfo{
		Name: "still", Description: "zero dynamics, the field never moves", Dims: 0,
		Defaults: map[string]float64{"dim": 1},
	}, func(p map[string]float64, u, d dynamo.Mode) (dynamo.System, error) {
		if err := dynamo.CheckModes(u, d); err != nil {
			return nil, err
		}
		dim := int(p["dim"])
		if dim < 1 || float64(dim) != p["dim"] {
			return nil, fmt.Errorf("%w: still needs a positive integer dim, got %v", dynamo.ErrParameterBounds, p["dim"])
		}
		return physics.NewStill(dim), nil
	})

	return r
}

// Register adds or replaces a model.
func (r *Registry) Register(info ModelInfo, factory ModelFactory) {
	r.models[info.Name] = modelEntry{info: info, factory: factory}
}

// GetModel builds a model, overriding its defaults with params. Unknown
// parameter names are rejected.
func (r *Registry) GetModel(name string, params map[string]float64, uMode, dMode dynamo.Mode) (dynamo.System, error) {
	entry, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown model: %s", dynamo.ErrInvalidConfig, name)
	}
	merged := make(map[string]float64, len(entry.info.Defaults))
	for k, v := range entry.info.Defaults {
		merged[k] = v
	}
	for k, v := range params {
		if _, ok := merged[k]; !ok {
			return nil, fmt.Errorf("%w: model %s has no parameter %q", dynamo.ErrInvalidConfig, name, k)
		}
		merged[k] = v
	}
	return entry.factory(merged, uMode, dMode)
}

func (r *Registry) Describe(name string) (ModelInfo, bool) {
	entry, ok := r.models[name]
	return entry.info, ok
}

func (r *Registry) ListModels() []string {
	names := make([]string, 0, len(r.models))
	for name := range r.models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []metrics.Metric {
	return []metrics.Metric{
		metrics.NewStepSize(),
		metrics.NewWaveSpeed(),
		metrics.NewReachFraction(),
	}
}
