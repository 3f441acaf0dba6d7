package config

import (
	"math"
	"sort"
)

// Presets holds ready-made problems keyed by model and preset name.
var Presets = map[string]map[string]*Config{
	"dubins_capture": {
		"pe_example": {
			Name:  "pe_example",
			Grid:  GridConfig{Min: []float64{-4, -4, -math.Pi}, Max: []float64{4, 4, math.Pi}, Cells: []int{150, 150, 150}, Periodic: []int{2}},
			Model: ModelConfig{Name: "dubins_capture", UMode: "max", DMode: "min"},
			Initial: ShapeConfig{
				Kind: "cylinder", Center: []float64{0, 0, 0}, Radius: 1, Ignore: []int{2},
			},
			Time:   TimeConfig{Horizon: 1, Step: 0.05},
			Solver: SolverConfig{Mode: "none", Accuracy: "high", Integrator: "rk3", CFL: 0.8, SaveAll: true},
		},
		"coarse": {
			Name:  "coarse",
			Grid:  GridConfig{Min: []float64{-4, -4, -math.Pi}, Max: []float64{4, 4, math.Pi}, Cells: []int{40, 40, 40}, Periodic: []int{2}},
			Model: ModelConfig{Name: "dubins_capture", UMode: "max", DMode: "min"},
			Initial: ShapeConfig{
				Kind: "cylinder", Center: []float64{0, 0, 0}, Radius: 1, Ignore: []int{2},
			},
			Time:   TimeConfig{Horizon: 1, Step: 0.25},
			Solver: SolverConfig{Mode: "min_with_initial", Accuracy: "high", Integrator: "rk3", CFL: 0.8},
		},
	},
	"pursuit_evasion": {
		"capture": {
			Name:  "capture",
			Grid:  GridConfig{Min: []float64{-2, -2, -1, -1}, Max: []float64{2, 2, 1, 1}, Cells: []int{16, 16, 12, 12}},
			Model: ModelConfig{Name: "pursuit_evasion", UMode: "min", DMode: "max", Params: map[string]float64{"u_max": 1, "d_max": 0.25}},
			Initial: ShapeConfig{
				Kind: "cylinder", Center: []float64{0, 0, 0, 0}, Radius: 0.5, Ignore: []int{2, 3},
			},
			Time:   TimeConfig{Horizon: 0.5, Step: 0.1},
			Solver: SolverConfig{Mode: "min_with_initial", Accuracy: "medium", Integrator: "rk3", CFL: 0.8},
		},
	},
	"dubins_car4d": {
		"reach": {
			Name:  "reach",
			Grid:  GridConfig{Min: []float64{-3, -3, 0, -math.Pi}, Max: []float64{3, 3, 2, math.Pi}, Cells: []int{16, 16, 8, 16}, Periodic: []int{3}},
			Model: ModelConfig{Name: "dubins_car4d", UMode: "min", DMode: "max"},
			Initial: ShapeConfig{
				Kind: "cylinder", Center: []float64{0, 0, 0, 0}, Radius: 0.75, Ignore: []int{2, 3},
			},
			Time:   TimeConfig{Horizon: 0.5, Step: 0.25},
			Solver: SolverConfig{Mode: "min_with_initial", Accuracy: "medium", Integrator: "rk3", CFL: 0.8},
		},
	},
	"plane2d": {
		"avoid": {
			Name:  "avoid",
			Grid:  GridConfig{Min: []float64{-3, -3}, Max: []float64{3, 3}, Cells: []int{60, 60}},
			Model: ModelConfig{Name: "plane2d", UMode: "max", DMode: "min", Params: map[string]float64{"u_max": 1, "d_max": 0.5}},
			Initial: ShapeConfig{
				Kind: "rectangle", Lo: []float64{-0.5, -0.5}, Hi: []float64{0.5, 0.5},
			},
			Time:   TimeConfig{Horizon: 1, Step: 0.25},
			Solver: SolverConfig{Mode: "max_with_initial", Accuracy: "high", Integrator: "rk3", CFL: 0.8},
		},
	},
	"plane1d": {
		"tube": {
			Name:    "tube",
			Grid:    GridConfig{Min: []float64{-4}, Max: []float64{4}, Cells: []int{101}},
			Model:   ModelConfig{Name: "plane1d", UMode: "min", DMode: "max", Params: map[string]float64{"u_max": 1, "d_max": 1}},
			Initial: ShapeConfig{Kind: "sphere", Center: []float64{0}, Radius: 1},
			Time:    TimeConfig{Samples: []float64{0, 0.5, 1}},
			Solver:  SolverConfig{Mode: "min_with_initial", Accuracy: "high", Integrator: "rk3", CFL: 0.8, SaveAll: true},
		},
		"attract": {
			Name:    "attract",
			Grid:    GridConfig{Min: []float64{-4}, Max: []float64{4}, Cells: []int{101}},
			Model:   ModelConfig{Name: "plane1d", UMode: "min", DMode: "max", Params: map[string]float64{"u_max": 1, "d_max": 0}},
			Initial: ShapeConfig{Kind: "sphere", Center: []float64{0}, Radius: 1},
			Target:  &ShapeConfig{Kind: "sphere", Center: []float64{0}, Radius: 0.5},
			Time:    TimeConfig{Horizon: 2, Step: 0.5},
			Solver:  SolverConfig{Mode: "min_with_target", Accuracy: "high", Integrator: "rk3", CFL: 0.8, SaveAll: true},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetModels lists the models that have presets.
func PresetModels() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
