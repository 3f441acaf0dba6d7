package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/hjreach/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Model.Name != DefaultModel {
		t.Errorf("expected model %s, got %s", DefaultModel, cfg.Model.Name)
	}
	if cfg.Solver.CFL <= 0 || cfg.Solver.CFL > 1 {
		t.Errorf("cfl %f outside (0, 1]", cfg.Solver.CFL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	times, err := cfg.Times()
	if err != nil {
		t.Fatal(err)
	}
	if len(times) != 11 || times[10] != DefaultHorizon {
		t.Errorf("unexpected samples %v", times)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"too few cells", func(c *Config) { c.Grid.Cells = []int{2} }},
		{"missing min", func(c *Config) { c.Grid.Min = nil }},
		{"axis count mismatch", func(c *Config) { c.Grid.Max = []float64{4, 4} }},
		{"periodic out of range", func(c *Config) { c.Grid.Periodic = []int{1} }},
		{"no model", func(c *Config) { c.Model.Name = "" }},
		{"bad u mode", func(c *Config) { c.Model.UMode = "up" }},
		{"zero cfl", func(c *Config) { c.Solver.CFL = 0 }},
		{"large cfl", func(c *Config) { c.Solver.CFL = 2 }},
		{"no samples", func(c *Config) { c.Time = TimeConfig{} }},
		{"unknown mode", func(c *Config) { c.Solver.Mode = "sometimes" }},
		{"target mode without target", func(c *Config) { c.Solver.Mode = "min_with_target" }},
		{"unknown accuracy", func(c *Config) { c.Solver.Accuracy = "extreme" }},
		{"unknown integrator", func(c *Config) { c.Solver.Integrator = "rk45" }},
		{"unknown shape", func(c *Config) { c.Initial.Kind = "torus" }},
		{"center mismatch", func(c *Config) { c.Initial.Center = []float64{0, 0} }},
		{"zero radius", func(c *Config) { c.Initial.Radius = 0 }},
		{"empty union", func(c *Config) { c.Initial = ShapeConfig{Kind: "union"} }},
		{"bad union part", func(c *Config) {
			c.Initial = ShapeConfig{Kind: "intersection", Parts: []ShapeConfig{
				{Kind: "sphere", Center: []float64{0}, Radius: 1},
				{Kind: "sphere", Center: []float64{0, 1}, Radius: 1},
			}}
		}},
		{"bad target", func(c *Config) {
			c.Solver.Mode = "max_with_obstacle"
			c.Target = &ShapeConfig{Kind: "rectangle", Lo: []float64{0}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, dynamo.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestModes(t *testing.T) {
	cfg := DefaultConfig()
	u, d, err := cfg.Modes()
	if err != nil || u != dynamo.Minimize || d != dynamo.Maximize {
		t.Errorf("default modes = %v, %v, %v", u, d, err)
	}

	cfg.Model.UMode, cfg.Model.DMode = "max", ""
	u, d, err = cfg.Modes()
	if err != nil || u != dynamo.Maximize || d != dynamo.Minimize {
		t.Errorf("expected disturbance to oppose control, got %v, %v, %v", u, d, err)
	}
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "problem.yaml")
	cfg := GetPreset("plane1d", "attract")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Solver.Mode != "min_with_target" || loaded.Target == nil || loaded.Target.Radius != 0.5 {
		t.Errorf("round trip lost fields: %+v", loaded)
	}
	if loaded.Model.Params["u_max"] != 1 {
		t.Errorf("expected u_max 1, got %v", loaded.Model.Params)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("solver:\n  mode: min_with_initial\n  cfl: 0.5\n  accuracy: low\n  integrator: euler\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Model.Name != DefaultModel || len(cfg.Grid.Cells) != 1 {
		t.Errorf("defaults lost: %+v", cfg)
	}
	if cfg.Solver.CFL != 0.5 || cfg.Solver.Integrator != "euler" {
		t.Errorf("overrides lost: %+v", cfg.Solver)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("grid: [1, 2"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, model := range PresetModels() {
		for _, name := range ListPresets(model) {
			cfg := GetPreset(model, name)
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", model, name, err)
			}
			if cfg.Model.Name != model {
				t.Errorf("%s/%s: preset runs model %s", model, name, cfg.Model.Name)
			}
		}
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("dubins_capture", "pe_example")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Grid.Cells[0] != 150 || cfg.Grid.Periodic[0] != 2 {
		t.Errorf("unexpected grid %+v", cfg.Grid)
	}

	cfg.Grid.Cells[0] = 10
	if Presets["dubins_capture"]["pe_example"].Grid.Cells[0] != 150 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if GetPreset("plane1d", "nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("nonexistent", "tube") != nil {
		t.Error("expected nil for nonexistent model")
	}
	if ListPresets("nonexistent") != nil {
		t.Error("expected nil for nonexistent model")
	}
}
