// Package automation runs batches of reachability problems derived from one
// base problem.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/hjreach/internal/config"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/experiment"
	"github.com/san-kum/hjreach/internal/metrics"
	"github.com/san-kum/hjreach/internal/solver"
)

// Sweep solves the base problem once per value of a model parameter.
type Sweep struct {
	Param    string  `yaml:"param"`
	Min      float64 `yaml:"min"`
	Max      float64 `yaml:"max"`
	NumSteps int     `yaml:"steps"`
}

// SweepResult summarizes one solve of a sweep.
type SweepResult struct {
	ParamValue float64 `json:"param_value"`
	Reach      float64 `json:"reach_fraction"`
	MinValue   float64 `json:"min_value"`
	SubSteps   int     `json:"substeps"`
}

// LoadSweep reads a sweep definition from a YAML file.
func LoadSweep(path string) (*Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sweep Sweep
	if err := yaml.Unmarshal(data, &sweep); err != nil {
		return nil, err
	}
	return &sweep, nil
}

// Values lists the parameter values, evenly spaced and including both ends.
func (s *Sweep) Values() ([]float64, error) {
	if s.Param == "" {
		return nil, fmt.Errorf("%w: sweep needs a parameter name", dynamo.ErrInvalidConfig)
	}
	switch {
	case s.NumSteps < 1:
		return nil, fmt.Errorf("%w: sweep needs at least one step, got %d", dynamo.ErrInvalidConfig, s.NumSteps)
	case s.NumSteps == 1:
		return []float64{s.Min}, nil
	case s.Max < s.Min:
		return nil, fmt.Errorf("%w: sweep range [%g, %g] is reversed", dynamo.ErrInvalidConfig, s.Min, s.Max)
	}
	values := make([]float64, s.NumSteps)
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	for i := range values {
		values[i] = s.Min + float64(i)*step
	}
	values[len(values)-1] = s.Max
	return values, nil
}

// RunSweep solves base for every sweep value in order. The first failing
// solve aborts the sweep; results gathered so far are returned with it.
func RunSweep(ctx context.Context, base *config.Config, sweep *Sweep, registry *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	values, err := sweep.Values()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]SweepResult, 0, len(values))
	for i, v := range values {
		cfg := base.Clone()
		if cfg.Model.Params == nil {
			cfg.Model.Params = make(map[string]float64)
		}
		cfg.Model.Params[sweep.Param] = v

		exp, err := experiment.New(registry, cfg)
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, v, err)
		}
		reach := metrics.NewReachFraction()
		res, err := exp.Run(ctx, solver.WithLogger(logger), solver.WithObserver(reach))
		if err != nil {
			return results, fmt.Errorf("sweep %s=%g: %w", sweep.Param, v, err)
		}

		results = append(results, SweepResult{
			ParamValue: v,
			Reach:      reach.Value(),
			MinValue:   floats.Min(res.Final()),
			SubSteps:   res.SubSteps,
		})
		logger.Info("sweep point done", "index", i+1, "of", len(values), sweep.Param, v, "reach", reach.Value())
	}
	return results, nil
}
