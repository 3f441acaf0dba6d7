package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/san-kum/hjreach/internal/config"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/experiment"
)

func TestSweepValues(t *testing.T) {
	tests := []struct {
		name  string
		sweep Sweep
		want  []float64
		err   bool
	}{
		{"range", Sweep{Param: "u_max", Min: 0, Max: 1, NumSteps: 5}, []float64{0, 0.25, 0.5, 0.75, 1}, false},
		{"single", Sweep{Param: "u_max", Min: 2, Max: 3, NumSteps: 1}, []float64{2}, false},
		{"no param", Sweep{Min: 0, Max: 1, NumSteps: 2}, nil, true},
		{"no steps", Sweep{Param: "u_max", Min: 0, Max: 1}, nil, true},
		{"reversed", Sweep{Param: "u_max", Min: 1, Max: 0, NumSteps: 3}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.sweep.Values()
			if tt.err {
				require.ErrorIs(t, err, dynamo.ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			require.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestLoadSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte("param: d_max\nmin: 0\nmax: 0.5\nsteps: 3\n"), 0644))

	s, err := LoadSweep(path)
	require.NoError(t, err)
	require.Equal(t, Sweep{Param: "d_max", Min: 0, Max: 0.5, NumSteps: 3}, *s)
}

func coarseProblem() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Grid.Cells = []int{40}
	cfg.Time.Step = 0.5
	return cfg
}

func TestRunSweep_FasterControlReachesMore(t *testing.T) {
	sweep := &Sweep{Param: "u_max", Min: 0.5, Max: 1, NumSteps: 2}
	results, err := RunSweep(context.Background(), coarseProblem(), sweep, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, 0.5, results[0].ParamValue)
	require.Equal(t, 1.0, results[1].ParamValue)
	require.Greater(t, results[1].Reach, results[0].Reach)
	require.Less(t, results[1].MinValue, results[0].MinValue)
	for _, r := range results {
		require.Positive(t, r.SubSteps)
	}
}

func TestRunSweep_LeavesBaseUntouched(t *testing.T) {
	base := coarseProblem()
	sweep := &Sweep{Param: "u_max", Min: 0.25, Max: 0.25, NumSteps: 1}
	_, err := RunSweep(context.Background(), base, sweep, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.NotContains(t, base.Model.Params, "u_max")
}

func TestRunSweep_UnknownParam(t *testing.T) {
	sweep := &Sweep{Param: "mass", Min: 1, Max: 2, NumSteps: 2}
	results, err := RunSweep(context.Background(), coarseProblem(), sweep, experiment.NewRegistry(), nil)
	require.Error(t, err)
	require.True(t, errors.Is(err, dynamo.ErrInvalidConfig))
	require.Empty(t, results)
}

func TestRunSweep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sweep := &Sweep{Param: "u_max", Min: 0.5, Max: 1, NumSteps: 2}
	_, err := RunSweep(ctx, coarseProblem(), sweep, experiment.NewRegistry(), nil)
	require.ErrorIs(t, err, context.Canceled)
}
