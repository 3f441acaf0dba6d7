package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/hjreach/internal/integrators"
	"github.com/san-kum/hjreach/internal/solver"
)

var (
	dataDir  string
	logLevel string

	configFile  string
	preset      string
	mode        string
	accuracy    string
	integrator  string
	cfl         float64
	horizon     float64
	step        float64
	saveAll     bool
	workers     int
	maxSubSteps int
	live        bool
	metricsAddr string
	noSave      bool

	sampleIdx int
	axis      int
	at        string
	stateArg  string
	output    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "hjreach",
		Short:         "Hamilton-Jacobi reachability solver",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hjreach", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "solve a reachability problem",
		Args:  cobra.NoArgs,
		RunE:  runSolve,
	}
	solveCmd.Flags().StringVar(&configFile, "config", "", "problem file path (yaml)")
	solveCmd.Flags().StringVar(&preset, "preset", "", "use preset problem (model/name)")
	solveCmd.Flags().StringVar(&mode, "mode", "", "target set mode ("+strings.Join(solver.ModeNames(), ", ")+")")
	solveCmd.Flags().StringVar(&accuracy, "accuracy", "", "derivative accuracy (low, medium, high)")
	solveCmd.Flags().StringVar(&integrator, "integrator", "", "time stepper ("+strings.Join(integrators.Names(), ", ")+")")
	solveCmd.Flags().Float64Var(&cfl, "cfl", 0, "CFL number in (0, 1]")
	solveCmd.Flags().Float64Var(&horizon, "horizon", 0, "time horizon")
	solveCmd.Flags().Float64Var(&step, "step", 0, "spacing of stored time samples")
	solveCmd.Flags().BoolVar(&saveAll, "save-all", false, "keep a field per time sample")
	solveCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = GOMAXPROCS)")
	solveCmd.Flags().IntVar(&maxSubSteps, "max-substeps", 0, "abort after this many sub-steps (0 = unlimited)")
	solveCmd.Flags().BoolVar(&live, "live", false, "show live progress")
	solveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	solveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the result")

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a problem file to edit",
		Args:  cobra.ExactArgs(1),
		RunE:  writeProblem,
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "start from preset (model/name)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "plot a one-dimensional slice of a stored value function",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&sampleIdx, "sample", -1, "stored sample index (-1 = last)")
	showCmd.Flags().IntVar(&axis, "axis", 0, "axis to plot along")
	showCmd.Flags().StringVar(&at, "at", "", "comma separated state the slice passes through (default: grid center)")

	controlCmd := &cobra.Command{
		Use:   "control [run_id]",
		Short: "optimal control and disturbance at a state",
		Args:  cobra.ExactArgs(1),
		RunE:  controlAt,
	}
	controlCmd.Flags().IntVar(&sampleIdx, "sample", -1, "stored sample index (-1 = last)")
	controlCmd.Flags().StringVar(&stateArg, "state", "", "comma separated state")
	_ = controlCmd.MarkFlagRequired("state")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list dynamics models",
		Args:  cobra.NoArgs,
		RunE:  listModels,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "solve a problem across a range of one model parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&configFile, "config", "", "problem file path (yaml)")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset problem (model/name)")
	sweepCmd.Flags().StringVar(&sweepFile, "sweep", "", "sweep definition file (yaml)")
	sweepCmd.Flags().StringVar(&sweepParam, "param", "", "model parameter to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "first parameter value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "last parameter value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of parameter values")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	rootCmd.AddCommand(solveCmd, initCmd, listCmd, showCmd, controlCmd, exportCmd, sweepCmd, modelsCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
