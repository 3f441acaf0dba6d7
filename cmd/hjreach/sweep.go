package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/hjreach/internal/automation"
	"github.com/san-kum/hjreach/internal/experiment"
)

var (
	sweepFile  string
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
)

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadProblem(cmd)
	if err != nil {
		return err
	}

	sweep := &automation.Sweep{Param: sweepParam, Min: sweepMin, Max: sweepMax, NumSteps: sweepSteps}
	if sweepFile != "" {
		if sweep, err = automation.LoadSweep(sweepFile); err != nil {
			return fmt.Errorf("failed to load sweep: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.Default().With("problem", cfg.Name, "model", cfg.Model.Name)
	results, err := automation.RunSweep(ctx, cfg, sweep, experiment.NewRegistry(), logger)
	if len(results) > 0 {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\tREACH\tMIN V\tSUBSTEPS\n", sweep.Param)
		for _, r := range results {
			fmt.Fprintf(w, "%.4g\t%.4f\t%.4g\t%d\n", r.ParamValue, r.Reach, r.MinValue, r.SubSteps)
		}
		w.Flush()
	}
	return err
}
