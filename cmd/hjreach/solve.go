package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/san-kum/hjreach/internal/config"
	"github.com/san-kum/hjreach/internal/experiment"
	"github.com/san-kum/hjreach/internal/metrics"
	"github.com/san-kum/hjreach/internal/solver"
	"github.com/san-kum/hjreach/internal/storage"
	"github.com/san-kum/hjreach/internal/tui"
)

func lookupPreset(ref string) (*config.Config, error) {
	model, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("preset must be model/name, got %q", ref)
	}
	cfg := config.GetPreset(model, name)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", ref, model, config.ListPresets(model))
	}
	return cfg, nil
}

// loadProblem resolves defaults, then the preset, then the problem file,
// then explicitly set flags.
func loadProblem(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, err := lookupPreset(preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("mode") {
		cfg.Solver.Mode = mode
	}
	if flags.Changed("accuracy") {
		cfg.Solver.Accuracy = accuracy
	}
	if flags.Changed("integrator") {
		cfg.Solver.Integrator = integrator
	}
	if flags.Changed("cfl") {
		cfg.Solver.CFL = cfl
	}
	if flags.Changed("horizon") || flags.Changed("step") {
		if flags.Changed("horizon") {
			cfg.Time.Horizon = horizon
		}
		if flags.Changed("step") {
			cfg.Time.Step = step
		}
		cfg.Time.Samples = nil
	}
	if flags.Changed("save-all") {
		cfg.Solver.SaveAll = saveAll
	}
	if flags.Changed("workers") {
		cfg.Solver.Workers = workers
	}
	if flags.Changed("max-substeps") {
		cfg.Solver.MaxSubSteps = maxSubSteps
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg, err := loadProblem(cmd)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp, err := experiment.New(registry, cfg)
	if err != nil {
		return err
	}

	logger := slog.Default().With("problem", cfg.Name, "model", cfg.Model.Name)
	opts := []solver.Option{solver.WithLogger(logger)}
	collected := registry.DefaultMetrics()
	for _, m := range collected {
		opts = append(opts, solver.WithObserver(m))
	}

	if metricsAddr != "" {
		prom, shutdown, err := serveMetrics(metricsAddr, logger)
		if err != nil {
			return err
		}
		defer shutdown()
		opts = append(opts, solver.WithObserver(prom))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := exp.Grid()
	fmt.Printf("solving %s on %v grid (%d nodes), %d samples\n", cfg.Model.Name, g.Shape(), g.Len(), len(exp.Times()))

	var res *solver.Result
	if live {
		title := fmt.Sprintf("%s/%s", cfg.Model.Name, cfg.Name)
		res, err = tui.RunLive(ctx, title, exp.Times(), func(ctx context.Context, obs solver.Observer) (*solver.Result, error) {
			return exp.Run(ctx, append(opts, solver.WithObserver(obs))...)
		})
	} else {
		res, err = exp.Run(ctx, opts...)
	}
	if err != nil {
		return err
	}

	values := make(map[string]float64, len(collected))
	for _, m := range collected {
		values[m.Name()] = m.Value()
	}

	fmt.Println()
	fmt.Println(tui.KeyValue("elapsed", res.Elapsed.Round(time.Millisecond).String()))
	fmt.Println(tui.KeyValue("sub-steps", fmt.Sprint(res.SubSteps)))
	for _, m := range collected {
		fmt.Println(tui.KeyValue(m.Name(), fmt.Sprintf("%.6g", m.Value())))
	}

	if noSave {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg, exp.System(), g.Shape(), res, values)
	if err != nil {
		return err
	}
	fmt.Println(tui.KeyValue("run id", tui.Cyan.Render(runID)))
	return nil
}

// serveMetrics exposes a dedicated registry over HTTP for the duration of
// the solve.
func serveMetrics(addr string, logger *slog.Logger) (*metrics.Prometheus, func(), error) {
	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheus(reg)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return prom, shutdown, nil
}

func writeProblem(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, err := lookupPreset(preset)
		if err != nil {
			return err
		}
		cfg = p
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[0])
	return nil
}
