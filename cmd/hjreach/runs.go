package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/hjreach/internal/config"
	"github.com/san-kum/hjreach/internal/deriv"
	"github.com/san-kum/hjreach/internal/dynamo"
	"github.com/san-kum/hjreach/internal/experiment"
	"github.com/san-kum/hjreach/internal/grid"
	"github.com/san-kum/hjreach/internal/query"
	"github.com/san-kum/hjreach/internal/storage"
	"github.com/san-kum/hjreach/internal/tui"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tMODE\tSHAPE\tSAMPLES\tSUBSTEPS\tTIMESTAMP")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%d\t%d\t%s\n",
			r.ID, r.Model, r.Mode, r.Shape, len(r.Times), r.SubSteps,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

// storedRun is a run reloaded with its grid and model rebuilt.
type storedRun struct {
	cfg   *config.Config
	exp   *experiment.Experiment
	times []float64
	field []float64
	index int
}

func loadRun(runID string, sample int) (*storedRun, error) {
	st := storage.New(dataDir)
	cfg, err := st.LoadProblem(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	exp, err := experiment.New(experiment.NewRegistry(), cfg)
	if err != nil {
		return nil, err
	}
	times, fields, err := st.LoadFields(runID)
	if err != nil {
		return nil, err
	}
	if sample < 0 {
		sample = len(fields) - 1
	}
	if sample >= len(fields) {
		return nil, fmt.Errorf("sample %d out of range, run stores %d", sample, len(fields))
	}
	if err := exp.Grid().CheckField("stored field", fields[sample]); err != nil {
		return nil, err
	}
	return &storedRun{cfg: cfg, exp: exp, times: times, field: fields[sample], index: sample}, nil
}

func showRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0], sampleIdx)
	if err != nil {
		return err
	}
	g := run.exp.Grid()
	if axis < 0 || axis >= g.Dims() {
		return fmt.Errorf("axis %d out of range for %d-D grid", axis, g.Dims())
	}

	through, err := sliceNode(g)
	if err != nil {
		return err
	}
	through[axis] = 0
	start := g.Index(through)
	n := g.NodeCount(axis)
	values := make([]float64, n)
	for i := range values {
		values[i] = run.field[start+i*g.Stride(axis)]
	}

	coords := g.Coordinates(axis)
	fmt.Println(tui.KeyValue("run", tui.Cyan.Render(args[0])))
	fmt.Println(tui.KeyValue("model", run.cfg.Model.Name))
	fmt.Println(tui.KeyValue("sample", fmt.Sprintf("%d (t=%.4g)", run.index, run.times[run.index])))
	fmt.Println(tui.KeyValue("reach", fmt.Sprintf("%d of %d nodes on the slice", countNonPositive(values), n)))
	fmt.Println()

	caption := fmt.Sprintf("V along axis %d, x in [%.3g, %.3g]", axis, coords[0], coords[n-1])
	graph := asciigraph.Plot(values,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	return nil
}

// sliceNode picks the node the plotted line passes through.
func sliceNode(g *grid.Grid) ([]int, error) {
	if at == "" {
		idx := make([]int, g.Dims())
		for i := range idx {
			idx[i] = g.NodeCount(i) / 2
		}
		return idx, nil
	}
	x, err := parseFloats(at)
	if err != nil {
		return nil, fmt.Errorf("invalid --at: %w", err)
	}
	return query.NearestIndices(g, dynamo.State(x))
}

func countNonPositive(values []float64) int {
	n := 0
	for _, v := range values {
		if v <= 0 {
			n++
		}
	}
	return n
}

func controlAt(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0], sampleIdx)
	if err != nil {
		return err
	}
	x, err := parseFloats(stateArg)
	if err != nil {
		return fmt.Errorf("invalid --state: %w", err)
	}
	acc, err := deriv.ParseAccuracy(run.cfg.Solver.Accuracy)
	if err != nil {
		return err
	}

	g, sys, state := run.exp.Grid(), run.exp.System(), dynamo.State(x)
	value, err := query.Value(g, run.field, state)
	if err != nil {
		return err
	}
	grad, err := query.GradientAt(g, run.field, state, acc)
	if err != nil {
		return err
	}
	u, err := query.ControlAt(sys, g, run.field, state, acc)
	if err != nil {
		return err
	}
	d, err := query.DisturbanceAt(sys, g, run.field, state, acc)
	if err != nil {
		return err
	}

	status := tui.Green.Render("outside")
	if value <= 0 {
		status = tui.Red.Render("inside")
	}
	fmt.Println(tui.KeyValue("model", run.cfg.Model.Name+" "+tui.Dim.Render(modelParams(sys))))
	fmt.Println(tui.KeyValue("state", formatVec(x)))
	fmt.Println(tui.KeyValue("sample", fmt.Sprintf("%d (t=%.4g)", run.index, run.times[run.index])))
	fmt.Println(tui.KeyValue("value", fmt.Sprintf("%.6g (%s)", value, status)))
	fmt.Println(tui.KeyValue("gradient", formatVec(grad.Mean())))
	fmt.Println(tui.KeyValue("control", tui.Yellow.Render(formatVec(u))))
	fmt.Println(tui.KeyValue("disturbance", tui.Magenta.Render(formatVec(d))))
	return nil
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.4g", x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// modelParams lists the resolved parameters of sys, if it exposes any.
func modelParams(sys dynamo.System) string {
	c, ok := sys.(dynamo.Configurable)
	if !ok {
		return ""
	}
	return formatParams(c.GetParams())
}

func formatParams(params map[string]float64) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		v := params[k]
		if v == 0 {
			v = 0 // drop the sign of -0
		}
		parts[i] = fmt.Sprintf("%s=%.4g", k, v)
	}
	return strings.Join(parts, " ")
}

// formatDims prints the state dimension, "any" for dimension-free models.
func formatDims(d int) string {
	if d <= 0 {
		return "any"
	}
	return strconv.Itoa(d)
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if output == "" {
		return st.Export(os.Stdout, args[0])
	}
	if err := st.ExportFile(output, args[0]); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", args[0], output)
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tDIMS\tDESCRIPTION\tDEFAULTS")
	for _, name := range reg.ListModels() {
		info, _ := reg.Describe(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", info.Name, formatDims(info.Dims), info.Description, formatParams(info.Defaults))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	models := config.PresetModels()
	if len(args) == 1 {
		models = []string{args[0]}
	}
	for _, model := range models {
		names := config.ListPresets(model)
		if len(names) == 0 {
			return fmt.Errorf("no presets for model %q", model)
		}
		fmt.Println(tui.Cyan.Render(model))
		for _, name := range names {
			p := config.GetPreset(model, name)
			fmt.Printf("  %-12s %v cells, mode %s, horizon %g\n", name, p.Grid.Cells, p.Solver.Mode, p.Time.Horizon)
		}
	}
	return nil
}
