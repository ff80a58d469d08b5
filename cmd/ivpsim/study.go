package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ivpsim/internal/analysis"
	"github.com/san-kum/ivpsim/internal/dynamo"
	"github.com/san-kum/ivpsim/internal/experiment"
	"github.com/san-kum/ivpsim/internal/optim"
	"github.com/spf13/cobra"
)

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [model]",
		Short: "run one model with several steppers",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompare,
	}
	addRunFlags(cmd.Flags())
	cmd.Flags().StringSlice("steppers", []string{"euler", "rk4", "rk45dp"}, "steppers to compare")
	return cmd
}

func runCompare(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Println(TitleStyle.Render(fmt.Sprintf("%s  h=%g  t=%g", base.Model, base.H, base.TFinal)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEPPER\tSTEPS\tREJECTED\tEVALS\tGLOBAL ERR\tSTABILITY\tELAPSED\tSTATUS")

	for _, name := range v.GetStringSlice("steppers") {
		cfg := base.Clone()
		cfg.Stepper = name

		exp, err := experiment.New(cfg, experiment.WithLogger(logger))
		if err != nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t%s\n", name, err)
			continue
		}

		start := time.Now()
		result, runErr := exp.Run(ctx)
		elapsed := time.Since(start)

		status := "ok"
		if runErr != nil {
			status = runErr.Error()
		}
		if result == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t%s\t%s\n", name, elapsed.Round(time.Microsecond), status)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
			name, result.StepsTaken, result.Rejected, result.Evaluations,
			metricCell(result.Metrics, "global_error"), metricCell(result.Metrics, "stability"),
			elapsed.Round(time.Microsecond), status)
	}
	return w.Flush()
}

func metricCell(m map[string]float64, name string) string {
	val, ok := m[name]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.3e", val)
}

func newOrderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order [model]",
		Short: "measure the observed order of accuracy against the closed-form solution",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrder,
	}
	addRunFlags(cmd.Flags())
	cmd.Flags().Float64Slice("hs", []float64{0.2, 0.1, 0.05, 0.025}, "step sizes")
	return cmd
}

func runOrder(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	hs, err := cmd.Flags().GetFloat64Slice("hs")
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry(logger)
	model, err := reg.Model(cfg.Model, cfg.Params)
	if err != nil {
		return err
	}
	u0 := dynamo.State(cfg.GetInitState())
	if u0 == nil {
		u0 = model.DefaultState()
	}

	if _, err := reg.Stepper(cfg.Stepper, cfg); err != nil {
		return err
	}
	build := func() dynamo.Stepper {
		s, _ := reg.Stepper(cfg.Stepper, cfg)
		return s
	}

	ctx, cancel := signalContext()
	defer cancel()

	study, err := analysis.Convergence(ctx, model, build, u0, cfg.TFinal, hs)
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("%s / %s", cfg.Model, study.Stepper)))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "H\tERROR\tEVALS")
	errs := make([]float64, len(study.Points))
	for i, p := range study.Points {
		fmt.Fprintf(w, "%g\t%.3e\t%d\n", p.H, p.Error, p.Evaluations)
		errs[i] = p.Error
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	kv(os.Stdout, "order", fmt.Sprintf("%.3f", study.Order))

	if len(errs) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(errs,
			asciigraph.Height(8),
			asciigraph.Width(40),
			asciigraph.Caption("error per refinement"),
		))
	}
	return nil
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "grid-search run settings for the cheapest configuration within a bound",
		Long:  `Grid-search run settings. Each --grid entry is name=v1:v2:..., where name
is h, t_final, max_tolerance, min_step, max_step, newton_tolerance,
corrector_tolerance or a model parameter.`,
		Args: cobra.ExactArgs(1),
		RunE: runSweep,
	}
	addRunFlags(cmd.Flags())
	cmd.Flags().StringArray("grid", nil, "parameter grid (name=v1:v2:...)")
	cmd.Flags().String("metric", "evaluations", "metric to minimize")
	cmd.Flags().String("bound-metric", "global_error", "metric bounded by --bound")
	cmd.Flags().Float64("bound", 1e-4, "upper bound on --bound-metric")
	return cmd
}

func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, entry := range entries {
		name, list, ok := strings.Cut(entry, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("grid entry %q: want name=v1:v2:...", entry)
		}
		var values []float64
		for _, s := range strings.Split(list, ":") {
			val, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid entry %q: %w", entry, err)
			}
			values = append(values, val)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}
	grid, err := cmd.Flags().GetStringArray("grid")
	if err != nil {
		return err
	}
	if len(grid) == 0 {
		grid = []string{"h=0.2:0.1:0.05:0.025"}
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		return experiment.New(optim.Apply(base, params), experiment.WithLogger(logger))
	}
	metric := v.GetString("metric")
	constraint := optim.MaxMetric(v.GetString("bound-metric"), v.GetFloat64("bound"))

	best, points, searchErr := search.Search(ctx, build, metric, constraint)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\tFEASIBLE\n", strings.ToUpper(strings.Join(names, " ")), strings.ToUpper(metric))
	for _, p := range points {
		vals := make([]string, len(names))
		for i, n := range names {
			vals[i] = strconv.FormatFloat(p.Params[n], 'g', -1, 64)
		}
		feasible := fmt.Sprint(p.Feasible)
		if p.Err != nil {
			feasible = p.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%g\t%s\n", strings.Join(vals, " "), p.Value, feasible)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if searchErr != nil {
		return searchErr
	}

	fmt.Println()
	fmt.Println(OKStyle.Render("best"))
	for _, n := range names {
		kv(os.Stdout, n, best.Params[n])
	}
	kv(os.Stdout, metric, best.Value)
	return nil
}

func newLyapunovCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lyapunov [model]",
		Short: "estimate the largest lyapunov exponent",
		Args:  cobra.ExactArgs(1),
		RunE:  runLyapunov,
	}
	addRunFlags(cmd.Flags())
	cmd.Flags().Float64("duration", 50, "integration time")
	cmd.Flags().Float64("interval", 1, "renormalization interval")
	cmd.Flags().Float64("perturbation", 1e-8, "initial separation")
	return cmd
}

func runLyapunov(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	reg := experiment.NewRegistry(logger)
	model, err := reg.Model(cfg.Model, cfg.Params)
	if err != nil {
		return err
	}
	u0 := dynamo.State(cfg.GetInitState())
	if u0 == nil {
		u0 = model.DefaultState()
	}
	if _, err := reg.Stepper(cfg.Stepper, cfg); err != nil {
		return err
	}
	build := func() dynamo.Stepper {
		s, _ := reg.Stepper(cfg.Stepper, cfg)
		return s
	}

	lc := analysis.DefaultLyapunovConfig()
	lc.H = cfg.H
	lc.Duration = v.GetFloat64("duration")
	lc.Interval = v.GetFloat64("interval")
	lc.Perturbation = v.GetFloat64("perturbation")

	ctx, cancel := signalContext()
	defer cancel()

	lambda, err := analysis.LyapunovExponent(ctx, model, build, u0, lc)
	if err != nil {
		return err
	}

	fmt.Println(TitleStyle.Render(fmt.Sprintf("%s / %s", cfg.Model, cfg.Stepper)))
	kv(os.Stdout, "lambda", fmt.Sprintf("%.4f", lambda))
	switch {
	case lambda > 0.01:
		fmt.Println(WarnStyle.Render("  chaotic: nearby trajectories diverge"))
	case lambda < -0.01:
		fmt.Println(OKStyle.Render("  stable: nearby trajectories converge"))
	default:
		fmt.Println(Subtle.Render("  neutral"))
	}
	return nil
}
