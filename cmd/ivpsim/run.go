package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ivpsim/internal/config"
	"github.com/san-kum/ivpsim/internal/experiment"
	"github.com/san-kum/ivpsim/internal/sim"
	"github.com/san-kum/ivpsim/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addRunFlags registers the flags shared by every command that builds runs.
func addRunFlags(fs *pflag.FlagSet) {
	fs.String("stepper", config.DefaultStepper, "stepper name")
	fs.Float64("h", config.DefaultH, "step size / output interval")
	fs.Float64("t0", 0, "initial time")
	fs.Float64("t-final", config.DefaultTFinal, "final time")
	fs.Float64Slice("init", nil, "initial state (comma separated)")
	fs.StringToString("param", nil, "model parameters (name=value,...)")
	fs.Bool("fixed-output", true, "land adaptive steppers on every multiple of h")
	fs.Float64("max-tolerance", 0, "adaptive error tolerance")
	fs.Float64("min-step", 0, "adaptive minimum step")
	fs.Float64("max-step", 0, "adaptive maximum step")
	fs.String("controller", "", "adaptive step-size controller (proportional, half_double, pi)")
	fs.String("norm", "", "adaptive error norm (inf, l2)")
	fs.Float64("newton-tol", 0, "newton absolute tolerance")
	fs.String("linear-solver", "", "newton linear solver (lu, qr)")
	fs.String("jacobian", "", "jacobian source (fd, analytic)")
	fs.Bool("reuse-jacobian", false, "factorize the newton jacobian once per step")
	fs.String("config", "", "config file path (yaml)")
	fs.String("preset", "", "use preset configuration")
}

// buildConfig layers defaults, preset, YAML file, then flags and IVPSIM_*
// environment variables.
func buildConfig(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	cfg.Model = model

	if name := v.GetString("preset"); name != "" {
		p := config.GetPreset(model, name)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets(model))
		}
		cfg = p
	}

	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if model != "" {
			cfg.Model = model
		}
	}

	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if v.IsSet(key) {
			*dst = v.GetFloat64(key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	setString("stepper", &cfg.Stepper)
	setFloat("h", &cfg.H)
	setFloat("t0", &cfg.T0)
	setFloat("t-final", &cfg.TFinal)
	setBool("fixed-output", &cfg.FixedOutput)
	setFloat("max-tolerance", &cfg.Adaptive.MaxTolerance)
	setFloat("min-step", &cfg.Adaptive.MinStep)
	setFloat("max-step", &cfg.Adaptive.MaxStep)
	setString("controller", &cfg.Adaptive.Controller)
	setString("norm", &cfg.Adaptive.Norm)
	setFloat("newton-tol", &cfg.Newton.AbsTolerance)
	setString("linear-solver", &cfg.Newton.LinearSolver)
	setString("jacobian", &cfg.Newton.Jacobian)
	setBool("reuse-jacobian", &cfg.Newton.ReuseJacobian)

	if cmd.Flags().Changed("init") {
		state, err := cmd.Flags().GetFloat64Slice("init")
		if err != nil {
			return nil, err
		}
		cfg.InitState = state
	}
	if cmd.Flags().Changed("param") {
		raw, err := cmd.Flags().GetStringToString("param")
		if err != nil {
			return nil, err
		}
		if cfg.Params == nil {
			cfg.Params = make(map[string]float64, len(raw))
		}
		for k, s := range raw {
			val, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("param %s: %w", k, err)
			}
			cfg.Params[k] = val
		}
	}

	return cfg, cfg.Validate()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runInfo(cfg *config.Config) storage.RunInfo {
	return storage.RunInfo{
		Model:        cfg.Model,
		Stepper:      cfg.Stepper,
		H:            cfg.H,
		T0:           cfg.T0,
		TFinal:       cfg.TFinal,
		MaxTolerance: cfg.Adaptive.MaxTolerance,
		MinStep:      cfg.Adaptive.MinStep,
		Params:       cfg.Params,
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run simulation",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(cmd.Flags())
	cmd.Flags().Bool("no-save", false, "do not store the run")
	cmd.Flags().Bool("plot", false, "plot the first component")
	cmd.Flags().Bool("live", false, "show a live progress view (q to stop)")
	return cmd
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	opts := []experiment.Option{experiment.WithLogger(logger)}
	var live *liveRun
	if v.GetBool("live") {
		live = newLiveRun(cfg.T0, cfg.TFinal, cancel)
		opts = append(opts, experiment.WithObservers(live))
	}

	exp, err := experiment.New(cfg, opts...)
	if err != nil {
		return err
	}

	var (
		result *sim.Result
		runErr error
	)
	start := time.Now()
	if live != nil {
		result, runErr = live.run(ctx, exp)
	} else {
		fmt.Println(TitleStyle.Render(fmt.Sprintf("%s / %s", cfg.Model, exp.Stepper().Name())))
		result, runErr = exp.Run(ctx)
	}
	elapsed := time.Since(start)

	printResult(result, elapsed)
	if runErr != nil {
		fmt.Println(WarnStyle.Render("run stopped early; partial result above"))
	}

	if result != nil && len(result.States) > 0 && v.GetBool("plot") {
		fmt.Println()
		fmt.Println(asciigraph.Plot(result.Component(0),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("u0 vs time"),
		))
	}

	if result != nil && !v.GetBool("no-save") {
		st := storage.New(v.GetString("data"))
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runInfo(cfg), result)
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(OKStyle.Render("saved ") + Subtle.Render(runID))
	}
	return runErr
}

func printResult(result *sim.Result, elapsed time.Duration) {
	if result == nil {
		return
	}
	w := os.Stdout
	kv(w, "outputs", len(result.Times))
	kv(w, "steps", result.StepsTaken)
	if result.Rejected > 0 {
		kv(w, "rejected", result.Rejected)
	}
	kv(w, "evaluations", result.Evaluations)
	kv(w, "elapsed", elapsed.Round(time.Microsecond))
	if final := result.Final(); final != nil {
		kv(w, "final", formatState(final))
		kv(w, "u0", sparkline(result.Component(0), 60))
	}

	if len(result.Metrics) == 0 {
		return
	}
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, name := range names {
		fmt.Fprintf(tw, "%s\t%.6g\n", name, result.Metrics[name])
	}
	tw.Flush()
}

func formatState(u []float64) string {
	parts := make([]string, len(u))
	for i, x := range u {
		parts[i] = strconv.FormatFloat(x, 'g', 8, 64)
	}
	if len(parts) > 6 {
		parts = append(parts[:6], "...")
	}
	return "[" + strings.Join(parts, " ") + "]"
}
