package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/ivpsim/internal/analysis"
	"github.com/san-kum/ivpsim/internal/config"
	"github.com/san-kum/ivpsim/internal/experiment"
	"github.com/san-kum/ivpsim/internal/storage"
	"github.com/spf13/cobra"
)

func newSteppersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steppers",
		Short: "list available steppers",
		Run: func(cmd *cobra.Command, args []string) {
			reg := experiment.NewRegistry(logger)
			fmt.Println(HeaderStyle.Render("steppers"))
			for _, name := range reg.ListSteppers() {
				s, err := reg.Stepper(name, config.DefaultConfig())
				if err != nil {
					continue
				}
				fmt.Printf("  %-8s %s\n", name, Subtle.Render(fmt.Sprintf("history depth %d", s.HistoryDepth())))
			}
		},
	}
}

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "list available models",
		Run: func(cmd *cobra.Command, args []string) {
			reg := experiment.NewRegistry(logger)
			fmt.Println(HeaderStyle.Render("models"))
			for _, name := range reg.ListModels() {
				m, err := reg.Model(name, nil)
				if err != nil {
					continue
				}
				params := make([]string, 0)
				for k, val := range m.GetParams() {
					params = append(params, fmt.Sprintf("%s=%g", k, val))
				}
				sort.Strings(params)
				fmt.Printf("  %-16s %d odes  %s\n", name, m.NumODEs(), Subtle.Render(strings.Join(params, " ")))
			}
		},
	}
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [model]",
		Short: "list presets for a model",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for %s\n", args[0])
				return
			}
			fmt.Println(HeaderStyle.Render("presets for " + args[0]))
			for _, name := range presets {
				p := config.GetPreset(args[0], name)
				fmt.Printf("  %-12s %s\n", name, Subtle.Render(fmt.Sprintf("%s h=%g t=%g", p.Stepper, p.H, p.TFinal)))
			}
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(v.GetString("data"))
			runs, err := st.List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tSTEPPER\tH\tT\tSTEPS\tREJECTED\tEVALS\tCREATED")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%g\t%d\t%d\t%d\t%s\n",
					r.ID, r.Model, r.Stepper, r.H, r.TFinal, r.StepsTaken, r.Rejected, r.Evaluations,
					r.Timestamp.Format("2006-01-02 15:04"))
			}
			return w.Flush()
		},
	}
}

func newPlotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot [run-id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(v.GetString("data"))
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			result, err := st.LoadResult(args[0])
			if err != nil {
				return err
			}
			if len(result.States) == 0 {
				return fmt.Errorf("run %s has no states", args[0])
			}

			idx := v.GetInt("component")
			if idx < 0 || idx >= len(result.States[0]) {
				return fmt.Errorf("component %d outside state of length %d", idx, len(result.States[0]))
			}

			fmt.Println(TitleStyle.Render(fmt.Sprintf("%s / %s  (%s)", meta.Model, meta.Stepper, meta.ID)))
			fmt.Println(asciigraph.Plot(result.Component(idx),
				asciigraph.Height(v.GetInt("height")),
				asciigraph.Width(v.GetInt("width")),
				asciigraph.Caption(fmt.Sprintf("u%d vs time", idx)),
			))
			return nil
		},
	}
	cmd.Flags().Int("component", 0, "state component to plot")
	cmd.Flags().Int("height", 10, "plot height")
	cmd.Flags().Int("width", 80, "plot width")
	return cmd
}

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase [run-id]",
		Short: "draw a phase portrait or poincare section of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(v.GetString("data"))
			result, err := st.LoadResult(args[0])
			if err != nil {
				return err
			}

			x, y := v.GetInt("x"), v.GetInt("y")
			width, height := v.GetInt("width"), v.GetInt("height")

			if cmd.Flags().Changed("section") {
				section, err := analysis.NewPoincareSection(result, v.GetInt("section"), v.GetFloat64("threshold"), x, y)
				if err != nil {
					return err
				}
				fmt.Println(TitleStyle.Render(fmt.Sprintf("poincare section (%d crossings)", len(section.Points))))
				fmt.Println(analysis.PoincareSectionToASCII(section, width, height))
				return nil
			}

			portrait, err := analysis.NewPhasePortrait(result, x, y)
			if err != nil {
				return err
			}
			fmt.Println(TitleStyle.Render(fmt.Sprintf("phase portrait u%d vs u%d", y, x)))
			fmt.Println(analysis.PhasePortraitToASCII(portrait, width, height))
			return nil
		},
	}
	cmd.Flags().Int("x", 0, "horizontal component")
	cmd.Flags().Int("y", 1, "vertical component")
	cmd.Flags().Int("section", 0, "component whose upward crossings define a poincare section")
	cmd.Flags().Float64("threshold", 0, "poincare section level")
	cmd.Flags().Int("width", 60, "drawing width")
	cmd.Flags().Int("height", 20, "drawing height")
	return cmd
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "export a stored run as JSON or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(v.GetString("data"))
			meta, err := st.Load(args[0])
			if err != nil {
				return err
			}
			result, err := st.LoadResult(args[0])
			if err != nil {
				return err
			}

			out := v.GetString("output")
			toStdout := out == "" || out == "-"

			switch format := v.GetString("format"); format {
			case "json":
				if toStdout {
					return storage.ExportJSON(os.Stdout, meta.RunInfo, result)
				}
				if err := storage.ExportJSONFile(out, meta.RunInfo, result); err != nil {
					return err
				}
			case "svg":
				opts := storage.DefaultSVGOptions()
				opts.X, opts.Y = v.GetInt("x"), v.GetInt("y")
				if toStdout {
					return storage.ExportSVG(os.Stdout, result, opts)
				}
				if err := storage.ExportSVGFile(out, result, opts); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown export format %q", format)
			}
			fmt.Println(OKStyle.Render("exported ") + Subtle.Render(out))
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "output file (stdout when empty)")
	cmd.Flags().String("format", "json", "export format (json, svg)")
	cmd.Flags().Int("x", storage.TimeAxis, "svg horizontal component (-1 for time)")
	cmd.Flags().Int("y", 0, "svg vertical component")
	return cmd
}
