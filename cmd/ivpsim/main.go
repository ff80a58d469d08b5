package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v      = viper.New()
	logger log.Logger
)

// main registers the ivpsim commands and executes the root command, exiting
// with status 1 on error.
func main() {
	// .env is optional
	_ = godotenv.Load()

	v.SetEnvPrefix("IVPSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "ivpsim",
		Short:         "initial value problem integration lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			var err error
			logger, err = newLogger(v.GetString("log-level"))
			return err
		},
	}

	rootCmd.PersistentFlags().String("data", ".ivpsim", "data directory")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newRunCmd(),
		newSteppersCmd(),
		newModelsCmd(),
		newPresetsCmd(),
		newListCmd(),
		newPlotCmd(),
		newPhaseCmd(),
		newExportCmd(),
		newCompareCmd(),
		newOrderCmd(),
		newSweepCmd(),
		newLyapunovCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func newLogger(lvl string) (log.Logger, error) {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = log.With(l, "ts", log.DefaultTimestampUTC)

	var allow level.Option
	switch strings.ToLower(lvl) {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "warn", "":
		allow = level.AllowWarn()
	case "error":
		allow = level.AllowError()
	default:
		return nil, fmt.Errorf("unknown log level %q", lvl)
	}
	return level.NewFilter(l, allow), nil
}
