// Package cli implements the momentum command-line interface using Cobra.
// Every subcommand opens the configured record store, performs one change or
// query through the tracker, and prints the result.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/productive-me/momentum/internal/api"
	"github.com/productive-me/momentum/internal/clock"
	"github.com/productive-me/momentum/internal/daemon"
)

var (
	configPath string
	verbose    bool
	noColor    bool
	jsonOutput bool

	// newClock is swapped in tests.
	newClock = clock.NewReal
)

var rootCmd = &cobra.Command{
	Use:   "momentum",
	Short: "Momentum: tasks, habits and spaced reviews with productivity insights",
	Long: `Momentum tracks tasks and habits, schedules spaced-repetition reviews of
finished work, and turns your history into metrics and ranked insights.

Data lives in ~/.momentum (override with MOMENTUM_HOME or --config).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.toml (default $MOMENTUM_HOME/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at the configured level instead of warn")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured output")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version
	api.Version = version

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig reads the config selected by --config. One-shot commands log
// at warn unless --verbose so progress lines are not drowned in JSON.
func loadConfig(oneShot bool) (daemon.Config, error) {
	path := configPath
	if path == "" {
		path = daemon.ConfigPath()
	}
	cfg, err := daemon.LoadConfigFrom(path)
	if err != nil {
		return cfg, err
	}
	if oneShot && !verbose && cfg.Logging.File == "" {
		cfg.Logging.Level = "warn"
	}
	return cfg, nil
}

// openDaemon wires the store and tracker for a one-shot command. Callers
// must Close the result.
func openDaemon(cmd *cobra.Command) (*daemon.Daemon, error) {
	cfg, err := loadConfig(true)
	if err != nil {
		return nil, err
	}
	return daemon.NewWithConfig(cmd.Context(), cfg, daemon.WithClock(newClock()))
}

// addJSONFlag registers --json on commands that can emit machine output.
func addJSONFlag(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of text")
}
