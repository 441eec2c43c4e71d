package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/spikenet/internal/config"
	"github.com/nvandessel/spikenet/internal/logging"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "spikenet",
		Short: "Spiking neural network simulator",
		Long: `spikenet runs layered leaky integrate-and-fire networks.

Each layer runs in its own worker; layers advance in lock-step, one input
tick at a time, and the final layer's spikes are counted per neuron.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory (output files must live under it)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.spikenet/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newValidateCmd(),
		newGraphCmd(),
		newArrangeCmd(),
		newCountCmd(),
		newHistoryCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

// loadConfig resolves the effective configuration for a command: file,
// then environment, then the --log-level flag.
func loadConfig(cmd *cobra.Command) (*config.SpikenetConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.SpikenetConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}
