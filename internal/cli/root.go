// Package cli implements the gameharvester command tree.
package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"GameHarvester/internal/config"
	"GameHarvester/internal/logging"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	Verbose bool
}

// NewRootCommand creates the root command for the harvester CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "gameharvester",
		Short: "Pull rated chess games into the storefront ingest pipeline",
		Long: `gameharvester walks a top-player pool through deterministic historical
windows, fetching each player's games one call at a time under a shared
rate-limit budget, and publishes the usable ones downstream.

Configuration is read from the file named by GAME_HARVESTER_CONFIG, with
environment variables taking precedence over the file.`,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewPoolCommand(opts))

	return cmd
}

// loadConfig resolves configuration and the base logger for a command.
func loadConfig(opts *RootOptions) (config.Config, *slog.Logger) {
	cfg := config.Load()
	if opts.Verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, logging.New(cfg.Logging.Level, cfg.Logging.Format)
}
