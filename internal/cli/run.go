package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"GameHarvester/internal/app"
)

// defaultDaemonIntervalMinutes applies when --daemon is given but the config
// carries no interval.
const defaultDaemonIntervalMinutes = 60

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Daemon bool
	Ops    bool
}

// NewRunCommand creates the harvest run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute harvest batches until nothing new turns up",
		Long: `Run the harvest loop: resolve the player pool, plan a historical window
per batch, fetch each player's games under the rate-limit budget and publish
the accepted ones to the configured sink. The run stops on its own once the
configured number of consecutive batches yielded nothing new.

Example:
  gameharvester run
  gameharvester run --ops --daemon`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarvest(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Daemon, "daemon", false, "keep re-running on the configured interval")
	cmd.Flags().BoolVar(&opts.Ops, "ops", false, "serve /status and /metrics while running")

	return cmd
}

func runHarvest(opts *RunOptions) error {
	cfg, logger := loadConfig(opts.RootOptions)

	if opts.Daemon {
		if cfg.Scheduler.IntervalMinutes <= 0 {
			cfg.Scheduler.IntervalMinutes = defaultDaemonIntervalMinutes
		}
	} else {
		cfg.Scheduler.IntervalMinutes = 0
	}
	if opts.Ops {
		cfg.Ops.Enabled = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
