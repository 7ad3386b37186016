package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"GameHarvester/internal/app"
	"GameHarvester/internal/domain"
)

// PoolOptions holds flags for the pool command.
type PoolOptions struct {
	*RootOptions
	Limit int
}

// NewPoolCommand creates the pool inspection command.
func NewPoolCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PoolOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Print the resolved player pool",
		Long: `Resolve the player pool the way a harvest run would: merge the configured
leaderboard categories with the fallback list and print the result ordered by
rating. Live fetch failures fall back to the static list silently.

Example:
  gameharvester pool
  gameharvester pool --limit 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderPool(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "show at most this many players (0 means all)")

	return cmd
}

func renderPool(cmd *cobra.Command, opts *PoolOptions) error {
	cfg, logger := loadConfig(opts.RootOptions)

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	players, err := app.BuildPool(cfg, logger).Pool(ctx, true)
	if err != nil {
		return fmt.Errorf("resolve pool: %w", err)
	}

	out := cmd.OutOrStdout()
	live := 0

	t := newTable(out, []string{"Handle", "Title", "Rating", "Category", "Source"})
	for i, p := range players {
		if opts.Limit > 0 && i >= opts.Limit {
			break
		}

		source := string(p.Source)
		if p.Source == domain.PlayerSourceLive {
			source = color.GreenString(source)
		} else {
			source = color.YellowString(source)
		}

		t.Append([]string{p.Handle, p.Title, strconv.Itoa(p.Rating), p.Category, source})
	}
	t.Render()

	for _, p := range players {
		if p.Source == domain.PlayerSourceLive {
			live++
		}
	}
	color.New(color.Faint).Fprintf(out, "\n%d players (%d live, %d fallback)\n",
		len(players), live, len(players)-live)
	return nil
}
