package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"GameHarvester/internal/app"
	"GameHarvester/internal/planner"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Batches int
}

// NewPlanCommand creates the plan inspection command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the upcoming batch windows and player rotations",
		Long: `Show what the next harvest run would do: the historical window each batch
covers and where the player rotation starts, against the pool resolved right
now. Nothing is fetched from the games endpoint.

Example:
  gameharvester plan
  gameharvester plan --batches 20`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return renderPlan(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Batches, "batches", 10, "number of batches to preview")

	return cmd
}

func renderPlan(cmd *cobra.Command, opts *PlanOptions) error {
	cfg, logger := loadConfig(opts.RootOptions)

	plannerCfg, err := app.PlannerConfig(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	players, err := app.BuildPool(cfg, logger).Pool(ctx, true)
	if err != nil {
		return fmt.Errorf("resolve pool: %w", err)
	}

	out := cmd.OutOrStdout()
	today := time.Now().UTC()

	t := newTable(out, []string{"Batch", "Window Start", "Window End", "Offset", "Leadoff"})
	for batch := 1; batch <= opts.Batches; batch++ {
		plan := planner.Plan(plannerCfg, batch, players, today)
		leadoff := ""
		if len(plan.Players) > 0 {
			leadoff = plan.Players[0].Handle
		}
		t.Append([]string{
			strconv.Itoa(batch),
			plan.WindowStart.Format("2006-01-02"),
			plan.WindowEnd.Format("2006-01-02"),
			strconv.Itoa(planner.Offset(plannerCfg, batch, len(players))),
			leadoff,
		})
	}
	t.Render()

	color.New(color.Faint).Fprintf(out, "\npool of %d players, %d per batch, %d games per player\n",
		len(players), plannerCfg.PlayersPerBatch, plannerCfg.PerPlayerCap)
	return nil
}
