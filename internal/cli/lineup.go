package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rbolet/every-player/internal/engine"
)

// NewLineupCommand creates the lineup command.
func NewLineupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lineup <period>",
		Short: "Show who plays where in a period",
		Long: `Show a period's formation positions with their players, followed by the
bench, absent players and the number of empty slots.

A period is named by its id or as <game>/<number>.

Examples:
  everyplayer lineup game_future_1/1
  everyplayer lineup game_future_1/3 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLineup(cmd, rootOpts, args[0])
		},
	}
}

func runLineup(cmd *cobra.Command, opts *RootOptions, ref string) error {
	var view lineupView
	err := opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		p, err := e.ResolvePeriod(ctx, ref)
		if err != nil {
			return err
		}
		l, err := e.Lineup(ctx, p.ID)
		if err != nil {
			return err
		}
		view = newLineupView(l)
		return nil
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(view)
}
