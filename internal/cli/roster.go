package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rbolet/every-player/internal/engine"
)

// NewRosterCommand creates the roster command.
func NewRosterCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roster <team>",
		Short: "List a team's players",
		Long: `List the players on a team, ordered by jersey number with unnumbered
players last, then by name.

Examples:
  everyplayer roster team_teal_penguins
  everyplayer roster team_teal_penguins --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoster(cmd, rootOpts, args[0])
		},
	}
}

func runRoster(cmd *cobra.Command, opts *RootOptions, teamID string) error {
	var view rosterView
	err := opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		team, err := e.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		entries, err := e.ListRoster(ctx, teamID)
		if err != nil {
			return err
		}
		view = newRosterView(team, entries)
		return nil
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(view)
}
