package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rbolet/every-player/internal/engine"
)

// PlaytimeOptions holds flags for the playtime command.
type PlaytimeOptions struct {
	*RootOptions
	Team string
}

// NewPlaytimeCommand creates the playtime command.
func NewPlaytimeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlaytimeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "playtime [game]",
		Short: "Report periods played per player",
		Long: `Report how many periods each rostered player played, sat on the bench or
missed. Only ACTUAL rows count.

For a game the percentage is periods played over the game's planned
periods, so overtime can exceed 100%. With --team the report covers every
ACTUAL home game of the team.

Examples:
  everyplayer playtime game_past_1
  everyplayer playtime --team team_teal_penguins --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (opts.Team != "") {
				return NewExitError(ExitCommandError, "give exactly one of <game> or --team")
			}
			game := ""
			if len(args) == 1 {
				game = args[0]
			}
			return runPlaytime(cmd, opts, game)
		},
	}

	cmd.Flags().StringVar(&opts.Team, "team", "", "report across the team's played games")

	return cmd
}

func runPlaytime(cmd *cobra.Command, opts *PlaytimeOptions, gameID string) error {
	var report engine.PlayingTimeReport
	err := opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		var err error
		if gameID != "" {
			report, err = e.GameReport(ctx, gameID)
		} else {
			report, err = e.TeamReport(ctx, opts.Team)
		}
		return err
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(playtimeView{report: report})
}
