package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbolet/every-player/internal/engine"
)

// AbsentOptions holds flags for the absent command.
type AbsentOptions struct {
	*RootOptions
	Clear bool
}

// NewAbsentCommand creates the absent command.
func NewAbsentCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AbsentOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "absent <game> <player>",
		Short: "Mark a player absent for a whole game",
		Long: `Record that a player will miss a game. Every row the player holds in the
game's periods becomes ABSENT and gives up its position.

--clear removes the absence record. The ABSENT rows stay; reassign the
player with assign to bring them back.

Examples:
  everyplayer absent game_future_1 player_evelyn
  everyplayer absent game_future_1 player_evelyn --clear`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAbsent(cmd, opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.Clear, "clear", false, "remove the absence instead")

	return cmd
}

func runAbsent(cmd *cobra.Command, opts *AbsentOptions, gameID, playerID string) error {
	var view messageView
	err := opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		if opts.Clear {
			if err := e.ClearAbsence(ctx, gameID, playerID); err != nil {
				return err
			}
			view = messageView{Message: fmt.Sprintf("Cleared absence of %s from %s", playerID, gameID)}
			return nil
		}
		a, err := e.MarkAbsent(ctx, gameID, playerID)
		if err != nil {
			return err
		}
		view = messageView{Message: fmt.Sprintf("Marked %s absent from %s", playerID, gameID), ID: a.ID}
		return nil
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(view)
}
