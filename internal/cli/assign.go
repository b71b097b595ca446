package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/model"
)

// AssignOptions holds flags for the assign command.
type AssignOptions struct {
	*RootOptions
	Player   string
	Position string
	Row      string
	Status   string
}

// NewAssignCommand creates the assign command.
func NewAssignCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AssignOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "assign <period>",
		Short: "Put a player on a position or the bench",
		Long: `Write one lineup row of a period.

Without --row the row is chosen in this order: the row already holding
--position (its player is replaced), the player's bench row when a
position is given, the oldest empty slot, and finally a new slot within
the period's budget. --row targets one row directly; use it to move a
player who already holds a position.

Leaving out --position benches the player. Leaving out --player clears
the position. The write is rejected when it would put two players on one
position or one player in two rows.

Exit codes:
  0 - Row written
  1 - Rejected (conflict, validation or missing reference)
  2 - Command error

Examples:
  everyplayer assign game_future_1/1 --player player_emma --position pos_gk
  everyplayer assign game_future_1/1 --player player_ava
  everyplayer assign game_future_1/2 --row 0190c4d2-... --position pos_fwd
  everyplayer assign game_future_1/4 --player player_mia --position pos_fwd --status ACTUAL`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssign(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Player, "player", "", "player id")
	cmd.Flags().StringVar(&opts.Position, "position", "", "position id (omit to bench)")
	cmd.Flags().StringVar(&opts.Row, "row", "", "assignment row id to write")
	cmd.Flags().StringVar(&opts.Status, "status", string(model.AssignmentProjected), "row status (PROJECTED|ACTUAL|ABSENT)")

	return cmd
}

func runAssign(cmd *cobra.Command, opts *AssignOptions, ref string) error {
	status, err := model.ParseAssignmentStatus(opts.Status)
	if err != nil {
		return model.NewValidationError("status", "%v", err)
	}

	var row model.GamePlayerAssignment
	err = opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		p, err := e.ResolvePeriod(ctx, ref)
		if err != nil {
			return err
		}
		row, err = e.Assign(ctx, engine.AssignInput{
			PeriodID:     p.ID,
			AssignmentID: opts.Row,
			PlayerID:     optional(opts.Player),
			PositionID:   optional(opts.Position),
			Status:       status,
		})
		return err
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(newAssignmentView(row))
}

// SwapOptions holds flags for the swap command.
type SwapOptions struct {
	*RootOptions
	Rows bool
}

// NewSwapCommand creates the swap command.
func NewSwapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SwapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "swap <period> <a> <b>",
		Short: "Exchange two players' rows in a period",
		Long: `Exchange the players of two rows in one period. Positions stay with the
rows, so a field player and a bench player trade places.

<a> and <b> are player ids. With --rows they are assignment row ids, which
also lets a player move into an empty slot.

Examples:
  everyplayer swap game_future_1/2 player_emma player_olivia
  everyplayer swap game_future_1/2 --rows <row-a> <row-b>`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSwap(cmd, opts, args[0], args[1], args[2])
		},
	}

	cmd.Flags().BoolVar(&opts.Rows, "rows", false, "treat <a> and <b> as assignment row ids")

	return cmd
}

func runSwap(cmd *cobra.Command, opts *SwapOptions, ref, a, b string) error {
	var view swapView
	err := opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		p, err := e.ResolvePeriod(ctx, ref)
		if err != nil {
			return err
		}
		rowA, rowB := a, b
		if !opts.Rows {
			ra, err := e.AssignmentFor(ctx, p.ID, a)
			if err != nil {
				return err
			}
			rb, err := e.AssignmentFor(ctx, p.ID, b)
			if err != nil {
				return err
			}
			rowA, rowB = ra.ID, rb.ID
		}
		ra, rb, err := e.SwapPlayers(ctx, p.ID, rowA, rowB)
		if err != nil {
			return err
		}
		view = swapView{A: newAssignmentView(ra), B: newAssignmentView(rb)}
		return nil
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(view)
}
