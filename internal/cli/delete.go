package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/store"
)

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	kinds := make([]string, len(store.Kinds))
	for i, k := range store.Kinds {
		kinds[i] = string(k)
	}

	return &cobra.Command{
		Use:   "delete <kind> <id>",
		Short: "Delete an entity and everything it owns",
		Long: fmt.Sprintf(`Delete an entity together with the rows it owns.

Kinds: %s.

Deleting a team removes its roster and its games. Deleting a player empties
the lineup rows it held; the slots stay. A formation still used by a team
or game cannot be deleted.

Examples:
  everyplayer delete game game_future_1
  everyplayer delete player player_evelyn`, strings.Join(kinds, ", ")),
		Args:          cobra.ExactArgs(2),
		ValidArgs:     kinds,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDelete(cmd, rootOpts, args[0], args[1])
		},
	}
}

func runDelete(cmd *cobra.Command, opts *RootOptions, kindArg, id string) error {
	kind, err := store.ParseKind(kindArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid kind", err)
	}
	err = opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		return e.Delete(ctx, kind, id)
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(messageView{Message: fmt.Sprintf("Deleted %s %s", kind, id), ID: id})
}
