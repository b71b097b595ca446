package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbolet/every-player/internal/engine"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or migrate the database",
		Long: `Create the SQLite database at --db and bring its schema up to date.

Running init on an existing database is safe: only missing migrations are
applied.

Examples:
  everyplayer init
  everyplayer init --db ./league.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, rootOpts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *RootOptions) error {
	err := opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		return nil
	})
	if err != nil {
		return err
	}
	return opts.formatter(cmd).Success(messageView{
		Message: fmt.Sprintf("Initialized database %s", opts.DB),
		ID:      opts.DB,
	})
}
