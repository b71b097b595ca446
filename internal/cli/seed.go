package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed [dataset]",
		Short: "Load a dataset into the database",
		Long: `Load divisions, formations, players, teams and games from a dataset.

Without an argument the built-in U10 dataset is loaded. A dataset is a YAML
file, a .cue file, or a directory holding one CUE package. Every dataset is
checked against the dataset schema before anything is written.

Entries are created one at a time, parents first. On a rejection the
entries before it stay in the database.

Examples:
  everyplayer seed
  everyplayer seed ./datasets/fall.yaml
  everyplayer seed ./datasets/u8/`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, rootOpts, args)
		},
	}
}

func runSeed(cmd *cobra.Command, opts *RootOptions, args []string) error {
	source := "built-in dataset"
	var (
		ds  *seed.Dataset
		err error
	)
	if len(args) == 1 {
		source = args[0]
		ds, err = seed.Load(source)
	} else {
		ds, err = seed.Default()
	}
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to load %s", source), err)
	}

	var summary seed.Summary
	err = opts.withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
		summary, err = seed.Apply(ctx, e, ds)
		return err
	})
	if err != nil {
		return fmt.Errorf("seed %s: %w", source, err)
	}
	return opts.formatter(cmd).Success(seedView{Source: source, Summary: summary})
}
