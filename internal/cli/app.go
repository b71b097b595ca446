package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/store"
)

func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{Format: o.Format, Writer: cmd.OutOrStdout(), Verbose: o.Verbose}
}

// withEngine opens the database, runs fn against an engine over it and
// closes the database again.
func (o *RootOptions) withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	if o.DB == "" {
		return NewExitError(ExitCommandError, "no database: set --db or EVERYPLAYER_DB")
	}
	st, err := store.Open(o.DB)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			o.logger().Warn("close database", zap.String("db", o.DB), zap.Error(err))
		}
	}()

	opts := append([]engine.Option{engine.WithLogger(o.logger())}, o.EngineOptions...)
	e, err := engine.New(st, opts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to start engine", err)
	}
	return fn(ctx, e)
}

// optional maps an unset string flag to nil.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
