package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rbolet/every-player/internal/config"
	"github.com/rbolet/every-player/internal/engine"
	"github.com/rbolet/every-player/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	DB         string
	Format     string // "json" | "text"
	Verbose    bool

	// Logger is built from the resolved settings before a command runs.
	Logger *zap.Logger

	// EngineOptions are appended to the engine options of every command.
	// Used for testing.
	EngineOptions []engine.Option
}

// NewRootCommand creates the root command for the everyplayer CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "everyplayer",
		Short: "Every Player - lineups and fair playing time for youth soccer",
		Long: `Keep rosters, plan period-by-period lineups and track playing time
for youth soccer teams.

Settings come from, in increasing priority: defaults, everyplayer.yaml
(or --config), EVERYPLAYER_* environment variables, and flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath, cmd.Flags())
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid configuration", err)
			}
			opts.DB = cfg.DB
			opts.Format = cfg.Format
			opts.Verbose = cfg.Verbose
			opts.Logger = logging.New(cmd.ErrOrStderr(), cfg.Verbose)
			if cfg.File != "" {
				opts.Logger.Debug("config loaded", zap.String("file", cfg.File))
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.DB, "db", config.DefaultDB, "path to the SQLite database")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./everyplayer.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", config.DefaultFormat, "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewRosterCommand(opts))
	cmd.AddCommand(NewLineupCommand(opts))
	cmd.AddCommand(NewAssignCommand(opts))
	cmd.AddCommand(NewSwapCommand(opts))
	cmd.AddCommand(NewAbsentCommand(opts))
	cmd.AddCommand(NewPlaytimeCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are rendered in the selected format: JSON on stdout, text on stderr.
func Execute(args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) || !exitErr.Reported {
		f := &OutputFormatter{Format: opts.Format, Writer: stderr, Verbose: opts.Verbose}
		if f.Format == "json" {
			f.Writer = stdout
		} else {
			f.Format = "text"
		}
		_ = f.Fail(err)
	}
	return GetExitCode(err)
}
