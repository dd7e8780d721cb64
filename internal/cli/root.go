package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/slotform/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config seeds flag defaults from the environment.
	Config config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the slotform CLI.
func NewRootCommand() *cobra.Command {
	cfg, cfgErr := config.Load()
	opts := &RootOptions{Config: cfg}

	cmd := &cobra.Command{
		Use:   "slotform",
		Short: "slotform - slot-filling dialogue forms",
		Long: `Run slot-filling forms for a dialogue manager.

Forms are declared in CUE, executed one turn at a time against a
conversation snapshot, and every turn can be journaled to SQLite for
replay and tracing.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Error:", cfgErr)
				return WrapExitError(ExitCommandError, "invalid environment", cfgErr)
			}
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			level := opts.Config.LogLevel
			if opts.Verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formsDirArg returns the positional forms directory, falling back to the
// configured default when it was omitted.
func formsDirArg(opts *RootOptions, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return opts.Config.FormsDir
}
