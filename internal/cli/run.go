package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/slotform/internal/engine"
	"github.com/roach88/slotform/internal/form"
	"github.com/roach88/slotform/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Request  string
	Database string

	// TokenGenerator overrides the conversation ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.TokenGenerator
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [forms-dir]",
		Short: "Execute one action request against the forms",
		Long: `Execute a single action request against the forms in a directory.

The request is the JSON envelope a dialogue manager sends:

  {"next_action": "restaurant_form", "sender_id": "...",
   "tracker": {...}, "domain": {...}, "version": "1.4.0"}

The response envelope {"events": [...], "responses": [...]} is printed.
A rejected turn prints {"error": ..., "action_name": ...} and exits 1.
With --db every turn is appended to the SQLite journal.

Examples:
  slotform run ./forms --request turn.json
  slotform run ./forms --request - --db ./turns.db < turn.json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(opts, formsDirArg(rootOpts, args), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Request, "request", "r", "", "path to request JSON, or - for stdin (required)")
	_ = cmd.MarkFlagRequired("request")
	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.Database, "path to SQLite turn journal (optional)")

	return cmd
}

func runRequest(opts *RunOptions, formsDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	req, err := readRequest(opts.Request, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeBadRequest, err.Error(), nil)
	}

	specs, err := loadValidForms(formsDir)
	if err != nil {
		code := ErrCodeGeneric
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code = loadErr.Code
		}
		return formatter.Fail(ExitCommandError, code, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %d form(s) from %s", len(specs), formsDir)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	execOpts := []engine.Option{engine.WithLogger(slog.Default())}
	if opts.TokenGenerator != nil {
		execOpts = append(execOpts, engine.WithTokenGenerator(opts.TokenGenerator))
	}
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to open journal: %v", err), nil)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing journal", "error", closeErr)
			}
		}()

		// Resume the sequence so new turns sort after existing ones.
		clock, err := engine.ResumeClock(ctx, st)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to read journal: %v", err), nil)
		}
		execOpts = append(execOpts, engine.WithJournal(st), engine.WithClock(clock))
		formatter.VerboseLog("Journal %s at seq %d", opts.Database, clock.Current())
	}

	exec := engine.NewExecutor(execOpts...)
	for _, spec := range specs {
		if _, err := exec.RegisterForm(form.FromSpec(spec)); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
		}
	}

	resp, err := exec.Run(ctx, *req)
	if err != nil {
		return reportRunError(formatter, err)
	}

	if formatter.IsJSON() {
		return formatter.encode(CLIResponse{Status: "ok", Data: resp})
	}
	return writeIndented(formatter.Writer, resp)
}

func reportRunError(f *OutputFormatter, err error) error {
	var rejection *form.RejectionError
	if errors.As(err, &rejection) {
		envelope := engine.NewRejectionResponse(rejection)
		if f.IsJSON() {
			if encErr := f.encode(CLIResponse{
				Status: "error",
				Data:   envelope,
				Error:  &CLIError{Code: "REJECTED", Message: rejection.Error()},
			}); encErr != nil {
				return encErr
			}
		} else if encErr := writeIndented(f.Writer, envelope); encErr != nil {
			return encErr
		}
		return WrapExitError(ExitFailure, "turn rejected", err)
	}

	var runtimeErr *engine.RuntimeError
	if errors.As(err, &runtimeErr) {
		return f.Fail(ExitCommandError, string(runtimeErr.Code), runtimeErr.Message, nil)
	}
	return f.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
}

// readRequest decodes the request envelope from a file or, for "-", from stdin.
func readRequest(path string, stdin io.Reader) (*engine.Request, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read request: %w", err)
	}

	var req engine.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
