package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database       string
	ConversationID string // optional - specific conversation only
}

// ReplayConversation is the rebuilt state of one conversation.
type ReplayConversation struct {
	ConversationID string    `json:"conversation_id"`
	Turns          int       `json:"turns"`
	LastSeq        int64     `json:"last_seq"`
	Slots          ir.Object `json:"slots"`
	ActiveForm     string    `json:"active_form,omitempty"`
	Deterministic  bool      `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Conversations    []ReplayConversation `json:"conversations"`
	Total            int                  `json:"total"`
	AllDeterministic bool                 `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild slot state from the turn journal",
		Long: `Rebuild each conversation's slot map by applying its journaled
events in sequence order.

Every turn's content digest is checked while reading. The journal is
replayed twice and the two results compared, so a tampered or
non-deterministic journal is reported.

Exit codes:
  0 - All conversations replayed deterministically
  1 - Digest mismatch or replay differences detected
  2 - Command error (database not found, etc.)

Examples:
  slotform replay --db ./turns.db
  slotform replay --db ./turns.db --conversation user-42
  slotform replay --db ./turns.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.Database, "path to SQLite turn journal (required)")
	if rootOpts.Config.Database == "" {
		_ = cmd.MarkFlagRequired("db")
	}
	cmd.Flags().StringVarP(&opts.ConversationID, "conversation", "c", "", "replay one conversation only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openJournal(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, err.Error(), nil)
	}
	defer st.Close()

	summaries, err := st.ListConversations(ctx)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to list conversations: %v", err), nil)
	}
	if opts.ConversationID != "" {
		summaries = filterConversation(summaries, opts.ConversationID)
		if len(summaries) == 0 {
			return formatter.Fail(ExitCommandError, ErrCodeNotFound, "conversation not found: "+opts.ConversationID, nil)
		}
	}

	result := ReplayResult{
		Conversations:    make([]ReplayConversation, 0, len(summaries)),
		Total:            len(summaries),
		AllDeterministic: true,
	}
	for _, summary := range summaries {
		conv, err := replayConversation(ctx, st, summary)
		if err != nil {
			var mismatch *store.DigestMismatchError
			if errors.As(err, &mismatch) {
				return formatter.Fail(ExitFailure, "DIGEST_MISMATCH", err.Error(), nil)
			}
			return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to replay %s: %v", summary.ConversationID, err), nil)
		}
		formatter.VerboseLog("replayed %s: %d turn(s)", conv.ConversationID, conv.Turns)
		result.Conversations = append(result.Conversations, conv)
		if !conv.Deterministic {
			result.AllDeterministic = false
		}
	}

	if formatter.IsJSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if !result.AllDeterministic {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "NON_DETERMINISTIC", Message: "replay results differ"}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else {
		writeReplayText(formatter, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay results differ")
	}
	return nil
}

// replayConversation replays a conversation twice and compares the
// rebuilt slot maps and active form.
func replayConversation(ctx context.Context, st *store.Store, summary store.ConversationSummary) (ReplayConversation, error) {
	first, err := st.Replay(ctx, summary.ConversationID)
	if err != nil {
		return ReplayConversation{}, err
	}
	second, err := st.Replay(ctx, summary.ConversationID)
	if err != nil {
		return ReplayConversation{}, err
	}

	return ReplayConversation{
		ConversationID: summary.ConversationID,
		Turns:          summary.Turns,
		LastSeq:        summary.LastSeq,
		Slots:          first.Slots,
		ActiveForm:     first.ActiveFormName(),
		Deterministic: ir.Equal(first.Slots, second.Slots) &&
			first.ActiveFormName() == second.ActiveFormName(),
	}, nil
}

func filterConversation(summaries []store.ConversationSummary, id string) []store.ConversationSummary {
	for _, s := range summaries {
		if s.ConversationID == id {
			return []store.ConversationSummary{s}
		}
	}
	return nil
}

// openJournal opens an existing journal read-only. The stat turns
// SQLite's "unable to open database file" into a clearer message.
func openJournal(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found: %s", path)
		}
		return nil, fmt.Errorf("error accessing database: %w", err)
	}
	st, err := store.Open(path, store.ReadOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

func writeReplayText(f *OutputFormatter, result ReplayResult) {
	w := f.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No conversations found in journal.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d conversation(s)\n\n", result.Total)
	for _, conv := range result.Conversations {
		mark := markOK
		if !conv.Deterministic {
			mark = markFail
		}
		fmt.Fprintf(w, "%s Conversation: %s (%d turn(s), last seq %d)\n", mark, conv.ConversationID, conv.Turns, conv.LastSeq)
		if conv.ActiveForm != "" {
			fmt.Fprintf(w, "  Active form: %s\n", conv.ActiveForm)
		}
		for _, k := range conv.Slots.SortedKeys() {
			b, err := ir.MarshalValue(conv.Slots[k])
			if err != nil {
				b = []byte("?")
			}
			fmt.Fprintf(w, "  %s = %s\n", k, b)
		}
		if !conv.Deterministic {
			fmt.Fprintln(w, "  Warning: replay results differ")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintf(w, "%s All conversations replayed deterministically\n", markOK)
		return
	}
	fmt.Fprintf(w, "%s Replay verification failed\n", markFail)
}
