package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/slotform/internal/dispatch"
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database       string
	ConversationID string
	Action         string // optional - filter to specific action
}

// TraceTurn is one journaled turn in the timeline.
type TraceTurn struct {
	Seq       int64       `json:"seq"`
	ID        string      `json:"id"`
	Action    string      `json:"action"`
	Outcome   string      `json:"outcome"`
	Events    []ir.Object `json:"events"`
	Templates []string    `json:"templates,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Turns    int `json:"turns"`
	Rejected int `json:"rejected"`
	SlotSets int `json:"slot_sets"`
	Prompts  int `json:"prompts"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	ConversationID string      `json:"conversation_id"`
	Timeline       []TraceTurn `json:"timeline"`
	Stats          TraceStats  `json:"stats"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journaled turns of a conversation",
		Long: `Show every journaled turn of one conversation in sequence order:
the action that ran, its outcome, the events it produced and the
templates it uttered.

Examples:
  slotform trace --db ./turns.db --conversation user-42
  slotform trace --db ./turns.db --conversation user-42 --action restaurant_form
  slotform trace --db ./turns.db --conversation user-42 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", rootOpts.Config.Database, "path to SQLite turn journal (required)")
	if rootOpts.Config.Database == "" {
		_ = cmd.MarkFlagRequired("db")
	}
	cmd.Flags().StringVarP(&opts.ConversationID, "conversation", "c", "", "conversation to trace (required)")
	_ = cmd.MarkFlagRequired("conversation")
	cmd.Flags().StringVar(&opts.Action, "action", "", "filter to one action name")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
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

	turns, err := st.ReadTurns(ctx, opts.ConversationID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeJournal, fmt.Sprintf("failed to read turns: %v", err), nil)
	}
	if len(turns) == 0 {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, "conversation not found: "+opts.ConversationID, nil)
	}

	result := buildTrace(opts.ConversationID, turns, opts.Action)

	if formatter.IsJSON() {
		return formatter.encode(CLIResponse{Status: "ok", Data: result})
	}
	writeTraceText(formatter, result)
	return nil
}

func buildTrace(conversationID string, turns []store.Turn, action string) TraceResult {
	result := TraceResult{ConversationID: conversationID, Timeline: []TraceTurn{}}
	for _, turn := range turns {
		if action != "" && turn.ActionName != action {
			continue
		}

		tt := TraceTurn{
			Seq:     turn.Seq,
			ID:      turn.ID,
			Action:  turn.ActionName,
			Outcome: string(turn.Outcome),
			Events:  event.List(turn.Events).Objects(),
			Error:   turn.Error,
		}
		for _, r := range turn.Responses {
			if s, ok := r[dispatch.KeyTemplate].(ir.String); ok {
				tt.Templates = append(tt.Templates, string(s))
			}
		}

		result.Stats.Turns++
		if turn.Outcome == store.OutcomeRejected {
			result.Stats.Rejected++
		}
		for _, ev := range turn.Events {
			if _, ok := ev.(event.SlotSet); ok {
				result.Stats.SlotSets++
			}
		}
		result.Stats.Prompts += len(tt.Templates)
		result.Timeline = append(result.Timeline, tt)
	}
	return result
}

func writeTraceText(f *OutputFormatter, result TraceResult) {
	w := f.Writer
	fmt.Fprintf(w, "Conversation: %s\n\n", result.ConversationID)

	for _, turn := range result.Timeline {
		mark := markOK
		if turn.Outcome == string(store.OutcomeRejected) {
			mark = markFail
		}
		fmt.Fprintf(w, "[%d] %s %s (%s)\n", turn.Seq, mark, turn.Action, turn.Outcome)
		for _, ev := range turn.Events {
			fmt.Fprintf(w, "  %s\n", describeEvent(ev))
		}
		if len(turn.Templates) > 0 {
			fmt.Fprintf(w, "  utter: %s\n", strings.Join(turn.Templates, ", "))
		}
		if turn.Error != "" {
			fmt.Fprintf(w, "  error: %s\n", turn.Error)
		}
		if f.Verbose {
			fmt.Fprintf(w, "  id: %s\n", turn.ID)
		}
	}

	fmt.Fprintf(w, "\n%d turn(s), %d rejected, %d slot set(s), %d prompt(s)\n",
		result.Stats.Turns, result.Stats.Rejected, result.Stats.SlotSets, result.Stats.Prompts)
}

// describeEvent renders an event object as "kind key=value ...", keys sorted.
func describeEvent(obj ir.Object) string {
	var b strings.Builder
	if kind, ok := obj["event"].(ir.String); ok {
		b.WriteString(string(kind))
	}
	for _, k := range obj.SortedKeys() {
		if k == "event" {
			continue
		}
		v, err := ir.MarshalValue(obj[k])
		if err != nil {
			v = []byte("?")
		}
		fmt.Fprintf(&b, " %s=%s", k, v)
	}
	return b.String()
}
