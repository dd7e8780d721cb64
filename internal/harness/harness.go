package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/slotform/internal/compiler"
	"github.com/roach88/slotform/internal/engine"
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/form"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/store"
	"github.com/roach88/slotform/internal/testutil"
	"github.com/roach88/slotform/internal/tracker"
)

// Harness is the scenario execution engine. It drives a real executor
// with a deterministic clock and a fixed conversation ID.
type Harness struct {
	store    *store.Store
	executor *engine.Executor
	clock    *testutil.DeterministicClock
	tracker  *tracker.Tracker
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation.
//
// Execution flow:
//  1. Compile and validate the scenario's forms
//  2. Register one form action per compiled form
//  3. Run each turn, checking its expect clause
//  4. Rebuild the final state from the journal
//  5. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	specs, err := loadForms(scenario.Forms)
	if err != nil {
		return nil, err
	}

	conversationID := scenario.ConversationID
	if conversationID == "" {
		conversationID = testutil.DefaultConversationID
	}

	initial, err := toObject(scenario.Slots)
	if err != nil {
		return nil, fmt.Errorf("initial slots: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewDeterministicClock()
	exec := engine.NewExecutor(
		engine.WithJournal(st),
		engine.WithClock(clock),
		engine.WithTokenGenerator(testutil.NewFixedTokenGenerator(conversationID)),
		engine.WithLogger(logger),
	)
	for _, spec := range specs {
		if _, err := exec.RegisterForm(form.FromSpec(spec)); err != nil {
			return nil, fmt.Errorf("register form %q: %w", spec.Name, err)
		}
	}

	h := &Harness{
		store:    st,
		executor: exec,
		clock:    clock,
		tracker:  &tracker.Tracker{SenderID: conversationID, Slots: initial.Clone()},
		logger:   logger,
	}

	result := NewResult()
	for i, turn := range scenario.Turns {
		if err := h.executeTurn(ctx, i, turn, result); err != nil {
			return nil, fmt.Errorf("turn %d: %w", i, err)
		}
	}

	replayed, err := st.Replay(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("replay journal: %w", err)
	}
	result.Slots = initial.Clone()
	for k, v := range replayed.Slots {
		result.Slots[k] = v
	}
	result.ActiveForm = h.tracker.ActiveFormName()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func loadForms(paths []string) ([]form.Spec, error) {
	var specs []form.Spec
	for _, path := range paths {
		compiled, err := compiler.CompileFile(path)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", path, err)
		}
		specs = append(specs, compiled...)
	}
	if errs := compiler.ValidateAll(specs); len(errs) > 0 {
		return nil, fmt.Errorf("invalid forms: %w", errs[0])
	}
	return specs, nil
}

// executeTurn runs one action. A rejection is a normal outcome and is
// recorded in the trace; any other error aborts the scenario.
func (h *Harness) executeTurn(ctx context.Context, index int, turn Turn, result *Result) error {
	msg, err := turn.message()
	if err != nil {
		return err
	}
	h.tracker.LatestMessage = msg
	h.tracker.LatestActionName = turn.LatestAction
	if h.tracker.LatestActionName == "" {
		h.tracker.LatestActionName = tracker.ActionListen
	}

	resp, err := h.executor.Run(ctx, engine.Request{
		NextAction: turn.Action,
		Tracker:    h.tracker,
		Version:    engine.SupportedVersion,
	})

	trace := TraceEvent{Turn: index, Action: turn.Action}
	var rejection *form.RejectionError
	switch {
	case errors.As(err, &rejection):
		trace.Outcome = string(store.OutcomeRejected)
		trace.Error = rejection.Error()
	case err != nil:
		return err
	default:
		trace.Outcome = string(store.OutcomeEvents)
		trace.Events = resp.Events.Objects()
		trace.Responses = resp.Responses
		h.tracker.Apply(resp.Events...)
	}
	trace.Seq = h.clock.Current()
	result.AddTurnTrace(trace)

	h.logger.Info("turn completed",
		"turn", index,
		"action", turn.Action,
		"outcome", trace.Outcome,
		"seq", trace.Seq,
	)

	if turn.Expect != nil {
		if err := checkExpect(index, turn.Expect, trace, resp); err != nil {
			result.AddError(err.Error())
		}
	}
	return nil
}

func (t Turn) message() (tracker.Message, error) {
	msg := tracker.Message{Text: t.Text}
	if t.Intent != "" {
		msg.Intent = &tracker.Intent{Name: t.Intent, Confidence: 1}
	}
	for i, e := range t.Entities {
		v, err := ir.FromAny(e.Value)
		if err != nil {
			return tracker.Message{}, fmt.Errorf("entities[%d]: %w", i, err)
		}
		msg.Entities = append(msg.Entities, tracker.Entity{Entity: e.Entity, Value: v})
	}
	return msg, nil
}

func checkExpect(index int, expect *ExpectClause, trace TraceEvent, resp *engine.Response) error {
	if trace.Outcome != expect.Outcome {
		return &AssertionError{
			Type:     "expect",
			Expected: fmt.Sprintf("turn %d outcome %s", index, expect.Outcome),
			Actual:   fmt.Sprintf("outcome %s %s", trace.Outcome, trace.Error),
		}
	}

	if len(expect.Slots) > 0 {
		set := ir.Object{}
		if resp != nil {
			for _, e := range resp.Events {
				if s, ok := e.(event.SlotSet); ok {
					set[s.Name] = s.Value
				}
			}
		}
		want, err := toObject(expect.Slots)
		if err != nil {
			return fmt.Errorf("turn %d expect slots: %w", index, err)
		}
		if missing := subsetMismatch(set, want); missing != "" {
			return &AssertionError{
				Type:     "expect",
				Expected: fmt.Sprintf("turn %d to set %s", index, missing),
				Actual:   fmt.Sprintf("slot events %v", ir.ToAny(set)),
			}
		}
	}

	if expect.Templates != nil {
		got := trace.Templates()
		if !slices.Equal(got, expect.Templates) {
			return &AssertionError{
				Type:     "expect",
				Expected: fmt.Sprintf("turn %d templates %v", index, expect.Templates),
				Actual:   fmt.Sprintf("templates %v", got),
			}
		}
	}
	return nil
}

// toObject converts YAML-decoded values.
func toObject(m map[string]any) (ir.Object, error) {
	out := ir.Object{}
	for k, v := range m {
		val, err := ir.FromAny(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = val
	}
	return out, nil
}
