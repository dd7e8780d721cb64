package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/slotform/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, turn := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s -> %s", turn.Turn, turn.Action, turn.Outcome)
			for _, ev := range turn.Events {
				fmt.Fprintf(&buf, " %v", ir.ToAny(ev))
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// assertTraceContains checks that some event in the trace contains every
// key of the expected event (subset match).
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	want, err := toObject(assertion.Event)
	if err != nil {
		return fmt.Errorf("trace_contains: %w", err)
	}

	for _, turn := range trace {
		for _, ev := range turn.Events {
			if subsetMismatch(ev, want) == "" {
				return nil
			}
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event %v", ir.ToAny(want)),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the templates were uttered in the given
// order. They don't need to be consecutive.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	var uttered []string
	for _, turn := range trace {
		uttered = append(uttered, turn.Templates()...)
	}

	next := 0
	for _, tmpl := range uttered {
		if next < len(assertion.Templates) && tmpl == assertion.Templates[next] {
			next++
		}
	}
	if next == len(assertion.Templates) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("templates in order: %v", assertion.Templates),
		Actual:   fmt.Sprintf("uttered %v; %q not found in order", uttered, assertion.Templates[next]),
		Trace:    trace,
	}
}

// assertTraceCount checks that the action ran exactly Count times,
// counting only turns with the given outcome when one is set.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, turn := range trace {
		if turn.Action != assertion.Action {
			continue
		}
		if assertion.Outcome != "" && turn.Outcome != assertion.Outcome {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Action
		if assertion.Outcome != "" {
			what += " (" + assertion.Outcome + ")"
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d runs of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d runs", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks the slots rebuilt from the journal and,
// optionally, the active form.
func assertFinalState(result *Result, assertion Assertion) error {
	want, err := toObject(assertion.Slots)
	if err != nil {
		return fmt.Errorf("final_state: %w", err)
	}

	if mismatch := subsetMismatch(result.Slots, want); mismatch != "" {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: mismatch,
			Actual:   fmt.Sprintf("slots %v", ir.ToAny(result.Slots)),
		}
	}

	if assertion.Form != nil && *assertion.Form != result.ActiveForm {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("active form %q", *assertion.Form),
			Actual:   fmt.Sprintf("active form %q", result.ActiveForm),
		}
	}

	return nil
}

// subsetMismatch returns a description of the first key of want (in
// sorted order) that actual lacks or holds a different value for, or ""
// when actual contains all of want. A want of null matches a missing key.
func subsetMismatch(actual, want ir.Object) string {
	for _, key := range want.SortedKeys() {
		got, ok := actual[key]
		if !ok && !ir.IsNull(want[key]) {
			return fmt.Sprintf("%s = %v (missing)", key, ir.ToAny(want[key]))
		}
		if !ir.Equal(got, want[key]) {
			return fmt.Sprintf("%s = %v", key, ir.ToAny(want[key]))
		}
	}
	return ""
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
