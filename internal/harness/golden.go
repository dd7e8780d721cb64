package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/slotform/internal/ir"
)

// TraceSnapshot is the golden-file view of a scenario run. Turn IDs are
// left out: they are hashes of the snapshot's own fields.
type TraceSnapshot struct {
	ScenarioName   string       `json:"scenario_name"`
	ConversationID string       `json:"conversation_id,omitempty"`
	Trace          []TraceEvent `json:"trace"`
	FinalSlots     ir.Object    `json:"final_slots"`
}

// toCanonical converts the snapshot into an ir.Object for canonical JSON.
func (s *TraceSnapshot) toCanonical() ir.Object {
	trace := make(ir.List, len(s.Trace))
	for i, turn := range s.Trace {
		events := make(ir.List, len(turn.Events))
		for j, ev := range turn.Events {
			events[j] = ev
		}
		responses := make(ir.List, len(turn.Responses))
		for j, r := range turn.Responses {
			responses[j] = r
		}

		obj := ir.Object{
			"turn":      ir.Int(turn.Turn),
			"action":    ir.String(turn.Action),
			"outcome":   ir.String(turn.Outcome),
			"seq":       ir.Int(turn.Seq),
			"events":    events,
			"responses": responses,
		}
		if turn.Error != "" {
			obj["error"] = ir.String(turn.Error)
		}
		trace[i] = obj
	}

	out := ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"trace":         trace,
		"final_slots":   s.FinalSlots,
	}
	if s.ConversationID != "" {
		out["conversation_id"] = ir.String(s.ConversationID)
	}
	return out
}

// MarshalSnapshot renders a result as canonical JSON.
func MarshalSnapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName:   scenario.Name,
		ConversationID: scenario.ConversationID,
		Trace:          result.Trace,
		FinalSlots:     result.Slots,
	}
	if snapshot.FinalSlots == nil {
		snapshot.FinalSlots = ir.Object{}
	}
	return ir.MarshalCanonical(snapshot.toCanonical())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenario *Scenario, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenario, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, traceJSON)

	return nil
}
