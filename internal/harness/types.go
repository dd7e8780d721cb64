package harness

import (
	"github.com/roach88/slotform/internal/ir"
)

// TraceEvent records one executed turn.
type TraceEvent struct {
	Turn      int         `json:"turn"`
	Action    string      `json:"action"`
	Outcome   string      `json:"outcome"`
	Seq       int64       `json:"seq"`
	Events    []ir.Object `json:"events"`
	Responses []ir.Object `json:"responses"`
	Error     string      `json:"error,omitempty"`
}

// Templates returns the template names uttered in this turn, in order.
func (e TraceEvent) Templates() []string {
	var out []string
	for _, r := range e.Responses {
		if s, ok := r["template"].(ir.String); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Slots is the final slot map: the scenario's initial slots with
	// the journal replay applied on top.
	Slots ir.Object `json:"slots"`

	// ActiveForm is the form active after the last turn, or "".
	ActiveForm string `json:"active_form,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Slots:  ir.Object{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTurnTrace appends a turn to the trace.
func (r *Result) AddTurnTrace(ev TraceEvent) {
	if ev.Events == nil {
		ev.Events = []ir.Object{}
	}
	if ev.Responses == nil {
		ev.Responses = []ir.Object{}
	}
	r.Trace = append(r.Trace, ev)
}
