package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/slotform/internal/ir"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{
			Turn: 0, Action: "restaurant_form", Outcome: "events", Seq: 1,
			Events: []ir.Object{
				{"event": ir.String("form"), "name": ir.String("restaurant_form")},
				{"event": ir.String("slot"), "name": ir.String("requested_slot"), "value": ir.String("cuisine")},
			},
			Responses: []ir.Object{{"template": ir.String("utter_ask_cuisine")}},
		},
		{Turn: 1, Action: "restaurant_form", Outcome: "rejected", Seq: 2, Error: "failed"},
		{
			Turn: 2, Action: "restaurant_form", Outcome: "events", Seq: 3,
			Events: []ir.Object{
				{"event": ir.String("slot"), "name": ir.String("cuisine"), "value": ir.String("thai")},
			},
			Responses: []ir.Object{
				{"text": ir.String("noted")},
				{"template": ir.String("utter_ask_num_people")},
			},
		},
	}
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{
		Event: map[string]any{"event": "slot", "name": "cuisine"},
	}))
	assert.NoError(t, assertTraceContains(trace, Assertion{
		Event: map[string]any{"name": "cuisine", "value": "thai"},
	}))

	err := assertTraceContains(trace, Assertion{
		Event: map[string]any{"name": "cuisine", "value": "italian"},
	})
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AssertTraceContains, ae.Type)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), "[1] restaurant_form -> rejected")
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{
		Templates: []string{"utter_ask_cuisine", "utter_ask_num_people"},
	}))

	err := assertTraceOrder(trace, Assertion{
		Templates: []string{"utter_ask_num_people", "utter_ask_cuisine"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"utter_ask_cuisine" not found in order`)

	err = assertTraceOrder(trace, Assertion{Templates: []string{"utter_submit"}})
	require.Error(t, err)
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "restaurant_form", Count: 3}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "restaurant_form", Outcome: "rejected", Count: 1}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "other", Count: 0}))

	err := assertTraceCount(trace, Assertion{Action: "restaurant_form", Outcome: "events", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 runs of restaurant_form (events)")
	assert.Contains(t, err.Error(), "Actual: 2 runs")
}

func TestAssertFinalState(t *testing.T) {
	result := NewResult()
	result.Slots = ir.Object{"cuisine": ir.String("thai"), "requested_slot": ir.Null{}}
	result.ActiveForm = "restaurant_form"

	active := "restaurant_form"
	none := ""

	tests := []struct {
		name    string
		a       Assertion
		wantErr string
	}{
		{"subset", Assertion{Slots: map[string]any{"cuisine": "thai"}}, ""},
		{"null matches null", Assertion{Slots: map[string]any{"requested_slot": nil}}, ""},
		{"null matches missing", Assertion{Slots: map[string]any{"num_people": nil}}, ""},
		{"form", Assertion{Form: &active}, ""},
		{"wrong value", Assertion{Slots: map[string]any{"cuisine": "italian"}}, "cuisine = italian"},
		{"missing slot", Assertion{Slots: map[string]any{"num_people": 2}}, "(missing)"},
		{"type mismatch", Assertion{Slots: map[string]any{"cuisine": 1}}, "cuisine = 1"},
		{"no form expected", Assertion{Form: &none}, `active form ""`},
		{"float mismatch", Assertion{Slots: map[string]any{"x": 1.5}}, "x = 1.5 (missing)"},
		{"non-finite rejected", Assertion{Slots: map[string]any{"x": math.Inf(1)}}, "non-finite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertFinalState(result, tt.a)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Action: "restaurant_form", Count: 3},
		{Type: AssertTraceCount, Action: "restaurant_form", Count: 9},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "trace_count")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}

func TestResult_AddError(t *testing.T) {
	result := NewResult()
	assert.True(t, result.Pass)

	result.AddError("boom")
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"boom"}, result.Errors)
}

func TestTraceEvent_Templates(t *testing.T) {
	trace := sampleTrace()
	assert.Equal(t, []string{"utter_ask_cuisine"}, trace[0].Templates())
	assert.Nil(t, trace[1].Templates())
	assert.Equal(t, []string{"utter_ask_num_people"}, trace[2].Templates())
}
