// Package harness runs multi-turn conversation scenarios against compiled
// forms and checks the resulting trace.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: restaurant_happy_path
//	description: "Fills both slots and submits"
//	forms:
//	  - ../forms/restaurant.cue
//	conversation_id: conv-1
//	slots: { cuisine: null }
//	turns:
//	  - action: restaurant_form
//	    intent: inform
//	    entities:
//	      - { entity: cuisine, value: thai }
//	    expect:
//	      outcome: events
//	      slots: { cuisine: thai }
//	      templates: [utter_ask_num_people]
//	assertions:
//	  - type: trace_contains
//	    event: { event: slot, name: cuisine, value: thai }
//	  - type: final_state
//	    slots: { cuisine: thai }
//	    form: ""
//
// Each turn sets the latest message from intent, entities and text, runs
// the named action and, unless rejected, applies the returned events to
// the conversation before the next turn. latest_action defaults to
// action_listen.
//
// # Assertion Types
//
//   - trace_contains: an event object in the trace matches the subset
//   - trace_order: the listed templates were uttered in that order
//   - trace_count: the action ran exactly count times (optionally with an outcome)
//   - final_state: slots rebuilt from the turn journal match the subset;
//     form, when present, names the active form ("" for none)
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory journal with a
// testutil.DeterministicClock and a fixed conversation ID, so the same
// scenario always produces a byte-identical golden trace.
package harness
