package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/slotform/internal/store"
)

// Scenario is a scripted conversation against one or more forms.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Forms lists CUE files to compile and register.
	// Paths are relative to the scenario file location.
	Forms []string `yaml:"forms"`

	// ConversationID fixes the sender ID. Defaults to
	// testutil.DefaultConversationID.
	ConversationID string `yaml:"conversation_id,omitempty"`

	// Slots seeds the conversation before the first turn.
	Slots map[string]any `yaml:"slots,omitempty"`

	Turns      []Turn      `yaml:"turns"`
	Assertions []Assertion `yaml:"assertions"`
}

// Turn is one user message followed by one action run.
type Turn struct {
	// Action is the registered action to run.
	Action string `yaml:"action"`

	Intent   string       `yaml:"intent,omitempty"`
	Entities []EntityStep `yaml:"entities,omitempty"`
	Text     *string      `yaml:"text,omitempty"`

	// LatestAction is the action that ran before this one.
	// Defaults to action_listen.
	LatestAction string `yaml:"latest_action,omitempty"`

	// Expect, if set, is checked right after the turn.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// EntityStep is one extracted entity of the latest message.
type EntityStep struct {
	Entity string `yaml:"entity"`
	Value  any    `yaml:"value"`
}

// ExpectClause specifies what a single turn must produce.
type ExpectClause struct {
	// Outcome is "events" or "rejected".
	Outcome string `yaml:"outcome"`

	// Slots must each be set by a SlotSet event in this turn.
	// Subset match: other SlotSets are ignored.
	Slots map[string]any `yaml:"slots,omitempty"`

	// Templates is the exact ordered list of templates uttered.
	// Nil skips the check; an empty list expects no templates.
	Templates []string `yaml:"templates,omitempty"`
}

// Assertion validates the whole trace or the final state.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Event is a subset of an event object (trace_contains).
	Event map[string]any `yaml:"event,omitempty"`

	// Templates is the expected template order (trace_order).
	Templates []string `yaml:"templates,omitempty"`

	// Action and Outcome select turns to count (trace_count).
	Action  string `yaml:"action,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`
	Count   int    `yaml:"count,omitempty"`

	// Slots is a subset of the final slot map (final_state).
	Slots map[string]any `yaml:"slots,omitempty"`

	// Form is the expected active form after the last turn, "" for none
	// (final_state). Nil skips the check.
	Form *string `yaml:"form,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file, resolving form
// paths relative to the file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath is LoadScenario with form paths resolved
// against basePath instead.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, formPath := range scenario.Forms {
		if !filepath.IsAbs(formPath) && basePath != "" {
			scenario.Forms[i] = filepath.Join(basePath, formPath)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Forms) == 0 {
		return fmt.Errorf("forms list is required and must be non-empty")
	}

	if len(s.Turns) == 0 {
		return fmt.Errorf("turns list is required and must be non-empty")
	}

	for _, formPath := range s.Forms {
		if _, err := os.Stat(formPath); os.IsNotExist(err) {
			return fmt.Errorf("form file not found: %s", formPath)
		}
	}

	for i, turn := range s.Turns {
		if turn.Action == "" {
			return fmt.Errorf("turns[%d]: action is required", i)
		}
		for j, e := range turn.Entities {
			if e.Entity == "" {
				return fmt.Errorf("turns[%d].entities[%d]: entity is required", i, j)
			}
		}
		if turn.Expect != nil && !validOutcome(turn.Expect.Outcome) {
			return fmt.Errorf("turns[%d].expect: outcome must be %q or %q", i, store.OutcomeEvents, store.OutcomeRejected)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validOutcome(o string) bool {
	return o == string(store.OutcomeEvents) || o == string(store.OutcomeRejected)
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if len(a.Event) == 0 {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Templates) == 0 {
			return fmt.Errorf("assertions[%d]: templates list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
		if a.Outcome != "" && !validOutcome(a.Outcome) {
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
	case AssertFinalState:
		if len(a.Slots) == 0 && a.Form == nil {
			return fmt.Errorf("assertions[%d]: slots or form is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
