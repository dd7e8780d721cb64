// Package tracker holds the conversation snapshot a form reads from and
// the passive domain record passed through to validators.
package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
)

const (
	// RequestedSlot is the sentinel slot naming the slot currently asked for.
	RequestedSlot = "requested_slot"

	// ActionListen is the action that waits for the next user message.
	ActionListen = "action_listen"
)

// Intent is a recognized intent. Confidence is classifier output and
// never flows into slot values or hashes.
type Intent struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Entity is one extracted entity occurrence.
type Entity struct {
	Entity string   `json:"entity"`
	Value  ir.Value `json:"value"`
	Start  int64    `json:"start,omitempty"`
	End    int64    `json:"end,omitempty"`
	Role   string   `json:"role,omitempty"`
	Group  string   `json:"group,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler; Value goes through
// ir.UnmarshalValue so numbers keep their Int or Float type.
func (e *Entity) UnmarshalJSON(data []byte) error {
	type plain Entity
	var aux struct {
		plain
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*e = Entity(aux.plain)
	if len(aux.Value) == 0 {
		e.Value = ir.Null{}
		return nil
	}
	v, err := ir.UnmarshalValue(aux.Value)
	if err != nil {
		return fmt.Errorf("entity %q: %w", e.Entity, err)
	}
	e.Value = v
	return nil
}

// Message is the latest parsed user message.
type Message struct {
	Intent        *Intent  `json:"intent,omitempty"`
	IntentRanking []Intent `json:"intent_ranking,omitempty"`
	Entities      []Entity `json:"entities,omitempty"`
	Text          *string  `json:"text,omitempty"`
}

// ActiveForm describes the form currently driving the conversation.
type ActiveForm struct {
	Name string `json:"name,omitempty"`

	// Validate defaults to true when nil.
	Validate *bool `json:"validate,omitempty"`

	Rejected bool `json:"rejected,omitempty"`

	// TriggerMessage is the message in effect when the form was triggered.
	TriggerMessage *Message `json:"trigger_message,omitempty"`
}

// ShouldValidate reports the validate flag, defaulting to true.
func (f *ActiveForm) ShouldValidate() bool {
	return f.Validate == nil || *f.Validate
}

// Tracker is the conversation snapshot for one sender.
//
// Only Slots is mutated by the engine, and only on a Clone. Every other
// field is shared read-only between a tracker and its clones.
type Tracker struct {
	SenderID         string      `json:"sender_id"`
	Slots            ir.Object   `json:"slots"`
	LatestMessage    Message     `json:"latest_message"`
	LatestActionName string      `json:"latest_action_name,omitempty"`
	ActiveForm       *ActiveForm `json:"active_form,omitempty"`
	Paused           bool        `json:"paused,omitempty"`
	FollowupAction   string      `json:"followup_action,omitempty"`
}

// Slot returns the slot value and whether the key is present.
func (t *Tracker) Slot(name string) (ir.Value, bool) {
	v, ok := t.Slots[name]
	return v, ok
}

// HasSlotValue reports whether the slot is present and not null.
func (t *Tracker) HasSlotValue(name string) bool {
	v, ok := t.Slots[name]
	return ok && !ir.IsNull(v)
}

// SetSlot overwrites the slot value.
func (t *Tracker) SetSlot(name string, v ir.Value) {
	if t.Slots == nil {
		t.Slots = ir.Object{}
	}
	if v == nil {
		v = ir.Null{}
	}
	t.Slots[name] = v
}

// RequestedSlotName returns the requested-slot sentinel, or "" when no
// slot is being requested.
func (t *Tracker) RequestedSlotName() string {
	s, _ := t.Slots[RequestedSlot].(ir.String)
	return string(s)
}

// LatestIntent returns the latest intent name, or "" when absent.
func (t *Tracker) LatestIntent() string {
	if t.LatestMessage.Intent == nil {
		return ""
	}
	return t.LatestMessage.Intent.Name
}

// LatestEntityValues returns the values of every occurrence of the
// entity in the latest message, in occurrence order.
func (t *Tracker) LatestEntityValues(entity string) []ir.Value {
	var out []ir.Value
	for _, e := range t.LatestMessage.Entities {
		if e.Entity == entity {
			out = append(out, e.Value)
		}
	}
	return out
}

// LatestText returns the latest message text.
func (t *Tracker) LatestText() (string, bool) {
	if t.LatestMessage.Text == nil {
		return "", false
	}
	return *t.LatestMessage.Text, true
}

// LastExecutedAction returns the name of the last executed action.
func (t *Tracker) LastExecutedAction() string {
	return t.LatestActionName
}

// HasActiveForm reports whether any form is active.
func (t *Tracker) HasActiveForm() bool {
	return t.ActiveForm != nil && t.ActiveForm.Name != ""
}

// ActiveFormName returns the active form name or "".
func (t *Tracker) ActiveFormName() string {
	if t.ActiveForm == nil {
		return ""
	}
	return t.ActiveForm.Name
}

// Clone returns a tracker whose slot map can be mutated without affecting
// t. Message, active form and the remaining fields are shared.
func (t *Tracker) Clone() *Tracker {
	c := *t
	c.Slots = t.Slots.Clone()
	return &c
}

// Apply replays events against the tracker in order. SlotSet overwrites,
// Form replaces the active form, ActionExecuted and FollowupAction update
// their markers. Other kinds are ignored.
func (t *Tracker) Apply(events ...event.Event) {
	for _, e := range events {
		switch ev := e.(type) {
		case event.SlotSet:
			t.SetSlot(ev.Name, ev.Value)
		case event.Form:
			if ev.IsDeactivation() {
				t.ActiveForm = nil
			} else {
				t.ActiveForm = &ActiveForm{Name: *ev.Name}
			}
		case event.ActionExecuted:
			t.LatestActionName = ev.Name
		case event.FollowupAction:
			t.FollowupAction = ev.Name
		}
	}
}
