// Package event defines the ordered state-change records a form run emits.
//
// Event is a sealed sum type. Form and SlotSet are produced by the form
// engine; the remaining kinds are passthrough markers that share the same
// output stream. Raw carries any other discriminator unchanged.
package event

import (
	"github.com/roach88/slotform/internal/ir"
)

// Discriminators written to the "event" field on the wire.
const (
	TypeForm     = "form"
	TypeSlot     = "slot"
	TypeUser     = "user"
	TypeBot      = "bot"
	TypeAction   = "action"
	TypeFollowup = "followup"
)

// Event is one state change. Order within a list is significant: later
// events override earlier ones when replayed against a tracker.
type Event interface {
	// Type returns the wire discriminator.
	Type() string

	// fields returns the payload without the discriminator.
	fields() ir.Object
}

// Form activates the named form. A nil or empty Name deactivates.
type Form struct {
	Name *string
}

// Type implements Event.
func (Form) Type() string { return TypeForm }

func (e Form) fields() ir.Object {
	if e.Name == nil {
		return ir.Object{"name": ir.Null{}}
	}
	return ir.Object{"name": ir.String(*e.Name)}
}

// IsDeactivation reports whether the event clears the active form.
func (e Form) IsDeactivation() bool {
	return e.Name == nil || *e.Name == ""
}

// Activate returns a Form event naming the form.
func Activate(name string) Form {
	return Form{Name: &name}
}

// Deactivate returns a Form event with a null name.
func Deactivate() Form {
	return Form{}
}

// SlotSet assigns Value to the slot. ir.Null{} (or nil) clears it.
type SlotSet struct {
	Name  string
	Value ir.Value
}

// Type implements Event.
func (SlotSet) Type() string { return TypeSlot }

func (e SlotSet) fields() ir.Object {
	v := e.Value
	if v == nil {
		v = ir.Null{}
	}
	return ir.Object{"name": ir.String(e.Name), "value": v}
}

// Set is shorthand for SlotSet{Name: name, Value: v}.
func Set(name string, v ir.Value) SlotSet {
	return SlotSet{Name: name, Value: v}
}

// Clear returns a SlotSet that resets the slot to null.
func Clear(name string) SlotSet {
	return SlotSet{Name: name, Value: ir.Null{}}
}

// UserUttered marks a user message.
type UserUttered struct {
	Text      string
	ParseData ir.Object
}

// Type implements Event.
func (UserUttered) Type() string { return TypeUser }

func (e UserUttered) fields() ir.Object {
	out := ir.Object{"text": ir.String(e.Text)}
	if e.ParseData != nil {
		out["parse_data"] = e.ParseData
	}
	return out
}

// BotUttered marks a bot message.
type BotUttered struct {
	Text string
	Data ir.Object
}

// Type implements Event.
func (BotUttered) Type() string { return TypeBot }

func (e BotUttered) fields() ir.Object {
	out := ir.Object{"text": ir.String(e.Text)}
	if e.Data != nil {
		out["data"] = e.Data
	}
	return out
}

// ActionExecuted marks that an action ran.
type ActionExecuted struct {
	Name   string
	Policy string
}

// Type implements Event.
func (ActionExecuted) Type() string { return TypeAction }

func (e ActionExecuted) fields() ir.Object {
	out := ir.Object{"name": ir.String(e.Name)}
	if e.Policy != "" {
		out["policy"] = ir.String(e.Policy)
	}
	return out
}

// FollowupAction asks the dialogue manager to run Name next.
type FollowupAction struct {
	Name string
}

// Type implements Event.
func (FollowupAction) Type() string { return TypeFollowup }

func (e FollowupAction) fields() ir.Object {
	return ir.Object{"name": ir.String(e.Name)}
}

// Raw is an event kind the engine does not model (restart, undo, reminder
// and friends). It round-trips unchanged. An empty Event is invalid and
// is dropped by Sanitize.
type Raw struct {
	Event  string
	Fields ir.Object
}

// Type implements Event.
func (e Raw) Type() string { return e.Event }

func (e Raw) fields() ir.Object {
	if e.Fields == nil {
		return ir.Object{}
	}
	return e.Fields
}

// ToObject renders an event as its wire object with the "event"
// discriminator added.
func ToObject(e Event) ir.Object {
	out := e.fields().Clone()
	out["event"] = ir.String(e.Type())
	return out
}
