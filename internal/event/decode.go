package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/slotform/internal/ir"
)

// ErrMissingDiscriminator is returned when an object has no usable
// "event" field.
var ErrMissingDiscriminator = errors.New("event has no discriminator")

// Decode builds a typed Event from its wire object. Unknown
// discriminators decode to Raw.
func Decode(obj ir.Object) (Event, error) {
	kind, ok := obj["event"].(ir.String)
	if !ok || kind == "" {
		return nil, ErrMissingDiscriminator
	}

	switch string(kind) {
	case TypeForm:
		switch name := obj["name"].(type) {
		case nil, ir.Null:
			return Deactivate(), nil
		case ir.String:
			if name == "" {
				return Deactivate(), nil
			}
			return Activate(string(name)), nil
		default:
			return nil, fmt.Errorf("form event: name must be a string or null, got %T", name)
		}

	case TypeSlot:
		name, err := requireString(obj, "name")
		if err != nil {
			return nil, fmt.Errorf("slot event: %w", err)
		}
		v := obj["value"]
		if v == nil {
			v = ir.Null{}
		}
		return SlotSet{Name: name, Value: v}, nil

	case TypeUser:
		text, _ := obj["text"].(ir.String)
		parse, _ := obj["parse_data"].(ir.Object)
		return UserUttered{Text: string(text), ParseData: parse}, nil

	case TypeBot:
		text, _ := obj["text"].(ir.String)
		data, _ := obj["data"].(ir.Object)
		return BotUttered{Text: string(text), Data: data}, nil

	case TypeAction:
		name, err := requireString(obj, "name")
		if err != nil {
			return nil, fmt.Errorf("action event: %w", err)
		}
		policy, _ := obj["policy"].(ir.String)
		return ActionExecuted{Name: name, Policy: string(policy)}, nil

	case TypeFollowup:
		name, err := requireString(obj, "name")
		if err != nil {
			return nil, fmt.Errorf("followup event: %w", err)
		}
		return FollowupAction{Name: name}, nil
	}

	fields := obj.Clone()
	delete(fields, "event")
	return Raw{Event: string(kind), Fields: fields}, nil
}

func requireString(obj ir.Object, key string) (string, error) {
	s, ok := obj[key].(ir.String)
	if !ok || s == "" {
		return "", fmt.Errorf("missing %q", key)
	}
	return string(s), nil
}

// DecodeAll decodes a list of wire objects. Entries that fail to decode
// are dropped and logged; the rest keep their order.
func DecodeAll(objs []ir.Object, logger *slog.Logger) []Event {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]Event, 0, len(objs))
	for i, obj := range objs {
		e, err := Decode(obj)
		if err != nil {
			logger.Error("dropping event", "index", i, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out
}

// Sanitize drops events that have no discriminator and logs each one.
// Order of the remaining events is preserved.
func Sanitize(events []Event, logger *slog.Logger) []Event {
	if logger == nil {
		logger = slog.Default()
	}
	out := make([]Event, 0, len(events))
	for i, e := range events {
		if e == nil || e.Type() == "" {
			logger.Error("dropping event without discriminator", "index", i)
			continue
		}
		out = append(out, e)
	}
	return out
}

// List is an ordered event list with a JSON encoding.
type List []Event

// Objects renders every event as its wire object.
func (l List) Objects() []ir.Object {
	out := make([]ir.Object, len(l))
	for i, e := range l {
		out[i] = ToObject(e)
	}
	return out
}

// MarshalJSON implements json.Marshaler. Keys are sorted.
func (l List) MarshalJSON() ([]byte, error) {
	list := make(ir.List, len(l))
	for i, e := range l {
		list[i] = ToObject(e)
	}
	return list.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. It is strict: any entry
// without a discriminator fails the whole list.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(List, 0, len(raw))
	for i, r := range raw {
		v, err := ir.UnmarshalValue(r)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		obj, ok := v.(ir.Object)
		if !ok {
			return fmt.Errorf("event %d: expected object, got %T", i, v)
		}
		e, err := Decode(obj)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, e)
	}
	*l = out
	return nil
}

// MarshalCanonical renders events as canonical JSON for journaling and
// golden traces.
func MarshalCanonical(events []Event) ([]byte, error) {
	list := make(ir.List, len(events))
	for i, e := range events {
		list[i] = ToObject(e)
	}
	return ir.MarshalCanonical(list)
}
