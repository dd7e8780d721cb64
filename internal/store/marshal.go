package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
)

// marshalEvents converts events to canonical JSON TEXT for storage.
func marshalEvents(events []event.Event) (string, error) {
	data, err := event.MarshalCanonical(events)
	if err != nil {
		return "", fmt.Errorf("marshal events: %w", err)
	}
	return string(data), nil
}

// marshalResponses converts reply payloads to canonical JSON TEXT.
func marshalResponses(responses []ir.Object) (string, error) {
	if responses == nil {
		responses = []ir.Object{}
	}
	data, err := ir.MarshalCanonical(responses)
	if err != nil {
		return "", fmt.Errorf("marshal responses: %w", err)
	}
	return string(data), nil
}

func unmarshalEvents(data string) ([]event.Event, error) {
	if data == "" || data == "[]" {
		return []event.Event{}, nil
	}
	var list event.List
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal events: %w", err)
	}
	return []event.Event(list), nil
}

func unmarshalResponses(data string) ([]ir.Object, error) {
	if data == "" || data == "[]" {
		return []ir.Object{}, nil
	}
	var list ir.List
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal responses: %w", err)
	}
	out := make([]ir.Object, len(list))
	for i, v := range list {
		obj, ok := v.(ir.Object)
		if !ok {
			return nil, fmt.Errorf("unmarshal responses: entry %d is %T, not an object", i, v)
		}
		out[i] = obj
	}
	return out, nil
}
