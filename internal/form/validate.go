package form

import (
	"context"
	"fmt"

	"github.com/roach88/slotform/internal/dispatch"
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/tracker"
)

// ValidateFunc validates and converts one extracted value. It returns the
// final slot assignments, usually just the validated slot, though it may
// also set or clear other slots. Returning ir.Null{} for the slot rejects
// the value.
type ValidateFunc func(ctx context.Context, value ir.Value, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) (ir.Object, error)

// Validators maps slot names to their validator.
type Validators map[string]ValidateFunc

// Register sets the validator for slot, replacing any previous one.
func (v Validators) Register(slot string, fn ValidateFunc) {
	v[slot] = fn
}

// Validate runs registered validators over raw and returns one SlotSet
// per resulting slot.
//
// Raw values are visited in sorted key order. Validator outputs merge
// last writer wins and then override the raw values; a slot with no
// validator, or whose validator did not return it, keeps its raw value.
// Events come out in sorted slot order.
func (v Validators) Validate(ctx context.Context, raw ir.Object, d *dispatch.Dispatcher, t *tracker.Tracker, dom *tracker.Domain) ([]event.Event, error) {
	output := ir.Object{}
	for _, slot := range raw.SortedKeys() {
		fn, ok := v[slot]
		if !ok {
			continue
		}
		result, err := fn(ctx, raw[slot], d, t, dom)
		if err != nil {
			return nil, fmt.Errorf("validate slot %q: %w", slot, err)
		}
		for k, val := range result {
			output[k] = val
		}
	}

	merged := raw.Clone()
	for k, val := range output {
		merged[k] = val
	}

	events := make([]event.Event, 0, len(merged))
	for _, slot := range merged.SortedKeys() {
		events = append(events, event.Set(slot, merged[slot]))
	}
	return events, nil
}
