package form

import (
	"context"
	"slices"

	"github.com/roach88/slotform/internal/dispatch"
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/mapping"
	"github.com/roach88/slotform/internal/tracker"
)

// WrongValuePrefix prefixes the template uttered when a declarative
// allow-list rejects a value: "utter_wrong_<slot>".
const WrongValuePrefix = "utter_wrong_"

// Spec is a declarative form loaded from configuration rather than code.
type Spec struct {
	Name          string
	RequiredSlots []string
	Mappings      mapping.Table

	// Allowed restricts a slot to a fixed set of values. A value outside
	// the set clears the slot and utters "utter_wrong_<slot>".
	Allowed map[string][]ir.Value

	// SubmitTemplate, if set, is uttered on submission with the filled
	// slots as template variables.
	SubmitTemplate string
}

// FromSpec returns a Definition backed by spec.
func FromSpec(spec Spec) Definition {
	return &specForm{spec: spec}
}

type specForm struct {
	spec Spec
}

func (f *specForm) Name() string { return f.spec.Name }

func (f *specForm) RequiredSlots(*tracker.Tracker) []string {
	return slices.Clone(f.spec.RequiredSlots)
}

func (f *specForm) SlotMappings() mapping.Table {
	return f.spec.Mappings
}

func (f *specForm) RegisterValidators(v Validators) {
	for slot, allowed := range f.spec.Allowed {
		v.Register(slot, allowListValidator(slot, allowed))
	}
}

func (f *specForm) Submit(_ context.Context, d *dispatch.Dispatcher, t *tracker.Tracker, _ *tracker.Domain) ([]event.Event, error) {
	if f.spec.SubmitTemplate != "" {
		d.UtterTemplate(f.spec.SubmitTemplate, t.Slots.Clone())
	}
	return nil, nil
}

func allowListValidator(slot string, allowed []ir.Value) ValidateFunc {
	return func(_ context.Context, value ir.Value, d *dispatch.Dispatcher, _ *tracker.Tracker, _ *tracker.Domain) (ir.Object, error) {
		for _, a := range allowed {
			if ir.Equal(a, value) {
				return ir.Object{slot: value}, nil
			}
		}
		d.UtterTemplate(WrongValuePrefix+slot, nil)
		return ir.Object{slot: ir.Null{}}, nil
	}
}
