package mapping

import (
	"log/slog"
	"slices"

	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/tracker"
)

// Table maps slot names to their ordered mapping lists.
type Table map[string][]SlotMapping

// Validate checks every mapping in the table, in sorted slot order.
func (tb Table) Validate() error {
	slots := make([]string, 0, len(tb))
	for slot := range tb {
		slots = append(slots, slot)
	}
	slices.Sort(slots)

	for _, slot := range slots {
		if err := checkMappings(slot, tb[slot]); err != nil {
			return err
		}
	}
	return nil
}

func checkMappings(slot string, mappings []SlotMapping) error {
	for _, m := range mappings {
		if !m.kind.Valid() {
			return &ConfigError{Slot: slot, Kind: m.kind, Message: "incompatible slot mapping"}
		}
	}
	return nil
}

// Resolver extracts slot values from a tracker using a mapping table.
// It only reads the tracker.
type Resolver struct {
	table  Table
	logger *slog.Logger
}

// NewResolver returns a resolver over table. A nil logger uses slog.Default.
func NewResolver(table Table, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{table: table, logger: logger}
}

// Candidates returns the ordered mappings for slot. A slot missing from
// the table resolves to a single entity mapping named after the slot.
func (r *Resolver) Candidates(slot string) ([]SlotMapping, error) {
	mappings, ok := r.table[slot]
	if !ok {
		return []SlotMapping{{kind: KindEntity, entity: slot}}, nil
	}
	if err := checkMappings(slot, mappings); err != nil {
		return nil, err
	}
	return mappings, nil
}

// ExtractRequested extracts the slot named by the requested-slot sentinel.
// The first eligible mapping yielding a non-null value wins; the result
// is empty when none does or when no slot is requested.
func (r *Resolver) ExtractRequested(t *tracker.Tracker) (ir.Object, error) {
	slot := t.RequestedSlotName()
	if slot == "" {
		return ir.Object{}, nil
	}
	r.logger.Debug("extracting requested slot", "slot", slot)

	mappings, err := r.Candidates(slot)
	if err != nil {
		return nil, err
	}

	intent := t.LatestIntent()
	for _, m := range mappings {
		if !m.Eligible(intent) {
			continue
		}

		var value ir.Value
		switch m.kind {
		case KindEntity:
			value = firstEntityValue(t, m.entity)
		case KindIntent:
			value = m.value
		case KindText:
			if text, ok := t.LatestText(); ok {
				value = ir.String(text)
			}
		case KindTriggerIntent:
			// Only filled on activation, never as the requested slot.
			continue
		default:
			return nil, &ConfigError{Slot: slot, Kind: m.kind, Message: "unsupported slot mapping type"}
		}

		if !ir.IsNull(value) {
			r.logger.Debug("extracted requested slot", "slot", slot, "mapping", m.String())
			return ir.Object{slot: value}, nil
		}
	}

	r.logger.Debug("failed to extract requested slot", "slot", slot)
	return ir.Object{}, nil
}

// ExtractOther fills a slot other than the requested one from an entity
// of the same name or from a trigger intent. Trigger intents only apply
// when no form is active or a different form than formName is active.
//
// Extraction stops at the first slot that yields a value, so at most one
// slot is returned per turn.
func (r *Resolver) ExtractOther(t *tracker.Tracker, formName string, required []string) (ir.Object, error) {
	requested := t.RequestedSlotName()
	intent := t.LatestIntent()
	triggerAllowed := !t.HasActiveForm() || t.ActiveFormName() != formName

	for _, slot := range required {
		if slot == requested {
			continue
		}

		mappings, err := r.Candidates(slot)
		if err != nil {
			return nil, err
		}

		for _, m := range mappings {
			var value ir.Value
			switch {
			case m.kind == KindEntity && m.entity == slot && m.Eligible(intent):
				value = firstEntityValue(t, slot)
			case m.kind == KindTriggerIntent && triggerAllowed && m.Eligible(intent):
				value = m.value
			}

			if !ir.IsNull(value) {
				r.logger.Debug("extracted extra slot", "slot", slot, "mapping", m.String())
				return ir.Object{slot: value}, nil
			}
		}
	}
	return ir.Object{}, nil
}

func firstEntityValue(t *tracker.Tracker, entity string) ir.Value {
	values := t.LatestEntityValues(entity)
	if len(values) == 0 {
		return nil
	}
	return values[0]
}
