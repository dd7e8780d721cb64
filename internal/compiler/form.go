package compiler

import (
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/slotform/internal/form"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/mapping"
)

// CompileForms compiles every entry under the top-level "form" field,
// in label order. A value without a "form" field yields no specs.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`form: weather_form: { required_slots: ["city"] }`)
//	specs, err := CompileForms(v)
func CompileForms(v cue.Value) ([]form.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	formsVal := v.LookupPath(cue.ParsePath("form"))
	if !formsVal.Exists() {
		return nil, nil
	}

	iter, err := formsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var specs []form.Spec
	for iter.Next() {
		spec, err := CompileForm(iter.Value())
		if err != nil {
			return nil, err
		}
		specs = append(specs, *spec)
	}
	slices.SortFunc(specs, func(a, b form.Spec) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return specs, nil
}

// CompileFile compiles the forms declared in a single CUE file.
func CompileFile(path string) ([]form.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	return CompileForms(v)
}

// CompileForm parses one form struct into a form.Spec. The form name is
// the struct's label:
//
//	form: restaurant_form: {
//		required_slots: ["cuisine", "num_people"]
//		mappings: cuisine: [{from: "entity", entity: "cuisine", not_intent: ["chitchat"]}]
//		allowed: cuisine: ["italian", "thai"]
//		submit: template: "utter_submit"
//	}
func CompileForm(v cue.Value) (*form.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &form.Spec{}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].Unquoted()
	}

	slotsVal := v.LookupPath(cue.ParsePath("required_slots"))
	if !slotsVal.Exists() {
		return nil, &CompileError{
			Field:   "required_slots",
			Message: "required_slots is required",
			Pos:     v.Pos(),
		}
	}
	slots, err := stringList(slotsVal, "required_slots")
	if err != nil {
		return nil, err
	}
	spec.RequiredSlots = slots

	spec.Mappings, err = parseMappings(v)
	if err != nil {
		return nil, err
	}

	spec.Allowed, err = parseAllowed(v)
	if err != nil {
		return nil, err
	}

	templateVal := v.LookupPath(cue.ParsePath("submit.template"))
	if templateVal.Exists() {
		tmpl, err := templateVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.SubmitTemplate = tmpl
	}

	return spec, nil
}

// parseMappings reads the optional "mappings" struct. Each slot maps to a
// list of {from, entity, intent, not_intent, value} entries.
func parseMappings(v cue.Value) (mapping.Table, error) {
	mappingsVal := v.LookupPath(cue.ParsePath("mappings"))
	if !mappingsVal.Exists() {
		return nil, nil
	}

	iter, err := mappingsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	table := mapping.Table{}
	for iter.Next() {
		slot := iter.Selector().Unquoted()

		list, err := iter.Value().List()
		if err != nil {
			return nil, formatCUEError(err)
		}

		mappings := []mapping.SlotMapping{}
		for i := 0; list.Next(); i++ {
			m, err := parseMapping(list.Value(), fmt.Sprintf("mappings.%s[%d]", slot, i))
			if err != nil {
				return nil, err
			}
			mappings = append(mappings, m)
		}
		table[slot] = mappings
	}
	return table, nil
}

func parseMapping(v cue.Value, field string) (mapping.SlotMapping, error) {
	fromVal := v.LookupPath(cue.ParsePath("from"))
	if !fromVal.Exists() {
		return mapping.SlotMapping{}, &CompileError{
			Field:   field + ".from",
			Message: "mapping type is required",
			Pos:     v.Pos(),
		}
	}
	from, err := fromVal.String()
	if err != nil {
		return mapping.SlotMapping{}, formatCUEError(err)
	}
	kind, err := mapping.ParseKind(from)
	if err != nil {
		return mapping.SlotMapping{}, &CompileError{Field: field + ".from", Message: err.Error(), Pos: fromVal.Pos()}
	}

	var opts []mapping.Option
	if intentVal := v.LookupPath(cue.ParsePath("intent")); intentVal.Exists() {
		intents, err := stringOrList(intentVal, field+".intent")
		if err != nil {
			return mapping.SlotMapping{}, err
		}
		opts = append(opts, mapping.WithIntents(intents...))
	}
	if notVal := v.LookupPath(cue.ParsePath("not_intent")); notVal.Exists() {
		notIntents, err := stringOrList(notVal, field+".not_intent")
		if err != nil {
			return mapping.SlotMapping{}, err
		}
		opts = append(opts, mapping.WithNotIntents(notIntents...))
	}

	var m mapping.SlotMapping
	switch kind {
	case mapping.KindEntity:
		entity := ""
		if entityVal := v.LookupPath(cue.ParsePath("entity")); entityVal.Exists() {
			if entity, err = entityVal.String(); err != nil {
				return mapping.SlotMapping{}, formatCUEError(err)
			}
		}
		m, err = mapping.FromEntity(entity, opts...)
	case mapping.KindText:
		m, err = mapping.FromText(opts...)
	case mapping.KindIntent, mapping.KindTriggerIntent:
		value := ir.Value(ir.Null{})
		if valueVal := v.LookupPath(cue.ParsePath("value")); valueVal.Exists() {
			if value, err = toValue(valueVal); err != nil {
				return mapping.SlotMapping{}, err
			}
		}
		if kind == mapping.KindIntent {
			m, err = mapping.FromIntent(value, opts...)
		} else {
			m, err = mapping.FromTriggerIntent(value, opts...)
		}
	}
	if err != nil {
		return mapping.SlotMapping{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
	}
	return m, nil
}

// parseAllowed reads the optional "allowed" struct of slot allow-lists.
func parseAllowed(v cue.Value) (map[string][]ir.Value, error) {
	allowedVal := v.LookupPath(cue.ParsePath("allowed"))
	if !allowedVal.Exists() {
		return nil, nil
	}

	iter, err := allowedVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	allowed := make(map[string][]ir.Value)
	for iter.Next() {
		slot := iter.Selector().Unquoted()
		list, err := iter.Value().List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		values := []ir.Value{}
		for list.Next() {
			val, err := toValue(list.Value())
			if err != nil {
				return nil, err
			}
			values = append(values, val)
		}
		allowed[slot] = values
	}
	return allowed, nil
}

// toValue converts a concrete CUE value into a slot value.
func toValue(v cue.Value) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Int(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := ir.List{}
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := ir.Object{}
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[iter.Selector().Unquoted()] = elem
		}
		return out, nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Float(f), nil
	default:
		return nil, &CompileError{
			Field:   "value",
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

func stringList(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: v.Pos()}
	}
	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// stringOrList accepts "greet" as shorthand for ["greet"].
func stringOrList(v cue.Value, field string) ([]string, error) {
	if s, err := v.String(); err == nil {
		return []string{s}, nil
	}
	return stringList(v, field)
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
