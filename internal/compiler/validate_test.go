package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/slotform/internal/form"
	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/mapping"
)

func validSpec() form.Spec {
	return form.Spec{
		Name:          "restaurant_form",
		RequiredSlots: []string{"cuisine", "num_people"},
		Mappings: mapping.Table{
			"cuisine": {mapping.MustFromEntity("cuisine")},
		},
		Allowed: map[string][]ir.Value{
			"cuisine": {ir.String("thai")},
		},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validSpec()), "valid spec should have no errors")
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*form.Spec)
		want   []string
	}{
		{"bad form name", func(s *form.Spec) { s.Name = "has space" }, []string{ErrInvalidName}},
		{"no slots", func(s *form.Spec) {
			s.RequiredSlots = nil
			s.Mappings = nil
			s.Allowed = nil
		}, []string{ErrNoRequiredSlots}},
		{"duplicate slot", func(s *form.Spec) { s.RequiredSlots = append(s.RequiredSlots, "cuisine") }, []string{ErrDuplicateSlot}},
		{"reserved slot", func(s *form.Spec) { s.RequiredSlots = append(s.RequiredSlots, "requested_slot") }, []string{ErrReservedSlot}},
		{"unused mapping", func(s *form.Spec) { s.Mappings["price"] = []mapping.SlotMapping{mapping.MustFromText()} }, []string{ErrUnusedMapping}},
		{"empty mapping list", func(s *form.Spec) { s.Mappings["num_people"] = nil }, []string{ErrEmptyMappingList}},
		{"unused allow-list", func(s *form.Spec) { s.Allowed["price"] = []ir.Value{ir.Int(1)} }, []string{ErrUnusedAllowList}},
		{"empty allow-list", func(s *form.Spec) { s.Allowed["cuisine"] = nil }, []string{ErrEmptyAllowList}},
		{"unused and empty", func(s *form.Spec) { s.Allowed["price"] = nil }, []string{ErrUnusedAllowList, ErrEmptyAllowList}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			tt.mutate(&spec)
			assert.Equal(t, tt.want, codes(Validate(spec)))
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := form.Spec{
		Name:          "",
		RequiredSlots: []string{"a", "a"},
		Mappings:      mapping.Table{"b": nil},
	}

	errs := Validate(spec)
	assert.Equal(t, []string{ErrInvalidName, ErrDuplicateSlot, ErrUnusedMapping, ErrEmptyMappingList}, codes(errs))
}

func TestValidateAllDuplicateNames(t *testing.T) {
	errs := ValidateAll([]form.Spec{validSpec(), validSpec()})
	assert.Equal(t, []string{ErrDuplicateFormName}, codes(errs))
	assert.Contains(t, errs[0].Error(), "restaurant_form")
}

func TestValidationErrorFormat(t *testing.T) {
	err := ValidationError{Form: "f", Field: "required_slots", Message: "boom", Code: ErrNoRequiredSlots}
	assert.Equal(t, "[E102] f: required_slots: boom", err.Error())

	err.Form = ""
	assert.Equal(t, "[E102] required_slots: boom", err.Error())
}
