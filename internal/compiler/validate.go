package compiler

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/roach88/slotform/internal/form"
	"github.com/roach88/slotform/internal/tracker"
)

// Validation error codes (E100-E199)
const (
	ErrInvalidName          = "E101" // form or slot name is not an identifier
	ErrNoRequiredSlots      = "E102" // form requires no slots
	ErrDuplicateSlot        = "E103" // slot listed twice in required_slots
	ErrReservedSlot         = "E104" // requested_slot used as a form slot
	ErrUnusedMapping        = "E105" // mapping for a slot the form never asks for
	ErrUnusedAllowList      = "E106" // allow-list for a slot the form never asks for
	ErrEmptyAllowList       = "E107" // allow-list rejects every value
	ErrEmptyMappingList     = "E108" // slot listed in mappings with no mapping
	ErrDuplicateFormName    = "E109" // two forms share a name
	ErrInvalidMappingConfig = "E110" // mapping fails its own checks
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Form    string `json:"form,omitempty"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Form != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Form, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// namePattern matches form and slot names.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_\-]*$`)

// Validate checks a compiled form against schema rules.
// Returns all errors found (does not fail-fast), ordered by field.
func Validate(spec form.Spec) []ValidationError {
	var errs []ValidationError
	add := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Form:    spec.Name,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
			Code:    code,
		})
	}

	if !namePattern.MatchString(spec.Name) {
		add("name", ErrInvalidName, "invalid form name %q", spec.Name)
	}

	if len(spec.RequiredSlots) == 0 {
		add("required_slots", ErrNoRequiredSlots, "at least one required slot is needed")
	}

	required := make(map[string]bool)
	for i, slot := range spec.RequiredSlots {
		field := fmt.Sprintf("required_slots[%d]", i)
		switch {
		case slot == tracker.RequestedSlot:
			add(field, ErrReservedSlot, "%q is reserved for the form engine", slot)
		case !namePattern.MatchString(slot):
			add(field, ErrInvalidName, "invalid slot name %q", slot)
		case required[slot]:
			add(field, ErrDuplicateSlot, "duplicate slot %q", slot)
		}
		required[slot] = true
	}

	if err := spec.Mappings.Validate(); err != nil {
		add("mappings", ErrInvalidMappingConfig, "%v", err)
	}
	for _, slot := range sortedKeys(spec.Mappings) {
		field := "mappings." + slot
		if !required[slot] {
			add(field, ErrUnusedMapping, "slot %q is not in required_slots", slot)
		}
		if len(spec.Mappings[slot]) == 0 {
			add(field, ErrEmptyMappingList, "slot %q has no mappings and can never be filled", slot)
		}
	}

	for _, slot := range sortedKeys(spec.Allowed) {
		field := "allowed." + slot
		if !required[slot] {
			add(field, ErrUnusedAllowList, "slot %q is not in required_slots", slot)
		}
		if len(spec.Allowed[slot]) == 0 {
			add(field, ErrEmptyAllowList, "allow-list for %q is empty", slot)
		}
	}

	return errs
}

// ValidateAll validates each form and reports duplicate names.
func ValidateAll(specs []form.Spec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, spec := range specs {
		if seen[spec.Name] {
			errs = append(errs, ValidationError{
				Form:    spec.Name,
				Field:   "name",
				Message: fmt.Sprintf("duplicate form name %q", spec.Name),
				Code:    ErrDuplicateFormName,
			})
		}
		seen[spec.Name] = true
		errs = append(errs, Validate(spec)...)
	}
	return errs
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
