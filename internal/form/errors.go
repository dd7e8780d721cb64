package form

import (
	"errors"
	"fmt"
)

// RejectionError reports that a requested slot could not be extracted
// from the latest user input. It is not a crash: the caller should fall
// back to another action and must not deactivate the form.
type RejectionError struct {
	Slot string
	Form string
}

// Error implements the error interface.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("failed to extract slot %q with action %q", e.Slot, e.Form)
}

// IsRejection reports whether err is or wraps a *RejectionError.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
