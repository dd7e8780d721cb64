package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while dispatching an action.
//
// Runtime errors include:
//   - Missing action: no action registered under the requested name
//   - Invalid action: an action or request without a name
//   - Duplicate action: a second registration under the same name
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Action is the affected action name, if any.
	Action string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeMissingAction indicates a requested action is not registered.
	ErrCodeMissingAction RuntimeErrorCode = "MISSING_ACTION"

	// ErrCodeInvalidAction indicates an action or request without a name.
	ErrCodeInvalidAction RuntimeErrorCode = "INVALID_ACTION"

	// ErrCodeDuplicateAction indicates an action name registered twice.
	ErrCodeDuplicateAction RuntimeErrorCode = "DUPLICATE_ACTION"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s (action=%s)", e.Code, e.Message, e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsMissingAction returns true if the error reports an unregistered action.
// Uses errors.As to handle wrapped errors.
func IsMissingAction(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMissingAction
	}
	return false
}

// NewMissingActionError creates a RuntimeError for an unregistered action.
func NewMissingActionError(name string) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeMissingAction,
		Message: "no registered action found",
		Action:  name,
	}
}
