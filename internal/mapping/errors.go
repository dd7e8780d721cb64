package mapping

import (
	"errors"
	"fmt"
)

// ConfigError reports a misconfigured slot mapping. It is fatal: the form
// setup is wrong and retrying cannot help.
type ConfigError struct {
	// Slot is the slot the mapping belongs to, when known.
	Slot string

	// Kind is the offending mapping kind.
	Kind Kind

	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Slot != "" {
		return fmt.Sprintf("slot mapping for %q (%s): %s", e.Slot, e.Kind, e.Message)
	}
	return fmt.Sprintf("slot mapping (%s): %s", e.Kind, e.Message)
}

// IsConfigError reports whether err is or wraps a *ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
