// Package form implements the slot-filling form lifecycle.
//
// A Controller wraps a Definition and, each turn, derives what to do from
// the tracker alone:
//
//  1. activate the form (validating slots filled before activation)
//  2. extract and validate user input after action_listen
//  3. request the first missing required slot, or
//  4. submit and deactivate
//
// The output is an ordered event list. The caller's tracker is never
// mutated; look-ahead happens on a slot-only clone.
//
// A requested slot that yields nothing is a *RejectionError, an expected
// outcome that lets the caller pick a different action.
package form
