package store

import (
	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
)

// Outcome classifies a journaled turn.
type Outcome string

const (
	// OutcomeEvents is a turn that produced events.
	OutcomeEvents Outcome = "events"

	// OutcomeRejected is a turn whose requested slot could not be filled.
	OutcomeRejected Outcome = "rejected"
)

// Turn is one journaled action run.
type Turn struct {
	ID             string
	Seq            int64
	ConversationID string
	ActionName     string
	Outcome        Outcome
	Events         []event.Event
	Responses      []ir.Object

	// Error holds the rejection message for rejected turns.
	Error string

	EngineVersion string
	IRVersion     string
}

// ConversationSummary describes one conversation in the journal.
type ConversationSummary struct {
	ConversationID string
	Turns          int
	LastSeq        int64
}
