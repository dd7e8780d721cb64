package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/slotform/internal/event"
	"github.com/roach88/slotform/internal/ir"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestTurn creates a turn with a content-addressed ID.
func createTestTurn(conversationID, action string, seq int64, events ...event.Event) Turn {
	return Turn{
		ID:             ir.MustTurnID(conversationID, action, seq),
		Seq:            seq,
		ConversationID: conversationID,
		ActionName:     action,
		Outcome:        OutcomeEvents,
		Events:         events,
		Responses:      []ir.Object{},
	}
}
