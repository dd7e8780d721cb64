package store

import (
	"context"
	"fmt"

	"github.com/roach88/slotform/internal/ir"
	"github.com/roach88/slotform/internal/tracker"
)

// DigestMismatchError reports a journaled events column that no longer
// matches the digest written with it.
type DigestMismatchError struct {
	TurnID   string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *DigestMismatchError) Error() string {
	return fmt.Sprintf("turn %s: events digest mismatch (expected %s, got %s)", e.TurnID, e.Expected, e.Actual)
}

func verifyDigest(turnID, eventsJSON, digest string) error {
	actual := ir.EventsDigest([]byte(eventsJSON))
	if actual != digest {
		return &DigestMismatchError{TurnID: turnID, Expected: digest, Actual: actual}
	}
	return nil
}

// Replay rebuilds a conversation's tracker by applying journaled events in
// seq order. Rejected turns carry no events and are skipped. The returned
// tracker's LatestActionName is the last successfully executed action.
func (s *Store) Replay(ctx context.Context, conversationID string) (*tracker.Tracker, error) {
	turns, err := s.ReadTurns(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", conversationID, err)
	}

	t := &tracker.Tracker{SenderID: conversationID, Slots: ir.Object{}}
	for _, turn := range turns {
		if turn.Outcome != OutcomeEvents {
			continue
		}
		t.Apply(turn.Events...)
		t.LatestActionName = turn.ActionName
	}
	return t, nil
}

// ReplaySlots returns only the slot map of Replay.
func (s *Store) ReplaySlots(ctx context.Context, conversationID string) (ir.Object, error) {
	t, err := s.Replay(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return t.Slots, nil
}
