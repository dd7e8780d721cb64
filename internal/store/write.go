package store

import (
	"context"
	"fmt"

	"github.com/roach88/slotform/internal/ir"
)

// WriteTurn appends a turn to the journal. Uses ON CONFLICT(id) DO NOTHING
// so rewriting the same turn is a no-op; inserted reports whether a row
// was added. A different turn reusing an existing seq is an error.
//
// Events and responses are stored as RFC 8785 canonical JSON.
func (s *Store) WriteTurn(ctx context.Context, turn Turn) (bool, error) {
	if s.readOnly {
		return false, ErrReadOnly
	}
	if turn.ID == "" {
		return false, fmt.Errorf("write turn: missing id")
	}
	if turn.Outcome != OutcomeEvents && turn.Outcome != OutcomeRejected {
		return false, fmt.Errorf("write turn: invalid outcome %q", turn.Outcome)
	}

	eventsJSON, err := marshalEvents(turn.Events)
	if err != nil {
		return false, fmt.Errorf("write turn: %w", err)
	}

	responsesJSON, err := marshalResponses(turn.Responses)
	if err != nil {
		return false, fmt.Errorf("write turn: %w", err)
	}

	engineVersion := turn.EngineVersion
	if engineVersion == "" {
		engineVersion = ir.EngineVersion
	}
	irVersion := turn.IRVersion
	if irVersion == "" {
		irVersion = ir.IRVersion
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO turns
		(id, seq, conversation_id, action_name, outcome, events, events_digest, responses, error, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		turn.ID,
		turn.Seq,
		turn.ConversationID,
		turn.ActionName,
		string(turn.Outcome),
		eventsJSON,
		ir.EventsDigest([]byte(eventsJSON)),
		responsesJSON,
		turn.Error,
		engineVersion,
		irVersion,
	)
	if err != nil {
		return false, fmt.Errorf("write turn: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("write turn: rows affected: %w", err)
	}
	return n > 0, nil
}
