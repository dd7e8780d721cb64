package store

import (
	"context"
	"database/sql"
	"fmt"
)

const turnColumns = `id, seq, conversation_id, action_name, outcome, events, events_digest, responses, error, engine_version, ir_version`

// ReadTurns returns every turn of a conversation.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the conversation has no turns.
func (s *Store) ReadTurns(ctx context.Context, conversationID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+turnColumns+`
		FROM turns
		WHERE conversation_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		turn, err := scanTurn(rows)
		if err != nil {
			return nil, err
		}
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	return turns, nil
}

// ReadTurn retrieves a single turn by ID.
// Returns sql.ErrNoRows (wrapped) if not found.
func (s *Store) ReadTurn(ctx context.Context, id string) (Turn, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+turnColumns+`
		FROM turns
		WHERE id = ?
	`, id)
	return scanTurn(row)
}

// ListConversations returns one summary per conversation, ordered by the
// seq of its latest turn.
func (s *Store) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id, COUNT(*), MAX(seq)
		FROM turns
		GROUP BY conversation_id
		ORDER BY MAX(seq) ASC, conversation_id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer rows.Close()

	out := []ConversationSummary{}
	for rows.Next() {
		var cs ConversationSummary
		if err := rows.Scan(&cs.ConversationID, &cs.Turns, &cs.LastSeq); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return out, nil
}

// MaxSeq returns the highest journaled seq, or 0 for an empty journal.
// Used to resume the logical clock after a restart.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM turns`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query max seq: %w", err)
	}
	return seq.Int64, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurn(row rowScanner) (Turn, error) {
	var (
		turn          Turn
		outcome       string
		eventsJSON    string
		digest        string
		responsesJSON string
	)
	err := row.Scan(
		&turn.ID,
		&turn.Seq,
		&turn.ConversationID,
		&turn.ActionName,
		&outcome,
		&eventsJSON,
		&digest,
		&responsesJSON,
		&turn.Error,
		&turn.EngineVersion,
		&turn.IRVersion,
	)
	if err != nil {
		return Turn{}, fmt.Errorf("scan turn: %w", err)
	}
	turn.Outcome = Outcome(outcome)

	if err := verifyDigest(turn.ID, eventsJSON, digest); err != nil {
		return Turn{}, err
	}

	if turn.Events, err = unmarshalEvents(eventsJSON); err != nil {
		return Turn{}, fmt.Errorf("turn %s: %w", turn.ID, err)
	}
	if turn.Responses, err = unmarshalResponses(responsesJSON); err != nil {
		return Turn{}, fmt.Errorf("turn %s: %w", turn.ID, err)
	}
	return turn, nil
}
