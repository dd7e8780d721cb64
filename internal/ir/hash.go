package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainTurn   = "slotform/turn/v1"
	DomainEvents = "slotform/events/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TurnID computes the content-addressed ID of a journaled turn.
// Stable across restarts given the same conversation, action and seq.
func TurnID(conversationID, actionName string, seq int64) (string, error) {
	obj := Object{
		"conversation_id": String(conversationID),
		"action_name":     String(actionName),
		"seq":             Int(seq),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("TurnID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTurn, canonical), nil
}

// EventsDigest hashes a canonical event list. Replays compare digests
// instead of re-serializing whole traces.
func EventsDigest(canonicalEvents []byte) string {
	return hashWithDomain(DomainEvents, canonicalEvents)
}

// MustTurnID is like TurnID but panics on error.
func MustTurnID(conversationID, actionName string, seq int64) string {
	id, err := TurnID(conversationID, actionName, seq)
	if err != nil {
		panic(err)
	}
	return id
}
