// Package store provides the SQLite turn journal.
//
// Every executed turn (one action run for one conversation) is appended
// as a row holding the canonical JSON of its events and reply payloads.
// Rejected turns are journaled too, with no events.
//
// # Invariants
//
//   - Turn IDs are content-addressed (ir.TurnID); writes are idempotent
//   - Ordering uses the logical seq column, never timestamps
//   - Every read orders by seq ASC, id ASC COLLATE BINARY
//   - events_digest is checked on replay to detect tampered rows
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON
package store
