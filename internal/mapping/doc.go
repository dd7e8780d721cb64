// Package mapping describes how a form slot obtains its value and
// resolves those descriptions against a conversation snapshot.
//
// A SlotMapping is one rule (entity, intent literal, raw text or trigger
// intent) guarded by an intent filter. A Table maps slot names to ordered
// rule lists; the first eligible rule that yields a value wins. Slots
// missing from the table fall back to an entity rule named after the slot.
package mapping
