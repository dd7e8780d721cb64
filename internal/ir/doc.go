// Package ir provides the value types shared by every other package:
// sealed slot values, canonical JSON and content hashes.
//
// This package imports nothing internal. Key constraints:
//   - Integer literals decode to Int (int64), other numbers to Float
//   - Object iteration goes through SortedKeys for determinism
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
package ir
