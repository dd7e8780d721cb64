// Package engine runs registered actions for incoming requests.
//
// An Executor maps action names to Actions (usually form controllers),
// runs the one a request names, drops malformed events, wraps the result
// in a response envelope and, when a journal is configured, appends the
// turn to it.
//
// ORDERING:
//
// Every journaled turn is stamped with a seq from the logical Clock.
// Never wall-clock time. Reopening a journal resumes the clock from the
// journal's highest seq (see ResumeClock).
//
// CONCURRENCY:
//
// The registry is guarded by a RWMutex and the clock is atomic, so Run
// may be called concurrently for different conversations. Turns of a
// single conversation must be serialized by the caller.
package engine
