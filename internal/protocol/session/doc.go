// Package session owns the printer TCP connection.
//
// Ownership boundary:
// - dial and close
// - one framed request and its one framed response per Call
// - per-call deadlines and classification of transport failures
//
// A Conn has no knowledge of command semantics. Exactly one request is in
// flight at a time; callers needing concurrency open more connections.
package session
