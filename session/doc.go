// Package session defines the persisted session record, its versioned binary
// codec, and the stores (Redis-backed and in-memory) that hold the single
// current session between process restarts.
//
// All timestamps in the record are Unix seconds. Idle-deadline refreshes are
// the caller's responsibility; the stores persist exactly what they are given
// and expire the record at its absolute lifetime.
package session
