// Package stores provides Redis-backed, short-lived record stores for the
// registration and refresh flows: confirmation tokens and the refresh replay
// blacklist.
//
// # Design
//
// The confirmation store persists a versioned, binary-encoded record under the
// token's digest with a TTL. Consume runs as a single Lua script, so the
// issued-to-confirmed transition is linearizable per key: exactly one caller
// wins, replays and expired records are deleted inside the same script run.
// The replay guard is an insert-if-absent over SET NX, collapsing the
// check-and-record steps into one round trip.
//
// # Architecture boundaries
//
// This package owns persistence and concurrency control for transient records.
// It does NOT generate tokens, hash secrets, or make authentication decisions;
// those responsibilities belong to the flow functions in internal/flows.
//
// # What this package must NOT do
//
//   - Import goEnroll or any sibling internal package.
//   - Store or log plaintext confirmation tokens. Keys are digests.
//   - Decide how a consumed or expired record maps to a caller-facing error.
package stores
