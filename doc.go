// Package goEnroll provides a registration and token engine: single-use
// email confirmation tokens, Argon2id password verification, and signed
// access/refresh JWT pairs with replay-protected refresh rotation.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goEnroll is the public surface. It exposes [Engine], [Builder], [Config],
// the collaborator contracts ([AccountDirectory], [PasswordHasher],
// [EmailValidator], [EmailDispatcher]) and value types ([TokenBundle],
// [AuditEvent], MetricsSnapshot). All internal coordination, flow
// orchestration, Redis stores and audit dispatch live under internal/ and are
// never exported.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or record encodings in its
//     public API.
//   - Own account persistence. The host supplies an [AccountDirectory];
//     uniqueness constraints and schema are its concern.
//   - Deliver mail on the request path's error budget. Activation mail is
//     best-effort and its failures surface only through audit and metrics.
package goEnroll
