// Package metrics provides lock-free counters for goEnroll observability.
//
// # Design
//
// Counters are stored in cache-line-padded slots and incremented atomically.
// The write path is allocation-free; Snapshot deep-copies for export.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import goEnroll or any sibling package.
//   - Expose global metric registries.
package metrics
