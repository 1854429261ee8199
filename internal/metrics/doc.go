// Package metrics provides lock-free counters and latency histograms for the
// mongoAuth engine.
//
// # Design
//
// Counters are stored in cache-line-padded uint64 slots and incremented
// atomically. Histograms use 8 fixed buckets (≤5ms … +Inf) plus a running
// nanosecond sum. Both are allocation-free on the write path.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Export (Prometheus,
// OTel) lives in metrics/export/ and reads Snapshot values through the root
// package aliases.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import mongoAuth or any sibling package.
//   - Expose global metric registries.
package metrics
