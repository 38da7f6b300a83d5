// Package metrics provides lock-free counters and latency histograms for
// goSession.
//
// Counters live in cache-line padded uint64 slots and are written with
// sync/atomic. Histograms use 8 fixed buckets (<=5ms up to +Inf). The write
// path does not allocate. Export to Prometheus text or OpenTelemetry lives in
// metrics/export and reads Snapshot values.
package metrics
