// Package prometheus renders goSession metrics in the Prometheus text
// exposition format.
//
// [New] wraps an engine and [Exporter.Handler] serves the current snapshot.
// Counters are named gosession_*_total. The latency histograms are
// gosession_validate_latency_seconds and gosession_rotate_latency_seconds and
// appear only when latency histograms are enabled on the engine.
//
// Nothing is registered globally; callers mount the handler themselves.
package prometheus
