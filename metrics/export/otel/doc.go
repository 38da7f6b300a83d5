// Package otel publishes goSession metrics through an OpenTelemetry meter.
//
// [New] registers one Int64ObservableCounter per engine counter and one
// Int64ObservableGauge per histogram bucket. A single callback reads
// Engine.MetricsSnapshot on each collection. The caller owns the
// MeterProvider.
package otel
