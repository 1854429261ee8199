// Package otel provides OpenTelemetry metric exporter bindings for mongoAuth
// counters and latency histograms.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine counter and,
// per latency histogram, an Int64ObservableGauge per cumulative bucket plus
// count and sum gauges. A single callback reads the engine's MetricsSnapshot
// on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider. Callers supply the Meter.
//   - Mutate engine state.
package otel
