// Package otel binds goParse client metrics to OpenTelemetry instruments.
//
// [NewExporter] registers one Int64ObservableCounter per client counter and
// one Int64ObservableGauge per latency bucket. A single callback reads
// [goParse.Client.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the MeterProvider; callers supply the Meter.
//   - Mutate client state.
package otel
