// Package prometheus exposes goParse client metrics as a Prometheus collector.
//
// [NewCollector] reads [goParse.Client.MetricsSnapshot] on every scrape and
// emits goparse_*_total counters plus the goparse_command_latency_seconds
// histogram. [Handler] serves a private registry holding only that collector.
//
// # What this package must NOT do
//
//   - Register into the global Prometheus registry; callers choose a registry.
//   - Mutate client state.
package prometheus
