// Package prometheus exposes mongoAuth engine metrics as a
// prometheus.Collector.
//
// Counter names are prefixed mongoauth_*_total. Per-operation latency
// histograms are mongoauth_<op>_latency_seconds and are present only when the
// engine records latency.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry. Callers register the
//     collector or mount Handler.
//   - Mutate engine state.
package prometheus
