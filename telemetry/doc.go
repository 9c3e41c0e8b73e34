// Package telemetry provides ready-made event subscribers for the kernel's
// invocation events:
//
//   - LoggingSubscriber writes one structured log line per invocation
//   - TracingSubscriber turns each invocation into an OpenTelemetry span
//   - StatsCollector aggregates per-function call counts and durations
//
// Each subscriber has an Attach method registering it on an
// event.Dispatcher and returning the subscriptions for later removal.
package telemetry
