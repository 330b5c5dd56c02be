// Package telemetry carries fire-and-forget usage events from the outcome
// reporter to pluggable sinks: structured logs, a local SQLite history, and
// fan-out or asynchronous wrappers around them.
package telemetry
