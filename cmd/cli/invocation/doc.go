// Package invocation provides the run, exec, and list commands. Run and exec
// wire a Runtime (dispatcher, notification feed, monitor, outcome reporter,
// and telemetry sinks) for a single invocation and translate its outcome into
// the process exit status.
package invocation
