// Package outcome classifies how an invocation ended and reports the result to
// the user and to telemetry.
package outcome
