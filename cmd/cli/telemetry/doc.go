// Package telemetry provides the telemetry command group for inspecting stored outcome events.
package telemetry
