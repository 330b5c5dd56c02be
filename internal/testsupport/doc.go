// Package testsupport provides deterministic fakes shared by package tests:
// a manually advanced clock, a scripted command runner, and recording sinks
// for observers, telemetry events, and user messages.
package testsupport
