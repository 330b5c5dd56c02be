package outcome

import "errors"

var (
	// ErrInvalidTransition indicates a state change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid outcome transition")
	// ErrTelemetrySinkNotConfigured indicates the reporter was constructed without a sink.
	ErrTelemetrySinkNotConfigured = errors.New("outcome reporter telemetry sink not configured")
	// ErrMessengerNotConfigured indicates the reporter was constructed without a messenger.
	ErrMessengerNotConfigured = errors.New("outcome reporter messenger not configured")
	// ErrLoggerNotConfigured indicates the reporter was constructed without a logger.
	ErrLoggerNotConfigured = errors.New("outcome reporter logger not configured")
)
