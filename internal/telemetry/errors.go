package telemetry

import "errors"

const (
	sinkClosedMessageConstant           = "telemetry sink closed"
	queueFullMessageConstant            = "telemetry queue full"
	databasePathRequiredMessageConstant = "telemetry database path required"
	loggerNotConfiguredMessageConstant  = "telemetry logger not configured"
	sinkNotConfiguredMessageConstant    = "telemetry delegate sink not configured"
)

var (
	// ErrSinkClosed indicates an event was sent after Close.
	ErrSinkClosed = errors.New(sinkClosedMessageConstant)
	// ErrQueueFull indicates the asynchronous queue dropped an event.
	ErrQueueFull = errors.New(queueFullMessageConstant)
	// ErrDatabasePathRequired indicates the SQLite sink was opened without a path.
	ErrDatabasePathRequired = errors.New(databasePathRequiredMessageConstant)
	// ErrLoggerNotConfigured indicates a sink was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrSinkNotConfigured indicates a wrapper was constructed without a delegate.
	ErrSinkNotConfigured = errors.New(sinkNotConfiguredMessageConstant)
)
