package notifications

import "errors"

var (
	// ErrFeedNotConfigured indicates the monitor was constructed without a feed.
	ErrFeedNotConfigured = errors.New("notification feed not configured")
	// ErrLoggerNotConfigured indicates the monitor was constructed without a logger.
	ErrLoggerNotConfigured = errors.New("notification monitor logger not configured")
)
