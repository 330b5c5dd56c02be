package notifications

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/internal/utils"
)

const (
	// DefaultPollInterval is the wait between two feed inspections.
	DefaultPollInterval = time.Second

	logMessageNotificationMatchedConstant = "notification matched"
	logMessageNotificationAbsentConstant  = "notification absent"
	logMessageNotificationTimeoutConstant = "notification wait timed out"
	logMessageNotificationCancelConstant  = "notification wait cancelled"
	logMessageFeedReadFailedConstant      = "notification feed read failed"
	logFieldPatternsConstant              = "patterns"
	logFieldMatchedPatternConstant        = "matched_pattern"
	logFieldAttemptsConstant              = "attempts"
	logFieldElapsedConstant               = "elapsed"
)

// MonitorOption customizes a Monitor.
type MonitorOption func(monitor *Monitor)

// WithPollInterval overrides DefaultPollInterval. Non-positive values are ignored.
func WithPollInterval(pollInterval time.Duration) MonitorOption {
	return func(monitor *Monitor) {
		if pollInterval > 0 {
			monitor.pollInterval = pollInterval
		}
	}
}

// WithMonitorClock replaces the system clock.
func WithMonitorClock(clock utils.Clock) MonitorOption {
	return func(monitor *Monitor) {
		monitor.clock = utils.ResolveClock(clock)
	}
}

// Monitor polls a Feed at a fixed interval.
type Monitor struct {
	feed         Feed
	logger       *zap.Logger
	clock        utils.Clock
	pollInterval time.Duration
}

// NewMonitor validates dependencies and constructs a Monitor.
func NewMonitor(feed Feed, logger *zap.Logger, options ...MonitorOption) (*Monitor, error) {
	if feed == nil {
		return nil, ErrFeedNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}

	monitor := &Monitor{
		feed:         feed,
		logger:       logger,
		clock:        utils.NewSystemClock(),
		pollInterval: DefaultPollInterval,
	}
	for _, option := range options {
		if option != nil {
			option(monitor)
		}
	}
	return monitor, nil
}

// PollInterval reports the configured interval.
func (monitor *Monitor) PollInterval() time.Duration {
	return monitor.pollInterval
}

// WaitFor polls until a visible notification satisfies one of the query patterns.
// The oldest matching notification wins. The loop ends with MatchStatusTimedOut once
// the elapsed time reaches the timeout, so it returns within the timeout plus one
// poll interval, and with MatchStatusCancelled as soon as the context ends.
func (monitor *Monitor) WaitFor(waitContext context.Context, query Query) MatchResult {
	result := monitor.poll(waitContext, query, func(visible []Notification) (Notification, string, bool) {
		for _, notification := range visible {
			if matchedPattern, matched := query.match(notification.Text); matched {
				return notification, matchedPattern, true
			}
		}
		return Notification{}, "", false
	})

	if result.Status == MatchStatusFound {
		monitor.logger.Debug(
			logMessageNotificationMatchedConstant,
			zap.String(logFieldMatchedPatternConstant, result.MatchedPattern),
			zap.Int(logFieldAttemptsConstant, result.Attempts),
			zap.Duration(logFieldElapsedConstant, result.Elapsed),
		)
	}
	return result
}

// WaitForAbsence polls until no visible notification satisfies the query.
// MatchStatusFound means the notification went away.
func (monitor *Monitor) WaitForAbsence(waitContext context.Context, query Query) MatchResult {
	result := monitor.poll(waitContext, query, func(visible []Notification) (Notification, string, bool) {
		for _, notification := range visible {
			if _, matched := query.match(notification.Text); matched {
				return Notification{}, "", false
			}
		}
		return Notification{}, "", true
	})

	if result.Status == MatchStatusFound {
		monitor.logger.Debug(
			logMessageNotificationAbsentConstant,
			zap.Strings(logFieldPatternsConstant, query.Patterns),
			zap.Int(logFieldAttemptsConstant, result.Attempts),
			zap.Duration(logFieldElapsedConstant, result.Elapsed),
		)
	}
	return result
}

type feedPredicate func(visible []Notification) (Notification, string, bool)

func (monitor *Monitor) poll(waitContext context.Context, query Query, satisfied feedPredicate) MatchResult {
	if waitContext == nil {
		waitContext = context.Background()
	}

	startedAt := monitor.clock.Now()
	attempts := 0

	for {
		if waitContext.Err() != nil {
			return monitor.cancelled(query, attempts, monitor.clock.Now().Sub(startedAt))
		}

		attempts++
		visible, readError := monitor.feed.Visible(waitContext)
		if readError != nil {
			if waitContext.Err() != nil {
				return monitor.cancelled(query, attempts, monitor.clock.Now().Sub(startedAt))
			}
			monitor.logger.Debug(logMessageFeedReadFailedConstant, zap.Error(readError))
		} else if notification, matchedPattern, found := satisfied(visible); found {
			return MatchResult{
				Status:         MatchStatusFound,
				Notification:   notification,
				MatchedPattern: matchedPattern,
				Attempts:       attempts,
				Elapsed:        monitor.clock.Now().Sub(startedAt),
			}
		}

		elapsed := monitor.clock.Now().Sub(startedAt)
		if elapsed >= query.Timeout {
			monitor.logger.Debug(
				logMessageNotificationTimeoutConstant,
				zap.Strings(logFieldPatternsConstant, query.Patterns),
				zap.Int(logFieldAttemptsConstant, attempts),
				zap.Duration(logFieldElapsedConstant, elapsed),
			)
			return MatchResult{Status: MatchStatusTimedOut, Attempts: attempts, Elapsed: elapsed}
		}

		if sleepError := monitor.clock.Sleep(waitContext, monitor.pollInterval); sleepError != nil {
			return monitor.cancelled(query, attempts, monitor.clock.Now().Sub(startedAt))
		}
	}
}

func (monitor *Monitor) cancelled(query Query, attempts int, elapsed time.Duration) MatchResult {
	monitor.logger.Debug(
		logMessageNotificationCancelConstant,
		zap.Strings(logFieldPatternsConstant, query.Patterns),
		zap.Int(logFieldAttemptsConstant, attempts),
	)
	return MatchResult{Status: MatchStatusCancelled, Attempts: attempts, Elapsed: elapsed}
}
