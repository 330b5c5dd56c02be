package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	severityInformationConstant          = "info"
	severityWarningConstant              = "warning"
	severityErrorConstant                = "error"
	matchModeExactConstant               = "exact"
	matchModePrefixConstant              = "prefix"
	matchStatusFoundConstant             = "found"
	matchStatusTimedOutConstant          = "timed_out"
	matchStatusCancelledConstant         = "cancelled"
	matchStatusUnknownConstant           = "unknown"
	unsupportedMatchModeTemplateConstant = "unsupported match mode %q"
)

// Severity is the coarse level attached to a notification.
type Severity string

// Supported severities.
const (
	SeverityInformation Severity = severityInformationConstant
	SeverityWarning     Severity = severityWarningConstant
	SeverityError       Severity = severityErrorConstant
)

// Notification is one entry of the feed.
type Notification struct {
	ID       string
	Text     string
	Severity Severity
	PostedAt time.Time
}

// Feed exposes the notifications currently on display, oldest first.
type Feed interface {
	Visible(feedContext context.Context) ([]Notification, error)
}

// MatchMode selects how a pattern is compared with notification text.
type MatchMode string

// Supported match modes.
const (
	MatchModeExact  MatchMode = matchModeExactConstant
	MatchModePrefix MatchMode = matchModePrefixConstant
)

// ParseMatchMode converts user input into a MatchMode. An empty value means exact.
func ParseMatchMode(rawMode string) (MatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(rawMode)) {
	case "", matchModeExactConstant:
		return MatchModeExact, nil
	case matchModePrefixConstant:
		return MatchModePrefix, nil
	default:
		return "", fmt.Errorf(unsupportedMatchModeTemplateConstant, rawMode)
	}
}

// Matches reports whether text satisfies pattern under the mode.
func (mode MatchMode) Matches(text string, pattern string) bool {
	if mode == MatchModePrefix {
		return strings.HasPrefix(text, pattern)
	}
	return text == pattern
}

// Query describes what a poll loop is waiting for.
type Query struct {
	Patterns []string
	Mode     MatchMode
	Timeout  time.Duration
}

// match returns the first pattern the text satisfies.
func (query Query) match(text string) (string, bool) {
	for _, pattern := range query.Patterns {
		if query.Mode.Matches(text, pattern) {
			return pattern, true
		}
	}
	return "", false
}

// MatchStatus is the terminal state of a poll loop.
type MatchStatus int

// Poll loop outcomes.
const (
	MatchStatusFound MatchStatus = iota
	MatchStatusTimedOut
	MatchStatusCancelled
)

// String renders the status label.
func (status MatchStatus) String() string {
	switch status {
	case MatchStatusFound:
		return matchStatusFoundConstant
	case MatchStatusTimedOut:
		return matchStatusTimedOutConstant
	case MatchStatusCancelled:
		return matchStatusCancelledConstant
	default:
		return matchStatusUnknownConstant
	}
}

// MatchResult reports how a poll loop ended.
// Notification and MatchedPattern are set only for MatchStatusFound results of WaitFor.
type MatchResult struct {
	Status         MatchStatus
	Notification   Notification
	MatchedPattern string
	Attempts       int
	Elapsed        time.Duration
}
