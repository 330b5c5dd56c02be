package outcome

import (
	"time"

	"github.com/temirov/sfdxwatch/internal/notifications"
)

const (
	kindSuccessLabelConstant         = "success"
	kindExpectedFailureLabelConstant = "expected_failure"
	kindUnknownLabelConstant         = "unknown"
	kindCancelledLabelConstant       = "cancelled"
	kindInvalidLabelConstant         = "invalid"
	reasonTimedOutConstant           = "no confirming notification before timeout"
	reasonUnexpectedTemplateConstant = "unexpected notification: "
)

// Kind is the terminal classification of an invocation.
type Kind int

// Outcome kinds.
const (
	KindSuccess Kind = iota + 1
	KindExpectedFailure
	KindUnknown
	KindCancelled
)

// String renders the label used in telemetry and logs.
func (kind Kind) String() string {
	switch kind {
	case KindSuccess:
		return kindSuccessLabelConstant
	case KindExpectedFailure:
		return kindExpectedFailureLabelConstant
	case KindUnknown:
		return kindUnknownLabelConstant
	case KindCancelled:
		return kindCancelledLabelConstant
	default:
		return kindInvalidLabelConstant
	}
}

// Record is the terminal result of one invocation.
type Record struct {
	Kind         Kind
	Reason       string
	Elapsed      time.Duration
	CommandName  string
	EventName    string
	InvocationID string
}

// Classify maps a poll result onto an outcome. A match on the success text wins,
// then a match on any failure text; everything else, timeouts included, is Unknown.
// Cancelled poll results are Cancelled. The function is pure.
func Classify(matchResult notifications.MatchResult, expectedSuccessText string, expectedFailureTexts []string) Record {
	record := Record{Elapsed: matchResult.Elapsed}

	switch matchResult.Status {
	case notifications.MatchStatusCancelled:
		record.Kind = KindCancelled
		return record
	case notifications.MatchStatusTimedOut:
		record.Kind = KindUnknown
		record.Reason = reasonTimedOutConstant
		return record
	}

	if matchResult.MatchedPattern == expectedSuccessText {
		record.Kind = KindSuccess
		record.Reason = matchResult.Notification.Text
		return record
	}

	for _, expectedFailureText := range expectedFailureTexts {
		if matchResult.MatchedPattern == expectedFailureText {
			record.Kind = KindExpectedFailure
			record.Reason = matchResult.Notification.Text
			return record
		}
	}

	record.Kind = KindUnknown
	record.Reason = reasonUnexpectedTemplateConstant + matchResult.Notification.Text
	return record
}
