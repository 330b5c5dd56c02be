package outcome

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/internal/telemetry"
	"github.com/temirov/sfdxwatch/internal/utils"
)

const (
	// DefaultEventName names telemetry events for records without an explicit event name.
	DefaultEventName = "command_outcome"

	// Telemetry property and measurement keys.
	PropertyCommandConstant          = "command"
	PropertyOutcomeConstant          = "outcome"
	PropertyReasonConstant           = "reason"
	PropertyInvocationIDConstant     = "invocation_id"
	MeasurementElapsedMillisConstant = "elapsed_ms"

	successMessageTemplateConstant         = "%s completed successfully"
	expectedFailureMessageTemplateConstant = "%s failed: %s"
	unknownMessageTemplateConstant         = "Could not confirm completion of %s"
	logMessageUnknownOutcomeConstant       = "could not confirm command completion"
	logMessageOutcomeReportedConstant      = "command outcome"
	logMessageTelemetryFailedConstant      = "telemetry delivery failed"
	logFieldCommandConstant                = "command"
	logFieldOutcomeConstant                = "outcome"
	logFieldReasonConstant                 = "reason"
	logFieldInvocationIdentifierConstant   = "invocation_id"
	logFieldElapsedConstant                = "elapsed"
)

// UserMessenger shows one-shot messages to the user.
type UserMessenger interface {
	ShowInformation(text string)
	ShowWarning(text string)
	ShowError(text string)
}

// Reporter emits one user message and one telemetry event per outcome record.
type Reporter struct {
	sink      telemetry.Sink
	messenger UserMessenger
	logger    *zap.Logger
	clock     utils.Clock
}

// NewReporter validates dependencies and constructs a Reporter.
func NewReporter(sink telemetry.Sink, messenger UserMessenger, logger *zap.Logger, clock utils.Clock) (*Reporter, error) {
	if sink == nil {
		return nil, ErrTelemetrySinkNotConfigured
	}
	if messenger == nil {
		return nil, ErrMessengerNotConfigured
	}
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Reporter{sink: sink, messenger: messenger, logger: logger, clock: utils.ResolveClock(clock)}, nil
}

// Report delivers the record. Cancelled records produce no user message, and
// telemetry failures are logged without affecting the caller.
func (reporter *Reporter) Report(reportContext context.Context, record Record) {
	if reportContext == nil {
		reportContext = context.Background()
	}

	commandFields := []zap.Field{
		zap.String(logFieldCommandConstant, record.CommandName),
		zap.String(logFieldOutcomeConstant, record.Kind.String()),
		zap.String(logFieldReasonConstant, record.Reason),
		zap.String(logFieldInvocationIdentifierConstant, record.InvocationID),
		zap.Duration(logFieldElapsedConstant, record.Elapsed),
	}

	switch record.Kind {
	case KindSuccess:
		reporter.messenger.ShowInformation(fmt.Sprintf(successMessageTemplateConstant, record.CommandName))
	case KindExpectedFailure:
		reporter.messenger.ShowError(fmt.Sprintf(expectedFailureMessageTemplateConstant, record.CommandName, record.Reason))
	case KindCancelled:
	default:
		reporter.logger.Warn(logMessageUnknownOutcomeConstant, commandFields...)
		reporter.messenger.ShowError(fmt.Sprintf(unknownMessageTemplateConstant, record.CommandName))
	}

	reporter.logger.Debug(logMessageOutcomeReportedConstant, commandFields...)

	if sendError := reporter.sink.Send(reportContext, reporter.buildEvent(record)); sendError != nil {
		reporter.logger.Warn(logMessageTelemetryFailedConstant, zap.String(logFieldCommandConstant, record.CommandName), zap.Error(sendError))
	}
}

func (reporter *Reporter) buildEvent(record Record) telemetry.Event {
	eventName := strings.TrimSpace(record.EventName)
	if len(eventName) == 0 {
		eventName = DefaultEventName
	}

	event := telemetry.NewEvent(eventName, reporter.clock.Now())
	event.Properties[PropertyCommandConstant] = record.CommandName
	event.Properties[PropertyOutcomeConstant] = record.Kind.String()
	event.Properties[PropertyReasonConstant] = record.Reason
	event.Properties[PropertyInvocationIDConstant] = record.InvocationID
	event.Measurements[MeasurementElapsedMillisConstant] = float64(record.Elapsed.Milliseconds())
	return event
}
