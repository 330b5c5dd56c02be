package telemetry

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

const (
	logMessageTelemetryEventConstant  = "telemetry event"
	logFieldEventIdentifierConstant   = "event_id"
	logFieldEventNameConstant         = "event_name"
	logFieldEventTimestampConstant    = "event_time"
	logFieldPropertyPrefixConstant    = "property."
	logFieldMeasurementPrefixConstant = "measurement."
)

// LoggerSink writes every event as one structured log record.
type LoggerSink struct {
	logger *zap.Logger
}

// NewLoggerSink constructs a LoggerSink.
func NewLoggerSink(logger *zap.Logger) (*LoggerSink, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &LoggerSink{logger: logger}, nil
}

// Send logs the event at info level.
func (sink *LoggerSink) Send(_ context.Context, event Event) error {
	fields := []zap.Field{
		zap.String(logFieldEventIdentifierConstant, event.Identifier),
		zap.String(logFieldEventNameConstant, event.Name),
		zap.Time(logFieldEventTimestampConstant, event.Timestamp),
	}
	for _, propertyKey := range sortedKeys(event.Properties) {
		fields = append(fields, zap.String(logFieldPropertyPrefixConstant+propertyKey, event.Properties[propertyKey]))
	}
	for _, measurementKey := range sortedKeys(event.Measurements) {
		fields = append(fields, zap.Float64(logFieldMeasurementPrefixConstant+measurementKey, event.Measurements[measurementKey]))
	}
	sink.logger.Info(logMessageTelemetryEventConstant, fields...)
	return nil
}

func sortedKeys[Value any](values map[string]Value) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
