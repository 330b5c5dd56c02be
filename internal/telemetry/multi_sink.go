package telemetry

import (
	"context"
	"errors"
)

// MultiSink delivers every event to each wrapped sink.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink constructs a fan-out sink, skipping nil entries.
func NewMultiSink(sinks ...Sink) *MultiSink {
	multiSink := &MultiSink{}
	for _, sink := range sinks {
		if sink != nil {
			multiSink.sinks = append(multiSink.sinks, sink)
		}
	}
	return multiSink
}

// Send delivers the event to every sink and joins their errors.
func (multiSink *MultiSink) Send(sendContext context.Context, event Event) error {
	var deliveryErrors []error
	for _, sink := range multiSink.sinks {
		if sendError := sink.Send(sendContext, event); sendError != nil {
			deliveryErrors = append(deliveryErrors, sendError)
		}
	}
	return errors.Join(deliveryErrors...)
}
