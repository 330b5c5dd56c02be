package testsupport

import (
	"context"
	"sync"

	"github.com/temirov/sfdxwatch/internal/execshell"
	"github.com/temirov/sfdxwatch/internal/telemetry"
)

// Recorded lifecycle event kinds.
const (
	ObservedEventStarted         = "started"
	ObservedEventCompleted       = "completed"
	ObservedEventExecutionFailed = "execution_failed"
	ObservedEventCancelled       = "cancelled"
)

// ObservedEvent is one recorded lifecycle callback.
type ObservedEvent struct {
	Kind    string
	Handle  *execshell.ExecutionHandle
	Result  execshell.ExecutionResult
	Failure error
}

// RecordingCommandEventObserver records lifecycle callbacks and signals terminal ones on Terminal.
type RecordingCommandEventObserver struct {
	mutex    sync.Mutex
	events   []ObservedEvent
	Terminal chan ObservedEvent
}

// NewRecordingCommandEventObserver constructs an observer with a buffered terminal channel.
func NewRecordingCommandEventObserver() *RecordingCommandEventObserver {
	return &RecordingCommandEventObserver{Terminal: make(chan ObservedEvent, 16)}
}

// CommandStarted records the start.
func (observer *RecordingCommandEventObserver) CommandStarted(handle *execshell.ExecutionHandle) {
	observer.record(ObservedEvent{Kind: ObservedEventStarted, Handle: handle}, false)
}

// CommandCompleted records the completion.
func (observer *RecordingCommandEventObserver) CommandCompleted(handle *execshell.ExecutionHandle, result execshell.ExecutionResult) {
	observer.record(ObservedEvent{Kind: ObservedEventCompleted, Handle: handle, Result: result}, true)
}

// CommandExecutionFailed records the failure.
func (observer *RecordingCommandEventObserver) CommandExecutionFailed(handle *execshell.ExecutionHandle, failure error) {
	observer.record(ObservedEvent{Kind: ObservedEventExecutionFailed, Handle: handle, Failure: failure}, true)
}

// CommandCancelled records the cancellation.
func (observer *RecordingCommandEventObserver) CommandCancelled(handle *execshell.ExecutionHandle) {
	observer.record(ObservedEvent{Kind: ObservedEventCancelled, Handle: handle}, true)
}

// Events returns a copy of the recorded events.
func (observer *RecordingCommandEventObserver) Events() []ObservedEvent {
	observer.mutex.Lock()
	defer observer.mutex.Unlock()
	return append([]ObservedEvent{}, observer.events...)
}

func (observer *RecordingCommandEventObserver) record(event ObservedEvent, terminal bool) {
	observer.mutex.Lock()
	observer.events = append(observer.events, event)
	observer.mutex.Unlock()
	if terminal {
		observer.Terminal <- event
	}
}

// RecordingTelemetrySink stores sent events and optionally fails.
type RecordingTelemetrySink struct {
	mutex     sync.Mutex
	events    []telemetry.Event
	SendError error
}

// Send records the event and returns SendError.
func (sink *RecordingTelemetrySink) Send(_ context.Context, event telemetry.Event) error {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.events = append(sink.events, event)
	return sink.SendError
}

// Events returns a copy of the recorded events.
func (sink *RecordingTelemetrySink) Events() []telemetry.Event {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	return append([]telemetry.Event{}, sink.events...)
}

// Recorded user message severities.
const (
	MessageSeverityInformation = "information"
	MessageSeverityWarning     = "warning"
	MessageSeverityError       = "error"
)

// RecordedMessage is one user-visible message.
type RecordedMessage struct {
	Severity string
	Text     string
}

// RecordingMessenger stores user-visible messages.
type RecordingMessenger struct {
	mutex    sync.Mutex
	messages []RecordedMessage
}

// ShowInformation records an informational message.
func (messenger *RecordingMessenger) ShowInformation(text string) {
	messenger.record(MessageSeverityInformation, text)
}

// ShowWarning records a warning message.
func (messenger *RecordingMessenger) ShowWarning(text string) {
	messenger.record(MessageSeverityWarning, text)
}

// ShowError records an error message.
func (messenger *RecordingMessenger) ShowError(text string) {
	messenger.record(MessageSeverityError, text)
}

// Messages returns a copy of the recorded messages.
func (messenger *RecordingMessenger) Messages() []RecordedMessage {
	messenger.mutex.Lock()
	defer messenger.mutex.Unlock()
	return append([]RecordedMessage{}, messenger.messages...)
}

func (messenger *RecordingMessenger) record(severity string, text string) {
	messenger.mutex.Lock()
	defer messenger.mutex.Unlock()
	messenger.messages = append(messenger.messages, RecordedMessage{Severity: severity, Text: text})
}
