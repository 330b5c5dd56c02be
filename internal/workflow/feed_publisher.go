package workflow

import (
	"sync"

	"github.com/temirov/sfdxwatch/internal/execshell"
	"github.com/temirov/sfdxwatch/internal/notifications"
)

// NotificationPublisher is the writable side of a notification feed.
type NotificationPublisher interface {
	Publish(text string, severity notifications.Severity) notifications.Notification
	PublishSticky(text string, severity notifications.Severity) notifications.Notification
	Dismiss(identifier string) bool
}

// FeedPublisher mirrors process lifecycle and output into the notification feed.
// It shows "Running <label>" while a process runs and replaces it with the
// success, failure, or cancellation message once the process ends.
type FeedPublisher struct {
	publisher NotificationPublisher
	formatter execshell.CommandMessageFormatter

	mutex   sync.Mutex
	running map[string]string
}

// NewFeedPublisher constructs a publisher writing to the provided feed.
func NewFeedPublisher(publisher NotificationPublisher) *FeedPublisher {
	return &FeedPublisher{publisher: publisher, running: map[string]string{}}
}

// CommandStarted posts the progress notification.
func (feedPublisher *FeedPublisher) CommandStarted(handle *execshell.ExecutionHandle) {
	if handle == nil {
		return
	}
	notification := feedPublisher.publisher.PublishSticky(feedPublisher.formatter.BuildRunningMessage(handle.Command()), notifications.SeverityInformation)

	feedPublisher.mutex.Lock()
	feedPublisher.running[handle.Identifier()] = notification.ID
	feedPublisher.mutex.Unlock()
}

// CommandCompleted posts the success or failure message.
func (feedPublisher *FeedPublisher) CommandCompleted(handle *execshell.ExecutionHandle, result execshell.ExecutionResult) {
	if handle == nil {
		return
	}
	if result.ExitCode == 0 {
		feedPublisher.finish(handle, feedPublisher.formatter.BuildSuccessMessage(handle.Command()), notifications.SeverityInformation)
		return
	}
	feedPublisher.finish(handle, feedPublisher.formatter.BuildFailureMessage(handle.Command()), notifications.SeverityError)
}

// CommandExecutionFailed posts the failure message.
func (feedPublisher *FeedPublisher) CommandExecutionFailed(handle *execshell.ExecutionHandle, _ error) {
	if handle == nil {
		return
	}
	feedPublisher.finish(handle, feedPublisher.formatter.BuildFailureMessage(handle.Command()), notifications.SeverityError)
}

// CommandCancelled posts the cancellation message.
func (feedPublisher *FeedPublisher) CommandCancelled(handle *execshell.ExecutionHandle) {
	if handle == nil {
		return
	}
	feedPublisher.finish(handle, feedPublisher.formatter.BuildCancelledMessage(handle.Command()), notifications.SeverityWarning)
}

// HandleOutputLine posts a process output line. Standard error lines are warnings.
func (feedPublisher *FeedPublisher) HandleOutputLine(_ *execshell.ExecutionHandle, stream execshell.OutputStream, line string) {
	severity := notifications.SeverityInformation
	if stream == execshell.OutputStreamStandardError {
		severity = notifications.SeverityWarning
	}
	feedPublisher.publisher.Publish(line, severity)
}

// finish posts the terminal message before removing the progress notification,
// so a waiter never observes a gap between the two.
func (feedPublisher *FeedPublisher) finish(handle *execshell.ExecutionHandle, text string, severity notifications.Severity) {
	feedPublisher.publisher.Publish(text, severity)

	feedPublisher.mutex.Lock()
	runningIdentifier, exists := feedPublisher.running[handle.Identifier()]
	delete(feedPublisher.running, handle.Identifier())
	feedPublisher.mutex.Unlock()

	if exists {
		feedPublisher.publisher.Dismiss(runningIdentifier)
	}
}
