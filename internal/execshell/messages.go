package execshell

import (
	"fmt"
	"strings"
)

const (
	runningMessageTemplateConstant   = "Running %s"
	successMessageTemplateConstant   = "%s successfully ran"
	failureMessageTemplateConstant   = "%s failed to run"
	cancelledMessageTemplateConstant = "%s was canceled"
)

// CommandMessageFormatter builds the notification texts announced for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildRunningMessage formats the notification shown while the command runs.
func (formatter CommandMessageFormatter) BuildRunningMessage(command ShellCommand) string {
	if progressMessage := strings.TrimSpace(command.ProgressMessage); len(progressMessage) > 0 {
		return progressMessage
	}
	return fmt.Sprintf(runningMessageTemplateConstant, command.DisplayLabel())
}

// BuildSuccessMessage formats the notification for a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return fmt.Sprintf(successMessageTemplateConstant, command.DisplayLabel())
}

// BuildFailureMessage formats the notification for a non-zero exit code or a wait failure.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand) string {
	return fmt.Sprintf(failureMessageTemplateConstant, command.DisplayLabel())
}

// BuildCancelledMessage formats the notification for a cancelled command.
func (formatter CommandMessageFormatter) BuildCancelledMessage(command ShellCommand) string {
	return fmt.Sprintf(cancelledMessageTemplateConstant, command.DisplayLabel())
}
