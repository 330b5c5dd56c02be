package invocation

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/sfdxwatch/internal/execshell"
	"github.com/temirov/sfdxwatch/internal/notifications"
	"github.com/temirov/sfdxwatch/internal/utils/flags"
	"github.com/temirov/sfdxwatch/internal/workflow"
)

const (
	execCommandUseConstant              = "exec [flags] -- <program> [arguments...]"
	execCommandShortDescriptionConstant = "Run an arbitrary program and confirm its outcome"
	execCommandLongDescriptionConstant  = "exec dispatches the program after \"--\" with its arguments passed through unchanged. Without --success the outcome is confirmed by the standard \"<label> successfully ran\" message; \"<label> failed to run\" always counts as a failure."
	labelFlagNameConstant               = "label"
	labelFlagDescriptionConstant        = "Label used in notifications (defaults to the command line)"
	successFlagNameConstant             = "success"
	successFlagDescriptionConstant      = "Notification text that confirms success"
	failureFlagNameConstant             = "failure"
	failureFlagDescriptionConstant      = "Notification text that confirms an expected failure (repeatable)"
	matchModeFlagNameConstant           = "match-mode"
	matchModeFlagDescriptionConstant    = "Notification matching mode"
	eventNameFlagNameConstant           = "event-name"
	eventNameFlagDescriptionConstant    = "Telemetry event name"
	completionTimeoutFlagNameConstant   = "completion-timeout"
	completionTimeoutFlagUsageConstant  = "Maximum time to wait for the program to finish (0 uses configuration)"
	confirmationFlagNameConstant        = "confirmation-timeout"
	confirmationFlagUsageConstant       = "Maximum time to wait for the confirming notification (0 uses configuration)"
	defaultExecEventNameConstant        = "exec"
)

// ExecCommandBuilder assembles the exec command.
type ExecCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Dependencies          RuntimeDependencies
}

// Build constructs the exec command.
func (builder *ExecCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   execCommandUseConstant,
		Short: execCommandShortDescriptionConstant,
		Long:  execCommandLongDescriptionConstant,
		RunE:  builder.run,
	}

	command.Flags().String(labelFlagNameConstant, "", labelFlagDescriptionConstant)
	command.Flags().String(successFlagNameConstant, "", successFlagDescriptionConstant)
	command.Flags().StringArray(failureFlagNameConstant, nil, failureFlagDescriptionConstant)
	flags.AddChoiceFlag(command.Flags(), nil, matchModeFlagNameConstant, string(notifications.MatchModeExact),
		[]string{string(notifications.MatchModeExact), string(notifications.MatchModePrefix)}, matchModeFlagDescriptionConstant)
	command.Flags().String(eventNameFlagNameConstant, defaultExecEventNameConstant, eventNameFlagDescriptionConstant)
	command.Flags().Duration(completionTimeoutFlagNameConstant, 0, completionTimeoutFlagUsageConstant)
	command.Flags().Duration(confirmationFlagNameConstant, 0, confirmationFlagUsageConstant)

	return command, nil
}

func (builder *ExecCommandBuilder) run(command *cobra.Command, arguments []string) error {
	programArguments := arguments
	if dashIndex := command.ArgsLenAtDash(); dashIndex >= 0 {
		programArguments = arguments[dashIndex:]
	}
	if len(programArguments) == 0 || len(strings.TrimSpace(programArguments[0])) == 0 {
		return ErrProgramRequired
	}

	invocation, invocationError := builder.buildInvocation(command, programArguments)
	if invocationError != nil {
		return invocationError
	}

	logger := resolveLogger(builder.LoggerProvider)
	commandRuntime, runtimeError := openRuntime(command, builder.LoggerProvider, builder.ConfigurationProvider, builder.Dependencies)
	if runtimeError != nil {
		return runtimeError
	}

	return invokeAndClose(command, logger, commandRuntime, invocation)
}

func (builder *ExecCommandBuilder) buildInvocation(command *cobra.Command, programArguments []string) (workflow.Invocation, error) {
	label, _ := command.Flags().GetString(labelFlagNameConstant)
	successText, _ := command.Flags().GetString(successFlagNameConstant)
	failureTexts, _ := command.Flags().GetStringArray(failureFlagNameConstant)
	rawMatchMode, _ := command.Flags().GetString(matchModeFlagNameConstant)
	eventName, _ := command.Flags().GetString(eventNameFlagNameConstant)
	completionTimeout, _ := command.Flags().GetDuration(completionTimeoutFlagNameConstant)
	confirmationTimeout, _ := command.Flags().GetDuration(confirmationFlagNameConstant)

	matchMode, matchModeError := notifications.ParseMatchMode(rawMatchMode)
	if matchModeError != nil {
		return workflow.Invocation{}, matchModeError
	}

	shellCommand := execshell.ShellCommand{
		Name:    execshell.CommandName(programArguments[0]),
		Label:   strings.TrimSpace(label),
		Details: execshell.CommandDetails{Arguments: append([]string{}, programArguments[1:]...)},
	}

	invocation := workflow.NewCommandInvocation(shellCommand, strings.TrimSpace(eventName))
	if trimmedSuccess := strings.TrimSpace(successText); len(trimmedSuccess) > 0 {
		invocation.SuccessNotification = trimmedSuccess
	}
	customFailures := make([]string, 0, len(failureTexts)+len(invocation.FailureNotifications))
	for _, failureText := range failureTexts {
		if trimmedFailure := strings.TrimSpace(failureText); len(trimmedFailure) > 0 {
			customFailures = append(customFailures, trimmedFailure)
		}
	}
	invocation.FailureNotifications = append(customFailures, invocation.FailureNotifications...)
	invocation.MatchMode = matchMode
	invocation.CompletionTimeout = completionTimeout
	invocation.ConfirmationTimeout = confirmationTimeout
	return invocation, nil
}
