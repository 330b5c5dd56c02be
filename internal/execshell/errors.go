package execshell

import (
	"errors"
	"fmt"
)

const (
	loggerNotConfiguredMessageConstant        = "shell dispatcher logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell dispatcher command runner not configured"
	handleNotConfiguredMessageConstant        = "execution handle not provided"
	commandCancelledMessageConstant           = "command cancelled"
	programRequiredMessageConstant            = "program name required"
	resolutionErrorTemplateConstant           = "unable to resolve %s: %s"
	commandFailedErrorTemplateConstant        = "%s exited with code %d"
	commandExecutionErrorTemplateConstant     = "%s execution failed: %s"
	unknownCauseMessageConstant               = "unknown error"
)

var (
	// ErrLoggerNotConfigured indicates the dispatcher was constructed without a logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates the dispatcher was constructed without a runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
	// ErrHandleNotConfigured indicates a nil handle was supplied.
	ErrHandleNotConfigured = errors.New(handleNotConfiguredMessageConstant)
	// ErrCommandCancelled is reported by handles that reached the cancelled state.
	ErrCommandCancelled = errors.New(commandCancelledMessageConstant)
	// ErrProgramRequired indicates a command without an executable name.
	ErrProgramRequired = errors.New(programRequiredMessageConstant)
)

// ResolutionError reports that the target executable could not be found or started.
// It is the only failure Dispatcher.Run returns; no handle exists when it occurs.
type ResolutionError struct {
	Program string
	Cause   error
}

// Error describes the resolution failure.
func (resolutionError ResolutionError) Error() string {
	causeMessage := unknownCauseMessageConstant
	if resolutionError.Cause != nil {
		causeMessage = resolutionError.Cause.Error()
	}
	return fmt.Sprintf(resolutionErrorTemplateConstant, resolutionError.Program, causeMessage)
}

// Unwrap exposes the underlying cause.
func (resolutionError ResolutionError) Unwrap() error {
	return resolutionError.Cause
}

// CommandFailedError describes a process that exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failure.
func (failedError CommandFailedError) Error() string {
	return fmt.Sprintf(commandFailedErrorTemplateConstant, failedError.Command.DisplayLabel(), failedError.Result.ExitCode)
}

// CommandExecutionError describes failures while waiting on a started process.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	causeMessage := unknownCauseMessageConstant
	if executionError.Cause != nil {
		causeMessage = executionError.Cause.Error()
	}
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, executionError.Command.DisplayLabel(), causeMessage)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}
