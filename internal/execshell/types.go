package execshell

import (
	"context"
	"io"
	"strings"
)

const (
	commandSalesforceCLIStringConstant       = "sf"
	commandLegacySalesforceCLIStringConstant = "sfdx"
	outputStreamStandardOutputConstant       = "stdout"
	outputStreamStandardErrorConstant        = "stderr"
	commandLabelSeparatorConstant            = " "
)

// CommandName identifies the executable invoked by a ShellCommand.
type CommandName string

// Well-known executables.
const (
	CommandSalesforceCLI       CommandName = CommandName(commandSalesforceCLIStringConstant)
	CommandLegacySalesforceCLI CommandName = CommandName(commandLegacySalesforceCLIStringConstant)
)

// CommandDetails describes the arguments and environment for a command invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable with its invocation details.
// ProgressMessage, when set, replaces the "Running <label>" notification.
type ShellCommand struct {
	Name            CommandName
	Label           string
	ProgressMessage string
	Details         CommandDetails
}

// DisplayLabel returns the human-facing label, falling back to the command line.
func (command ShellCommand) DisplayLabel() string {
	trimmedLabel := strings.TrimSpace(command.Label)
	if len(trimmedLabel) > 0 {
		return trimmedLabel
	}
	commandParts := append([]string{string(command.Name)}, command.Details.Arguments...)
	return strings.Join(commandParts, commandLabelSeparatorConstant)
}

// Clone returns a deep copy so the caller's slices and maps cannot alter a dispatched command.
func (command ShellCommand) Clone() ShellCommand {
	cloned := command
	cloned.Details.Arguments = append([]string{}, command.Details.Arguments...)
	if command.Details.EnvironmentVariables != nil {
		cloned.Details.EnvironmentVariables = make(map[string]string, len(command.Details.EnvironmentVariables))
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			cloned.Details.EnvironmentVariables[environmentKey] = environmentValue
		}
	}
	if command.Details.StandardInput != nil {
		cloned.Details.StandardInput = append([]byte{}, command.Details.StandardInput...)
	}
	return cloned
}

// ExecutionResult captures the observable results of a finished process.
type ExecutionResult struct {
	StandardError string
	ExitCode      int
}

// OutputStream names the process stream a line was read from.
type OutputStream string

// Supported output streams.
const (
	OutputStreamStandardOutput OutputStream = OutputStream(outputStreamStandardOutputConstant)
	OutputStreamStandardError  OutputStream = OutputStream(outputStreamStandardErrorConstant)
)

// ProcessStreams carries the writers a runner connects to the child process.
type ProcessStreams struct {
	StandardOutput io.Writer
	StandardError  io.Writer
}

// RunningProcess is a started child process.
type RunningProcess interface {
	// ProcessIdentifier reports the operating system process identifier.
	ProcessIdentifier() int
	// Wait blocks until the process exits. Non-zero exit codes are reported through the result, not the error.
	Wait() (ExecutionResult, error)
	// Terminate asks the process to stop.
	Terminate() error
}

// CommandRunner starts processes for resolved programs.
type CommandRunner interface {
	Start(executionContext context.Context, resolvedProgram string, command ShellCommand, streams ProcessStreams) (RunningProcess, error)
}

// OutputLineHandler receives each line a dispatched process writes.
type OutputLineHandler interface {
	HandleOutputLine(handle *ExecutionHandle, stream OutputStream, line string)
}
