package execshell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"
)

const (
	environmentAssignmentTemplateConstant = "%s=%s"
	defaultTerminationGracePeriodConstant = 5 * time.Second
)

// OSCommandRunner starts commands using the operating system facilities.
type OSCommandRunner struct {
	terminationGracePeriod time.Duration
}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{terminationGracePeriod: defaultTerminationGracePeriodConstant}
}

// NewOSCommandRunnerWithGracePeriod constructs a runner that escalates to a kill after gracePeriod.
func NewOSCommandRunnerWithGracePeriod(gracePeriod time.Duration) *OSCommandRunner {
	if gracePeriod <= 0 {
		gracePeriod = defaultTerminationGracePeriodConstant
	}
	return &OSCommandRunner{terminationGracePeriod: gracePeriod}
}

// Start launches the resolved program without waiting for it to finish.
func (runner *OSCommandRunner) Start(executionContext context.Context, resolvedProgram string, command ShellCommand, streams ProcessStreams) (RunningProcess, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	processContext, cancelProcess := context.WithCancel(context.WithoutCancel(executionContext))
	executable := exec.CommandContext(processContext, resolvedProgram, append([]string{}, command.Details.Arguments...)...)
	executable.Cancel = func() error {
		return executable.Process.Signal(syscall.SIGTERM)
	}
	executable.WaitDelay = runner.terminationGracePeriod

	if len(command.Details.WorkingDirectory) > 0 {
		executable.Dir = command.Details.WorkingDirectory
	}

	if len(command.Details.EnvironmentVariables) > 0 {
		mergedEnvironment := append([]string{}, os.Environ()...)
		for environmentKey, environmentValue := range command.Details.EnvironmentVariables {
			mergedEnvironment = append(mergedEnvironment, fmt.Sprintf(environmentAssignmentTemplateConstant, environmentKey, environmentValue))
		}
		executable.Env = mergedEnvironment
	}

	executable.Stdout = streams.StandardOutput
	executable.Stderr = streams.StandardError

	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	if startError := executable.Start(); startError != nil {
		cancelProcess()
		return nil, startError
	}

	return &osRunningProcess{executable: executable, cancelProcess: cancelProcess}, nil
}

type osRunningProcess struct {
	executable    *exec.Cmd
	cancelProcess context.CancelFunc
}

func (process *osRunningProcess) ProcessIdentifier() int {
	if process.executable.Process == nil {
		return 0
	}
	return process.executable.Process.Pid
}

func (process *osRunningProcess) Wait() (ExecutionResult, error) {
	defer process.cancelProcess()

	waitError := process.executable.Wait()
	if waitError == nil {
		return ExecutionResult{ExitCode: 0}, nil
	}

	exitError := &exec.ExitError{}
	if errors.As(waitError, &exitError) {
		return ExecutionResult{ExitCode: exitError.ExitCode()}, nil
	}
	return ExecutionResult{}, waitError
}

func (process *osRunningProcess) Terminate() error {
	process.cancelProcess()
	return nil
}
