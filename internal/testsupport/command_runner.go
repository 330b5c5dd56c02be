package testsupport

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/temirov/sfdxwatch/internal/execshell"
)

const outputLineTemplateConstant = "%s\n"

// StaticProgramResolver resolves commands from a fixed table.
type StaticProgramResolver struct {
	Programs map[execshell.CommandName]string
}

// Resolve returns the configured path or exec-style not-found error.
func (resolver StaticProgramResolver) Resolve(command execshell.ShellCommand) (string, error) {
	resolvedPath, exists := resolver.Programs[command.Name]
	if !exists {
		return "", fmt.Errorf("executable file not found in $PATH: %s", command.Name)
	}
	return resolvedPath, nil
}

// StartedCommand records one Start call.
type StartedCommand struct {
	ResolvedProgram string
	Command         execshell.ShellCommand
}

// ScriptedCommandRunner hands out queued ScriptedProcess values in order.
type ScriptedCommandRunner struct {
	mutex      sync.Mutex
	processes  []*ScriptedProcess
	StartError error
	Started    []StartedCommand
}

// NewScriptedCommandRunner constructs a runner that returns processes in the provided order.
func NewScriptedCommandRunner(processes ...*ScriptedProcess) *ScriptedCommandRunner {
	return &ScriptedCommandRunner{processes: processes}
}

// Start writes the process's scripted output and returns it.
func (runner *ScriptedCommandRunner) Start(_ context.Context, resolvedProgram string, command execshell.ShellCommand, streams execshell.ProcessStreams) (execshell.RunningProcess, error) {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()

	if runner.StartError != nil {
		return nil, runner.StartError
	}
	if len(runner.processes) == 0 {
		return nil, errors.New("no scripted process available")
	}

	process := runner.processes[0]
	runner.processes = runner.processes[1:]
	runner.Started = append(runner.Started, StartedCommand{ResolvedProgram: resolvedProgram, Command: command})
	process.attach(streams)
	return process, nil
}

// StartedCommands returns a copy of the recorded Start calls.
func (runner *ScriptedCommandRunner) StartedCommands() []StartedCommand {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	return append([]StartedCommand{}, runner.Started...)
}

// ScriptedProcess is a controllable execshell.RunningProcess.
// Output lines are written when the process is started; Wait blocks until Exit or Terminate.
type ScriptedProcess struct {
	Identifier     int
	OutputLines    []string
	ErrorLines     []string
	Result         execshell.ExecutionResult
	WaitError      error
	TerminateError error

	mutex          sync.Mutex
	streams        execshell.ProcessStreams
	exitSignal     chan struct{}
	exitOnce       sync.Once
	terminateCount int
	terminated     bool
}

// NewScriptedProcess constructs a process that exits with the provided code once released.
func NewScriptedProcess(exitCode int, outputLines ...string) *ScriptedProcess {
	return &ScriptedProcess{
		Identifier:  4242,
		OutputLines: outputLines,
		Result:      execshell.ExecutionResult{ExitCode: exitCode},
		exitSignal:  make(chan struct{}),
	}
}

func (process *ScriptedProcess) attach(streams execshell.ProcessStreams) {
	process.mutex.Lock()
	process.streams = streams
	process.mutex.Unlock()

	for _, outputLine := range process.OutputLines {
		if streams.StandardOutput != nil {
			fmt.Fprintf(streams.StandardOutput, outputLineTemplateConstant, outputLine)
		}
	}
	for _, errorLine := range process.ErrorLines {
		if streams.StandardError != nil {
			fmt.Fprintf(streams.StandardError, outputLineTemplateConstant, errorLine)
		}
	}
}

// ProcessIdentifier returns the scripted identifier.
func (process *ScriptedProcess) ProcessIdentifier() int {
	return process.Identifier
}

// Exit releases Wait.
func (process *ScriptedProcess) Exit() {
	process.exitOnce.Do(func() {
		close(process.exitSignal)
	})
}

// Wait blocks until Exit or Terminate.
func (process *ScriptedProcess) Wait() (execshell.ExecutionResult, error) {
	<-process.exitSignal

	process.mutex.Lock()
	defer process.mutex.Unlock()
	if process.terminated {
		return execshell.ExecutionResult{ExitCode: -1}, nil
	}
	if process.WaitError != nil {
		return execshell.ExecutionResult{}, process.WaitError
	}
	return process.Result, nil
}

// Terminate records the request and releases Wait.
func (process *ScriptedProcess) Terminate() error {
	process.mutex.Lock()
	process.terminateCount++
	process.terminated = true
	process.mutex.Unlock()
	process.Exit()
	return process.TerminateError
}

// TerminateCount reports how many times Terminate was called.
func (process *ScriptedProcess) TerminateCount() int {
	process.mutex.Lock()
	defer process.mutex.Unlock()
	return process.terminateCount
}
