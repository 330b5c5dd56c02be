package execshell

import (
	"context"
	"sync"
	"time"
)

const (
	handleStateRunningLabelConstant   = "running"
	handleStateExitedLabelConstant    = "exited"
	handleStateFailedLabelConstant    = "failed"
	handleStateCancelledLabelConstant = "cancelled"
	handleStateUnknownLabelConstant   = "unknown"
)

// HandleState describes the lifecycle position of an ExecutionHandle.
type HandleState int

// Handle states. Every state other than HandleStateRunning is terminal.
const (
	HandleStateRunning HandleState = iota
	HandleStateExited
	HandleStateFailed
	HandleStateCancelled
)

// String renders the state label.
func (state HandleState) String() string {
	switch state {
	case HandleStateRunning:
		return handleStateRunningLabelConstant
	case HandleStateExited:
		return handleStateExitedLabelConstant
	case HandleStateFailed:
		return handleStateFailedLabelConstant
	case HandleStateCancelled:
		return handleStateCancelledLabelConstant
	default:
		return handleStateUnknownLabelConstant
	}
}

// Terminal reports whether the state is final.
func (state HandleState) Terminal() bool {
	return state != HandleStateRunning
}

// ExecutionHandle represents one in-flight invocation owned by a Dispatcher.
type ExecutionHandle struct {
	identifier        string
	command           ShellCommand
	processIdentifier int
	startedAt         time.Time
	process           RunningProcess

	mutex           sync.Mutex
	state           HandleState
	result          ExecutionResult
	failure         error
	finishedAt      time.Time
	cancelRequested bool

	done chan struct{}
}

func newExecutionHandle(identifier string, command ShellCommand, process RunningProcess, startedAt time.Time) *ExecutionHandle {
	processIdentifier := 0
	if process != nil {
		processIdentifier = process.ProcessIdentifier()
	}
	return &ExecutionHandle{
		identifier:        identifier,
		command:           command,
		processIdentifier: processIdentifier,
		startedAt:         startedAt,
		process:           process,
		state:             HandleStateRunning,
		done:              make(chan struct{}),
	}
}

// Identifier returns the unique invocation identifier.
func (handle *ExecutionHandle) Identifier() string {
	return handle.identifier
}

// Command returns the dispatched command.
func (handle *ExecutionHandle) Command() ShellCommand {
	return handle.command
}

// ProcessIdentifier returns the operating system process identifier.
func (handle *ExecutionHandle) ProcessIdentifier() int {
	return handle.processIdentifier
}

// StartedAt returns the time the process was started.
func (handle *ExecutionHandle) StartedAt() time.Time {
	return handle.startedAt
}

// State reports the current lifecycle state.
func (handle *ExecutionHandle) State() HandleState {
	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	return handle.state
}

// CancelRequested reports whether cancellation was requested.
func (handle *ExecutionHandle) CancelRequested() bool {
	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	return handle.cancelRequested
}

// FinishedAt returns the time the terminal state was reached, or the zero time while running.
func (handle *ExecutionHandle) FinishedAt() time.Time {
	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	return handle.finishedAt
}

// Done is closed once the handle reaches a terminal state.
func (handle *ExecutionHandle) Done() <-chan struct{} {
	return handle.done
}

// Wait blocks until the handle is terminal or the context ends.
// It returns CommandFailedError for non-zero exits, CommandExecutionError for wait failures, and ErrCommandCancelled after cancellation.
func (handle *ExecutionHandle) Wait(waitContext context.Context) (ExecutionResult, error) {
	if waitContext == nil {
		waitContext = context.Background()
	}
	select {
	case <-waitContext.Done():
		return ExecutionResult{}, waitContext.Err()
	case <-handle.done:
	}

	handle.mutex.Lock()
	defer handle.mutex.Unlock()
	return handle.result, handle.failure
}

// finish records the terminal state. Only the first call has any effect; it reports whether this call won.
func (handle *ExecutionHandle) finish(state HandleState, result ExecutionResult, failure error, finishedAt time.Time) bool {
	if !state.Terminal() {
		return false
	}

	handle.mutex.Lock()
	defer handle.mutex.Unlock()

	if handle.state.Terminal() {
		return false
	}

	handle.state = state
	handle.result = result
	handle.failure = failure
	handle.finishedAt = finishedAt
	if state == HandleStateCancelled {
		handle.cancelRequested = true
	}
	close(handle.done)
	return true
}
