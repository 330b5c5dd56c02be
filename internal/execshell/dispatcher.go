package execshell

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/internal/utils"
)

const (
	logMessageCommandDispatchedConstant   = "command dispatched"
	logMessageCommandResolutionConstant   = "command resolution failed"
	logMessageCommandExitedConstant       = "command exited"
	logMessageCommandWaitFailedConstant   = "command wait failed"
	logMessageCommandCancelledConstant    = "command cancelled"
	logMessageTerminationFailedConstant   = "command termination failed"
	logMessageCommandOutputConstant       = "command output"
	logFieldInvocationIdentifierConstant  = "invocation_id"
	logFieldProgramConstant               = "program"
	logFieldArgumentsConstant             = "arguments"
	logFieldWorkingDirectoryConstant      = "working_directory"
	logFieldProcessIdentifierConstant     = "pid"
	logFieldExitCodeConstant              = "exit_code"
	logFieldStreamConstant                = "stream"
	logFieldLineConstant                  = "line"
	standardErrorRetentionLimitConstant   = 64 * 1024
	standardErrorTruncationMarkerConstant = "..."
)

// DispatcherOption customizes a Dispatcher.
type DispatcherOption func(dispatcher *Dispatcher)

// WithProgramResolver replaces the PATH based resolver.
func WithProgramResolver(resolver ProgramResolver) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		if resolver != nil {
			dispatcher.resolver = resolver
		}
	}
}

// WithCommandEventObservers registers lifecycle observers.
func WithCommandEventObservers(observers ...CommandEventObserver) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		for _, observer := range observers {
			if observer != nil {
				dispatcher.observers = append(dispatcher.observers, observer)
			}
		}
	}
}

// WithOutputLineHandlers registers sinks for process output lines.
func WithOutputLineHandlers(handlers ...OutputLineHandler) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		for _, handler := range handlers {
			if handler != nil {
				dispatcher.outputHandlers = append(dispatcher.outputHandlers, handler)
			}
		}
	}
}

// WithClock replaces the system clock used for timestamps.
func WithClock(clock utils.Clock) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		dispatcher.clock = utils.ResolveClock(clock)
	}
}

// WithIdentifierGenerator replaces the UUID based invocation identifier generator.
func WithIdentifierGenerator(generator func() string) DispatcherOption {
	return func(dispatcher *Dispatcher) {
		if generator != nil {
			dispatcher.identifierGenerator = generator
		}
	}
}

// Dispatcher resolves and launches commands, tracking each through an ExecutionHandle.
type Dispatcher struct {
	logger              *zap.Logger
	runner              CommandRunner
	resolver            ProgramResolver
	observers           []CommandEventObserver
	outputHandlers      []OutputLineHandler
	clock               utils.Clock
	identifierGenerator func() string
}

// NewDispatcher validates dependencies and constructs a Dispatcher.
func NewDispatcher(logger *zap.Logger, runner CommandRunner, options ...DispatcherOption) (*Dispatcher, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	dispatcher := &Dispatcher{
		logger:              logger,
		runner:              runner,
		resolver:            NewPathProgramResolver(),
		clock:               utils.NewSystemClock(),
		identifierGenerator: uuid.NewString,
	}
	for _, option := range options {
		if option != nil {
			option(dispatcher)
		}
	}
	return dispatcher, nil
}

// Run resolves the program and starts it asynchronously. The returned handle is
// running; completion is observed through the handle or the registered observers.
// Resolution and start failures return ResolutionError and no handle.
func (dispatcher *Dispatcher) Run(executionContext context.Context, command ShellCommand) (*ExecutionHandle, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	dispatchedCommand := command.Clone()
	programName := strings.TrimSpace(string(dispatchedCommand.Name))

	resolvedProgram, resolutionError := dispatcher.resolver.Resolve(dispatchedCommand)
	if resolutionError != nil {
		dispatcher.logger.Debug(logMessageCommandResolutionConstant, zap.String(logFieldProgramConstant, programName), zap.Error(resolutionError))
		return nil, ResolutionError{Program: programName, Cause: resolutionError}
	}

	router := &outputRouter{deliver: dispatcher.dispatchOutputLine}
	standardErrorTail := &boundedBuffer{limit: standardErrorRetentionLimitConstant}
	standardOutputWriter := utils.NewLineWriter(func(line string) {
		router.route(OutputStreamStandardOutput, line)
	})
	standardErrorWriter := utils.NewLineWriter(func(line string) {
		standardErrorTail.appendLine(line)
		router.route(OutputStreamStandardError, line)
	})

	process, startError := dispatcher.runner.Start(executionContext, resolvedProgram, dispatchedCommand, ProcessStreams{
		StandardOutput: standardOutputWriter,
		StandardError:  standardErrorWriter,
	})
	if startError != nil {
		dispatcher.logger.Debug(logMessageCommandResolutionConstant, zap.String(logFieldProgramConstant, programName), zap.Error(startError))
		return nil, ResolutionError{Program: programName, Cause: startError}
	}

	handle := newExecutionHandle(dispatcher.identifierGenerator(), dispatchedCommand, process, dispatcher.clock.Now())

	dispatcher.logger.Debug(
		logMessageCommandDispatchedConstant,
		zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()),
		zap.String(logFieldProgramConstant, resolvedProgram),
		zap.Strings(logFieldArgumentsConstant, dispatchedCommand.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, dispatchedCommand.Details.WorkingDirectory),
		zap.Int(logFieldProcessIdentifierConstant, handle.ProcessIdentifier()),
	)

	for _, observer := range dispatcher.observers {
		observer.CommandStarted(handle)
	}
	router.attach(handle)

	go dispatcher.awaitProcess(handle, process, standardOutputWriter, standardErrorWriter, standardErrorTail)

	return handle, nil
}

// Cancel signals the process behind the handle to terminate. The handle moves to
// HandleStateCancelled unless it already reached a terminal state, in which case
// Cancel is a no-op.
func (dispatcher *Dispatcher) Cancel(handle *ExecutionHandle) error {
	if handle == nil {
		return ErrHandleNotConfigured
	}

	if !handle.finish(HandleStateCancelled, ExecutionResult{}, ErrCommandCancelled, dispatcher.clock.Now()) {
		return nil
	}

	dispatcher.logger.Debug(logMessageCommandCancelledConstant, zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()))
	for _, observer := range dispatcher.observers {
		observer.CommandCancelled(handle)
	}

	if handle.process == nil {
		return nil
	}
	terminationError := handle.process.Terminate()
	if terminationError != nil {
		dispatcher.logger.Warn(logMessageTerminationFailedConstant, zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()), zap.Error(terminationError))
	}
	return terminationError
}

func (dispatcher *Dispatcher) awaitProcess(handle *ExecutionHandle, process RunningProcess, standardOutputWriter *utils.LineWriter, standardErrorWriter *utils.LineWriter, standardErrorTail *boundedBuffer) {
	result, waitError := process.Wait()
	_ = standardOutputWriter.Flush()
	_ = standardErrorWriter.Flush()
	dispatcher.completeHandle(handle, result, waitError, standardErrorTail.String())
}

func (dispatcher *Dispatcher) completeHandle(handle *ExecutionHandle, result ExecutionResult, waitError error, standardError string) {
	if waitError != nil {
		failure := CommandExecutionError{Command: handle.Command(), Cause: waitError}
		if !handle.finish(HandleStateFailed, ExecutionResult{}, failure, dispatcher.clock.Now()) {
			return
		}
		dispatcher.logger.Debug(logMessageCommandWaitFailedConstant, zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()), zap.Error(waitError))
		for _, observer := range dispatcher.observers {
			observer.CommandExecutionFailed(handle, failure)
		}
		return
	}

	if len(result.StandardError) == 0 {
		result.StandardError = standardError
	}

	terminalState := HandleStateExited
	var failure error
	if result.ExitCode != 0 {
		terminalState = HandleStateFailed
		failure = CommandFailedError{Command: handle.Command(), Result: result}
	}
	if !handle.finish(terminalState, result, failure, dispatcher.clock.Now()) {
		return
	}

	dispatcher.logger.Debug(logMessageCommandExitedConstant, zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()), zap.Int(logFieldExitCodeConstant, result.ExitCode))
	for _, observer := range dispatcher.observers {
		observer.CommandCompleted(handle, result)
	}
}

func (dispatcher *Dispatcher) dispatchOutputLine(handle *ExecutionHandle, stream OutputStream, line string) {
	if handle == nil {
		return
	}
	if handle.State() == HandleStateCancelled {
		return
	}

	dispatcher.logger.Debug(
		logMessageCommandOutputConstant,
		zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()),
		zap.String(logFieldStreamConstant, string(stream)),
		zap.String(logFieldLineConstant, line),
	)

	for _, outputHandler := range dispatcher.outputHandlers {
		outputHandler.HandleOutputLine(handle, stream, line)
	}
}

type routedLine struct {
	stream OutputStream
	line   string
}

// outputRouter holds lines written before the handle exists and delivers every line in write order.
type outputRouter struct {
	mutex   sync.Mutex
	handle  *ExecutionHandle
	pending []routedLine
	deliver func(handle *ExecutionHandle, stream OutputStream, line string)
}

func (router *outputRouter) route(stream OutputStream, line string) {
	router.mutex.Lock()
	defer router.mutex.Unlock()
	if router.handle == nil {
		router.pending = append(router.pending, routedLine{stream: stream, line: line})
		return
	}
	router.deliver(router.handle, stream, line)
}

func (router *outputRouter) attach(handle *ExecutionHandle) {
	router.mutex.Lock()
	defer router.mutex.Unlock()
	router.handle = handle
	for _, pendingLine := range router.pending {
		router.deliver(handle, pendingLine.stream, pendingLine.line)
	}
	router.pending = nil
}

type boundedBuffer struct {
	mutex   sync.Mutex
	limit   int
	builder strings.Builder
}

func (buffer *boundedBuffer) appendLine(line string) {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	if buffer.builder.Len() >= buffer.limit {
		return
	}
	if buffer.builder.Len() > 0 {
		buffer.builder.WriteByte('\n')
	}
	remaining := buffer.limit - buffer.builder.Len()
	if len(line) > remaining {
		buffer.builder.WriteString(line[:remaining])
		buffer.builder.WriteString(standardErrorTruncationMarkerConstant)
		return
	}
	buffer.builder.WriteString(line)
}

func (buffer *boundedBuffer) String() string {
	buffer.mutex.Lock()
	defer buffer.mutex.Unlock()
	return buffer.builder.String()
}
