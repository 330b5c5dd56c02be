package execshell_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/sfdxwatch/internal/execshell"
	"github.com/temirov/sfdxwatch/internal/testsupport"
)

const (
	testLoggerInitializationCaseNameConstant     = "logger_validation"
	testRunnerInitializationCaseNameConstant     = "runner_validation"
	testSuccessfulInitializationCaseNameConstant = "successful_initialization"
	testResolvedProgramPathConstant              = "/usr/local/bin/sf"
	testInvocationIdentifierConstant             = "invocation-0001"
	testCommandLabelConstant                     = "SFDX: Get Apex Debug Logs"
	testOutputLineConstant                       = "Pick an Apex debug log to get"
	testErrorLineConstant                        = "Warning: org expires soon"
	testWaitTimeoutConstant                      = 5 * time.Second
)

type recordedOutputLine struct {
	stream execshell.OutputStream
	line   string
}

type recordingOutputLineHandler struct {
	mutex sync.Mutex
	lines []recordedOutputLine
}

func (handler *recordingOutputLineHandler) HandleOutputLine(_ *execshell.ExecutionHandle, stream execshell.OutputStream, line string) {
	handler.mutex.Lock()
	defer handler.mutex.Unlock()
	handler.lines = append(handler.lines, recordedOutputLine{stream: stream, line: line})
}

func (handler *recordingOutputLineHandler) recorded() []recordedOutputLine {
	handler.mutex.Lock()
	defer handler.mutex.Unlock()
	return append([]recordedOutputLine{}, handler.lines...)
}

func newTestCommand() execshell.ShellCommand {
	return execshell.ShellCommand{
		Name:  execshell.CommandSalesforceCLI,
		Label: testCommandLabelConstant,
		Details: execshell.CommandDetails{
			Arguments: []string{"get-logs", "--name", "ExampleApexClass"},
		},
	}
}

func newTestResolver() testsupport.StaticProgramResolver {
	return testsupport.StaticProgramResolver{Programs: map[execshell.CommandName]string{
		execshell.CommandSalesforceCLI: testResolvedProgramPathConstant,
	}}
}

func waitForTerminalEvent(testInstance *testing.T, eventObserver *testsupport.RecordingCommandEventObserver) testsupport.ObservedEvent {
	testInstance.Helper()
	select {
	case event := <-eventObserver.Terminal:
		return event
	case <-time.After(testWaitTimeoutConstant):
		testInstance.Fatal("timed out waiting for terminal command event")
		return testsupport.ObservedEvent{}
	}
}

func TestDispatcherInitializationValidation(testInstance *testing.T) {
	testCases := []struct {
		name          string
		logger        *zap.Logger
		runner        execshell.CommandRunner
		expectError   error
		expectSuccess bool
	}{
		{
			name:        testLoggerInitializationCaseNameConstant,
			logger:      nil,
			runner:      testsupport.NewScriptedCommandRunner(),
			expectError: execshell.ErrLoggerNotConfigured,
		},
		{
			name:        testRunnerInitializationCaseNameConstant,
			logger:      zap.NewNop(),
			runner:      nil,
			expectError: execshell.ErrCommandRunnerNotConfigured,
		},
		{
			name:          testSuccessfulInitializationCaseNameConstant,
			logger:        zap.NewNop(),
			runner:        testsupport.NewScriptedCommandRunner(),
			expectSuccess: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			dispatcher, creationError := execshell.NewDispatcher(testCase.logger, testCase.runner)
			if testCase.expectSuccess {
				require.NoError(testInstance, creationError)
				require.NotNil(testInstance, dispatcher)
				return
			}
			require.ErrorIs(testInstance, creationError, testCase.expectError)
			require.Nil(testInstance, dispatcher)
		})
	}
}

func TestDispatcherRunReportsResolutionErrors(testInstance *testing.T) {
	testCases := []struct {
		name       string
		resolver   execshell.ProgramResolver
		startError error
	}{
		{
			name:     "missing_program",
			resolver: testsupport.StaticProgramResolver{},
		},
		{
			name:       "start_failure",
			resolver:   newTestResolver(),
			startError: errors.New("permission denied"),
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runner := testsupport.NewScriptedCommandRunner(testsupport.NewScriptedProcess(0))
			runner.StartError = testCase.startError
			eventObserver := testsupport.NewRecordingCommandEventObserver()

			dispatcher, creationError := execshell.NewDispatcher(zap.NewNop(), runner,
				execshell.WithProgramResolver(testCase.resolver),
				execshell.WithCommandEventObservers(eventObserver),
			)
			require.NoError(testInstance, creationError)

			handle, runError := dispatcher.Run(context.Background(), newTestCommand())
			require.Nil(testInstance, handle)

			var resolutionError execshell.ResolutionError
			require.ErrorAs(testInstance, runError, &resolutionError)
			require.Equal(testInstance, string(execshell.CommandSalesforceCLI), resolutionError.Program)
			require.Empty(testInstance, runner.StartedCommands())
			require.Empty(testInstance, eventObserver.Events())
		})
	}
}

func TestDispatcherRunIsAsynchronousAndCompletesOnce(testInstance *testing.T) {
	observerCore, observedLogs := observer.New(zap.DebugLevel)
	process := testsupport.NewScriptedProcess(0, testOutputLineConstant)
	process.ErrorLines = []string{testErrorLineConstant}
	runner := testsupport.NewScriptedCommandRunner(process)
	eventObserver := testsupport.NewRecordingCommandEventObserver()
	outputHandler := &recordingOutputLineHandler{}
	startTime := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	dispatcher, creationError := execshell.NewDispatcher(zap.New(observerCore), runner,
		execshell.WithProgramResolver(newTestResolver()),
		execshell.WithCommandEventObservers(eventObserver),
		execshell.WithOutputLineHandlers(outputHandler),
		execshell.WithClock(testsupport.NewFakeClock(startTime)),
		execshell.WithIdentifierGenerator(func() string { return testInvocationIdentifierConstant }),
	)
	require.NoError(testInstance, creationError)

	handle, runError := dispatcher.Run(context.Background(), newTestCommand())
	require.NoError(testInstance, runError)
	require.NotNil(testInstance, handle)
	require.Equal(testInstance, execshell.HandleStateRunning, handle.State())
	require.Equal(testInstance, testInvocationIdentifierConstant, handle.Identifier())
	require.Equal(testInstance, process.Identifier, handle.ProcessIdentifier())
	require.Equal(testInstance, startTime, handle.StartedAt())

	startedCommands := runner.StartedCommands()
	require.Len(testInstance, startedCommands, 1)
	require.Equal(testInstance, testResolvedProgramPathConstant, startedCommands[0].ResolvedProgram)
	require.Equal(testInstance, []string{"get-logs", "--name", "ExampleApexClass"}, startedCommands[0].Command.Details.Arguments)

	process.Exit()
	terminalEvent := waitForTerminalEvent(testInstance, eventObserver)
	require.Equal(testInstance, testsupport.ObservedEventCompleted, terminalEvent.Kind)

	result, waitError := handle.Wait(context.Background())
	require.NoError(testInstance, waitError)
	require.Equal(testInstance, 0, result.ExitCode)
	require.Equal(testInstance, execshell.HandleStateExited, handle.State())

	require.NoError(testInstance, dispatcher.Cancel(handle))
	require.Equal(testInstance, execshell.HandleStateExited, handle.State())
	require.Equal(testInstance, 0, process.TerminateCount())

	recordedEvents := eventObserver.Events()
	require.Len(testInstance, recordedEvents, 2)
	require.Equal(testInstance, testsupport.ObservedEventStarted, recordedEvents[0].Kind)
	require.Equal(testInstance, testsupport.ObservedEventCompleted, recordedEvents[1].Kind)

	require.Equal(testInstance, []recordedOutputLine{
		{stream: execshell.OutputStreamStandardOutput, line: testOutputLineConstant},
		{stream: execshell.OutputStreamStandardError, line: testErrorLineConstant},
	}, outputHandler.recorded())
	require.NotEmpty(testInstance, observedLogs.FilterMessage("command dispatched").All())
}

func TestDispatcherRunReportsNonZeroExit(testInstance *testing.T) {
	process := testsupport.NewScriptedProcess(2)
	process.ErrorLines = []string{testErrorLineConstant}
	eventObserver := testsupport.NewRecordingCommandEventObserver()

	dispatcher, creationError := execshell.NewDispatcher(zap.NewNop(), testsupport.NewScriptedCommandRunner(process),
		execshell.WithProgramResolver(newTestResolver()),
		execshell.WithCommandEventObservers(eventObserver),
	)
	require.NoError(testInstance, creationError)

	handle, runError := dispatcher.Run(context.Background(), newTestCommand())
	require.NoError(testInstance, runError)
	process.Exit()

	result, waitError := handle.Wait(context.Background())
	var failedError execshell.CommandFailedError
	require.ErrorAs(testInstance, waitError, &failedError)
	require.Equal(testInstance, 2, result.ExitCode)
	require.Equal(testInstance, testErrorLineConstant, result.StandardError)
	require.Equal(testInstance, execshell.HandleStateFailed, handle.State())
	require.Equal(testInstance, testsupport.ObservedEventCompleted, waitForTerminalEvent(testInstance, eventObserver).Kind)
}

func TestDispatcherRunReportsWaitFailures(testInstance *testing.T) {
	process := testsupport.NewScriptedProcess(0)
	process.WaitError = errors.New("wait interrupted")
	eventObserver := testsupport.NewRecordingCommandEventObserver()

	dispatcher, creationError := execshell.NewDispatcher(zap.NewNop(), testsupport.NewScriptedCommandRunner(process),
		execshell.WithProgramResolver(newTestResolver()),
		execshell.WithCommandEventObservers(eventObserver),
	)
	require.NoError(testInstance, creationError)

	handle, runError := dispatcher.Run(context.Background(), newTestCommand())
	require.NoError(testInstance, runError)
	process.Exit()

	_, waitError := handle.Wait(context.Background())
	var executionError execshell.CommandExecutionError
	require.ErrorAs(testInstance, waitError, &executionError)
	require.Equal(testInstance, execshell.HandleStateFailed, handle.State())
	require.Equal(testInstance, testsupport.ObservedEventExecutionFailed, waitForTerminalEvent(testInstance, eventObserver).Kind)
}

func TestDispatcherCancelReachesCancelledStateOnce(testInstance *testing.T) {
	process := testsupport.NewScriptedProcess(0)
	eventObserver := testsupport.NewRecordingCommandEventObserver()
	outputHandler := &recordingOutputLineHandler{}

	dispatcher, creationError := execshell.NewDispatcher(zap.NewNop(), testsupport.NewScriptedCommandRunner(process),
		execshell.WithProgramResolver(newTestResolver()),
		execshell.WithCommandEventObservers(eventObserver),
		execshell.WithOutputLineHandlers(outputHandler),
	)
	require.NoError(testInstance, creationError)

	handle, runError := dispatcher.Run(context.Background(), newTestCommand())
	require.NoError(testInstance, runError)

	require.NoError(testInstance, dispatcher.Cancel(handle))
	require.Equal(testInstance, execshell.HandleStateCancelled, handle.State())
	require.True(testInstance, handle.CancelRequested())
	require.Equal(testInstance, testsupport.ObservedEventCancelled, waitForTerminalEvent(testInstance, eventObserver).Kind)

	_, waitError := handle.Wait(context.Background())
	require.ErrorIs(testInstance, waitError, execshell.ErrCommandCancelled)

	require.NoError(testInstance, dispatcher.Cancel(handle))
	require.Equal(testInstance, 1, process.TerminateCount())

	select {
	case unexpectedEvent := <-eventObserver.Terminal:
		testInstance.Fatalf("unexpected terminal event after cancellation: %s", unexpectedEvent.Kind)
	case <-time.After(50 * time.Millisecond):
	}
	require.Len(testInstance, eventObserver.Events(), 2)
	require.Empty(testInstance, outputHandler.recorded())
	require.ErrorIs(testInstance, dispatcher.Cancel(nil), execshell.ErrHandleNotConfigured)
}

func TestDispatcherRunCopiesCommandArguments(testInstance *testing.T) {
	process := testsupport.NewScriptedProcess(0)
	runner := testsupport.NewScriptedCommandRunner(process)
	dispatcher, creationError := execshell.NewDispatcher(zap.NewNop(), runner, execshell.WithProgramResolver(newTestResolver()))
	require.NoError(testInstance, creationError)

	command := newTestCommand()
	handle, runError := dispatcher.Run(context.Background(), command)
	require.NoError(testInstance, runError)
	command.Details.Arguments[2] = "Mutated"

	require.Equal(testInstance, "ExampleApexClass", handle.Command().Details.Arguments[2])
	require.Equal(testInstance, "ExampleApexClass", runner.StartedCommands()[0].Command.Details.Arguments[2])
	process.Exit()
	_, _ = handle.Wait(context.Background())
}

func TestShellCommandDisplayLabel(testInstance *testing.T) {
	labelled := newTestCommand()
	require.Equal(testInstance, testCommandLabelConstant, labelled.DisplayLabel())

	unlabelled := newTestCommand()
	unlabelled.Label = "  "
	require.Equal(testInstance, "sf get-logs --name ExampleApexClass", unlabelled.DisplayLabel())
}

func TestCommandMessageFormatter(testInstance *testing.T) {
	formatter := execshell.CommandMessageFormatter{}
	command := newTestCommand()

	require.Equal(testInstance, "Running SFDX: Get Apex Debug Logs", formatter.BuildRunningMessage(command))
	require.Equal(testInstance, "SFDX: Get Apex Debug Logs successfully ran", formatter.BuildSuccessMessage(command))
	require.Equal(testInstance, "SFDX: Get Apex Debug Logs failed to run", formatter.BuildFailureMessage(command))
	require.Equal(testInstance, "SFDX: Get Apex Debug Logs was canceled", formatter.BuildCancelledMessage(command))
}
