package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/internal/catalog"
	"github.com/temirov/sfdxwatch/internal/execshell"
	"github.com/temirov/sfdxwatch/internal/notifications"
	"github.com/temirov/sfdxwatch/internal/outcome"
	"github.com/temirov/sfdxwatch/internal/utils"
)

const (
	// DefaultCompletionTimeout bounds the wait for the progress notification to go away.
	DefaultCompletionTimeout = 5 * time.Minute
	// DefaultConfirmationTimeout bounds the wait for the confirming notification.
	DefaultConfirmationTimeout = 5 * time.Second

	logMessageInvocationStartedConstant     = "invocation started"
	logMessageCompletionTimedOutConstant    = "command still running after completion timeout"
	logMessageStateTransitionFailedConstant = "outcome state transition failed"
	logMessageCancelFailedConstant          = "command cancellation failed"
	logFieldSlotConstant                    = "slot"
	logFieldCommandConstant                 = "command"
	logFieldInvocationIdentifierConstant    = "invocation_id"
	logFieldTimeoutConstant                 = "timeout"
	logFieldProcessIdentifierConstant       = "pid"
)

var (
	// ErrDependenciesNotConfigured indicates a runner built without its collaborators.
	ErrDependenciesNotConfigured = errors.New("workflow runner requires dispatcher, monitor, reporter, and logger dependencies")
	// ErrSuccessNotificationRequired indicates an invocation without a success text.
	ErrSuccessNotificationRequired = errors.New("invocation requires a success notification")
)

// CommandDispatcher starts and cancels processes.
type CommandDispatcher interface {
	Run(executionContext context.Context, command execshell.ShellCommand) (*execshell.ExecutionHandle, error)
	Cancel(handle *execshell.ExecutionHandle) error
}

// NotificationMonitor waits on the notification feed.
type NotificationMonitor interface {
	WaitFor(waitContext context.Context, query notifications.Query) notifications.MatchResult
	WaitForAbsence(waitContext context.Context, query notifications.Query) notifications.MatchResult
}

// OutcomeReporter delivers classified outcomes.
type OutcomeReporter interface {
	Report(reportContext context.Context, record outcome.Record)
}

// Dependencies configures the collaborators of a Runner.
type Dependencies struct {
	Logger                     *zap.Logger
	Dispatcher                 CommandDispatcher
	Monitor                    NotificationMonitor
	Reporter                   OutcomeReporter
	Slots                      *SlotRegistry
	Clock                      utils.Clock
	DefaultCompletionTimeout   time.Duration
	DefaultConfirmationTimeout time.Duration
}

// Invocation describes one run of a command and the notifications that confirm it.
type Invocation struct {
	Slot                 string
	Command              execshell.ShellCommand
	EventName            string
	RunningNotification  string
	SuccessNotification  string
	FailureNotifications []string
	MatchMode            notifications.MatchMode
	CompletionTimeout    time.Duration
	ConfirmationTimeout  time.Duration
}

// NewInvocation builds an invocation for a catalog definition and an expanded command.
func NewInvocation(definition catalog.Definition, command execshell.ShellCommand) Invocation {
	return Invocation{
		Slot:                 definition.Name,
		Command:              command,
		EventName:            definition.TelemetryName,
		RunningNotification:  definition.RunningNotification,
		SuccessNotification:  definition.SuccessNotification,
		FailureNotifications: append([]string{}, definition.FailureNotifications...),
		MatchMode:            definition.MatchMode,
		CompletionTimeout:    definition.CompletionTimeout,
		ConfirmationTimeout:  definition.ConfirmationTimeout,
	}
}

// NewCommandInvocation builds an invocation confirmed by the standard lifecycle messages of the command.
func NewCommandInvocation(command execshell.ShellCommand, eventName string) Invocation {
	formatter := execshell.CommandMessageFormatter{}
	return Invocation{
		Slot:                 command.DisplayLabel(),
		Command:              command,
		EventName:            eventName,
		RunningNotification:  formatter.BuildRunningMessage(command),
		SuccessNotification:  formatter.BuildSuccessMessage(command),
		FailureNotifications: []string{formatter.BuildFailureMessage(command)},
		MatchMode:            notifications.MatchModeExact,
	}
}

// Runner executes invocations.
type Runner struct {
	dependencies Dependencies
	clock        utils.Clock
	slots        *SlotRegistry
}

// NewRunner validates dependencies and constructs a Runner.
func NewRunner(dependencies Dependencies) (*Runner, error) {
	if dependencies.Logger == nil || dependencies.Dispatcher == nil || dependencies.Monitor == nil || dependencies.Reporter == nil {
		return nil, ErrDependenciesNotConfigured
	}
	if dependencies.DefaultCompletionTimeout <= 0 {
		dependencies.DefaultCompletionTimeout = DefaultCompletionTimeout
	}
	if dependencies.DefaultConfirmationTimeout <= 0 {
		dependencies.DefaultConfirmationTimeout = DefaultConfirmationTimeout
	}

	slots := dependencies.Slots
	if slots == nil {
		slots = NewSlotRegistry()
	}
	return &Runner{dependencies: dependencies, clock: utils.ResolveClock(dependencies.Clock), slots: slots}, nil
}

// Invoke runs the invocation to a terminal outcome. Only dispatch failures
// (execshell.ResolutionError), a busy slot, and malformed invocations are
// returned as errors; every other condition is folded into the record.
// Cancelling the context cancels the process and yields outcome.KindCancelled,
// as does cancelling the handle through the dispatcher while polling.
func (runner *Runner) Invoke(invocationContext context.Context, invocation Invocation) (outcome.Record, error) {
	if invocationContext == nil {
		invocationContext = context.Background()
	}
	if len(strings.TrimSpace(invocation.SuccessNotification)) == 0 {
		return outcome.Record{}, ErrSuccessNotificationRequired
	}

	slot := invocation.Slot
	if len(strings.TrimSpace(slot)) == 0 {
		slot = invocation.Command.DisplayLabel()
	}
	releaseSlot, slotError := runner.slots.Acquire(slot)
	if slotError != nil {
		return outcome.Record{}, slotError
	}
	defer releaseSlot()

	logger := runner.dependencies.Logger
	machine := outcome.NewStateMachine()
	startedAt := runner.clock.Now()

	handle, dispatchError := runner.dependencies.Dispatcher.Run(invocationContext, invocation.Command)
	if dispatchError != nil {
		return outcome.Record{}, dispatchError
	}
	if transitionError := machine.Start(); transitionError != nil {
		logger.Warn(logMessageStateTransitionFailedConstant, zap.Error(transitionError))
	}

	logger.Debug(
		logMessageInvocationStartedConstant,
		zap.String(logFieldSlotConstant, slot),
		zap.String(logFieldCommandConstant, invocation.Command.DisplayLabel()),
		zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()),
	)

	pollContext, stopPolling := context.WithCancel(invocationContext)
	defer stopPolling()
	go stopPollingOnCancel(pollContext, stopPolling, handle)

	confirmation := runner.awaitConfirmation(pollContext, invocation, handle)
	if confirmation.Status == notifications.MatchStatusCancelled {
		runner.cancel(handle)
	}
	if handle.State() == execshell.HandleStateCancelled {
		confirmation = notifications.MatchResult{
			Status:   notifications.MatchStatusCancelled,
			Attempts: confirmation.Attempts,
			Elapsed:  confirmation.Elapsed,
		}
	}

	record := outcome.Classify(confirmation, invocation.SuccessNotification, invocation.FailureNotifications)
	record.CommandName = invocation.Command.DisplayLabel()
	record.EventName = invocation.EventName
	record.InvocationID = handle.Identifier()
	record.Elapsed = runner.clock.Now().Sub(startedAt)

	if record.Kind == outcome.KindUnknown && handle.State() == execshell.HandleStateRunning {
		runner.cancel(handle)
	}

	if _, transitionError := machine.Finish(record.Kind); transitionError != nil {
		logger.Warn(logMessageStateTransitionFailedConstant, zap.Error(transitionError))
	}

	runner.dependencies.Reporter.Report(context.WithoutCancel(invocationContext), record)
	return record, nil
}

func (runner *Runner) awaitConfirmation(invocationContext context.Context, invocation Invocation, handle *execshell.ExecutionHandle) notifications.MatchResult {
	completionTimeout := invocation.CompletionTimeout
	if completionTimeout <= 0 {
		completionTimeout = runner.dependencies.DefaultCompletionTimeout
	}
	confirmationTimeout := invocation.ConfirmationTimeout
	if confirmationTimeout <= 0 {
		confirmationTimeout = runner.dependencies.DefaultConfirmationTimeout
	}

	runningNotification := strings.TrimSpace(invocation.RunningNotification)
	if len(runningNotification) == 0 {
		runningNotification = execshell.CommandMessageFormatter{}.BuildRunningMessage(invocation.Command)
	}

	completion := runner.dependencies.Monitor.WaitForAbsence(invocationContext, notifications.Query{
		Patterns: []string{runningNotification},
		Mode:     notifications.MatchModeExact,
		Timeout:  completionTimeout,
	})
	switch completion.Status {
	case notifications.MatchStatusCancelled:
		return completion
	case notifications.MatchStatusTimedOut:
		runner.dependencies.Logger.Warn(
			logMessageCompletionTimedOutConstant,
			zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()),
			zap.Int(logFieldProcessIdentifierConstant, handle.ProcessIdentifier()),
			zap.Duration(logFieldTimeoutConstant, completionTimeout),
		)
	}

	patterns := append([]string{invocation.SuccessNotification}, invocation.FailureNotifications...)
	return runner.dependencies.Monitor.WaitFor(invocationContext, notifications.Query{
		Patterns: patterns,
		Mode:     invocation.MatchMode,
		Timeout:  confirmationTimeout,
	})
}

func (runner *Runner) cancel(handle *execshell.ExecutionHandle) {
	if cancelError := runner.dependencies.Dispatcher.Cancel(handle); cancelError != nil {
		runner.dependencies.Logger.Warn(
			logMessageCancelFailedConstant,
			zap.String(logFieldInvocationIdentifierConstant, handle.Identifier()),
			zap.Error(cancelError),
		)
	}
}

// stopPollingOnCancel ends polling once the handle is cancelled.
func stopPollingOnCancel(pollContext context.Context, stopPolling context.CancelFunc, handle *execshell.ExecutionHandle) {
	select {
	case <-pollContext.Done():
	case <-handle.Done():
		if handle.State() == execshell.HandleStateCancelled {
			stopPolling()
		}
	}
}
