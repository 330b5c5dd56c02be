package invocation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/internal/catalog"
	"github.com/temirov/sfdxwatch/internal/execshell"
	"github.com/temirov/sfdxwatch/internal/notifications"
	"github.com/temirov/sfdxwatch/internal/outcome"
	"github.com/temirov/sfdxwatch/internal/telemetry"
	"github.com/temirov/sfdxwatch/internal/ui"
	"github.com/temirov/sfdxwatch/internal/utils"
	"github.com/temirov/sfdxwatch/internal/workflow"
)

const (
	catalogLoadErrorTemplateConstant    = "unable to load command catalog: %w"
	telemetryOpenErrorTemplateConstant  = "unable to open telemetry database: %w"
	dispatcherErrorTemplateConstant     = "unable to construct command dispatcher: %w"
	monitorErrorTemplateConstant        = "unable to construct notification monitor: %w"
	reporterErrorTemplateConstant       = "unable to construct outcome reporter: %w"
	runnerErrorTemplateConstant         = "unable to construct invocation runner: %w"
	telemetrySinkErrorTemplateConstant  = "unable to construct telemetry sink: %w"
	logMessageRuntimeReadyConstant      = "invocation runtime ready"
	logFieldTelemetryEnabledConstant    = "telemetry_enabled"
	logFieldTelemetryDatabaseConstant   = "telemetry_database"
	logFieldPollIntervalConstant        = "poll_interval"
	logFieldCatalogPathConstant         = "catalog_path"
	logFieldCatalogCommandCountConstant = "catalog_commands"
)

// RuntimeDependencies are the collaborators a Runtime needs from its caller.
// Nil values fall back to the operating system implementations.
type RuntimeDependencies struct {
	Logger          *zap.Logger
	CommandRunner   execshell.CommandRunner
	ProgramResolver execshell.ProgramResolver
	Clock           utils.Clock
	Messenger       outcome.UserMessenger
	Observers       []execshell.CommandEventObserver
	OutputHandlers  []execshell.OutputLineHandler
}

// Runtime holds the wired invocation pipeline for one CLI execution.
type Runtime struct {
	Catalog       *catalog.Catalog
	Runner        *workflow.Runner
	Feed          *notifications.MemoryFeed
	configuration CommandConfiguration
	closers       []func(context.Context) error
}

// NewRuntime wires dispatcher, feed, monitor, reporter, and telemetry sinks.
func NewRuntime(configuration CommandConfiguration, dependencies RuntimeDependencies) (*Runtime, error) {
	sanitized := configuration.Sanitize()
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := utils.ResolveClock(dependencies.Clock)

	commandCatalog, catalogError := catalog.Load(sanitized.CatalogPath)
	if catalogError != nil {
		return nil, fmt.Errorf(catalogLoadErrorTemplateConstant, catalogError)
	}

	commandRuntime := &Runtime{Catalog: commandCatalog, configuration: sanitized}

	sink, sinkError := commandRuntime.openTelemetrySink(logger)
	if sinkError != nil {
		_ = commandRuntime.Close(context.Background())
		return nil, sinkError
	}

	feed := notifications.NewMemoryFeed(clock, sanitized.Monitor.DisplayDuration)
	feedPublisher := workflow.NewFeedPublisher(feed)
	commandRuntime.Feed = feed

	commandRunner := dependencies.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}
	programResolver := dependencies.ProgramResolver
	if programResolver == nil {
		programResolver = execshell.NewPathProgramResolver()
	}
	observers := append([]execshell.CommandEventObserver{feedPublisher, ui.NewConsoleCommandEventLogger(logger)}, dependencies.Observers...)
	outputHandlers := append([]execshell.OutputLineHandler{feedPublisher}, dependencies.OutputHandlers...)

	dispatcher, dispatcherError := execshell.NewDispatcher(logger, commandRunner,
		execshell.WithProgramResolver(programResolver),
		execshell.WithCommandEventObservers(observers...),
		execshell.WithOutputLineHandlers(outputHandlers...),
		execshell.WithClock(clock),
	)
	if dispatcherError != nil {
		_ = commandRuntime.Close(context.Background())
		return nil, fmt.Errorf(dispatcherErrorTemplateConstant, dispatcherError)
	}

	monitor, monitorError := notifications.NewMonitor(feed, logger,
		notifications.WithPollInterval(sanitized.Monitor.PollInterval),
		notifications.WithMonitorClock(clock),
	)
	if monitorError != nil {
		_ = commandRuntime.Close(context.Background())
		return nil, fmt.Errorf(monitorErrorTemplateConstant, monitorError)
	}

	messenger := dependencies.Messenger
	if messenger == nil {
		messenger = ui.NewConsoleMessenger()
	}
	reporter, reporterError := outcome.NewReporter(sink, messenger, logger, clock)
	if reporterError != nil {
		_ = commandRuntime.Close(context.Background())
		return nil, fmt.Errorf(reporterErrorTemplateConstant, reporterError)
	}

	runner, runnerError := workflow.NewRunner(workflow.Dependencies{
		Logger:                     logger,
		Dispatcher:                 dispatcher,
		Monitor:                    monitor,
		Reporter:                   reporter,
		Clock:                      clock,
		DefaultCompletionTimeout:   sanitized.Monitor.CompletionTimeout,
		DefaultConfirmationTimeout: sanitized.Monitor.ConfirmationTimeout,
	})
	if runnerError != nil {
		_ = commandRuntime.Close(context.Background())
		return nil, fmt.Errorf(runnerErrorTemplateConstant, runnerError)
	}
	commandRuntime.Runner = runner

	logger.Debug(
		logMessageRuntimeReadyConstant,
		zap.Bool(logFieldTelemetryEnabledConstant, sanitized.Telemetry.Enabled),
		zap.String(logFieldTelemetryDatabaseConstant, sanitized.Telemetry.DatabasePath),
		zap.Duration(logFieldPollIntervalConstant, sanitized.Monitor.PollInterval),
		zap.String(logFieldCatalogPathConstant, sanitized.CatalogPath),
		zap.Int(logFieldCatalogCommandCountConstant, len(commandCatalog.Definitions())),
	)

	return commandRuntime, nil
}

// CatalogInvocation builds the invocation for a catalog command.
func (commandRuntime *Runtime) CatalogInvocation(commandName string, parameterValues map[string]string) (workflow.Invocation, error) {
	definition, lookupError := commandRuntime.Catalog.Lookup(commandName)
	if lookupError != nil {
		return workflow.Invocation{}, lookupError
	}

	command, buildError := definition.BuildCommand(parameterValues)
	if buildError != nil {
		return workflow.Invocation{}, buildError
	}
	command = commandRuntime.applyProgramOverride(command)

	return workflow.NewInvocation(definition, command), nil
}

// Close flushes queued telemetry and releases the database.
func (commandRuntime *Runtime) Close(closeContext context.Context) error {
	var closeErrors []error
	for _, closer := range commandRuntime.closers {
		if closeError := closer(closeContext); closeError != nil {
			closeErrors = append(closeErrors, closeError)
		}
	}
	commandRuntime.closers = nil
	return errors.Join(closeErrors...)
}

// applyProgramOverride swaps the Salesforce CLI executable for the configured one.
func (commandRuntime *Runtime) applyProgramOverride(command execshell.ShellCommand) execshell.ShellCommand {
	if len(commandRuntime.configuration.Program) == 0 || command.Name != execshell.CommandSalesforceCLI {
		return command
	}
	command.Name = execshell.CommandName(commandRuntime.configuration.Program)
	return command
}

func (commandRuntime *Runtime) openTelemetrySink(logger *zap.Logger) (telemetry.Sink, error) {
	loggerSink, loggerSinkError := telemetry.NewLoggerSink(logger)
	if loggerSinkError != nil {
		return nil, fmt.Errorf(telemetrySinkErrorTemplateConstant, loggerSinkError)
	}
	if !commandRuntime.configuration.Telemetry.Enabled {
		return loggerSink, nil
	}

	databaseSink, openError := telemetry.OpenSQLiteSink(commandRuntime.configuration.Telemetry.DatabasePath)
	if openError != nil {
		return nil, fmt.Errorf(telemetryOpenErrorTemplateConstant, openError)
	}
	commandRuntime.closers = append(commandRuntime.closers, func(context.Context) error {
		return databaseSink.Close()
	})

	asyncSink, asyncError := telemetry.NewAsyncSink(telemetry.NewMultiSink(loggerSink, databaseSink), logger, commandRuntime.configuration.Telemetry.QueueSize)
	if asyncError != nil {
		return nil, fmt.Errorf(telemetrySinkErrorTemplateConstant, asyncError)
	}
	commandRuntime.closers = append([]func(context.Context) error{asyncSink.Close}, commandRuntime.closers...)
	return asyncSink, nil
}
