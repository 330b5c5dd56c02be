package invocation

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/internal/execshell"
	"github.com/temirov/sfdxwatch/internal/ui"
	"github.com/temirov/sfdxwatch/internal/utils"
	"github.com/temirov/sfdxwatch/internal/workflow"
)

const (
	runtimeCloseTimeoutConstant      = 5 * time.Second
	logMessageRuntimeCloseConstant   = "invocation runtime close failed"
	logMessageInvocationDoneConstant = "invocation finished"
	logFieldOutcomeConstant          = "outcome"
	logFieldReasonConstant           = "reason"
	logFieldElapsedConstant          = "elapsed"
	logFieldInvocationIDConstant     = "invocation_id"
	logFieldConfigFileConstant       = "config_file"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider yields the invocation settings resolved by the application.
type ConfigurationProvider func() CommandConfiguration

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func resolveConfiguration(provider ConfigurationProvider) CommandConfiguration {
	if provider == nil {
		return DefaultCommandConfiguration()
	}
	return provider().Sanitize()
}

// openRuntime wires a runtime whose user-facing output follows the command's streams.
func openRuntime(command *cobra.Command, loggerProvider LoggerProvider, configurationProvider ConfigurationProvider, dependencies RuntimeDependencies) (*Runtime, error) {
	resolvedDependencies := dependencies
	resolvedDependencies.Logger = resolveLogger(loggerProvider)
	if resolvedDependencies.Messenger == nil {
		resolvedDependencies.Messenger = ui.NewConsoleMessengerWithWriters(command.OutOrStdout(), command.ErrOrStderr())
	}
	resolvedDependencies.OutputHandlers = append(
		[]execshell.OutputLineHandler{ui.NewConsoleOutputEcho(command.OutOrStdout(), command.ErrOrStderr())},
		dependencies.OutputHandlers...,
	)
	return NewRuntime(resolveConfiguration(configurationProvider), resolvedDependencies)
}

// invokeAndClose runs the invocation, then flushes the runtime even when the command context is cancelled.
func invokeAndClose(command *cobra.Command, logger *zap.Logger, commandRuntime *Runtime, invocation workflow.Invocation) error {
	defer func() {
		closeContext, cancelClose := context.WithTimeout(context.WithoutCancel(commandContext(command)), runtimeCloseTimeoutConstant)
		defer cancelClose()
		if closeError := commandRuntime.Close(closeContext); closeError != nil {
			logger.Warn(logMessageRuntimeCloseConstant, zap.Error(closeError))
		}
	}()

	record, invokeError := commandRuntime.Runner.Invoke(commandContext(command), invocation)
	if invokeError != nil {
		return invokeError
	}

	logger.Debug(
		logMessageInvocationDoneConstant,
		zap.String(logFieldOutcomeConstant, record.Kind.String()),
		zap.String(logFieldReasonConstant, record.Reason),
		zap.Duration(logFieldElapsedConstant, record.Elapsed),
		zap.String(logFieldInvocationIDConstant, record.InvocationID),
		zap.String(logFieldConfigFileConstant, configurationFilePath(command)),
	)
	return outcomeResult(record)
}

func configurationFilePath(command *cobra.Command) string {
	filePath, _ := utils.NewCommandContextAccessor().ConfigurationFilePath(commandContext(command))
	return filePath
}

func commandContext(command *cobra.Command) context.Context {
	if command == nil || command.Context() == nil {
		return context.Background()
	}
	return command.Context()
}
