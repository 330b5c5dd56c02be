package invocation

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/sfdxwatch/internal/catalog"
)

const (
	runCommandUseConstant              = "run <command>"
	runCommandShortDescriptionConstant = "Run a catalog command and confirm its outcome"
	runCommandLongDescriptionConstant  = "run dispatches a named catalog command, watches the notification feed for its confirming message, and reports the outcome."
	parameterFlagNameConstant          = "param"
	parameterFlagDescriptionConstant   = "Command parameter as key=value (repeatable)"
	parameterErrorTemplateConstant     = "invalid --param value: %w"
)

// RunCommandBuilder assembles the run command.
type RunCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Dependencies          RuntimeDependencies
}

// Build constructs the run command.
func (builder *RunCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   runCommandUseConstant,
		Short: runCommandShortDescriptionConstant,
		Long:  runCommandLongDescriptionConstant,
		Args:  cobra.ExactArgs(1),
		RunE:  builder.run,
	}

	command.Flags().StringArray(parameterFlagNameConstant, nil, parameterFlagDescriptionConstant)

	return command, nil
}

func (builder *RunCommandBuilder) run(command *cobra.Command, arguments []string) error {
	assignments, _ := command.Flags().GetStringArray(parameterFlagNameConstant)
	parameterValues, parameterError := catalog.ParseParameterAssignments(assignments)
	if parameterError != nil {
		return fmt.Errorf(parameterErrorTemplateConstant, parameterError)
	}

	logger := resolveLogger(builder.LoggerProvider)
	commandRuntime, runtimeError := openRuntime(command, builder.LoggerProvider, builder.ConfigurationProvider, builder.Dependencies)
	if runtimeError != nil {
		return runtimeError
	}

	invocation, invocationError := commandRuntime.CatalogInvocation(strings.TrimSpace(arguments[0]), parameterValues)
	if invocationError != nil {
		_ = commandRuntime.Close(commandContext(command))
		return invocationError
	}

	return invokeAndClose(command, logger, commandRuntime, invocation)
}
