package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/cmd/cli/invocation"
	telemetrycmd "github.com/temirov/sfdxwatch/cmd/cli/telemetry"
	"github.com/temirov/sfdxwatch/internal/utils"
	"github.com/temirov/sfdxwatch/internal/utils/flags"
)

const (
	applicationNameConstant                 = "sfdx-watch"
	applicationShortDescriptionConstant     = "Run Salesforce CLI commands and confirm their outcome"
	applicationLongDescriptionConstant      = "sfdx-watch dispatches Salesforce CLI commands, watches the notification feed for the message that confirms each one, and reports a success, expected failure, unknown, or cancelled outcome."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	telemetryFlagNameConstant               = "telemetry"
	telemetryFlagUsageConstant              = "Record outcome events in the telemetry database."
	commonLogLevelConfigKeyConstant         = "common.log_level"
	commonLogFormatConfigKeyConstant        = "common.log_format"
	monitorPollIntervalConfigKeyConstant    = "monitor.poll_interval"
	monitorDisplayDurationConfigKeyConstant = "monitor.display_duration"
	monitorCompletionConfigKeyConstant      = "monitor.completion_timeout"
	monitorConfirmationConfigKeyConstant    = "monitor.confirmation_timeout"
	telemetryEnabledConfigKeyConstant       = "telemetry.enabled"
	telemetryDatabaseConfigKeyConstant      = "telemetry.database_path"
	telemetryQueueSizeConfigKeyConstant     = "telemetry.queue_size"
	catalogPathConfigKeyConstant            = "catalog.path"
	cliProgramConfigKeyConstant             = "cli.program"
	environmentPrefixConstant               = "SFDXWATCH"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationTelemetryFieldConstant     = "telemetry_enabled"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	rootCommandInfoMessageConstant          = "sfdx-watch CLI executed"
	rootCommandDebugMessageConstant         = "sfdx-watch CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentCountConstant           = "argument_count"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
	userConfigurationDirectoryConstant      = "sfdx-watch"
	versionTemplateConstant                 = "{{.Name}} version {{.Version}}\n"
	developmentVersionConstant              = "dev"
	buildInfoDevelopmentVersionConstant     = "(devel)"
)

// Version is the release identifier, normally set at link time.
var Version = developmentVersionConstant

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common    ApplicationCommonConfiguration    `mapstructure:"common"`
	Monitor   invocation.MonitorConfiguration   `mapstructure:"monitor"`
	Telemetry invocation.TelemetryConfiguration `mapstructure:"telemetry"`
	Catalog   ApplicationCatalogConfiguration   `mapstructure:"catalog"`
	CLI       ApplicationCLIConfiguration       `mapstructure:"cli"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationCatalogConfiguration locates an optional catalog file merged over the embedded one.
type ApplicationCatalogConfiguration struct {
	Path string `mapstructure:"path"`
}

// ApplicationCLIConfiguration overrides the Salesforce CLI executable.
type ApplicationCLIConfiguration struct {
	Program string `mapstructure:"program"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	telemetryFlagValue     bool
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       resolveVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	flags.AddChoiceFlag(cobraCommand.PersistentFlags(), &application.logLevelFlagValue, logLevelFlagNameConstant, string(utils.LogLevelWarn),
		[]string{string(utils.LogLevelDebug), string(utils.LogLevelInfo), string(utils.LogLevelWarn), string(utils.LogLevelError)}, logLevelFlagUsageConstant)
	flags.AddChoiceFlag(cobraCommand.PersistentFlags(), &application.logFormatFlagValue, logFormatFlagNameConstant, string(utils.LogFormatConsole),
		[]string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}, logFormatFlagUsageConstant)
	flags.AddToggleFlag(cobraCommand.PersistentFlags(), &application.telemetryFlagValue, telemetryFlagNameConstant, "", true, telemetryFlagUsageConstant)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	runBuilder := invocation.RunCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.invocationConfiguration,
	}
	runCommand, runBuildError := runBuilder.Build()
	if runBuildError == nil {
		cobraCommand.AddCommand(runCommand)
	}

	execBuilder := invocation.ExecCommandBuilder{
		LoggerProvider:        loggerProvider,
		ConfigurationProvider: application.invocationConfiguration,
	}
	execCommand, execBuildError := execBuilder.Build()
	if execBuildError == nil {
		cobraCommand.AddCommand(execCommand)
	}

	listBuilder := invocation.ListCommandBuilder{
		ConfigurationProvider: application.invocationConfiguration,
	}
	listCommand, listBuildError := listBuilder.Build()
	if listBuildError == nil {
		cobraCommand.AddCommand(listCommand)
	}

	telemetryBuilder := telemetrycmd.CommandBuilder{
		LoggerProvider: loggerProvider,
		ConfigurationProvider: func() invocation.TelemetryConfiguration {
			return application.configuration.Telemetry
		},
	}
	telemetryCommand, telemetryBuildError := telemetryBuilder.Build()
	if telemetryBuildError == nil {
		cobraCommand.AddCommand(telemetryCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the command hierarchy with os.Args. SIGINT and SIGTERM cancel the running invocation.
func (application *Application) Execute() error {
	signalContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	return application.ExecuteWithArguments(signalContext, os.Args[1:])
}

// ExecuteWithArguments runs the command hierarchy with explicit arguments and ensures logger flushing.
func (application *Application) ExecuteWithArguments(executionContext context.Context, arguments []string) error {
	normalizedArguments := flags.NormalizeToggleArguments(application.rootCommand.PersistentFlags(), arguments)
	if normalizedArguments == nil {
		normalizedArguments = []string{}
	}
	application.rootCommand.SetArgs(normalizedArguments)

	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaults := invocation.DefaultCommandConfiguration()
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:         string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant:        string(utils.LogFormatConsole),
		monitorPollIntervalConfigKeyConstant:    defaults.Monitor.PollInterval.String(),
		monitorDisplayDurationConfigKeyConstant: defaults.Monitor.DisplayDuration.String(),
		monitorCompletionConfigKeyConstant:      defaults.Monitor.CompletionTimeout.String(),
		monitorConfirmationConfigKeyConstant:    defaults.Monitor.ConfirmationTimeout.String(),
		telemetryEnabledConfigKeyConstant:       defaults.Telemetry.Enabled,
		telemetryDatabaseConfigKeyConstant:      "",
		telemetryQueueSizeConfigKeyConstant:     defaults.Telemetry.QueueSize,
		catalogPathConfigKeyConstant:            "",
		cliProgramConfigKeyConstant:             "",
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if application.persistentFlagChanged(command, telemetryFlagNameConstant) {
		application.configuration.Telemetry.Enabled = application.telemetryFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogLevel))),
		utils.LogFormat(strings.ToLower(strings.TrimSpace(application.configuration.Common.LogFormat))),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Bool(configurationTelemetryFieldConstant, application.configuration.Telemetry.Enabled),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
	}

	return nil
}

func (application *Application) invocationConfiguration() invocation.CommandConfiguration {
	return invocation.CommandConfiguration{
		Monitor:     application.configuration.Monitor,
		Telemetry:   application.configuration.Telemetry,
		CatalogPath: application.configuration.Catalog.Path,
		Program:     application.configuration.CLI.Program,
	}
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Int(logFieldArgumentCountConstant, len(arguments)),
	)

	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	return command.Help()
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

// configurationSearchPaths lists the working directory, then the per-user configuration directory.
func configurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil && len(userConfigurationDirectory) > 0 {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, userConfigurationDirectoryConstant))
	}
	return searchPaths
}

func resolveVersion() string {
	if len(strings.TrimSpace(Version)) > 0 && Version != developmentVersionConstant {
		return Version
	}
	buildInfo, available := debug.ReadBuildInfo()
	if !available || len(buildInfo.Main.Version) == 0 || buildInfo.Main.Version == buildInfoDevelopmentVersionConstant {
		return developmentVersionConstant
	}
	return buildInfo.Main.Version
}
