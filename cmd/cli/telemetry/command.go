package telemetry

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/sfdxwatch/cmd/cli/invocation"
	"github.com/temirov/sfdxwatch/internal/outcome"
	eventstore "github.com/temirov/sfdxwatch/internal/telemetry"
)

const (
	groupCommandUseConstant              = "telemetry"
	groupCommandShortDescriptionConstant = "Inspect recorded command outcomes"
	listCommandUseConstant               = "list"
	listCommandShortDescriptionConstant  = "List the most recent outcome events"
	listCommandLongDescriptionConstant   = "list prints the newest outcome events stored in the telemetry database, newest first."
	limitFlagNameConstant                = "limit"
	limitFlagDescriptionConstant         = "Maximum number of events to print"
	defaultLimitConstant                 = 20
	emptyListMessageConstant             = "No telemetry events recorded."
	listHeaderConstant                   = "TIME\tEVENT\tCOMMAND\tOUTCOME\tELAPSED\tID"
	listRowTemplateConstant              = "%s\t%s\t%s\t%s\t%s\t%s\n"
	listTimeLayoutConstant               = time.RFC3339
	databaseOpenErrorTemplateConstant    = "unable to open telemetry database %s: %w"
	databaseListErrorTemplateConstant    = "unable to list telemetry events: %w"
	logMessageListingEventsConstant      = "listing telemetry events"
	logFieldDatabasePathConstant         = "database_path"
	logFieldLimitConstant                = "limit"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// CommandBuilder assembles the telemetry command group.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() invocation.TelemetryConfiguration
}

// Build constructs the telemetry group with its list subcommand.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	groupCommand := &cobra.Command{
		Use:   groupCommandUseConstant,
		Short: groupCommandShortDescriptionConstant,
	}

	listCommand := &cobra.Command{
		Use:   listCommandUseConstant,
		Short: listCommandShortDescriptionConstant,
		Long:  listCommandLongDescriptionConstant,
		Args:  cobra.NoArgs,
		RunE:  builder.runList,
	}
	listCommand.Flags().Int(limitFlagNameConstant, defaultLimitConstant, limitFlagDescriptionConstant)

	groupCommand.AddCommand(listCommand)
	return groupCommand, nil
}

func (builder *CommandBuilder) runList(command *cobra.Command, _ []string) error {
	databasePath := builder.databasePath()
	limit, _ := command.Flags().GetInt(limitFlagNameConstant)

	logger := builder.logger()
	logger.Debug(logMessageListingEventsConstant, zap.String(logFieldDatabasePathConstant, databasePath), zap.Int(logFieldLimitConstant, limit))

	databaseSink, openError := eventstore.OpenSQLiteSink(databasePath)
	if openError != nil {
		return fmt.Errorf(databaseOpenErrorTemplateConstant, databasePath, openError)
	}
	defer databaseSink.Close()

	events, listError := databaseSink.ListRecent(command.Context(), limit)
	if listError != nil {
		return fmt.Errorf(databaseListErrorTemplateConstant, listError)
	}

	if len(events) == 0 {
		fmt.Fprintln(command.OutOrStdout(), emptyListMessageConstant)
		return nil
	}

	tableWriter := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tableWriter, listHeaderConstant)
	for _, event := range events {
		fmt.Fprintf(tableWriter, listRowTemplateConstant,
			event.Timestamp.Format(listTimeLayoutConstant),
			event.Name,
			event.Properties[outcome.PropertyCommandConstant],
			event.Properties[outcome.PropertyOutcomeConstant],
			formatElapsed(event.Measurements[outcome.MeasurementElapsedMillisConstant]),
			event.Identifier,
		)
	}
	return tableWriter.Flush()
}

func (builder *CommandBuilder) databasePath() string {
	configuration := invocation.DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration.Telemetry = builder.ConfigurationProvider()
	}
	return configuration.Sanitize().Telemetry.DatabasePath
}

func (builder *CommandBuilder) logger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	if logger := builder.LoggerProvider(); logger != nil {
		return logger
	}
	return zap.NewNop()
}

func formatElapsed(elapsedMilliseconds float64) string {
	return (time.Duration(elapsedMilliseconds) * time.Millisecond).String()
}
