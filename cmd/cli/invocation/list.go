package invocation

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/temirov/sfdxwatch/internal/catalog"
	"github.com/temirov/sfdxwatch/internal/execshell"
)

const (
	listCommandUseConstant              = "list"
	listCommandShortDescriptionConstant = "List catalog commands"
	listCommandLongDescriptionConstant  = "list prints the commands available to run, including definitions from the configured catalog file."
	listHeaderConstant                  = "NAME\tTITLE\tPARAMETERS\tCOMMAND"
	listRowTemplateConstant             = "%s\t%s\t%s\t%s\n"
	listParameterSeparatorConstant      = ","
	listArgumentSeparatorConstant       = " "
	listEmptyParametersConstant         = "-"
	catalogListErrorTemplateConstant    = "unable to load command catalog: %w"
)

// ListCommandBuilder assembles the list command.
type ListCommandBuilder struct {
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the list command.
func (builder *ListCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     listCommandUseConstant,
		Short:   listCommandShortDescriptionConstant,
		Long:    listCommandLongDescriptionConstant,
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE:    builder.run,
	}
	return command, nil
}

func (builder *ListCommandBuilder) run(command *cobra.Command, _ []string) error {
	configuration := resolveConfiguration(builder.ConfigurationProvider)
	commandCatalog, catalogError := catalog.Load(configuration.CatalogPath)
	if catalogError != nil {
		return fmt.Errorf(catalogListErrorTemplateConstant, catalogError)
	}

	tableWriter := tabwriter.NewWriter(command.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tableWriter, listHeaderConstant)
	for _, definition := range commandCatalog.Definitions() {
		parameters := listEmptyParametersConstant
		if len(definition.Parameters) > 0 {
			parameters = strings.Join(definition.Parameters, listParameterSeparatorConstant)
		}
		program := definition.Program
		if len(configuration.Program) > 0 && program == string(execshell.CommandSalesforceCLI) {
			program = configuration.Program
		}
		commandLine := strings.Join(append([]string{program}, definition.Arguments...), listArgumentSeparatorConstant)
		fmt.Fprintf(tableWriter, listRowTemplateConstant, definition.Name, definition.Title, parameters, commandLine)
	}
	return tableWriter.Flush()
}
