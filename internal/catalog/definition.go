package catalog

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/temirov/sfdxwatch/internal/execshell"
	"github.com/temirov/sfdxwatch/internal/notifications"
)

const (
	parameterAssignmentSeparatorConstant = "="
)

var parameterPlaceholderPattern = regexp.MustCompile(`\$\{([A-Za-z][A-Za-z0-9_]*)\}`)

// Definition describes one named command and the notifications that confirm its outcome.
type Definition struct {
	Name                 string                  `mapstructure:"name" validate:"required,command_name"`
	Title                string                  `mapstructure:"title" validate:"required"`
	NotificationLabel    string                  `mapstructure:"notification_label"`
	TelemetryName        string                  `mapstructure:"telemetry_name" validate:"required"`
	Program              string                  `mapstructure:"program" validate:"required"`
	Arguments            []string                `mapstructure:"arguments"`
	Parameters           []string                `mapstructure:"parameters" validate:"dive,required"`
	WorkingDirectory     string                  `mapstructure:"working_directory"`
	RunningNotification  string                  `mapstructure:"running_notification"`
	SuccessNotification  string                  `mapstructure:"success_notification"`
	FailureNotifications []string                `mapstructure:"failure_notifications" validate:"dive,required"`
	MatchMode            notifications.MatchMode `mapstructure:"match_mode" validate:"omitempty,oneof=exact prefix"`
	CompletionTimeout    time.Duration           `mapstructure:"completion_timeout" validate:"gte=0"`
	ConfirmationTimeout  time.Duration           `mapstructure:"confirmation_timeout" validate:"gte=0"`
}

// Label returns the text used in lifecycle notifications.
func (definition Definition) Label() string {
	trimmedLabel := strings.TrimSpace(definition.NotificationLabel)
	if len(trimmedLabel) > 0 {
		return trimmedLabel
	}
	return strings.TrimSpace(definition.Title)
}

// normalize fills notification texts left empty with the lifecycle defaults.
func (definition Definition) normalize() Definition {
	normalized := definition
	normalized.Arguments = append([]string{}, definition.Arguments...)
	normalized.Parameters = append([]string{}, definition.Parameters...)
	normalized.FailureNotifications = append([]string{}, definition.FailureNotifications...)

	if len(normalized.MatchMode) == 0 {
		normalized.MatchMode = notifications.MatchModeExact
	}

	labelledCommand := execshell.ShellCommand{Label: normalized.Label()}
	formatter := execshell.CommandMessageFormatter{}
	if len(strings.TrimSpace(normalized.RunningNotification)) == 0 {
		normalized.RunningNotification = formatter.BuildRunningMessage(labelledCommand)
	}
	if len(strings.TrimSpace(normalized.SuccessNotification)) == 0 {
		normalized.SuccessNotification = formatter.BuildSuccessMessage(labelledCommand)
	}

	failureMessage := formatter.BuildFailureMessage(labelledCommand)
	for _, failureNotification := range normalized.FailureNotifications {
		if failureNotification == failureMessage {
			return normalized
		}
	}
	normalized.FailureNotifications = append(normalized.FailureNotifications, failureMessage)
	return normalized
}

// placeholders lists the parameter names referenced by the arguments.
func (definition Definition) placeholders() []string {
	seen := map[string]struct{}{}
	var names []string
	for _, argument := range definition.Arguments {
		for _, match := range parameterPlaceholderPattern.FindAllStringSubmatch(argument, -1) {
			if _, exists := seen[match[1]]; exists {
				continue
			}
			seen[match[1]] = struct{}{}
			names = append(names, match[1])
		}
	}
	return names
}

// BuildCommand expands ${parameter} placeholders and returns the command to dispatch.
// Every declared parameter must be supplied and no undeclared parameter is accepted.
func (definition Definition) BuildCommand(parameterValues map[string]string) (execshell.ShellCommand, error) {
	declared := make(map[string]struct{}, len(definition.Parameters))
	for _, parameterName := range definition.Parameters {
		declared[parameterName] = struct{}{}
	}

	suppliedNames := make([]string, 0, len(parameterValues))
	for parameterName := range parameterValues {
		suppliedNames = append(suppliedNames, parameterName)
	}
	sort.Strings(suppliedNames)
	for _, parameterName := range suppliedNames {
		if _, exists := declared[parameterName]; !exists {
			return execshell.ShellCommand{}, UnknownParameterError{Command: definition.Name, Parameter: parameterName}
		}
	}
	for _, parameterName := range definition.Parameters {
		if _, exists := parameterValues[parameterName]; !exists {
			return execshell.ShellCommand{}, MissingParameterError{Command: definition.Name, Parameter: parameterName}
		}
	}

	expandedArguments := make([]string, 0, len(definition.Arguments))
	for _, argument := range definition.Arguments {
		expandedArguments = append(expandedArguments, parameterPlaceholderPattern.ReplaceAllStringFunc(argument, func(placeholder string) string {
			parameterName := parameterPlaceholderPattern.FindStringSubmatch(placeholder)[1]
			return parameterValues[parameterName]
		}))
	}

	return execshell.ShellCommand{
		Name:            execshell.CommandName(definition.Program),
		Label:           definition.Label(),
		ProgressMessage: definition.RunningNotification,
		Details: execshell.CommandDetails{
			Arguments:        expandedArguments,
			WorkingDirectory: definition.WorkingDirectory,
		},
	}, nil
}

// ParseParameterAssignments converts key=value tokens into a parameter map.
func ParseParameterAssignments(assignments []string) (map[string]string, error) {
	parameterValues := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		parameterName, parameterValue, found := strings.Cut(assignment, parameterAssignmentSeparatorConstant)
		parameterName = strings.TrimSpace(parameterName)
		if !found || len(parameterName) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedParameter, assignment)
		}
		parameterValues[parameterName] = parameterValue
	}
	return parameterValues, nil
}
