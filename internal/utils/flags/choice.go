package flags

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	choicePlaceholderPrefixConstant   = "<"
	choicePlaceholderSuffixConstant   = ">"
	choiceSeparatorConstant           = "|"
	choiceUsageEmptyTemplateConstant  = "`%s`"
	choiceUsageFullTemplateConstant   = "`%s` %s"
	choiceTypeConstant                = "string"
	unsupportedChoiceTemplateConstant = "%w %q (choose %s)"
)

// ErrUnsupportedChoice indicates a value outside the allowed choices.
var ErrUnsupportedChoice = errors.New("unsupported value")

// AddChoiceFlag registers a string flag restricted to choices. Values are matched case-insensitively
// and stored in their canonical spelling.
func AddChoiceFlag(flagSet *pflag.FlagSet, target *string, name string, defaultChoice string, choices []string, description string) {
	if flagSet == nil || len(name) == 0 {
		return
	}
	value := &choiceValue{choices: uniqueChoices(choices), target: target}
	value.store(defaultChoice)
	flagSet.Var(value, name, FormatChoiceUsage(defaultChoice, choices, description))
}

// FormatChoiceUsage renders "`<a|B|c>` description" with the default choice upper-cased.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	normalizedDefault := strings.ToLower(strings.TrimSpace(defaultChoice))
	displayed := uniqueChoices(choices)
	for index, choice := range displayed {
		if strings.ToLower(choice) == normalizedDefault {
			displayed[index] = strings.ToUpper(choice)
		}
	}

	placeholder := choicePlaceholderPrefixConstant + strings.Join(displayed, choiceSeparatorConstant) + choicePlaceholderSuffixConstant
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplateConstant, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplateConstant, placeholder, trimmedDescription)
}

type choiceValue struct {
	choices []string
	current string
	target  *string
}

func (value *choiceValue) Set(rawValue string) error {
	normalized := strings.ToLower(strings.TrimSpace(rawValue))
	for _, choice := range value.choices {
		if strings.ToLower(choice) == normalized {
			value.store(choice)
			return nil
		}
	}
	return fmt.Errorf(unsupportedChoiceTemplateConstant, ErrUnsupportedChoice, rawValue, strings.Join(value.choices, choiceSeparatorConstant))
}

func (value *choiceValue) String() string {
	if value == nil {
		return ""
	}
	return value.current
}

func (value *choiceValue) Type() string {
	return choiceTypeConstant
}

func (value *choiceValue) store(choice string) {
	value.current = choice
	if value.target != nil {
		*value.target = choice
	}
}

func uniqueChoices(choices []string) []string {
	seen := make(map[string]struct{}, len(choices))
	unique := make([]string, 0, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		normalizedChoice := strings.ToLower(trimmedChoice)
		if len(trimmedChoice) == 0 {
			continue
		}
		if _, exists := seen[normalizedChoice]; exists {
			continue
		}
		seen[normalizedChoice] = struct{}{}
		unique = append(unique, trimmedChoice)
	}
	return unique
}
