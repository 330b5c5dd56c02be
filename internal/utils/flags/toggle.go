package flags

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	toggleTrueConstant               = "true"
	toggleFalseConstant              = "false"
	toggleTypeConstant               = "bool"
	toggleParseErrorTemplateConstant = "%w %q"
	toggleTruePlaceholderConstant    = "<YES|no>"
	toggleFalsePlaceholderConstant   = "<yes|NO>"
	toggleUsageEmptyTemplateConstant = "`%s`"
	toggleUsageFullTemplateConstant  = "`%s` %s"
	longFlagPrefixConstant           = "--"
	shortFlagPrefixConstant          = "-"
	flagValueSeparatorConstant       = "="
)

// ErrInvalidToggle indicates a toggle value that is neither truthy nor falsy.
var ErrInvalidToggle = errors.New("invalid toggle value")

var toggleLiterals = map[string]bool{
	"true":  true,
	"yes":   true,
	"on":    true,
	"1":     true,
	"t":     true,
	"y":     true,
	"false": false,
	"no":    false,
	"off":   false,
	"0":     false,
	"f":     false,
	"n":     false,
}

// AddToggleFlag registers a boolean flag that also accepts yes/no, on/off, and 1/0.
// A bare flag means true.
func AddToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, shorthand string, defaultValue bool, usage string) {
	if flagSet == nil || len(name) == 0 {
		return
	}

	value := &toggleValue{target: target}
	value.store(defaultValue)
	flagSet.VarP(value, name, shorthand, formatToggleUsage(usage, defaultValue))
	flagSet.Lookup(name).NoOptDefVal = toggleTrueConstant
}

// NormalizeToggleArguments joins "--flag value" into "--flag=value" for toggle flags
// registered on flagSet, so an explicit yes/no is not mistaken for a positional argument.
// Arguments after "--" are left untouched.
func NormalizeToggleArguments(flagSet *pflag.FlagSet, arguments []string) []string {
	if len(arguments) == 0 {
		return arguments
	}

	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		current := arguments[index]
		if current == longFlagPrefixConstant {
			return append(normalized, arguments[index:]...)
		}
		if index+1 < len(arguments) && isBareToggle(flagSet, current) && isToggleLiteral(arguments[index+1]) {
			normalized = append(normalized, current+flagValueSeparatorConstant+arguments[index+1])
			index++
			continue
		}
		normalized = append(normalized, current)
	}
	return normalized
}

type toggleValue struct {
	current bool
	target  *bool
}

func (value *toggleValue) Set(rawValue string) error {
	trimmedValue := strings.ToLower(strings.TrimSpace(rawValue))
	if len(trimmedValue) == 0 {
		trimmedValue = toggleTrueConstant
	}
	parsedValue, known := toggleLiterals[trimmedValue]
	if !known {
		return fmt.Errorf(toggleParseErrorTemplateConstant, ErrInvalidToggle, rawValue)
	}
	value.store(parsedValue)
	return nil
}

func (value *toggleValue) String() string {
	if value != nil && value.current {
		return toggleTrueConstant
	}
	return toggleFalseConstant
}

func (value *toggleValue) Type() string {
	return toggleTypeConstant
}

func (value *toggleValue) store(parsedValue bool) {
	value.current = parsedValue
	if value.target != nil {
		*value.target = parsedValue
	}
}

func formatToggleUsage(description string, defaultValue bool) string {
	placeholder := toggleFalsePlaceholderConstant
	if defaultValue {
		placeholder = toggleTruePlaceholderConstant
	}
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(toggleUsageEmptyTemplateConstant, placeholder)
	}
	return fmt.Sprintf(toggleUsageFullTemplateConstant, placeholder, trimmedDescription)
}

// isBareToggle reports whether argument names a toggle flag without an inline value.
func isBareToggle(flagSet *pflag.FlagSet, argument string) bool {
	if flagSet == nil || strings.Contains(argument, flagValueSeparatorConstant) {
		return false
	}

	var flag *pflag.Flag
	switch {
	case strings.HasPrefix(argument, longFlagPrefixConstant):
		flag = flagSet.Lookup(strings.TrimPrefix(argument, longFlagPrefixConstant))
	case strings.HasPrefix(argument, shortFlagPrefixConstant) && len(argument) == 2:
		flag = flagSet.ShorthandLookup(strings.TrimPrefix(argument, shortFlagPrefixConstant))
	}
	if flag == nil {
		return false
	}
	_, isToggle := flag.Value.(*toggleValue)
	return isToggle
}

func isToggleLiteral(argument string) bool {
	_, known := toggleLiterals[strings.ToLower(strings.TrimSpace(argument))]
	return known
}
