package catalog

import (
	"errors"
	"fmt"
)

const (
	missingParameterTemplateConstant      = "command %s requires parameter %s"
	unknownParameterTemplateConstant      = "command %s does not accept parameter %s"
	undeclaredPlaceholderTemplateConstant = "command %s references undeclared parameter %s"
	commandNotFoundTemplateConstant       = "unknown command %q"
)

var (
	// ErrCommandNotFound indicates a lookup for a name missing from the catalog.
	ErrCommandNotFound = errors.New("command not found")
	// ErrDuplicateCommand indicates two definitions in one source share a name.
	ErrDuplicateCommand = errors.New("duplicate command definition")
	// ErrMalformedParameter indicates a parameter assignment without key=value form.
	ErrMalformedParameter = errors.New("malformed parameter assignment")
	// ErrUndeclaredPlaceholder indicates an argument placeholder without a declared parameter.
	ErrUndeclaredPlaceholder = errors.New("undeclared parameter placeholder")
)

// MissingParameterError reports a declared parameter without a supplied value.
type MissingParameterError struct {
	Command   string
	Parameter string
}

// Error describes the missing parameter.
func (missingError MissingParameterError) Error() string {
	return fmt.Sprintf(missingParameterTemplateConstant, missingError.Command, missingError.Parameter)
}

// UnknownParameterError reports a supplied parameter the definition does not declare.
type UnknownParameterError struct {
	Command   string
	Parameter string
}

// Error describes the unknown parameter.
func (unknownError UnknownParameterError) Error() string {
	return fmt.Sprintf(unknownParameterTemplateConstant, unknownError.Command, unknownError.Parameter)
}

func newCommandNotFoundError(name string) error {
	return fmt.Errorf("%w: "+commandNotFoundTemplateConstant, ErrCommandNotFound, name)
}

func newUndeclaredPlaceholderError(command string, parameter string) error {
	return fmt.Errorf("%w: "+undeclaredPlaceholderTemplateConstant, ErrUndeclaredPlaceholder, command, parameter)
}
