package ui

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

const (
	informationPrefixConstant   = "✓ "
	warningPrefixConstant       = "⚠ "
	errorPrefixConstant         = "✗ "
	messageLineTemplateConstant = "%s%s\n"
)

// ConsoleMessenger prints one line per user message. Information goes to the
// output stream; warnings and errors go to the error stream.
type ConsoleMessenger struct {
	mutex            sync.Mutex
	outputWriter     io.Writer
	errorWriter      io.Writer
	informationColor *color.Color
	warningColor     *color.Color
	errorColor       *color.Color
}

// NewConsoleMessenger constructs a messenger writing to stdout and stderr.
func NewConsoleMessenger() *ConsoleMessenger {
	return NewConsoleMessengerWithWriters(os.Stdout, os.Stderr)
}

// NewConsoleMessengerWithWriters constructs a messenger writing to the provided streams.
// Nil writers discard output.
func NewConsoleMessengerWithWriters(outputWriter io.Writer, errorWriter io.Writer) *ConsoleMessenger {
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if errorWriter == nil {
		errorWriter = io.Discard
	}
	return &ConsoleMessenger{
		outputWriter:     outputWriter,
		errorWriter:      errorWriter,
		informationColor: color.New(color.FgGreen),
		warningColor:     color.New(color.FgYellow),
		errorColor:       color.New(color.FgRed, color.Bold),
	}
}

// ShowInformation prints an informational message.
func (messenger *ConsoleMessenger) ShowInformation(text string) {
	messenger.write(messenger.outputWriter, messenger.informationColor, informationPrefixConstant, text)
}

// ShowWarning prints a warning message.
func (messenger *ConsoleMessenger) ShowWarning(text string) {
	messenger.write(messenger.errorWriter, messenger.warningColor, warningPrefixConstant, text)
}

// ShowError prints an error message.
func (messenger *ConsoleMessenger) ShowError(text string) {
	messenger.write(messenger.errorWriter, messenger.errorColor, errorPrefixConstant, text)
}

func (messenger *ConsoleMessenger) write(writer io.Writer, lineColor *color.Color, prefix string, text string) {
	messenger.mutex.Lock()
	defer messenger.mutex.Unlock()
	_, _ = lineColor.Fprintf(writer, messageLineTemplateConstant, prefix, text)
}
