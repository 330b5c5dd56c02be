package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/temirov/sfdxwatch/internal/execshell"
)

const outputLineTemplateConstant = "%s\n"

// ConsoleOutputEcho copies process output lines to the console, standard error lines to the error stream.
type ConsoleOutputEcho struct {
	mutex        sync.Mutex
	outputWriter io.Writer
	errorWriter  io.Writer
}

// NewConsoleOutputEcho constructs an echo writing to the provided streams. Nil writers discard output.
func NewConsoleOutputEcho(outputWriter io.Writer, errorWriter io.Writer) *ConsoleOutputEcho {
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if errorWriter == nil {
		errorWriter = io.Discard
	}
	return &ConsoleOutputEcho{outputWriter: outputWriter, errorWriter: errorWriter}
}

// HandleOutputLine writes the line to the stream matching its origin.
func (echo *ConsoleOutputEcho) HandleOutputLine(_ *execshell.ExecutionHandle, stream execshell.OutputStream, line string) {
	writer := echo.outputWriter
	if stream == execshell.OutputStreamStandardError {
		writer = echo.errorWriter
	}

	echo.mutex.Lock()
	defer echo.mutex.Unlock()
	fmt.Fprintf(writer, outputLineTemplateConstant, line)
}
