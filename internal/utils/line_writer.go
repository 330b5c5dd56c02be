package utils

import (
	"bytes"
	"strings"
	"sync"
)

const (
	lineTerminatorConstant       = '\n'
	carriageReturnCutsetConstant = "\r"
)

// LineHandler receives complete lines without their terminators.
type LineHandler func(line string)

// LineWriter buffers written bytes and forwards each complete line to a handler.
type LineWriter struct {
	handler LineHandler
	buffer  bytes.Buffer
	mutex   sync.Mutex
}

// NewLineWriter constructs a writer that invokes handler once per line.
func NewLineWriter(handler LineHandler) *LineWriter {
	return &LineWriter{handler: handler}
}

// Write implements io.Writer. Partial lines are retained until a terminator or Flush.
func (lineWriter *LineWriter) Write(data []byte) (int, error) {
	if lineWriter == nil {
		return len(data), nil
	}

	lineWriter.mutex.Lock()
	defer lineWriter.mutex.Unlock()

	lineWriter.buffer.Write(data)
	for {
		pendingBytes := lineWriter.buffer.Bytes()
		terminatorIndex := bytes.IndexByte(pendingBytes, lineTerminatorConstant)
		if terminatorIndex < 0 {
			break
		}
		line := string(pendingBytes[:terminatorIndex])
		lineWriter.buffer.Next(terminatorIndex + 1)
		lineWriter.emit(line)
	}

	return len(data), nil
}

// Flush forwards any trailing partial line.
func (lineWriter *LineWriter) Flush() error {
	if lineWriter == nil {
		return nil
	}

	lineWriter.mutex.Lock()
	defer lineWriter.mutex.Unlock()

	if lineWriter.buffer.Len() == 0 {
		return nil
	}
	remainder := lineWriter.buffer.String()
	lineWriter.buffer.Reset()
	lineWriter.emit(remainder)
	return nil
}

func (lineWriter *LineWriter) emit(line string) {
	trimmedLine := strings.TrimRight(line, carriageReturnCutsetConstant)
	if len(strings.TrimSpace(trimmedLine)) == 0 || lineWriter.handler == nil {
		return
	}
	lineWriter.handler(trimmedLine)
}
