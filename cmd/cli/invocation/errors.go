package invocation

import (
	"errors"
	"fmt"

	"github.com/temirov/sfdxwatch/internal/outcome"
)

const outcomeErrorTemplateConstant = "%s finished with outcome %s"

// ErrProgramRequired indicates exec was called without a program after "--".
var ErrProgramRequired = errors.New("program required after --")

// OutcomeError reports an invocation whose confirmed outcome is a failure.
type OutcomeError struct {
	Record outcome.Record
}

func (outcomeError OutcomeError) Error() string {
	return fmt.Sprintf(outcomeErrorTemplateConstant, outcomeError.Record.CommandName, outcomeError.Record.Kind)
}

// outcomeResult maps a classified record to the command's exit error.
// Unknown outcomes are already reported to the user and do not fail the command.
func outcomeResult(record outcome.Record) error {
	if record.Kind == outcome.KindExpectedFailure {
		return OutcomeError{Record: record}
	}
	return nil
}
