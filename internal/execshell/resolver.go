package execshell

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// ProgramResolver maps a command to the executable that will be started.
type ProgramResolver interface {
	Resolve(command ShellCommand) (string, error)
}

// PathProgramResolver resolves executables through PATH. Names containing a path
// separator are treated as paths, relative ones anchored at the working directory.
type PathProgramResolver struct{}

// NewPathProgramResolver constructs a PATH based resolver.
func NewPathProgramResolver() PathProgramResolver {
	return PathProgramResolver{}
}

// Resolve locates the executable for the command.
func (PathProgramResolver) Resolve(command ShellCommand) (string, error) {
	programName := strings.TrimSpace(string(command.Name))
	if len(programName) == 0 {
		return "", ErrProgramRequired
	}

	if strings.ContainsRune(programName, filepath.Separator) || strings.ContainsRune(programName, '/') {
		candidatePath := programName
		workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
		if !filepath.IsAbs(candidatePath) && len(workingDirectory) > 0 {
			candidatePath = filepath.Join(workingDirectory, candidatePath)
		}
		return exec.LookPath(candidatePath)
	}

	return exec.LookPath(programName)
}
