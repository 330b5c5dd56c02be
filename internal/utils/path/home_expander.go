// Package pathutils resolves user-supplied filesystem paths.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const homeShortcutConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory.
type HomeDirectoryProvider func() (string, error)

// HomeExpander replaces a leading "~" with the home directory. Other paths, including
// "~user" forms, are returned unchanged.
type HomeExpander struct {
	provider      HomeDirectoryProvider
	resolveOnce   sync.Once
	homeDirectory string
}

// NewHomeExpander constructs an expander backed by os.UserHomeDir.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs an expander with a custom home directory lookup.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{provider: provider}
}

// Expand resolves the home shortcut. The path is returned unchanged when the home directory is unknown.
func (expander *HomeExpander) Expand(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if expander == nil || !strings.HasPrefix(trimmedPath, homeShortcutConstant) {
		return trimmedPath
	}

	remainder := strings.TrimPrefix(trimmedPath, homeShortcutConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return trimmedPath
	}

	homeDirectory := expander.home()
	if len(homeDirectory) == 0 {
		return trimmedPath
	}
	return filepath.Join(homeDirectory, remainder)
}

func (expander *HomeExpander) home() string {
	expander.resolveOnce.Do(func() {
		resolvedDirectory, resolveError := expander.provider()
		if resolveError == nil {
			expander.homeDirectory = resolvedDirectory
		}
	})
	return expander.homeDirectory
}
