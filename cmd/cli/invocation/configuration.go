package invocation

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/sfdxwatch/internal/notifications"
	"github.com/temirov/sfdxwatch/internal/telemetry"
	pathutils "github.com/temirov/sfdxwatch/internal/utils/path"
	"github.com/temirov/sfdxwatch/internal/workflow"
)

const (
	defaultDisplayDurationConstant       = time.Minute
	defaultTelemetryDirectoryConstant    = "sfdx-watch"
	defaultTelemetryDatabaseFileConstant = "telemetry.db"
)

// MonitorConfiguration tunes feed polling and the invocation timeouts. Zero selects the built-in value.
type MonitorConfiguration struct {
	PollInterval        time.Duration `mapstructure:"poll_interval" validate:"gte=0"`
	DisplayDuration     time.Duration `mapstructure:"display_duration" validate:"gte=0"`
	CompletionTimeout   time.Duration `mapstructure:"completion_timeout" validate:"gte=0"`
	ConfirmationTimeout time.Duration `mapstructure:"confirmation_timeout" validate:"gte=0"`
}

// TelemetryConfiguration controls outcome event persistence.
type TelemetryConfiguration struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
	QueueSize    int    `mapstructure:"queue_size" validate:"gte=0"`
}

// CommandConfiguration aggregates the settings shared by run and exec.
type CommandConfiguration struct {
	Monitor     MonitorConfiguration
	Telemetry   TelemetryConfiguration
	CatalogPath string
	Program     string
}

// DefaultCommandConfiguration returns the built-in settings.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Monitor: MonitorConfiguration{
			PollInterval:        notifications.DefaultPollInterval,
			DisplayDuration:     defaultDisplayDurationConstant,
			CompletionTimeout:   workflow.DefaultCompletionTimeout,
			ConfirmationTimeout: workflow.DefaultConfirmationTimeout,
		},
		Telemetry: TelemetryConfiguration{
			Enabled:   true,
			QueueSize: telemetry.DefaultQueueSize,
		},
	}
}

// Sanitize replaces unusable values with the built-in settings and expands "~" in paths.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration

	if sanitized.Monitor.PollInterval <= 0 {
		sanitized.Monitor.PollInterval = defaults.Monitor.PollInterval
	}
	if sanitized.Monitor.DisplayDuration <= 0 {
		sanitized.Monitor.DisplayDuration = defaults.Monitor.DisplayDuration
	}
	if sanitized.Monitor.CompletionTimeout <= 0 {
		sanitized.Monitor.CompletionTimeout = defaults.Monitor.CompletionTimeout
	}
	if sanitized.Monitor.ConfirmationTimeout <= 0 {
		sanitized.Monitor.ConfirmationTimeout = defaults.Monitor.ConfirmationTimeout
	}
	if sanitized.Telemetry.QueueSize <= 0 {
		sanitized.Telemetry.QueueSize = defaults.Telemetry.QueueSize
	}

	homeExpander := pathutils.NewHomeExpander()
	sanitized.Telemetry.DatabasePath = homeExpander.Expand(sanitized.Telemetry.DatabasePath)
	if len(sanitized.Telemetry.DatabasePath) == 0 {
		sanitized.Telemetry.DatabasePath = DefaultTelemetryDatabasePath()
	}
	sanitized.CatalogPath = homeExpander.Expand(sanitized.CatalogPath)
	sanitized.Program = strings.TrimSpace(sanitized.Program)
	return sanitized
}

// DefaultTelemetryDatabasePath places the database under the user cache directory,
// falling back to the working directory when no cache directory is known.
func DefaultTelemetryDatabasePath() string {
	cacheDirectory, cacheError := os.UserCacheDir()
	if cacheError != nil || len(cacheDirectory) == 0 {
		return filepath.Join(defaultTelemetryDirectoryConstant, defaultTelemetryDatabaseFileConstant)
	}
	return filepath.Join(cacheDirectory, defaultTelemetryDirectoryConstant, defaultTelemetryDatabaseFileConstant)
}
