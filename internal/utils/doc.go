// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the ConfigurationLoader (Viper with embedded defaults and
// environment overrides), the LoggerFactory producing zap loggers, the Clock
// abstraction that drives polling and timestamps, and the LineWriter used to
// split process output into individual lines.
package utils
