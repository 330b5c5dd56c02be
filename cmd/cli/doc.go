// Package cli constructs the sfdx-watch command-line interface. It wires the
// Cobra command hierarchy, the Viper configuration loader, and the zap logger,
// then hands each subcommand its logger and configuration through provider
// closures.
package cli
