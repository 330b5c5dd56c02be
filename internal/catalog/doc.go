// Package catalog defines the named Salesforce CLI commands the tool can run.
//
// Each definition pairs the CLI arguments with the notification texts that
// confirm its outcome. Definitions are loaded from YAML, starting from the
// catalog embedded in the binary, and may be overridden by a user file.
package catalog
