// Package workflow runs one command invocation end to end: dispatch the
// process, wait for its progress notification to go away, wait for the
// confirming notification, classify the outcome, and report it.
package workflow
