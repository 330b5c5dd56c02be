// Package ui provides helpers for formatting human-readable console output.
//
// Command lifecycle events are rendered through zap for diagnostics, while
// outcome messages meant for the user are printed as single colored lines.
package ui
