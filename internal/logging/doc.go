// Package logging provides slog-based logging with console and JSON output
// formats plus helpers for deriving structured fields from context.
package logging
