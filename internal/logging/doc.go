// Package logging assembles the slog loggers used by the minutes server and CLI.
//
// It owns the console and JSON handlers, level and output plumbing, and
// context helpers that tag log lines with the request id and endpoint of the
// call being served. A no-op logger is provided for tests and wiring code
// that cannot fail.
package logging
