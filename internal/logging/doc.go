// Package logging assembles structured slog loggers and formatting helpers used
// across wavepipe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so request handlers and the
// download pipeline tag log lines with request IDs, workspace IDs and stages.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
