// Package logging assembles structured slog loggers and formatting helpers used
// across mangashelf.
//
// It owns the console and JSON handlers (with "auto" choosing between them by
// whether output is a terminal), centralizes level and output plumbing, and
// exposes context-aware helpers so pipeline code tags log lines with item IDs,
// run generations, stages, and correlation IDs. A no-op logger is provided for
// tests and wiring code that cannot fail.
package logging
