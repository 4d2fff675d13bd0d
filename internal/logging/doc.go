// Package logging assembles structured slog loggers and formatting helpers used
// across subfetch.
//
// It owns the console and JSON handlers, the rotated log file sink, and the
// context-aware helpers that tag lines with the run ID, media file, and stage.
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging
