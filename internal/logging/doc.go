// Package logging assembles structured slog loggers and formatting helpers used
// by the nfodate commands.
//
// It owns the console/JSON handlers, the per-run log file lifecycle, and
// context helpers that tag records with the run ID, mode, and library
// subdirectory. Warnings and errors can be mirrored to the terminal through a
// fanout handler while the run log keeps the full record. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
