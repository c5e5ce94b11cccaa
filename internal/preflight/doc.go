// Package preflight provides readiness checks for the filesystem paths and
// services a run depends on.
//
// The run and restore commands call RunAll before touching the library; any
// failed check aborts the run before the first snapshot is taken. Each check
// is gated by its config toggle, so disabled features are skipped.
package preflight
