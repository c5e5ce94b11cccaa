// Package backup owns the dated snapshot files that make a run reversible.
//
// A snapshot is a byte copy of a sidecar or companion file stored next to it
// as <name>.<YYYY-MM-DD><suffix>. At most one snapshot exists per file per
// calendar day; apply runs leave an existing snapshot alone unless forced, and
// snapshots are never removed automatically. Restore copies a snapshot back
// over the original, defaulting to the newest one present.
//
// Manager never returns fatal errors to the orchestrator: each call reports a
// Result whose Outcome says what happened and whose Err, when set, carries a
// services marker for classification.
package backup
