// Package journal persists a history of nfodate runs in SQLite.
//
// Each invocation of run or restore inserts a runs row when it starts, one
// file_outcomes row per sidecar handled, and updates the run with its final
// counts when it finishes. The history command reads it back. The journal is
// an audit aid only; snapshots on disk remain the source of truth for restore.
package journal
