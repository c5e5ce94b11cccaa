// Package workflow drives a run over a library root.
//
// Runner enumerates the immediate subdirectories of the root and, for every
// sidecar inside them, either applies the rewrite (snapshot, rewrite, then
// snapshot and sync the companion) or restores the sidecar and companion from
// their snapshots. Work is strictly sequential. Per-file failures are logged
// with their error kind and the batch continues; only root enumeration and the
// run lock are fatal.
//
// A per-root advisory lock keeps two invocations from editing the same tree.
// Cancellation is checked between files, so an interrupted run leaves every
// file either untouched or fully processed with its snapshot in place.
package workflow
