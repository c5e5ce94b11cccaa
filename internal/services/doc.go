// Package services defines shared utilities consumed by the batch workflow and
// the external integrations it talks to.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, library subdirectories, and the run
//     mode for logging.
//   - Structured error markers plus the Wrap and Kind helpers that keep the
//     failure taxonomy (missing anchor, missing release date, backup conflict,
//     parse failure, IO failure) consistent across components.
//
// Use these helpers when wiring new components so per-file failures stay
// classifiable in logs and in the run journal.
package services
