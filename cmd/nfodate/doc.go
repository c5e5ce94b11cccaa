// Package main hosts the nfodate CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, applies the --root
// override, and hands the library root to the workflow runner in apply or
// restore mode. Around each run it opens the per-run log file, the optional
// SQLite journal, the Prometheus textfile export, and the Emby refresh hook,
// then renders a summary table for the terminal.
//
// Keep this package lean: behaviour belongs in the internal packages and is
// surfaced here through commands and flags.
package main
