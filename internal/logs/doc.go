// Package logs locates and tails the per-run log files.
//
// Run logs are named with a sortable timestamp, so the newest one is the last
// match in lexical order. Tailing keeps a bounded ring of lines in memory and
// Follow polls for appended lines until its context ends, which is how
// `nfodate logs --follow` watches a run in progress from another terminal.
package logs
