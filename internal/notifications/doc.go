// Package notifications delivers run reports via ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can notify unconditionally. Reports summarize the counters of a
// finished apply or restore run; fatal setup errors are sent with high
// priority.
package notifications
