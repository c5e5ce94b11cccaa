package workflow

import (
	"context"
	"errors"
	"time"

	"nfodate/internal/journal"
)

// Mode selects what a run does to each sidecar.
type Mode string

const (
	ModeApply   Mode = "apply"
	ModeRestore Mode = "restore"
)

// ErrLocked is returned when another run holds the library lock.
var ErrLocked = errors.New("another nfodate run holds the library lock")

// LockFileName is created in the library root while a run is active.
const LockFileName = ".nfodate.lock"

// Options are the per-invocation run settings.
type Options struct {
	Mode Mode
	// Force overwrites same-day snapshots and bypasses the directory guard.
	Force bool
	// RestoreDate picks the snapshot day to restore; empty means newest.
	RestoreDate string
}

// File outcomes recorded per sidecar.
const (
	OutcomeUpdated   = "updated"
	OutcomeUnchanged = "unchanged"
	OutcomeRestored  = "restored"
	OutcomeMissing   = "missing"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Summary reports the counters of a finished run.
type Summary struct {
	RunID              string
	Mode               Mode
	Root               string
	Force              bool
	RestoreDate        string
	Directories        int
	SkippedDirectories int
	TotalFiles         int
	ProcessedFiles     int
	SucceededFiles     int
	FailedFiles        int
	SkippedFiles       int
	ChangedFiles       int
	CompanionsUpdated  int
	CompanionFailures  int
	ErrorKinds         map[string]int
	Cancelled          bool
	StartedAt          time.Time
	FinishedAt         time.Time
}

// Duration returns the wall clock time of the run.
func (s Summary) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Summary) countError(kind string) {
	if kind == "" {
		return
	}
	if s.ErrorKinds == nil {
		s.ErrorKinds = make(map[string]int)
	}
	s.ErrorKinds[kind]++
}

// Recorder persists run history. *journal.Store satisfies it.
type Recorder interface {
	StartRun(ctx context.Context, run journal.Run) error
	RecordFile(ctx context.Context, outcome journal.FileOutcome) error
	FinishRun(ctx context.Context, run journal.Run) error
}
