package journal

import "time"

// Status values for a run.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusFailed    = "failed"
)

// Run is one invocation of apply or restore.
type Run struct {
	ID                 string
	Mode               string
	RootDir            string
	Force              bool
	RestoreDate        string
	Status             string
	StartedAt          time.Time
	FinishedAt         time.Time
	Directories        int
	SkippedDirectories int
	TotalFiles         int
	ProcessedFiles     int
	SucceededFiles     int
	FailedFiles        int
	ErrorMessage       string
}

// Duration returns how long the run took, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FileOutcome records what happened to a single sidecar during a run.
type FileOutcome struct {
	RunID        string
	Directory    string
	Path         string
	Outcome      string
	ErrorKind    string
	ErrorMessage string
	ReleaseDate  string
	SnapshotPath string
	RecordedAt   time.Time
}
