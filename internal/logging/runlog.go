package logging

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"nfodate/internal/config"
)

const (
	runLogPrefix     = "nfodate_"
	runLogExt        = ".log"
	runLogTimeLayout = "2006-01-02_15-04-05"
)

// RunLogPattern matches every run log file name.
const RunLogPattern = runLogPrefix + "*" + runLogExt

// RunLog is the logger for one invocation together with the file backing it.
type RunLog struct {
	Logger *slog.Logger
	Path   string
	closer io.Closer
}

// RunLogName returns the file name used for a run started at now.
func RunLogName(now time.Time) string {
	return runLogPrefix + now.Format(runLogTimeLayout) + runLogExt
}

// OpenRunLog creates the timestamped log file for a run inside cfg.LogDir().
// Warnings and errors are mirrored to console when it is non-nil. Old run logs
// beyond the retention window are pruned once the new log is open.
func OpenRunLog(cfg *config.Config, runID string, now time.Time, console io.Writer) (*RunLog, error) {
	if cfg == nil {
		return nil, fmt.Errorf("open run log: config is required")
	}
	dir := cfg.LogDir()
	if dir == "" {
		return nil, fmt.Errorf("open run log: log directory is not configured")
	}
	path := filepath.Join(dir, RunLogName(now))

	logger, closer, err := New(Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{path},
		RunID:       runID,
	})
	if err != nil {
		return nil, fmt.Errorf("open run log: %w", err)
	}
	if console != nil {
		consoleLevel := new(slog.LevelVar)
		consoleLevel.Set(slog.LevelWarn)
		logger = TeeLogger(logger, newPrettyHandler(console, consoleLevel, false))
	}

	CleanupOldLogs(logger, cfg.Logging.RetentionDays, RetentionTarget{
		Dir:     dir,
		Pattern: RunLogPattern,
		Exclude: []string{path},
	})

	return &RunLog{Logger: logger, Path: path, closer: closer}, nil
}

// Close flushes and closes the run log file. It is safe to call more than once.
func (r *RunLog) Close() error {
	if r == nil || r.closer == nil {
		return nil
	}
	err := r.closer.Close()
	r.closer = nil
	return err
}
