package backup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nfodate/internal/fileutil"
	"nfodate/internal/logging"
	"nfodate/internal/services"
)

// DayLayout is the date format embedded in snapshot names.
const DayLayout = "2006-01-02"

// Kinds label the file being snapshotted in logs and the run journal.
const (
	KindSidecar   = "sidecar"
	KindCompanion = "companion"
)

// Outcome describes what a Snapshot or Restore call did.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeMissing  Outcome = "missing"
	OutcomeRestored Outcome = "restored"
	OutcomeFailed   Outcome = "failed"
)

// Result reports the outcome of a single snapshot or restore.
type Result struct {
	Outcome  Outcome
	Path     string // file being protected or restored
	Snapshot string // snapshot path involved, when known
	Err      error
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source used to date snapshots.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager creates, detects, and restores dated snapshots.
type Manager struct {
	suffix string
	now    func() time.Time
	logger *slog.Logger
}

// NewManager constructs a Manager using suffix (".bak" when blank).
func NewManager(suffix string, logger *slog.Logger, opts ...Option) *Manager {
	suffix = strings.TrimSpace(suffix)
	if suffix == "" {
		suffix = ".bak"
	}
	if !strings.HasPrefix(suffix, ".") {
		suffix = "." + suffix
	}
	m := &Manager{
		suffix: suffix,
		now:    time.Now,
		logger: logging.NewComponentLogger(logger, "backup"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Today returns the current day stamp used for new snapshots.
func (m *Manager) Today() string {
	return m.now().Format(DayLayout)
}

// SnapshotPath returns the snapshot path for path on day (YYYY-MM-DD).
func (m *Manager) SnapshotPath(path, day string) string {
	return path + "." + day + m.suffix
}

// Snapshot copies path to today's snapshot. When skipIfExists is set and the
// snapshot is already present the call is a logged no-op. A missing source is
// logged and reported as OutcomeMissing.
func (m *Manager) Snapshot(path, kind string, skipIfExists bool) Result {
	target := m.SnapshotPath(path, m.Today())
	res := Result{Path: path, Snapshot: target}

	if skipIfExists && fileutil.Exists(target) {
		res.Outcome = OutcomeSkipped
		m.logger.Info("snapshot already exists; keeping it",
			logging.String("kind", kind),
			logging.String(logging.FieldPath, path),
			logging.String("snapshot", target),
			logging.String(logging.FieldEventType, "snapshot_skipped"),
		)
		return res
	}

	if !fileutil.Exists(path) {
		res.Outcome = OutcomeMissing
		logging.WarnWithContext(m.logger, "file not found; no snapshot taken", "snapshot_source_missing",
			logging.String("kind", kind),
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldImpact, "nothing to restore for this file"),
			logging.String(logging.FieldErrorHint, "expected when the file is created by this run"),
		)
		return res
	}

	if err := fileutil.CopyFile(path, target); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = services.Wrap(services.ErrIOFailure, "backup", "snapshot", kind, err)
		logging.ErrorWithContext(m.logger, "snapshot failed", "snapshot_failed",
			logging.String("kind", kind),
			logging.String(logging.FieldPath, path),
			logging.String("snapshot", target),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check free space and write permissions in the directory"),
		)
		return res
	}

	res.Outcome = OutcomeCreated
	m.logger.Info("snapshot created",
		logging.String("kind", kind),
		logging.String(logging.FieldPath, path),
		logging.String("snapshot", target),
		logging.String(logging.FieldEventType, "snapshot_created"),
	)
	return res
}

// Restore copies the snapshot for day back over path. An empty day selects
// the newest snapshot available for the file. A missing snapshot is logged as a
// warning and reported as OutcomeMissing.
func (m *Manager) Restore(path, kind, day string) Result {
	res := Result{Path: path}

	day = strings.TrimSpace(day)
	if day == "" {
		days, err := m.SnapshotDays(path)
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Err = services.Wrap(services.ErrIOFailure, "backup", "list snapshots", kind, err)
			logging.ErrorWithContext(m.logger, "snapshot listing failed", "restore_failed",
				logging.String("kind", kind),
				logging.String(logging.FieldPath, path),
				logging.Error(err),
			)
			return res
		}
		if len(days) > 0 {
			day = days[len(days)-1]
		}
	} else if _, err := time.Parse(DayLayout, day); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = services.Wrap(services.ErrParseFailure, "backup", "restore", fmt.Sprintf("invalid date %q", day), err)
		logging.ErrorWithContext(m.logger, "restore date invalid", "restore_failed",
			logging.String("kind", kind),
			logging.String("date", day),
			logging.String(logging.FieldErrorHint, "use YYYY-MM-DD"),
		)
		return res
	}

	if day == "" {
		res.Outcome = OutcomeMissing
		logging.WarnWithContext(m.logger, "no snapshot found; file left unchanged", "snapshot_missing",
			logging.String("kind", kind),
			logging.String(logging.FieldPath, path),
			logging.String(logging.FieldImpact, "file was not restored"),
		)
		return res
	}

	source := m.SnapshotPath(path, day)
	res.Snapshot = source
	if !fileutil.Exists(source) {
		res.Outcome = OutcomeMissing
		logging.WarnWithContext(m.logger, "snapshot not found; file left unchanged", "snapshot_missing",
			logging.String("kind", kind),
			logging.String(logging.FieldPath, path),
			logging.String("snapshot", source),
			logging.String(logging.FieldImpact, "file was not restored"),
			logging.String(logging.FieldErrorHint, "list available snapshots or pass a different --date"),
		)
		return res
	}

	if err := fileutil.CopyFile(source, path); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = services.Wrap(services.ErrIOFailure, "backup", "restore", kind, err)
		logging.ErrorWithContext(m.logger, "restore failed", "restore_failed",
			logging.String("kind", kind),
			logging.String(logging.FieldPath, path),
			logging.String("snapshot", source),
			logging.Error(err),
		)
		return res
	}

	res.Outcome = OutcomeRestored
	m.logger.Info("file restored from snapshot",
		logging.String("kind", kind),
		logging.String(logging.FieldPath, path),
		logging.String("snapshot", source),
		logging.String(logging.FieldEventType, "file_restored"),
	)
	return res
}

// SnapshotDays lists the days for which path has a snapshot, oldest first.
func (m *Manager) SnapshotDays(path string) ([]string, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	prefix := base + "."
	var days []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		day, ok := m.snapshotDay(entry.Name(), prefix)
		if ok {
			days = append(days, day)
		}
	}
	sort.Strings(days)
	return days, nil
}

// SnapshotTakenOn reports whether entries, a directory listing, hold any
// snapshot taken on day. The first matching file name is returned for logging.
func (m *Manager) SnapshotTakenOn(entries []os.DirEntry, day string) (string, bool) {
	marker := "." + day + m.suffix
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasSuffix(name, marker) && len(name) > len(marker) {
			return name, true
		}
	}
	return "", false
}

// IsSnapshot reports whether name looks like a snapshot file.
func (m *Manager) IsSnapshot(name string) bool {
	if !strings.HasSuffix(name, m.suffix) {
		return false
	}
	stem := strings.TrimSuffix(name, m.suffix)
	idx := strings.LastIndex(stem, ".")
	if idx <= 0 {
		return false
	}
	_, err := time.Parse(DayLayout, stem[idx+1:])
	return err == nil
}

func (m *Manager) snapshotDay(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, m.suffix) {
		return "", false
	}
	day := strings.TrimSuffix(strings.TrimPrefix(name, prefix), m.suffix)
	if len(day) != len(DayLayout) {
		return "", false
	}
	if _, err := time.Parse(DayLayout, day); err != nil {
		return "", false
	}
	return day, true
}
