package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"nfodate/internal/backup"
	"nfodate/internal/companion"
	"nfodate/internal/config"
	"nfodate/internal/fileutil"
	"nfodate/internal/journal"
	"nfodate/internal/logging"
	"nfodate/internal/nfo"
	"nfodate/internal/services"
)

// Option customizes a Runner.
type Option func(*Runner)

// WithRecorder stores run history through rec.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// WithProgress writes one line per processed sidecar to w.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.progress = w
		}
	}
}

// WithClock overrides the time source for snapshots and run timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(r *Runner) {
		if strings.TrimSpace(id) != "" {
			r.runID = id
		}
	}
}

// Runner processes a library root in apply or restore mode.
type Runner struct {
	cfg       *config.Config
	logger    *slog.Logger
	recorder  Recorder
	progress  io.Writer
	now       func() time.Time
	runID     string
	backups   *backup.Manager
	rewriter  *nfo.Rewriter
	companion *companion.Synchronizer
}

// NewRunner wires the backup manager, rewriter, and companion synchronizer
// from cfg.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	r := &Runner{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		progress: io.Discard,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.backups = backup.NewManager(cfg.Backup.Suffix, logger, backup.WithClock(r.now))
	r.rewriter = nfo.NewRewriter(nfo.Options{
		FixedTime:    cfg.Dates.FixedTime,
		DefaultAdded: cfg.Dates.DefaultAdded,
		RatingMap:    cfg.RatingMap(),
	}, logger)
	r.companion = companion.NewSynchronizer(companion.Options{
		FileName:  cfg.Library.CompanionFile,
		FixedTime: cfg.Dates.FixedTime,
		Create:    cfg.Library.CreateCompanion,
	}, logger)
	return r
}

// RunID returns the identifier the next Run will use, generating it on first
// call.
func (r *Runner) RunID() string {
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	return r.runID
}

// run holds the mutable state of one Run call.
type run struct {
	ctx         context.Context
	opts        Options
	summary     Summary
	logger      *slog.Logger
	snapshotted map[string]struct{}
}

// Run processes every immediate subdirectory of root. It returns an error only
// for fatal setup problems (root unreadable, lock held); per-file failures are
// counted in the Summary.
func (r *Runner) Run(ctx context.Context, root string, opts Options) (Summary, error) {
	if opts.Mode == "" {
		opts.Mode = ModeApply
	}
	if opts.Mode != ModeApply && opts.Mode != ModeRestore {
		return Summary{}, fmt.Errorf("unknown run mode %q", opts.Mode)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return Summary{}, services.Wrap(services.ErrIOFailure, "workflow", "enumerate root", root, err)
	}

	lock, err := acquireLock(root)
	if err != nil {
		return Summary{}, err
	}
	defer func() { _ = lock.Unlock() }()

	runID := r.RunID()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithMode(ctx, string(opts.Mode))

	state := &run{
		ctx:  ctx,
		opts: opts,
		summary: Summary{
			RunID:       runID,
			Mode:        opts.Mode,
			Root:        root,
			Force:       opts.Force,
			RestoreDate: opts.RestoreDate,
			StartedAt:   r.now(),
		},
		logger:      logging.WithContext(ctx, r.logger),
		snapshotted: make(map[string]struct{}),
	}

	state.logger.Info("run started",
		logging.String("root", root),
		logging.Bool("force", opts.Force),
		logging.String("restore_date", opts.RestoreDate),
		logging.String(logging.FieldEventType, "run_started"),
	)
	r.startJournal(state)

	for _, entry := range sortedDirs(entries) {
		if ctx.Err() != nil {
			state.summary.Cancelled = true
			break
		}
		r.processDirectory(state, filepath.Join(root, entry.Name()))
	}

	state.summary.FinishedAt = r.now()
	r.finish(state)
	return state.summary, nil
}

func sortedDirs(entries []os.DirEntry) []os.DirEntry {
	dirs := make([]os.DirEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry)
		}
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name() < dirs[j].Name() })
	return dirs
}

// listSidecars picks the sidecar files out of a listing of dir, sorted.
func (r *Runner) listSidecars(dir string, entries []os.DirEntry) []string {
	ext := strings.ToLower(r.cfg.Library.SidecarExt)
	var files []string
	for _, entry := range entries {
		// a suffix such as ".bak.nfo" would otherwise make snapshots look like sidecars
		if entry.IsDir() || r.backups.IsSnapshot(entry.Name()) {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) == ext {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files
}

func (r *Runner) processDirectory(state *run, dir string) {
	name := filepath.Base(dir)
	ctx := services.WithDirectory(state.ctx, name)
	logger := logging.WithContext(ctx, r.logger)
	state.summary.Directories++

	// one listing serves both the sidecar scan and the directory guard
	entries, err := os.ReadDir(dir)
	if err != nil {
		state.summary.SkippedDirectories++
		state.summary.countError(services.Kind(services.ErrIOFailure))
		logging.ErrorWithContext(logger, "directory listing failed; directory skipped", "directory_failed",
			logging.String(logging.FieldPath, dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check directory permissions"),
		)
		return
	}
	files := r.listSidecars(dir, entries)
	if len(files) == 0 {
		logger.Debug("no sidecars in directory", logging.String(logging.FieldPath, dir))
		return
	}
	state.summary.TotalFiles += len(files)

	if state.opts.Mode == ModeApply && r.cfg.Backup.DirectoryGuard && !state.opts.Force {
		if snapshot, found := r.backups.SnapshotTakenOn(entries, r.backups.Today()); found {
			cause := services.Wrap(services.ErrBackupConflict, "workflow", "directory guard", snapshot, nil)
			logging.WarnWithContext(logger, "directory already has snapshots from today; skipped", "backup_conflict",
				logging.String(logging.FieldPath, dir),
				logging.String(logging.FieldErrorKind, services.Kind(cause)),
				logging.String("snapshot", snapshot),
				logging.String(logging.FieldImpact, "sidecars in this directory were not updated"),
				logging.String(logging.FieldErrorHint, "rerun with 'run force' to process it anyway"),
			)
			r.skipDirectory(state, dir, files, cause)
			return
		}
	}

	restoredCompanion := false
	for i, path := range files {
		if ctx.Err() != nil {
			state.summary.Cancelled = true
			return
		}
		var outcome journal.FileOutcome
		switch state.opts.Mode {
		case ModeRestore:
			var attempted bool
			outcome, attempted = r.restoreFile(state, logger, path, !restoredCompanion)
			restoredCompanion = restoredCompanion || attempted
		default:
			outcome = r.applyFile(state, logger, path)
		}
		outcome.Directory = name
		state.summary.ProcessedFiles++
		fmt.Fprintf(r.progress, "%s: %d/%d %s %s\n", name, i+1, len(files), filepath.Base(path), outcome.Outcome)
		logger.Debug("progress",
			logging.Int("processed", i+1),
			logging.Int("total", len(files)),
			logging.String(logging.FieldPath, path),
		)
		r.record(state, outcome)
	}
}

// skipDirectory records every sidecar in dir as skipped with cause. The caller
// logs why.
func (r *Runner) skipDirectory(state *run, dir string, files []string, cause error) {
	kind := services.Kind(cause)
	state.summary.SkippedDirectories++
	state.summary.SkippedFiles += len(files)
	name := filepath.Base(dir)
	for _, path := range files {
		fmt.Fprintf(r.progress, "%s: %s %s\n", name, filepath.Base(path), OutcomeSkipped)
		r.record(state, journal.FileOutcome{
			Directory:    name,
			Path:         path,
			Outcome:      OutcomeSkipped,
			ErrorKind:    kind,
			ErrorMessage: cause.Error(),
		})
	}
}

func (r *Runner) applyFile(state *run, logger *slog.Logger, path string) journal.FileOutcome {
	outcome := journal.FileOutcome{Path: path}

	snap := r.snapshot(state, path, backup.KindSidecar)
	outcome.SnapshotPath = snap.Snapshot
	if snap.Outcome == backup.OutcomeFailed {
		return r.fail(state, logger, outcome, snap.Err)
	}

	res, err := r.rewriter.Process(path)
	outcome.ReleaseDate = res.ReleaseDate
	if err != nil {
		return r.fail(state, logger, outcome, err)
	}

	state.summary.SucceededFiles++
	outcome.Outcome = OutcomeUnchanged
	if res.Changed {
		outcome.Outcome = OutcomeUpdated
		state.summary.ChangedFiles++
	}

	if err := r.syncCompanion(state, logger, filepath.Dir(path), res.ReleaseDate); err != nil {
		outcome.ErrorKind = services.Kind(err)
		outcome.ErrorMessage = "companion: " + err.Error()
	}
	return outcome
}

// snapshot takes at most one snapshot per path per run, so a forced run with
// several sidecars does not overwrite the companion snapshot it just made.
func (r *Runner) snapshot(state *run, path, kind string) backup.Result {
	if _, done := state.snapshotted[path]; done {
		return backup.Result{Outcome: backup.OutcomeSkipped, Path: path, Snapshot: r.backups.SnapshotPath(path, r.backups.Today())}
	}
	res := r.backups.Snapshot(path, kind, !state.opts.Force)
	if res.Outcome != backup.OutcomeFailed {
		state.snapshotted[path] = struct{}{}
	}
	return res
}

func (r *Runner) syncCompanion(state *run, logger *slog.Logger, dir, releaseDate string) error {
	companionPath := r.companion.Path(dir)
	if fileutil.Exists(companionPath) {
		snap := r.snapshot(state, companionPath, backup.KindCompanion)
		if snap.Outcome == backup.OutcomeFailed {
			state.summary.CompanionFailures++
			state.summary.countError(services.Kind(snap.Err))
			logging.WarnWithContext(logger, "companion snapshot failed; companion not updated", "companion_skipped",
				logging.String(logging.FieldPath, companionPath),
				logging.Error(snap.Err),
				logging.String(logging.FieldImpact, "companion keeps its previous Added value"),
			)
			return snap.Err
		}
	} else {
		// absent before this run; later sidecars must not back up what Sync creates
		state.snapshotted[companionPath] = struct{}{}
	}

	res, err := r.companion.Sync(dir, releaseDate)
	if err != nil {
		state.summary.CompanionFailures++
		state.summary.countError(services.Kind(err))
		logging.WarnWithContext(logger, "companion sync failed", "companion_failed",
			logging.String(logging.FieldPath, companionPath),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "sidecar updated but companion unchanged"),
			logging.String(logging.FieldErrorHint, hintFor(err)),
		)
		return err
	}
	if res.Changed {
		state.summary.CompanionsUpdated++
	}
	return nil
}

// restoreFile restores path and, when withCompanion is set, the directory's
// companion. The bool reports whether the companion restore was attempted.
func (r *Runner) restoreFile(state *run, logger *slog.Logger, path string, withCompanion bool) (journal.FileOutcome, bool) {
	outcome := journal.FileOutcome{Path: path}

	res := r.backups.Restore(path, backup.KindSidecar, state.opts.RestoreDate)
	outcome.SnapshotPath = res.Snapshot
	switch res.Outcome {
	case backup.OutcomeFailed:
		return r.fail(state, logger, outcome, res.Err), false
	case backup.OutcomeRestored:
		outcome.Outcome = OutcomeRestored
		state.summary.ChangedFiles++
	default:
		outcome.Outcome = OutcomeMissing
	}
	state.summary.SucceededFiles++

	if !withCompanion {
		return outcome, false
	}
	companionPath := r.companion.Path(filepath.Dir(path))
	cres := r.backups.Restore(companionPath, backup.KindCompanion, state.opts.RestoreDate)
	switch cres.Outcome {
	case backup.OutcomeFailed:
		state.summary.CompanionFailures++
		state.summary.countError(services.Kind(cres.Err))
		outcome.ErrorKind = services.Kind(cres.Err)
		outcome.ErrorMessage = "companion: " + cres.Err.Error()
	case backup.OutcomeRestored:
		state.summary.CompanionsUpdated++
	}
	return outcome, true
}

func (r *Runner) fail(state *run, logger *slog.Logger, outcome journal.FileOutcome, err error) journal.FileOutcome {
	kind := services.Kind(err)
	state.summary.FailedFiles++
	state.summary.countError(kind)
	outcome.Outcome = OutcomeFailed
	outcome.ErrorKind = kind
	outcome.ErrorMessage = err.Error()
	logging.ErrorWithContext(logger, "sidecar processing failed", "sidecar_failed",
		logging.String(logging.FieldPath, outcome.Path),
		logging.String(logging.FieldErrorKind, kind),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
	return outcome
}

func hintFor(err error) string {
	switch services.Kind(err) {
	case "missing_anchor":
		return "add a <title> or <dateadded> tag to the sidecar"
	case "missing_release_date":
		return "add a <releasedate> or <premiered> tag to the sidecar"
	case "invalid_release_date":
		return "release dates must start with YYYY-MM-DD"
	case "parse_failure":
		return "fix or remove the malformed file"
	case "backup_conflict":
		return "rerun with 'run force' to overwrite today's snapshots"
	default:
		return "check file permissions and free disk space"
	}
}
