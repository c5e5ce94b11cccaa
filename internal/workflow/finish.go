package workflow

import (
	"nfodate/internal/journal"
	"nfodate/internal/logging"
)

func (r *Runner) startJournal(state *run) {
	if r.recorder == nil {
		return
	}
	err := r.recorder.StartRun(state.ctx, journal.Run{
		ID:          state.summary.RunID,
		Mode:        string(state.opts.Mode),
		RootDir:     state.summary.Root,
		Force:       state.opts.Force,
		RestoreDate: state.opts.RestoreDate,
		StartedAt:   state.summary.StartedAt,
	})
	if err != nil {
		logging.WarnWithContext(state.logger, "journal start failed; history disabled for this run", "journal_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in 'nfodate history'"),
		)
		r.recorder = nil
	}
}

func (r *Runner) record(state *run, outcome journal.FileOutcome) {
	if r.recorder == nil {
		return
	}
	outcome.RunID = state.summary.RunID
	outcome.RecordedAt = r.now()
	// Recording must outlive cancellation so interrupted runs keep their history.
	if err := r.recorder.RecordFile(contextWithoutCancel(state.ctx), outcome); err != nil {
		logging.WarnWithContext(state.logger, "journal write failed", "journal_failed",
			logging.String(logging.FieldPath, outcome.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file outcome missing from run history"),
		)
	}
}

func (r *Runner) finish(state *run) {
	s := &state.summary
	attrs := []logging.Attr{
		logging.Int("directories", s.Directories),
		logging.Int("skipped_directories", s.SkippedDirectories),
		logging.Int("total", s.TotalFiles),
		logging.Int("processed", s.ProcessedFiles),
		logging.Int("succeeded", s.SucceededFiles),
		logging.Int("failed", s.FailedFiles),
		logging.Int("changed", s.ChangedFiles),
		logging.Int("companions", s.CompanionsUpdated),
		logging.Duration("duration", s.Duration()),
		logging.String(logging.FieldEventType, "run_completed"),
	}
	if s.Cancelled {
		logging.WarnWithContext(state.logger, "run cancelled; remaining directories not processed", "run_cancelled",
			append(attrs[:len(attrs)-1],
				logging.String(logging.FieldImpact, "processed files keep their snapshots and can be restored"),
				logging.String(logging.FieldErrorHint, "rerun to finish the remaining directories"),
			)...,
		)
	} else {
		state.logger.Info("run completed", logging.Args(attrs...)...)
	}

	switch state.opts.Mode {
	case ModeRestore:
		state.logger.Warn("restore mode enabled; files have been restored from snapshots")
		state.logger.Warn("review the restored files to ensure data integrity")
		state.logger.Warn("snapshots are kept; remove them manually once everything looks correct")
	default:
		state.logger.Info("use 'nfodate restore' to roll back from today's snapshots")
	}

	if r.recorder == nil {
		return
	}
	status := journal.StatusCompleted
	if s.Cancelled {
		status = journal.StatusCancelled
	}
	err := r.recorder.FinishRun(contextWithoutCancel(state.ctx), journal.Run{
		ID:                 s.RunID,
		Status:             status,
		FinishedAt:         s.FinishedAt,
		Directories:        s.Directories,
		SkippedDirectories: s.SkippedDirectories,
		TotalFiles:         s.TotalFiles,
		ProcessedFiles:     s.ProcessedFiles,
		SucceededFiles:     s.SucceededFiles,
		FailedFiles:        s.FailedFiles,
	})
	if err != nil {
		logging.WarnWithContext(state.logger, "journal finish failed", "journal_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history shows this run as still running"),
		)
	}
}
