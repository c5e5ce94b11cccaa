package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// StartRun inserts run with status running.
func (s *Store) StartRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return errors.New("start run: id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO runs (id, mode, root_dir, forced, restore_date, status, started_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Mode,
		run.RootDir,
		boolToInt(run.Force),
		nullableString(run.RestoreDate),
		StatusRunning,
		formatTime(run.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordFile appends a per-file outcome to its run.
func (s *Store) RecordFile(ctx context.Context, outcome FileOutcome) error {
	if outcome.RecordedAt.IsZero() {
		outcome.RecordedAt = time.Now()
	}
	err := s.exec(ctx,
		`INSERT INTO file_outcomes (
            run_id, directory, path, outcome, error_kind, error_message,
            release_date, snapshot_path, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.RunID,
		outcome.Directory,
		outcome.Path,
		outcome.Outcome,
		nullableString(outcome.ErrorKind),
		nullableString(outcome.ErrorMessage),
		nullableString(outcome.ReleaseDate),
		nullableString(outcome.SnapshotPath),
		formatTime(outcome.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("insert file outcome: %w", err)
	}
	return nil
}

// FinishRun stores the final status and counters of run.
func (s *Store) FinishRun(ctx context.Context, run Run) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now()
	}
	if run.Status == "" {
		run.Status = StatusCompleted
	}
	ctx = ensureContext(ctx)
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE runs SET
                status = ?, finished_at = ?, directories = ?, skipped_directories = ?,
                total_files = ?, processed_files = ?, succeeded_files = ?, failed_files = ?,
                error_message = ?
             WHERE id = ?`,
			run.Status,
			formatTime(run.FinishedAt),
			run.Directories,
			run.SkippedDirectories,
			run.TotalFiles,
			run.ProcessedFiles,
			run.SucceededFiles,
			run.FailedFiles,
			nullableString(run.ErrorMessage),
			run.ID,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID)
	}
	return nil
}

const runColumns = `id, mode, root_dir, forced, restore_date, status, started_at, finished_at,
    directories, skipped_directories, total_files, processed_files, succeeded_files,
    failed_files, error_message`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		force       int
		restoreDate sql.NullString
		startedAt   sql.NullString
		finishedAt  sql.NullString
		errMsg      sql.NullString
	)
	if err := row.Scan(
		&run.ID, &run.Mode, &run.RootDir, &force, &restoreDate, &run.Status,
		&startedAt, &finishedAt, &run.Directories, &run.SkippedDirectories,
		&run.TotalFiles, &run.ProcessedFiles, &run.SucceededFiles, &run.FailedFiles, &errMsg,
	); err != nil {
		return Run{}, err
	}
	run.Force = force != 0
	run.RestoreDate = restoreDate.String
	run.StartedAt = parseTime(startedAt)
	run.FinishedAt = parseTime(finishedAt)
	run.ErrorMessage = errMsg.String
	return run, nil
}

// GetRun loads a single run by id.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// RecentRuns lists up to limit runs, newest first. A limit <= 0 returns all.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// FileOutcomes lists the per-file records of a run in insertion order.
func (s *Store) FileOutcomes(ctx context.Context, runID string) ([]FileOutcome, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, directory, path, outcome, error_kind, error_message,
                release_date, snapshot_path, recorded_at
         FROM file_outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list file outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []FileOutcome
	for rows.Next() {
		var out FileOutcome
		var kind, msg, releaseDate, snap, recorded sql.NullString
		if err := rows.Scan(&out.RunID, &out.Directory, &out.Path, &out.Outcome,
			&kind, &msg, &releaseDate, &snap, &recorded); err != nil {
			return nil, fmt.Errorf("scan file outcome: %w", err)
		}
		out.ErrorKind = kind.String
		out.ErrorMessage = msg.String
		out.ReleaseDate = releaseDate.String
		out.SnapshotPath = snap.String
		out.RecordedAt = parseTime(recorded)
		outcomes = append(outcomes, out)
	}
	return outcomes, rows.Err()
}
