package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfodate/internal/config"
	"nfodate/internal/journal"
)

func openStore(t *testing.T) *journal.Store {
	t.Helper()
	store, err := journal.OpenPath(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Enabled = false
	_, err := journal.Open(&cfg)
	assert.True(t, errors.Is(err, journal.ErrDisabled))
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.Journal.Path = filepath.Join(t.TempDir(), "nested", "dir", "journal.db")
	store, err := journal.Open(&cfg)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, cfg.Journal.Path, store.Path())
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2024, 10, 1, 13, 0, 0, 0, time.UTC)

	require.NoError(t, store.StartRun(ctx, journal.Run{
		ID:        "run-1",
		Mode:      "apply",
		RootDir:   "/library",
		Force:     true,
		StartedAt: started,
	}))

	run, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, journal.StatusRunning, run.Status)
	assert.True(t, run.Force)
	assert.True(t, run.FinishedAt.IsZero())
	assert.Zero(t, run.Duration())

	require.NoError(t, store.RecordFile(ctx, journal.FileOutcome{
		RunID:        "run-1",
		Directory:    "Film (2020)",
		Path:         "/library/Film (2020)/film.nfo",
		Outcome:      "updated",
		ReleaseDate:  "2020-01-01",
		SnapshotPath: "/library/Film (2020)/film.nfo.2024-10-01.bak",
	}))
	require.NoError(t, store.RecordFile(ctx, journal.FileOutcome{
		RunID:        "run-1",
		Directory:    "Other",
		Path:         "/library/Other/other.nfo",
		Outcome:      "failed",
		ErrorKind:    "missing_anchor",
		ErrorMessage: "missing anchor tag",
	}))

	require.NoError(t, store.FinishRun(ctx, journal.Run{
		ID:             "run-1",
		Status:         journal.StatusCompleted,
		FinishedAt:     started.Add(90 * time.Second),
		Directories:    2,
		TotalFiles:     2,
		ProcessedFiles: 2,
		SucceededFiles: 1,
		FailedFiles:    1,
	}))

	run, err = store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, journal.StatusCompleted, run.Status)
	assert.Equal(t, 90*time.Second, run.Duration())
	assert.Equal(t, 1, run.FailedFiles)

	outcomes, err := store.FileOutcomes(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "updated", outcomes[0].Outcome)
	assert.Equal(t, "2020-01-01", outcomes[0].ReleaseDate)
	assert.Equal(t, "missing_anchor", outcomes[1].ErrorKind)
	assert.Empty(t, outcomes[1].SnapshotPath)
}

func TestFinishUnknownRun(t *testing.T) {
	store := openStore(t)
	err := store.FinishRun(context.Background(), journal.Run{ID: "nope"})
	assert.True(t, errors.Is(err, journal.ErrRunNotFound))

	_, err = store.GetRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, journal.ErrRunNotFound))
}

func TestRecentRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, store.StartRun(ctx, journal.Run{
			ID:        id,
			Mode:      "apply",
			RootDir:   "/library",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	runs, err := store.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	all, err := store.RecentRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.OpenPath(path)
	require.NoError(t, err)
	require.NoError(t, store.StartRun(context.Background(), journal.Run{ID: "x", Mode: "restore", RootDir: "/r"}))
	require.NoError(t, store.Close())

	store, err = journal.OpenPath(path)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.RecentRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "restore", runs[0].Mode)
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	store, err := journal.OpenPath(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = journal.OpenPath(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrSchemaMismatch)
}
