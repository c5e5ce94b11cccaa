package backup_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfodate/internal/backup"
	"nfodate/internal/logging"
	"nfodate/internal/services"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newManager(clock *fakeClock) *backup.Manager {
	return backup.NewManager(".bak", logging.NewNop(), backup.WithClock(clock.Now))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSnapshotCreatesDatedCopy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.nfo")
	writeFile(t, path, "original")

	clock := &fakeClock{now: time.Date(2024, 10, 1, 9, 0, 0, 0, time.Local)}
	res := newManager(clock).Snapshot(path, backup.KindSidecar, true)

	require.NoError(t, res.Err)
	assert.Equal(t, backup.OutcomeCreated, res.Outcome)
	assert.Equal(t, filepath.Join(dir, "film.nfo.2024-10-01.bak"), res.Snapshot)
	assert.Equal(t, "original", readFile(t, res.Snapshot))
}

func TestSnapshotKeepsExistingSameDaySnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.nfo")
	writeFile(t, path, "first")

	clock := &fakeClock{now: time.Date(2024, 10, 1, 9, 0, 0, 0, time.Local)}
	mgr := newManager(clock)
	first := mgr.Snapshot(path, backup.KindSidecar, true)
	require.Equal(t, backup.OutcomeCreated, first.Outcome)

	writeFile(t, path, "second")
	again := mgr.Snapshot(path, backup.KindSidecar, true)
	assert.Equal(t, backup.OutcomeSkipped, again.Outcome)

	writeFile(t, path, "third")
	third := mgr.Snapshot(path, backup.KindSidecar, true)
	assert.Equal(t, backup.OutcomeSkipped, third.Outcome)
	assert.Equal(t, "first", readFile(t, first.Snapshot))
}

func TestSnapshotForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.nfo")
	writeFile(t, path, "first")

	clock := &fakeClock{now: time.Date(2024, 10, 1, 9, 0, 0, 0, time.Local)}
	mgr := newManager(clock)
	mgr.Snapshot(path, backup.KindSidecar, true)

	writeFile(t, path, "second")
	res := mgr.Snapshot(path, backup.KindSidecar, false)
	assert.Equal(t, backup.OutcomeCreated, res.Outcome)
	assert.Equal(t, "second", readFile(t, res.Snapshot))
}

func TestSnapshotMissingSource(t *testing.T) {
	dir := t.TempDir()
	clock := &fakeClock{now: time.Now()}
	res := newManager(clock).Snapshot(filepath.Join(dir, "movie.xml"), backup.KindCompanion, true)

	assert.Equal(t, backup.OutcomeMissing, res.Outcome)
	assert.NoError(t, res.Err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRestoreUsesNewestSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.nfo")
	writeFile(t, path, "modified")
	writeFile(t, path+".2024-09-30.bak", "older")
	writeFile(t, path+".2024-10-01.bak", "newest")
	writeFile(t, path+".notadate.bak", "junk")

	mgr := newManager(&fakeClock{now: time.Date(2024, 10, 2, 0, 0, 0, 0, time.Local)})
	res := mgr.Restore(path, backup.KindSidecar, "")

	require.NoError(t, res.Err)
	assert.Equal(t, backup.OutcomeRestored, res.Outcome)
	assert.Equal(t, "newest", readFile(t, path))
}

func TestRestoreSpecificDate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.nfo")
	writeFile(t, path, "modified")
	writeFile(t, path+".2024-09-30.bak", "older")
	writeFile(t, path+".2024-10-01.bak", "newest")

	mgr := newManager(&fakeClock{now: time.Now()})
	res := mgr.Restore(path, backup.KindSidecar, "2024-09-30")

	assert.Equal(t, backup.OutcomeRestored, res.Outcome)
	assert.Equal(t, "older", readFile(t, path))
}

func TestRestoreMissingSnapshotLeavesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.nfo")
	writeFile(t, path, "current")

	mgr := newManager(&fakeClock{now: time.Now()})
	for _, day := range []string{"", "2024-10-01"} {
		res := mgr.Restore(path, backup.KindSidecar, day)
		assert.Equal(t, backup.OutcomeMissing, res.Outcome, "day %q", day)
		assert.NoError(t, res.Err)
	}
	assert.Equal(t, "current", readFile(t, path))
}

func TestRestoreRejectsMalformedDate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "film.nfo")
	writeFile(t, path, "current")

	res := newManager(&fakeClock{now: time.Now()}).Restore(path, backup.KindSidecar, "01/10/2024")
	assert.Equal(t, backup.OutcomeFailed, res.Outcome)
	assert.True(t, errors.Is(res.Err, services.ErrParseFailure))
}

func TestSnapshotTakenOn(t *testing.T) {
	dir := t.TempDir()
	mgr := newManager(&fakeClock{now: time.Now()})
	listing := func() []os.DirEntry {
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		return entries
	}

	_, found := mgr.SnapshotTakenOn(listing(), "2024-10-01")
	assert.False(t, found)

	writeFile(t, filepath.Join(dir, "movie.xml.2024-09-01.bak"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "extras.2024-10-01.bak"), 0o755))
	_, found = mgr.SnapshotTakenOn(listing(), "2024-10-01")
	assert.False(t, found)

	writeFile(t, filepath.Join(dir, "movie.xml.2024-10-01.bak"), "x")
	name, found := mgr.SnapshotTakenOn(listing(), "2024-10-01")
	assert.True(t, found)
	assert.Equal(t, "movie.xml.2024-10-01.bak", name)
}

func TestIsSnapshot(t *testing.T) {
	mgr := newManager(&fakeClock{now: time.Now()})
	assert.True(t, mgr.IsSnapshot("film.nfo.2024-10-01.bak"))
	assert.False(t, mgr.IsSnapshot("film.nfo"))
	assert.False(t, mgr.IsSnapshot("film.bak"))
	assert.False(t, mgr.IsSnapshot("film.nfo.old.bak"))
}

func TestNewManagerNormalizesSuffix(t *testing.T) {
	mgr := backup.NewManager("orig", nil)
	assert.Equal(t, "a.nfo.2024-10-01.orig", mgr.SnapshotPath("a.nfo", "2024-10-01"))
}
