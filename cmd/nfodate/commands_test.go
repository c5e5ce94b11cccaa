package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfodate/internal/testsupport"
)

func TestNoArgsPrintsHelp(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, nil, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "Usage:")
	requireContains(t, out, "restore")
}

func TestUnknownArgumentFails(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, []string{"bogus"}, env.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
	requireContains(t, stderr, "Usage:")

	_, stderr, err = runCLI(t, []string{"run", "now"}, env.configPath)
	require.Error(t, err)
	requireContains(t, stderr, "Usage:")
}

func TestRunThenRestore(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.cfg.Library.RootDir, "Film (2019)")
	nfoPath := filepath.Join(dir, "Film.nfo")
	original := testsupport.MovieNFO("Film", "2019-08-09", "", "15")
	testsupport.WriteFile(t, nfoPath, original)

	out, _, err := runCLI(t, []string{"run"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "Succeeded")
	requireContains(t, out, "Log file:")

	updated := testsupport.ReadFile(t, nfoPath)
	assert.Contains(t, updated, "<dateadded>2019-08-09 13:52:00</dateadded>")
	assert.Contains(t, updated, "<mpaa>PG-13</mpaa>")
	assert.Contains(t, testsupport.ReadFile(t, filepath.Join(dir, "movie.xml")), "<Added>09/08/2019 01:52:00 PM</Added>")

	today := time.Now().Format("2006-01-02")
	assert.Equal(t, []string{"Film.nfo." + today + ".bak"}, testsupport.FilesMatching(t, dir, "*.bak"))
	logs := testsupport.FilesMatching(t, env.cfg.Logging.Dir, "nfodate_*.log")
	require.Len(t, logs, 1)

	out, _, err = runCLI(t, []string{"restore", "--date", today}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "restore")
	assert.Equal(t, original, testsupport.ReadFile(t, nfoPath))
}

func TestRunForceArgument(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := filepath.Join(env.cfg.Library.RootDir, "Film")
	testsupport.WriteFile(t, filepath.Join(dir, "film.nfo"), testsupport.MovieNFO("Film", "2001-02-03", "", ""))

	_, _, err := runCLI(t, []string{"run"}, env.configPath)
	require.NoError(t, err)

	_, _, err = runCLI(t, []string{"run", "force"}, env.configPath)
	require.NoError(t, err)

	_, _, err = runCLI(t, []string{"run", "--force"}, env.configPath)
	require.NoError(t, err)
}

func TestRootFlagOverridesConfig(t *testing.T) {
	env := setupCLITestEnv(t)
	other := filepath.Join(env.baseDir, "other")
	nfoPath := filepath.Join(other, "Movie", "movie.nfo")
	testsupport.WriteFile(t, nfoPath, testsupport.MovieNFO("Movie", "", "1999-12-31", ""))

	_, _, err := runCLI(t, []string{"--root", other, "run"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, testsupport.ReadFile(t, nfoPath), "<dateadded>1999-12-31 13:52:00</dateadded>")
}

func TestRunMissingRootFailsPreflight(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, []string{"--root", filepath.Join(env.baseDir, "missing"), "run"}, env.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preflight failed")
	requireContains(t, stderr, "Library root")
}

func TestRestoreRejectsBadDate(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"restore", "--date", "10/01/2024"}, env.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestHistoryListsRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.cfg.Library.RootDir, "Film", "film.nfo"), testsupport.MovieNFO("Film", "2010-01-01", "", ""))

	out, _, err := runCLI(t, []string{"history"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "No runs recorded")

	_, _, err = runCLI(t, []string{"run"}, env.configPath)
	require.NoError(t, err)

	out, _, err = runCLI(t, []string{"history", "--limit", "5"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "apply")
	requireContains(t, out, "completed")

	id := firstRunID(t, out)
	out, _, err = runCLI(t, []string{"history", "--run", id}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "film.nfo")
	requireContains(t, out, "updated")
}

func TestHistoryDisabledJournal(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutJournal())

	_, _, err := runCLI(t, []string{"history"}, env.configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disabled")
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "Root:")
	requireContains(t, out, env.cfg.Library.RootDir)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.NoError(t, err)
	requireContains(t, out, "Wrote sample configuration")
	_, err = os.Stat(target)
	require.NoError(t, err)

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, out, "[library]")
	requireContains(t, out, env.cfg.Library.RootDir)
}

// firstRunID pulls the run ID from the first data row of the history table.
func firstRunID(t *testing.T, table string) string {
	t.Helper()
	for _, line := range strings.Split(table, "\n") {
		fields := strings.FieldsFunc(line, func(r rune) bool { return r == '│' })
		if len(fields) < 2 {
			continue
		}
		id := strings.TrimSpace(fields[0])
		if len(id) == 36 {
			return id
		}
	}
	t.Fatalf("no run id in %q", table)
	return ""
}

func TestUnknownFlagPrintsUsage(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, []string{"run", "--bogus"}, env.configPath)
	require.Error(t, err)
	requireContains(t, stderr, "Usage:")
}

func TestLogsPrintsNewestRunLog(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"logs"}, env.configPath)
	require.Error(t, err)

	testsupport.WriteFile(t, filepath.Join(env.cfg.Library.RootDir, "Film", "film.nfo"), testsupport.MovieNFO("Film", "2015-03-04", "", ""))
	_, _, err = runCLI(t, []string{"run"}, env.configPath)
	require.NoError(t, err)

	out, stderr, err := runCLI(t, []string{"logs", "-n", "0"}, env.configPath)
	require.NoError(t, err)
	requireContains(t, stderr, "nfodate_")
	requireContains(t, out, "run completed")
}
