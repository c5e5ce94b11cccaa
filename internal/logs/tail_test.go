package logs_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfodate/internal/logs"
)

func TestLatestPicksNewestName(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"nfodate_2024-10-01_09-00-00.log",
		"nfodate_2024-10-02_08-00-00.log",
		"nfodate_2024-09-30_23-59-59.log",
		"other.log",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644))
	}

	got, err := logs.Latest(dir, "nfodate_*.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nfodate_2024-10-02_08-00-00.log"), got)
}

func TestLatestEmptyDir(t *testing.T) {
	_, err := logs.Latest(t.TempDir(), "nfodate_*.log")
	assert.True(t, errors.Is(err, logs.ErrNoLogs))
}

func TestLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	content := "a\nb\nc\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lines, offset, err := logs.Last(path, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, lines)
	assert.Equal(t, int64(len(content)), offset)

	lines, _, err = logs.Last(path, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lines)

	lines, _, err = logs.Last(path, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lines)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFollowStreamsAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	require.NoError(t, os.WriteFile(path, []byte("start\n"), 0o644))

	_, offset, err := logs.Last(path, 1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, out, 20*time.Millisecond)
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("later\npartial")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.Eventually(t, func() bool { return out.String() == "later\n" }, 5*time.Second, 20*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not return after cancel")
	}
	assert.Equal(t, "later\n", out.String())
}
