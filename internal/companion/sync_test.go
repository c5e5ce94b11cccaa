package companion_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nfodate/internal/companion"
	"nfodate/internal/logging"
	"nfodate/internal/services"
)

func newSynchronizer(create bool) *companion.Synchronizer {
	return companion.NewSynchronizer(companion.Options{
		FileName:  "movie.xml",
		FixedTime: "13:52:00",
		Create:    create,
	}, logging.NewNop())
}

func addedText(t *testing.T, path string) string {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(path))
	el := doc.FindElement("//Added")
	require.NotNil(t, el, "Added element missing")
	return el.Text()
}

func TestFormatAdded(t *testing.T) {
	got, err := companion.FormatAdded("2023-05-10", "13:52:00")
	require.NoError(t, err)
	assert.Equal(t, "10/05/2023 01:52:00 PM", got)

	_, err = companion.FormatAdded("2023-13-40", "13:52:00")
	assert.Error(t, err)
}

func TestSyncCreatesMissingFile(t *testing.T) {
	dir := t.TempDir()
	res, err := newSynchronizer(true).Sync(dir, "2023-05-10")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Changed)

	path := filepath.Join(dir, "movie.xml")
	assert.Equal(t, "10/05/2023 01:52:00 PM", addedText(t, path))

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(path))
	assert.Equal(t, "root", doc.Root().Tag)
}

func TestSyncSkipsMissingFileWhenCreationDisabled(t *testing.T) {
	dir := t.TempDir()
	res, err := newSynchronizer(false).Sync(dir, "2023-05-10")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	_, statErr := os.Stat(filepath.Join(dir, "movie.xml"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSyncUpdatesFirstAddedAnywhere(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.xml")
	content := `<?xml version="1.0" encoding="utf-8"?>
<Item>
  <Title>X</Title>
  <Nested>
    <Added>01/01/2000 12:00:00 AM</Added>
  </Nested>
  <Added>02/02/2002 12:00:00 AM</Added>
  <Custom attr="kept">value</Custom>
</Item>
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	res, err := newSynchronizer(true).Sync(dir, "2010-07-16")
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.Created)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "<Added>16/07/2010 01:52:00 PM</Added>\n  </Nested>")
	assert.Contains(t, text, "<Added>02/02/2002 12:00:00 AM</Added>")
	assert.Contains(t, text, `<Custom attr="kept">value</Custom>`)
	assert.True(t, strings.HasPrefix(text, `<?xml version="1.0" encoding="utf-8"?>`))
}

func TestSyncAppendsAddedUnderRoot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.xml")
	require.NoError(t, os.WriteFile(path, []byte("<Item><Title>X</Title></Item>"), 0o644))

	_, err := newSynchronizer(true).Sync(dir, "1999-03-31")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<Item><Title>X</Title><Added>31/03/1999 01:52:00 PM</Added></Item>", string(data))
}

func TestSyncIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	sync := newSynchronizer(true)
	_, err := sync.Sync(dir, "2023-05-10")
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "movie.xml"))
	require.NoError(t, err)

	res, err := sync.Sync(dir, "2023-05-10")
	require.NoError(t, err)
	assert.False(t, res.Changed)
	second, err := os.ReadFile(filepath.Join(dir, "movie.xml"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSyncParseFailureLeavesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "movie.xml")
	broken := []byte("<Item><Added a=1>x</Added></Item>")
	require.NoError(t, os.WriteFile(path, broken, 0o644))

	_, err := newSynchronizer(true).Sync(dir, "2023-05-10")
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrParseFailure))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, broken, data)
}

func TestSyncWithoutReleaseDateSkips(t *testing.T) {
	dir := t.TempDir()
	res, err := newSynchronizer(true).Sync(dir, "")
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	_, statErr := os.Stat(filepath.Join(dir, "movie.xml"))
	assert.True(t, os.IsNotExist(statErr))
}
