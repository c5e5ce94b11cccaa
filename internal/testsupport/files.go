package testsupport

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// MovieNFO renders a minimal sidecar. Empty arguments omit their tag.
func MovieNFO(title, releaseDate, premiered, mpaa string) string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\" standalone=\"yes\"?>\n<movie>\n")
	if title != "" {
		b.WriteString("  <title>" + title + "</title>\n")
	}
	if mpaa != "" {
		b.WriteString("  <mpaa>" + mpaa + "</mpaa>\n")
	}
	if releaseDate != "" {
		b.WriteString("  <releasedate>" + releaseDate + "</releasedate>\n")
	}
	if premiered != "" {
		b.WriteString("  <premiered>" + premiered + "</premiered>\n")
	}
	b.WriteString("</movie>\n")
	return b.String()
}

// Snapshot captures every regular file under root keyed by its relative path.
func Snapshot(t testing.TB, root string) map[string]string {
	t.Helper()

	files := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return files
}

// FilesMatching lists base names in dir that match the glob pattern, sorted.
func FilesMatching(t testing.TB, dir, pattern string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		t.Fatalf("glob %s: %v", pattern, err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names
}
