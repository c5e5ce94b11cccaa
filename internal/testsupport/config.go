package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"nfodate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The library root is <base>/library, logs go to <base>/logs, and the journal
// lives at <base>/state/journal.db.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Library.RootDir = filepath.Join(base, "library")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Journal.Path = filepath.Join(base, "state", "journal.db")

	for _, dir := range []string{cfgVal.Library.RootDir, cfgVal.Logging.Dir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithoutJournal disables the SQLite run history.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// WithDirectoryGuard enables the same-day directory guard.
func WithDirectoryGuard() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backup.DirectoryGuard = true
	}
}

// WithoutRatingRemap disables mpaa remapping.
func WithoutRatingRemap() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Library.RemapRatings = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Library.RootDir)
}
