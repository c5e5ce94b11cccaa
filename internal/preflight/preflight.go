package preflight

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"nfodate/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	root, err := cfg.RootDir()
	if err != nil {
		results = append(results, Result{Name: "Library root", Detail: err.Error()})
	} else {
		results = append(results, CheckDirectoryAccess("Library root", root))
	}

	if dir := strings.TrimSpace(cfg.Logging.Dir); dir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", dir))
	}

	if cfg.Journal.Enabled {
		results = append(results, CheckDirectoryAccess("Journal directory", filepath.Dir(cfg.Journal.Path)))
	}

	if path := strings.TrimSpace(cfg.Metrics.TextfilePath); path != "" {
		results = append(results, CheckWritableTarget("Metrics textfile", path))
	}

	if cfg.Emby.Enabled {
		results = append(results, CheckEmby(ctx, cfg.Emby.URL, cfg.Emby.APIKey))
	}

	return results
}

// Failed returns the failing results.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Error folds failing results into a single error, or nil when all passed.
func Error(results []Result) error {
	failed := Failed(results)
	if len(failed) == 0 {
		return nil
	}
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed: %s", strings.Join(parts, "; "))
}
