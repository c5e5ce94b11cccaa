package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nfodate/internal/config"
	"nfodate/internal/logging"
	"nfodate/internal/services"
)

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")

	logger, closer, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without source")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no source information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")

	logger, closer, err := logging.New(logging.Options{
		Format:      "console",
		Level:       "debug",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with source")
	_ = closer.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected source information in debug logs, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, closer, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
		RunID:       "run-7",
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithMode(context.Background(), "apply")
	ctx = services.WithDirectory(ctx, "Film (2020)")
	logging.WithContext(ctx, logger).Info("directory processed")
	_ = closer.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, want := range []string{`"run_id":"run-7"`, `"mode":"apply"`, `"directory":"Film (2020)"`, `"level":"info"`} {
		if !strings.Contains(string(content), want) {
			t.Fatalf("expected %s in %s", want, content)
		}
	}
}

func TestOpenRunLogCreatesTimestampedFile(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Library.RootDir = root

	now := time.Date(2024, 10, 1, 13, 52, 0, 0, time.Local)
	var console strings.Builder
	runLog, err := logging.OpenRunLog(&cfg, "run-1", now, &console)
	if err != nil {
		t.Fatalf("OpenRunLog: %v", err)
	}
	runLog.Logger.Info("run started")
	runLog.Logger.Warn("sidecar skipped")
	if err := runLog.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := runLog.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	wantPath := filepath.Join(root, "nfodate_2024-10-01_13-52-00.log")
	if runLog.Path != wantPath {
		t.Fatalf("path = %q, want %q", runLog.Path, wantPath)
	}
	content, err := os.ReadFile(wantPath)
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	if !strings.Contains(string(content), "run started") || !strings.Contains(string(content), "sidecar skipped") {
		t.Fatalf("unexpected run log content %q", content)
	}
	if strings.Contains(console.String(), "run started") {
		t.Fatalf("info records should not reach the console: %q", console.String())
	}
	if !strings.Contains(console.String(), "WARNING sidecar skipped") {
		t.Fatalf("expected warning mirrored to console, got %q", console.String())
	}
}

func TestOpenRunLogPrunesExpiredLogs(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Library.RootDir = root
	cfg.Logging.RetentionDays = 7

	stale := filepath.Join(root, "nfodate_2020-01-01_00-00-00.log")
	unrelated := filepath.Join(root, "notes.log")
	for _, path := range []string{stale, unrelated} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		old := time.Now().AddDate(0, 0, -30)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	runLog, err := logging.OpenRunLog(&cfg, "run-2", time.Now(), nil)
	if err != nil {
		t.Fatalf("OpenRunLog: %v", err)
	}
	defer runLog.Close()

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run log to be pruned, stat err=%v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Fatalf("expected unrelated log to survive: %v", err)
	}
}

func TestWithContextRunIDAndEmptyContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "context.log")
	logger, closer, err := logging.New(logging.Options{
		Format:      "json",
		Level:       "info",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if got := logging.WithContext(context.Background(), logger); got != logger {
		t.Fatal("expected logger returned unchanged for empty context")
	}
	logging.WithContext(services.WithRunID(context.Background(), "run-9"), logger).Info("run started")
	_ = closer.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"run_id":"run-9"`) {
		t.Fatalf("expected run_id from context in %s", content)
	}
}
