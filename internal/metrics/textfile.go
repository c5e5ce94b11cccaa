package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nfodate"

// RunStats is the run summary exported as gauges.
type RunStats struct {
	Mode               string
	Directories        int
	SkippedDirectories int
	TotalFiles         int
	ProcessedFiles     int
	SucceededFiles     int
	FailedFiles        int
	// ErrorKinds counts failed files by services.Kind label.
	ErrorKinds map[string]int
	Duration   time.Duration
	FinishedAt time.Time
}

// Registry builds a registry populated from stats.
func Registry(stats RunStats) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	mode := normalizeModeLabel(stats.Mode)

	files := factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_files",
		Help:      "Sidecar files seen by the last run, by state",
	}, []string{"mode", "state"})
	files.WithLabelValues(mode, "total").Set(float64(stats.TotalFiles))
	files.WithLabelValues(mode, "processed").Set(float64(stats.ProcessedFiles))
	files.WithLabelValues(mode, "succeeded").Set(float64(stats.SucceededFiles))
	files.WithLabelValues(mode, "failed").Set(float64(stats.FailedFiles))

	dirs := factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_directories",
		Help:      "Library subdirectories visited by the last run, by state",
	}, []string{"mode", "state"})
	dirs.WithLabelValues(mode, "visited").Set(float64(stats.Directories))
	dirs.WithLabelValues(mode, "skipped").Set(float64(stats.SkippedDirectories))

	failures := factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_failures",
		Help:      "Failed sidecar files in the last run, by error kind",
	}, []string{"mode", "kind"})
	kinds := make([]string, 0, len(stats.ErrorKinds))
	for kind := range stats.ErrorKinds {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		failures.WithLabelValues(mode, normalizeKindLabel(kind)).Add(float64(stats.ErrorKinds[kind]))
	}

	factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall clock duration of the last run",
		ConstLabels: prometheus.Labels{
			"mode": mode,
		},
	}).Set(stats.Duration.Seconds())

	finished := stats.FinishedAt
	if finished.IsZero() {
		finished = time.Now()
	}
	factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
		ConstLabels: prometheus.Labels{
			"mode": mode,
		},
	}).Set(float64(finished.Unix()))

	return reg
}

// WriteTextfile writes stats to path. An empty path disables the export.
func WriteTextfile(path string, stats RunStats) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, Registry(stats)); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func normalizeModeLabel(mode string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "apply", "restore":
		return strings.ToLower(strings.TrimSpace(mode))
	default:
		return "unknown"
	}
}

func normalizeKindLabel(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "missing_anchor", "missing_release_date", "invalid_release_date", "backup_conflict", "parse_failure", "io_failure":
		return strings.ToLower(strings.TrimSpace(kind))
	default:
		return "unknown"
	}
}
