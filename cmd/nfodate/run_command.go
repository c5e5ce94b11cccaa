package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"nfodate/internal/config"
	"nfodate/internal/journal"
	"nfodate/internal/logging"
	"nfodate/internal/metrics"
	"nfodate/internal/notifications"
	"nfodate/internal/preflight"
	"nfodate/internal/services/emby"
	"nfodate/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "run [force]",
		Short: "Rewrite dateadded in every sidecar under the library root",
		Long: `Snapshot and rewrite every sidecar under the library root.

Each sidecar gets <dateadded> set from its release date (falling back to
<premiered>) at the configured fixed time, and configured ratings are
remapped. The companion movie.xml receives the same date in its <Added>
element. One snapshot per file per day is kept; 'force' overwrites today's
snapshots and ignores the directory guard.`,
		Args: runArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				force = true
			}
			return executeRun(cmd, ctx, workflow.Options{
				Mode:  workflow.ModeApply,
				Force: force,
			})
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite today's snapshots and ignore the directory guard")
	return cmd
}

// runArgs accepts the bare word "force" as an alias for --force.
func runArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return nil
	}
	if len(args) == 1 && strings.EqualFold(args[0], "force") {
		return nil
	}
	return rejectArgs(cmd, args)
}

// executeRun performs one apply or restore pass with the per-run log, journal,
// metrics export and Emby refresh wired around the workflow runner.
func executeRun(cmd *cobra.Command, ctx *commandContext, opts workflow.Options) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	root, err := cfg.RootDir()
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	stderr := cmd.ErrOrStderr()
	colorize := shouldColorize(stdout)

	results := preflight.RunAll(cmd.Context(), cfg)
	if err := preflight.Error(results); err != nil {
		for _, line := range renderSectionHeader("Preflight", colorize) {
			fmt.Fprintln(stderr, line)
		}
		for _, r := range results {
			kind := statusOK
			if !r.Passed {
				kind = statusError
			}
			fmt.Fprintln(stderr, renderStatusLine(r.Name, kind, r.Detail, colorize))
		}
		return err
	}

	runID := uuid.NewString()
	runLog, err := logging.OpenRunLog(cfg, runID, time.Now(), stderr)
	if err != nil {
		return err
	}
	defer func() { _ = runLog.Close() }()
	logger := logging.NewComponentLogger(runLog.Logger, "cli")

	runnerOpts := []workflow.Option{
		workflow.WithRunID(runID),
		workflow.WithProgress(stdout),
	}
	store, err := journal.Open(cfg)
	switch {
	case err == nil:
		defer func() { _ = store.Close() }()
		runnerOpts = append(runnerOpts, workflow.WithRecorder(store))
	case errors.Is(err, journal.ErrDisabled):
	default:
		logging.WarnWithContext(logger, "journal unavailable; continuing without run history", "journal_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in 'nfodate history'"),
			logging.String(logging.FieldErrorHint, "check journal.path or set journal.enabled = false"),
		)
	}

	notifier := notifications.NewService(cfg)
	runner := workflow.NewRunner(cfg, runLog.Logger, runnerOpts...)
	summary, err := runner.Run(cmd.Context(), root, opts)
	if err != nil {
		logging.ErrorWithContext(logger, "run aborted", "run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "resolve the error and rerun; no files were modified"),
		)
		if notifyErr := notifier.NotifyRunFailed(context.WithoutCancel(cmd.Context()), string(opts.Mode), err); notifyErr != nil {
			logger.Warn("failure notification not sent", logging.Error(notifyErr))
		}
		return err
	}

	exportMetrics(logger, cfg, summary)
	refreshEmby(cmd, logger, cfg, summary)
	notifyCompleted(cmd, logger, notifier, summary)

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, renderSummary(summary))
	fmt.Fprintln(stdout, renderResultLine(summary, colorize))
	fmt.Fprintf(stdout, "Log file: %s\n", runLog.Path)
	return nil
}

func exportMetrics(logger *slog.Logger, cfg *config.Config, summary workflow.Summary) {
	path := strings.TrimSpace(cfg.Metrics.TextfilePath)
	if path == "" {
		return
	}
	err := metrics.WriteTextfile(path, metrics.RunStats{
		Mode:               string(summary.Mode),
		Directories:        summary.Directories,
		SkippedDirectories: summary.SkippedDirectories,
		TotalFiles:         summary.TotalFiles,
		ProcessedFiles:     summary.ProcessedFiles,
		SucceededFiles:     summary.SucceededFiles,
		FailedFiles:        summary.FailedFiles,
		ErrorKinds:         summary.ErrorKinds,
		Duration:           summary.Duration(),
		FinishedAt:         summary.FinishedAt,
	})
	if err != nil {
		logging.WarnWithContext(logger, "metrics export failed", "metrics_failed",
			logging.String(logging.FieldPath, path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "textfile collector keeps the previous run's values"),
		)
		return
	}
	logger.Debug("metrics exported", logging.String(logging.FieldPath, path))
}

// refreshEmby asks the media server to rescan after an apply run changed files.
func refreshEmby(cmd *cobra.Command, logger *slog.Logger, cfg *config.Config, summary workflow.Summary) {
	if summary.Mode != workflow.ModeApply || summary.ChangedFiles == 0 {
		return
	}
	svc := emby.NewConfiguredService(cfg)
	if !svc.Enabled() {
		return
	}
	if err := svc.Refresh(cmd.Context()); err != nil {
		logging.WarnWithContext(logger, "emby library refresh failed", "emby_refresh_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "new dateadded values appear after the next scheduled library scan"),
			logging.String(logging.FieldErrorHint, "check emby.url and emby.api_key"),
		)
		return
	}
	logger.Info("emby library refresh requested",
		logging.Int("changed", summary.ChangedFiles),
		logging.String(logging.FieldEventType, "emby_refresh"),
	)
}

func notifyCompleted(cmd *cobra.Command, logger *slog.Logger, notifier notifications.Service, summary workflow.Summary) {
	err := notifier.NotifyRunCompleted(context.WithoutCancel(cmd.Context()), notifications.RunReport{
		Mode:      string(summary.Mode),
		Root:      summary.Root,
		Processed: summary.ProcessedFiles,
		Failed:    summary.FailedFiles,
		Changed:   summary.ChangedFiles,
		Cancelled: summary.Cancelled,
		Duration:  summary.Duration(),
	})
	if err != nil {
		logging.WarnWithContext(logger, "run notification not sent", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "no ntfy report for this run"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}

func renderSummary(s workflow.Summary) string {
	rows := [][]string{
		{"Mode", string(s.Mode)},
		{"Directories", fmt.Sprintf("%d", s.Directories)},
		{"Skipped directories", fmt.Sprintf("%d", s.SkippedDirectories)},
		{"Files found", fmt.Sprintf("%d", s.TotalFiles)},
		{"Processed", fmt.Sprintf("%d", s.ProcessedFiles)},
		{"Succeeded", fmt.Sprintf("%d", s.SucceededFiles)},
		{"Failed", fmt.Sprintf("%d", s.FailedFiles)},
	}
	if s.Mode == workflow.ModeApply {
		rows = append(rows,
			[]string{"Changed", fmt.Sprintf("%d", s.ChangedFiles)},
			[]string{"Companions updated", fmt.Sprintf("%d", s.CompanionsUpdated)},
		)
		if s.CompanionFailures > 0 {
			rows = append(rows, []string{"Companion failures", fmt.Sprintf("%d", s.CompanionFailures)})
		}
	}
	for _, kind := range sortedKinds(s.ErrorKinds) {
		rows = append(rows, []string{"  " + kind, fmt.Sprintf("%d", s.ErrorKinds[kind])})
	}
	rows = append(rows, []string{"Duration", s.Duration().Round(time.Millisecond).String()})
	return renderTable([]string{"Run " + shortID(s.RunID), "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

func renderResultLine(s workflow.Summary, colorize bool) string {
	switch {
	case s.Cancelled:
		return renderStatusLine("Result", statusWarn, "cancelled; rerun to finish the remaining directories", colorize)
	case s.FailedFiles > 0:
		return renderStatusLine("Result", statusWarn, fmt.Sprintf("%d of %d files failed; see the log file", s.FailedFiles, s.ProcessedFiles), colorize)
	default:
		return renderStatusLine("Result", statusOK, fmt.Sprintf("%d files processed", s.ProcessedFiles), colorize)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func sortedKinds(kinds map[string]int) []string {
	return slices.Sorted(maps.Keys(kinds))
}
