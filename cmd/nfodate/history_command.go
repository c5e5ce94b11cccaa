package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nfodate/internal/journal"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs from the journal",
		Args:  rejectArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if errors.Is(err, journal.ErrDisabled) {
				return errors.New("run history is disabled; set journal.enabled = true in the config file")
			}
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			if id := strings.TrimSpace(runID); id != "" {
				return showRun(cmd, store, id)
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show per-file outcomes for a run ID")
	return cmd
}

func showRun(cmd *cobra.Command, store *journal.Store, id string) error {
	run, err := store.GetRun(cmd.Context(), id)
	if err != nil {
		return err
	}
	outcomes, err := store.FileOutcomes(cmd.Context(), run.ID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Mode", statusInfo, run.Mode, colorize))
	fmt.Fprintln(out, renderStatusLine("Root", statusInfo, run.RootDir, colorize))
	fmt.Fprintln(out, renderStatusLine("Forced", statusInfo, yesNo(run.Force), colorize))
	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(run), run.Status, colorize))
	if len(outcomes) == 0 {
		fmt.Fprintln(out, "No file outcomes recorded")
		return nil
	}
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := o.ErrorKind
		if detail == "" {
			detail = o.ReleaseDate
		}
		rows = append(rows, []string{o.Directory, o.Path, o.Outcome, detail})
	}
	fmt.Fprintln(out, renderTable([]string{"Directory", "File", "Outcome", "Detail"}, rows, nil))
	return nil
}

func renderRuns(runs []journal.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode,
			r.Status,
			fmt.Sprintf("%d", r.ProcessedFiles),
			fmt.Sprintf("%d", r.FailedFiles),
			formatDuration(r.Duration()),
			r.RootDir,
		})
	}
	return renderTable(
		[]string{"ID", "Started", "Mode", "Status", "Files", "Failed", "Duration", "Root"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func runStatusKind(r journal.Run) statusKind {
	switch r.Status {
	case journal.StatusCompleted:
		if r.FailedFiles > 0 {
			return statusWarn
		}
		return statusOK
	case journal.StatusCancelled:
		return statusWarn
	case journal.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
