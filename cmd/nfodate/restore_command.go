package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nfodate/internal/backup"
	"nfodate/internal/workflow"
)

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore sidecars and companion files from snapshots",
		Long: `Copy each sidecar and companion file back from its snapshot.

Without --date the newest snapshot of each file is used. Files without a
matching snapshot are left untouched and reported as missing. Snapshots are
kept after a restore.`,
		Args: rejectArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			date = strings.TrimSpace(date)
			if date != "" {
				if _, err := time.Parse(backup.DayLayout, date); err != nil {
					return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
				}
			}
			return executeRun(cmd, ctx, workflow.Options{
				Mode:        workflow.ModeRestore,
				RestoreDate: date,
			})
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Snapshot day to restore (YYYY-MM-DD); defaults to the newest")
	return cmd
}
