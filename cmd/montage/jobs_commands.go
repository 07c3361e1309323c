package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"montage/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect video jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs known to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			summaries, err := ctx.client().Jobs(cmd.Context(), statusFilter)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, summaries)
			}
			if len(summaries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs.")
				return nil
			}

			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(summaries))
			for _, summary := range summaries {
				rows = append(rows, []string{
					summary.JobID,
					summary.VideoID,
					colorizeStatus(summary.Status, colorize),
					progressCell(summary),
					summary.UpdatedAt,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Job", "Video", "Status", "Progress", "Updated"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show jobs with this status (queued, running, done, failed)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the job list as JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := ctx.client().Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, summary)
			}
			printJobSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the job as JSON")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Running: %s\n", yesNo(status.Running))
			keys := make([]string, 0, len(status.JobStats))
			for key := range status.JobStats {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(out, "%s: %d\n", key, status.JobStats[key])
			}
			for _, dep := range status.Dependencies {
				state := "ok"
				if !dep.Available {
					state = dep.Detail
					if dep.Optional {
						state += " (optional)"
					}
				}
				fmt.Fprintf(out, "%s: %s\n", dep.Name, state)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print daemon status as JSON")
	return cmd
}

// printJobSummary renders one job as a two-column detail table.
func printJobSummary(cmd *cobra.Command, summary api.JobSummary) {
	rows := [][]string{
		{"Job", summary.JobID},
		{"Video", summary.VideoID},
		{"Status", colorizeStatus(summary.Status, shouldColorize(cmd.OutOrStdout()))},
		{"Created", summary.CreatedAt},
		{"Updated", summary.UpdatedAt},
		{"Progress", progressCell(summary)},
	}
	if summary.Result != nil {
		rows = append(rows, []string{"Parameter", summary.Result.ParameterPath})
		if summary.Result.HookSec != nil {
			rows = append(rows, []string{"Hook", fmt.Sprintf("%.3fs", *summary.Result.HookSec)})
		}
		if summary.Result.TotalSec != nil {
			rows = append(rows, []string{"Total", fmt.Sprintf("%.3fs", *summary.Result.TotalSec)})
		}
		if summary.Result.VideoPath != "" {
			rows = append(rows, []string{"Video file", summary.Result.VideoPath})
		}
	}
	if summary.Error != nil {
		rows = append(rows, []string{"Error", fmt.Sprintf("%s: %s", summary.Error.Code, summary.Error.Message)})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Field", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}

// progressCell compacts the progress mapping into "stage 2/5" form.
func progressCell(summary api.JobSummary) string {
	if len(summary.Progress) == 0 {
		return ""
	}
	stage, _ := summary.Progress["stage"].(string)
	parts := []string{stage}
	done, doneOK := summary.Progress["ttsDone"].(float64)
	total, totalOK := summary.Progress["ttsTotal"].(float64)
	if doneOK && totalOK && total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d", int(done), int(total)))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
