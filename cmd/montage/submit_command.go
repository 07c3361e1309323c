package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/api"
	"montage/internal/jobs"
	"montage/internal/params"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		videoID   string
		noRender  bool
		noAudio   bool
		overwrite bool
		dryRun    bool
		watch     bool
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "submit <request.json>",
		Short: "Submit a video job to the daemon",
		Long: `Submit reads a JSON file and posts it as a video job. The file may be a
full job request ({"videoId": ..., "parameter": ..., "options": ...}) or a
bare parameter document combined with --video-id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := loadRequest(args[0], videoID)
			if err != nil {
				return err
			}
			if noRender {
				req.Options.Render = false
			}
			if noAudio {
				req.Options.GenerateAudio = false
			}
			if overwrite {
				req.Options.Overwrite = true
			}
			if dryRun {
				req.Options.DryRun = true
			}

			client := ctx.client()
			summary, err := client.Submit(cmd.Context(), req)
			if err != nil {
				return err
			}

			if watch {
				summary, err = watchJob(cmd, ctx, summary.JobID)
				if err != nil {
					return err
				}
			}
			if jsonOut {
				return writeJSON(cmd, summary)
			}
			printJobSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&videoID, "video-id", "", "Video id when the file is a bare parameter document")
	cmd.Flags().BoolVar(&noRender, "no-render", false, "Skip the render stage")
	cmd.Flags().BoolVar(&noAudio, "no-audio", false, "Use pre-staged voice files instead of generating audio")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing artifacts for this video id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build the parameter file without rendering")
	cmd.Flags().BoolVar(&watch, "watch", false, "Poll the job until it reaches a terminal status")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the job summary as JSON")
	return cmd
}

// loadRequest reads path as a full job request, falling back to treating the
// file as a bare parameter document when --video-id is provided.
func loadRequest(path, videoID string) (jobs.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jobs.Request{}, fmt.Errorf("read request file: %w", err)
	}

	if strings.TrimSpace(videoID) != "" {
		var doc params.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return jobs.Request{}, fmt.Errorf("parse parameter document: %w", err)
		}
		return jobs.Request{
			VideoID:   strings.TrimSpace(videoID),
			Parameter: &doc,
			Options:   jobs.DefaultOptions(),
		}, nil
	}

	var req jobs.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return jobs.Request{}, fmt.Errorf("parse job request: %w", err)
	}
	if req.VideoID == "" {
		return jobs.Request{}, fmt.Errorf("request file has no videoId; pass --video-id for bare parameter documents")
	}
	return req, nil
}

func watchJob(cmd *cobra.Command, ctx *commandContext, jobID string) (summary api.JobSummary, err error) {
	client := ctx.client()
	lastStage := ""
	for {
		summary, err = client.Job(cmd.Context(), jobID)
		if err != nil {
			return summary, err
		}
		if stage, ok := summary.Progress["stage"].(string); ok && stage != lastStage {
			fmt.Fprintf(cmd.ErrOrStderr(), "stage: %s\n", stage)
			lastStage = stage
		}
		if status, ok := jobs.ParseStatus(summary.Status); ok && status.IsTerminal() {
			return summary, nil
		}
		select {
		case <-cmd.Context().Done():
			return summary, cmd.Context().Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
