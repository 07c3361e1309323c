package deps

import (
	"testing"

	"montage/internal/config"
)

func TestRequirementsFollowConfiguration(t *testing.T) {
	cfg := config.Default()
	reqs := Requirements(&cfg)
	if len(reqs) != 1 || reqs[0].Name != "ffprobe" {
		t.Fatalf("requirements without render command = %+v", reqs)
	}

	cfg.Render.CommandTemplate = "npm run render -- --project {video_id}"
	reqs = Requirements(&cfg)
	if len(reqs) != 2 || reqs[1].Name != "docker" {
		t.Fatalf("requirements with render command = %+v", reqs)
	}
	if reqs[1].Optional {
		t.Fatal("docker should be required when rendering is configured")
	}
}

func TestCheckBinariesReportsMissing(t *testing.T) {
	statuses := CheckBinaries([]Requirement{
		{Name: "missing", Command: "definitely-not-a-real-binary-42"},
		{Name: "unset", Command: "  "},
		{Name: "shell", Command: "sh"},
	})
	if statuses[0].Available || statuses[0].Detail == "" {
		t.Fatalf("missing binary status = %+v", statuses[0])
	}
	if statuses[1].Available || statuses[1].Detail != "command not configured" {
		t.Fatalf("unset command status = %+v", statuses[1])
	}
	if !statuses[2].Available {
		t.Fatalf("sh should be available: %+v", statuses[2])
	}
}
