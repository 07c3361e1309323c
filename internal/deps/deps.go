// Package deps reports availability of the external tools the pipeline
// shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"montage/internal/config"
)

// Requirement defines an external dependency montage relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements derives the tool list from configuration: ffprobe is always
// wanted for duration probing (jobs fall back to text-length estimation
// without it), docker only when a render command is configured.
func Requirements(cfg *config.Config) []Requirement {
	reqs := []Requirement{
		{
			Name:        "ffprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "measures generated voice file durations",
			Optional:    true,
		},
	}
	if strings.TrimSpace(cfg.Render.CommandTemplate) != "" {
		reqs = append(reqs, Requirement{
			Name:        "docker",
			Command:     "docker",
			Description: "executes the render command in the renderer container",
		})
	}
	return reqs
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
