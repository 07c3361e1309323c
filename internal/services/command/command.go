// Package command runs external processes and reports a structured result.
// Prefer this over ad-hoc exec.Command usage so call sites keep captured
// output and exit codes without re-parsing error strings.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Result captures the outcome of one process invocation.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Output returns stderr when present, else stdout. Useful for error messages.
func (r Result) Output() string {
	if trimmed := strings.TrimSpace(r.Stderr); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(r.Stdout)
}

// Runner executes a command and returns its structured result. A non-zero
// exit is reported through Result.ExitCode, not the error; the error is
// reserved for failures to run the process at all.
type Runner func(ctx context.Context, name string, args ...string) (Result, error)

// Run is the default Runner backed by exec.CommandContext.
func Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, err
	}
	return result, nil
}
