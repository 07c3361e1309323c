// Package render invokes the containerized video renderer and locates its
// output artifact.
package render

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"montage/internal/config"
	"montage/internal/fileutil"
	"montage/internal/logging"
	"montage/internal/services"
	"montage/internal/services/command"
)

// Invoker runs the configured render command inside the renderer container.
type Invoker struct {
	cfg    *config.Config
	logger *slog.Logger
	runner command.Runner
}

// Option customizes an Invoker.
type Option func(*Invoker)

// WithRunner overrides the command runner, primarily for tests.
func WithRunner(runner command.Runner) Option {
	return func(inv *Invoker) {
		if runner != nil {
			inv.runner = runner
		}
	}
}

// New constructs a render invoker from service configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Invoker {
	if logger == nil {
		logger = logging.NewNop()
	}
	inv := &Invoker{cfg: cfg, logger: logger, runner: command.Run}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Enabled reports whether a render command is configured at all.
func (inv *Invoker) Enabled() bool {
	return strings.TrimSpace(inv.cfg.Render.CommandTemplate) != ""
}

// Render executes the render command for videoID and returns the absolute
// path of the produced video file. The video id is shell-quoted before being
// substituted into the command template.
func (inv *Invoker) Render(ctx context.Context, videoID string) (string, error) {
	safeID := shellQuote(videoID)
	renderCmd := strings.ReplaceAll(inv.cfg.Render.CommandTemplate, "{video_id}", safeID)
	exports := fmt.Sprintf("npm_config_project=%s REMOTION_PROJECT=%s", safeID, safeID)
	renderCmd = exports + " " + renderCmd
	if workdir := strings.TrimSpace(inv.cfg.Render.Workdir); workdir != "" {
		renderCmd = fmt.Sprintf("cd %s && %s", shellQuote(workdir), renderCmd)
	}

	inv.logger.Info("starting render",
		logging.String("video_id", videoID),
		logging.String("service", inv.cfg.Render.DockerService))

	result, err := inv.runner(ctx, "docker",
		"exec",
		"--user", inv.cfg.Render.DockerUser,
		inv.cfg.Render.DockerService,
		inv.cfg.Render.DockerShell,
		"-c", renderCmd)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "rendering", "exec", "failed to launch docker exec", err)
	}
	if result.ExitCode != 0 {
		return "", services.Wrap(services.ErrExternalTool, "rendering", "exec",
			fmt.Sprintf("render command exited with code %d: %s", result.ExitCode, strings.TrimSpace(result.Output())), nil)
	}

	outputPath, err := fileutil.SafeJoin(inv.cfg.Paths.OutputDir, inv.cfg.RenderOutputRelPath(videoID))
	if err != nil {
		return "", services.Wrap(services.ErrUnsafePath, "rendering", "locate-output", "output template escapes the output directory", err)
	}
	if !fileutil.FileExists(outputPath) {
		return "", services.Wrap(services.ErrExternalTool, "rendering", "locate-output",
			fmt.Sprintf("render finished but output not found: %s", outputPath), nil)
	}

	inv.logger.Info("render complete",
		logging.String("video_id", videoID),
		logging.String("output", outputPath))
	return outputPath, nil
}

// shellQuote wraps s in POSIX single quotes, escaping embedded quotes so the
// value survives the container shell's -c parsing as a single word.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
