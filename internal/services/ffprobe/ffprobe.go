// Package ffprobe measures media durations via the ffprobe binary.
package ffprobe

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"montage/internal/services"
	"montage/internal/services/command"
)

// Prober measures the duration of audio files on disk.
type Prober struct {
	binary string
	runner command.Runner
}

// Option customizes a Prober.
type Option func(*Prober)

// WithRunner overrides the command runner, primarily for tests.
func WithRunner(runner command.Runner) Option {
	return func(p *Prober) {
		if runner != nil {
			p.runner = runner
		}
	}
}

// New constructs a Prober that invokes the given ffprobe binary.
func New(binary string, opts ...Option) *Prober {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	prober := &Prober{binary: binary, runner: command.Run}
	for _, opt := range opts {
		opt(prober)
	}
	return prober
}

// Duration returns the duration of the media file at path in seconds,
// rounded to milliseconds. A missing file is reported with an error that
// matches os.ErrNotExist so callers can fall back to estimation.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("ffprobe: stat %s: %w", path, err)
	}

	result, err := p.runner(ctx, p.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "tts", "probe", "ffprobe failed to launch", err)
	}
	if result.ExitCode != 0 {
		return 0, services.Wrap(services.ErrExternalTool, "tts", "probe",
			fmt.Sprintf("ffprobe exited with code %d: %s", result.ExitCode, strings.TrimSpace(result.Output())), nil)
	}

	raw := strings.TrimSpace(result.Stdout)
	seconds, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil || seconds < 0 {
		return 0, services.Wrap(services.ErrExternalTool, "tts", "probe",
			fmt.Sprintf("ffprobe returned unparseable duration %q for %s", raw, path), parseErr)
	}
	return math.Round(seconds*1000) / 1000, nil
}
