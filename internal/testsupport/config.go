package testsupport

import (
	"path/filepath"
	"testing"

	"montage/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectsRoot = filepath.Join(base, "projects")
	cfg.Paths.OutputDir = filepath.Join(base, "out")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}
	// Load normalizes configs before use; fixtures skip Load, so apply the
	// hook-speaker inheritance here.
	if cfg.Voicevox.HookSpeaker <= 0 {
		cfg.Voicevox.HookSpeaker = cfg.Voicevox.DefaultSpeaker
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithRenderCommand enables the render stage with the given command template.
func WithRenderCommand(template string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Render.CommandTemplate = template
	}
}

// WithVoicevoxURL points the TTS engine client at the given base URL.
func WithVoicevoxURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Voicevox.BaseURL = url
	}
}
