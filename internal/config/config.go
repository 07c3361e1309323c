package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	// ProjectsRoot is the directory that holds one project directory per video id.
	ProjectsRoot string `toml:"projects_root"`
	// OutputDir receives rendered video artifacts.
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	APIBind   string `toml:"api_bind"`
	// ParameterTemplate locates the persisted parameter document relative to
	// ProjectsRoot. The {video_id} placeholder is substituted per job.
	ParameterTemplate string `toml:"parameter_template"`
}

// Voicevox contains configuration for the text-to-speech engine.
type Voicevox struct {
	BaseURL        string         `toml:"base_url"`
	TimeoutSeconds int            `toml:"timeout_seconds"`
	DefaultSpeaker int            `toml:"default_speaker"`
	HookSpeaker    int            `toml:"hook_speaker"`
	SpeakerMap     map[string]int `toml:"speaker_map"`
	CharsPerSecond float64        `toml:"chars_per_second"`
}

// Timing contains the hook-scene duration policy knobs.
type Timing struct {
	HookMarginSec float64 `toml:"hook_margin_sec"`
	MinHookSec    float64 `toml:"min_hook_sec"`
	HookAudioPath string  `toml:"hook_audio_path"`
}

// Render contains configuration for the external render invocation.
type Render struct {
	// CommandTemplate is the shell command executed inside the render
	// container. The {video_id} placeholder is substituted (shell-quoted).
	// Rendering is skipped when the template is empty.
	CommandTemplate string `toml:"command_template"`
	// OutputTemplate names the artifact expected under OutputDir after a
	// successful render.
	OutputTemplate string `toml:"output_template"`
	Workdir        string `toml:"workdir"`
	DockerService  string `toml:"docker_service"`
	DockerShell    string `toml:"docker_shell"`
	DockerUser     string `toml:"docker_user"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for montage.
//
// Configuration sections by subsystem:
//   - Paths: project/output directories and API bind address
//   - Voicevox: text-to-speech engine connection and speaker routing
//   - Timing: hook-scene duration policy
//   - Render: external render command template
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Voicevox Voicevox `toml:"voicevox"`
	Timing   Timing   `toml:"timing"`
	Render   Render   `toml:"render"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/montage/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("montage.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProjectsRoot, c.Paths.OutputDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable name used for duration probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// ParameterRelPath returns the parameter document path for a video id,
// relative to ProjectsRoot.
func (c *Config) ParameterRelPath(videoID string) string {
	return strings.TrimSpace(strings.ReplaceAll(c.Paths.ParameterTemplate, "{video_id}", videoID))
}

// RenderOutputRelPath returns the expected render artifact path for a video id,
// relative to OutputDir.
func (c *Config) RenderOutputRelPath(videoID string) string {
	return strings.TrimLeft(strings.ReplaceAll(c.Render.OutputTemplate, "{video_id}", videoID), "/\\")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
