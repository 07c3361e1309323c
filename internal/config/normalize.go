package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeVoicevox()
	c.normalizeTiming()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectsRoot) == "" {
		c.Paths.ProjectsRoot = defaultProjectsRoot
	}
	if c.Paths.ProjectsRoot, err = expandPath(c.Paths.ProjectsRoot); err != nil {
		return fmt.Errorf("paths.projects_root: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.ParameterTemplate = strings.TrimSpace(c.Paths.ParameterTemplate)
	if c.Paths.ParameterTemplate == "" {
		c.Paths.ParameterTemplate = defaultParameterTemplate
	}
	return nil
}

func (c *Config) normalizeVoicevox() {
	c.Voicevox.BaseURL = strings.TrimRight(strings.TrimSpace(c.Voicevox.BaseURL), "/")
	if c.Voicevox.BaseURL == "" {
		c.Voicevox.BaseURL = defaultVoicevoxBaseURL
	}
	if c.Voicevox.TimeoutSeconds <= 0 {
		c.Voicevox.TimeoutSeconds = defaultVoicevoxTimeout
	}
	if len(c.Voicevox.SpeakerMap) == 0 {
		c.Voicevox.SpeakerMap = map[string]int{
			"left":  defaultLeftSpeaker,
			"right": defaultRightSpeaker,
		}
	}
	if c.Voicevox.DefaultSpeaker <= 0 {
		c.Voicevox.DefaultSpeaker = defaultDefaultSpeaker
	}
	// HookSpeaker is left zero by Default so an unset value inherits the
	// configured default speaker here.
	if c.Voicevox.HookSpeaker <= 0 {
		c.Voicevox.HookSpeaker = c.Voicevox.DefaultSpeaker
	}
	if c.Voicevox.CharsPerSecond <= 0 {
		c.Voicevox.CharsPerSecond = defaultCharsPerSecond
	}
}

func (c *Config) normalizeTiming() {
	if c.Timing.HookMarginSec < 0 {
		c.Timing.HookMarginSec = defaultHookMarginSec
	}
	if c.Timing.MinHookSec <= 0 {
		c.Timing.MinHookSec = defaultMinHookSec
	}
	c.Timing.HookAudioPath = strings.TrimSpace(c.Timing.HookAudioPath)
	if c.Timing.HookAudioPath == "" {
		c.Timing.HookAudioPath = defaultHookAudioPath
	}
}

func (c *Config) normalizeRender() {
	c.Render.CommandTemplate = strings.TrimSpace(c.Render.CommandTemplate)
	c.Render.OutputTemplate = strings.TrimSpace(c.Render.OutputTemplate)
	if c.Render.OutputTemplate == "" {
		c.Render.OutputTemplate = defaultRenderOutput
	}
	c.Render.Workdir = strings.TrimSpace(c.Render.Workdir)
	if strings.TrimSpace(c.Render.DockerShell) == "" {
		c.Render.DockerShell = defaultDockerShell
	}
	if strings.TrimSpace(c.Render.DockerUser) == "" {
		c.Render.DockerUser = defaultDockerUser
	}
	c.Render.DockerService = strings.TrimSpace(c.Render.DockerService)
	if c.Render.DockerService == "" {
		c.Render.DockerService = defaultDockerService
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
