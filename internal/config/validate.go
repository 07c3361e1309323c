package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateVoicevox(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ProjectsRoot) == "" {
		return errors.New("paths.projects_root must be set")
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if !strings.Contains(c.Paths.ParameterTemplate, "{video_id}") {
		return errors.New("paths.parameter_template must contain the {video_id} placeholder")
	}
	return nil
}

func (c *Config) validateVoicevox() error {
	parsed, err := url.Parse(c.Voicevox.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("voicevox.base_url %q is not a valid URL", c.Voicevox.BaseURL)
	}
	for key, id := range c.Voicevox.SpeakerMap {
		if id < 0 {
			return fmt.Errorf("voicevox.speaker_map[%q] must be non-negative", key)
		}
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.CommandTemplate == "" {
		return nil
	}
	if !strings.Contains(c.Render.OutputTemplate, "{video_id}") {
		return errors.New("render.output_template must contain the {video_id} placeholder")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
