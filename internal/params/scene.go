package params

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Scene is one timeline segment. Scene 0 is the hook scene: when it carries
// text, its audio drives the minimum-duration policy for the opening segment.
type Scene struct {
	StartFrame  int
	DurationSec *float64

	// Audio is the structured audio descriptor once one exists. AudioPath
	// holds the plain-string form documents may use instead; resolving the
	// hook scene replaces it with a structured descriptor.
	Audio     *SceneAudio
	AudioPath string

	Extra map[string]any
}

// SceneAudio is the structured audio descriptor attached to a scene.
type SceneAudio struct {
	Src         string
	Volume      *float64
	StartFrom   *float64
	DurationSec *float64
	Extra       map[string]any
}

// Text returns the scene's caption text, if any.
func (s *Scene) Text() string {
	if s == nil || s.Extra == nil {
		return ""
	}
	if text, ok := s.Extra["text"].(string); ok {
		return text
	}
	return ""
}

// ExtraFields exposes the overflow mapping for settings resolution.
func (s *Scene) ExtraFields() map[string]any { return s.Extra }

// ResolvedAudio returns the structured audio descriptor for the scene,
// building one from the plain-path form or the fallback source when needed.
func (s *Scene) ResolvedAudio(fallbackSrc string) *SceneAudio {
	if s.Audio != nil {
		return s.Audio
	}
	src := strings.TrimSpace(s.AudioPath)
	if src == "" {
		src = fallbackSrc
	}
	one := 1.0
	zero := 0.0
	return &SceneAudio{Src: src, Volume: &one, StartFrom: &zero}
}

func (s *Scene) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("scene: %w", err)
	}

	*s = Scene{}
	if value, ok := raw["startFrame"]; ok {
		delete(raw, "startFrame")
		if err := json.Unmarshal(value, &s.StartFrame); err != nil {
			return fmt.Errorf("scene startFrame: %w", err)
		}
	}
	if s.StartFrame < 0 {
		return fmt.Errorf("scene startFrame must be non-negative, got %d", s.StartFrame)
	}
	if value, ok := raw["durationSec"]; ok {
		delete(raw, "durationSec")
		if string(value) != "null" {
			if err := json.Unmarshal(value, &s.DurationSec); err != nil {
				return fmt.Errorf("scene durationSec: %w", err)
			}
		}
	}
	if s.DurationSec != nil && *s.DurationSec < 0 {
		return fmt.Errorf("scene durationSec must be non-negative, got %v", *s.DurationSec)
	}
	if value, ok := raw["audio"]; ok {
		delete(raw, "audio")
		if err := s.decodeAudio(value); err != nil {
			return err
		}
	}

	if len(raw) > 0 {
		s.Extra = make(map[string]any, len(raw))
		for key, value := range raw {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				return fmt.Errorf("scene field %q: %w", key, err)
			}
			s.Extra[key] = decoded
		}
	}
	return nil
}

func (s *Scene) decodeAudio(value json.RawMessage) error {
	trimmed := strings.TrimSpace(string(value))
	switch {
	case trimmed == "null":
		return nil
	case strings.HasPrefix(trimmed, `"`):
		return json.Unmarshal(value, &s.AudioPath)
	default:
		audio := new(SceneAudio)
		if err := json.Unmarshal(value, audio); err != nil {
			return fmt.Errorf("scene audio: %w", err)
		}
		s.Audio = audio
		return nil
	}
}

func (s Scene) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 3+len(s.Extra))
	out["startFrame"] = s.StartFrame
	out["durationSec"] = s.DurationSec
	if s.Audio != nil {
		out["audio"] = s.Audio
	} else if s.AudioPath != "" {
		out["audio"] = s.AudioPath
	}
	for key, value := range s.Extra {
		out[key] = value
	}
	return json.Marshal(out)
}

func (a *SceneAudio) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*a = SceneAudio{}
	pop := func(key string, target any) error {
		value, ok := raw[key]
		if !ok {
			return nil
		}
		delete(raw, key)
		if string(value) == "null" {
			return nil
		}
		if err := json.Unmarshal(value, target); err != nil {
			return fmt.Errorf("scene audio field %q: %w", key, err)
		}
		return nil
	}
	if err := pop("src", &a.Src); err != nil {
		return err
	}
	if err := pop("volume", &a.Volume); err != nil {
		return err
	}
	if err := pop("startFrom", &a.StartFrom); err != nil {
		return err
	}
	if err := pop("durationSec", &a.DurationSec); err != nil {
		return err
	}

	if len(raw) > 0 {
		a.Extra = make(map[string]any, len(raw))
		for key, value := range raw {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				return fmt.Errorf("scene audio field %q: %w", key, err)
			}
			a.Extra[key] = decoded
		}
	}
	return nil
}

func (a SceneAudio) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4+len(a.Extra))
	out["src"] = a.Src
	if a.Volume != nil {
		out["volume"] = *a.Volume
	}
	if a.StartFrom != nil {
		out["startFrom"] = *a.StartFrom
	}
	if a.DurationSec != nil {
		out["durationSec"] = *a.DurationSec
	}
	for key, value := range a.Extra {
		out[key] = value
	}
	return json.Marshal(out)
}
