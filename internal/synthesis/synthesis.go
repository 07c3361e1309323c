// Package synthesis runs the voice stage of a video job: it walks the
// document's script groups and hook scene, generates or verifies the voice
// file for each spoken line, and records measured durations back into the
// document.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"montage/internal/config"
	"montage/internal/fileutil"
	"montage/internal/logging"
	"montage/internal/params"
	"montage/internal/services"
	"montage/internal/timing"
)

// Synthesizer generates audio for one line of text.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, speakerID int, settings map[string]any) ([]byte, error)
}

// DurationProber measures the duration of an audio file on disk. A missing
// file must be reported with an error matching os.ErrNotExist.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ProgressFunc publishes a progress patch for the running job.
type ProgressFunc func(ctx context.Context, progress map[string]any) error

// Stage is the voice-synthesis stage of the pipeline.
type Stage struct {
	cfg    *config.Config
	logger *slog.Logger
	tts    Synthesizer
	prober DurationProber
}

// New constructs the voice stage.
func New(cfg *config.Config, logger *slog.Logger, tts Synthesizer, prober DurationProber) *Stage {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Stage{cfg: cfg, logger: logger, tts: tts, prober: prober}
}

// Run processes every script item in document order and then the hook scene.
// Durations and voice paths are written into doc; ttsDone/ttsTotal progress
// is published through publish after each processed item.
func (s *Stage) Run(ctx context.Context, videoID string, doc *params.Document, generateAudio bool, requestPresets map[string]params.Preset, publish ProgressFunc) error {
	hookScene := hookSceneOf(doc)
	presets := doc.VoicePresets(requestPresets)

	total := 0
	for _, group := range doc.ScriptGroups {
		total += len(group.Items)
	}
	if hookScene != nil {
		total++
	}
	if err := publish(ctx, map[string]any{"stage": "tts", "ttsTotal": total, "ttsDone": 0}); err != nil {
		return err
	}
	if total == 0 {
		return nil
	}

	done := 0
	for groupIndex, group := range doc.ScriptGroups {
		for itemIndex, item := range group.Items {
			if err := s.processItem(ctx, videoID, item, groupIndex, itemIndex, generateAudio, presets); err != nil {
				return err
			}
			done++
			if err := publish(ctx, map[string]any{"ttsDone": done}); err != nil {
				return err
			}
		}
	}

	if hookScene != nil {
		if err := s.processHook(ctx, videoID, hookScene, generateAudio, presets); err != nil {
			return err
		}
		done++
		if err := publish(ctx, map[string]any{"ttsDone": done}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stage) processItem(ctx context.Context, videoID string, item *params.ScriptItem, groupIndex, itemIndex int, generateAudio bool, presets map[string]params.Preset) error {
	text := strings.TrimSpace(item.TextValue())
	if text == "" {
		zero := 0.0
		item.VoiceSec = &zero
		return nil
	}

	voicePath := ""
	if item.Voice != nil {
		voicePath = strings.TrimSpace(*item.Voice)
	}
	if voicePath == "" {
		voicePath = DefaultVoiceName(videoID, groupIndex, itemIndex)
	}
	item.Voice = &voicePath

	target, err := s.resolveVoiceFile(videoID, voicePath)
	if err != nil {
		return err
	}

	if generateAudio {
		fallback := s.fallbackSpeaker(item)
		speakerID, settings := resolveVoiceSettings(item.ExtraFields(), presets, item.SpeakerKey(), fallback)
		if err := s.generate(ctx, text, speakerID, settings, target); err != nil {
			return err
		}
	} else if !fileutil.FileExists(target) {
		return services.Wrap(services.ErrNotFound, "tts", "voice-file",
			fmt.Sprintf("voice file missing for %s", voicePath), nil)
	}

	duration, err := s.measure(ctx, target, text)
	if err != nil {
		return err
	}
	item.VoiceSec = &duration
	return nil
}

func (s *Stage) processHook(ctx context.Context, videoID string, scene *params.Scene, generateAudio bool, presets map[string]params.Preset) error {
	audio := scene.ResolvedAudio(s.cfg.Timing.HookAudioPath)
	voicePath := strings.TrimSpace(audio.Src)
	if voicePath == "" {
		voicePath = s.cfg.Timing.HookAudioPath
	}
	audio.Src = voicePath

	target, err := s.resolveVoiceFile(videoID, voicePath)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(scene.Text())
	if generateAudio {
		speakerID, settings := resolveVoiceSettings(scene.ExtraFields(), presets, "hook", s.cfg.Voicevox.HookSpeaker)
		if err := s.generate(ctx, text, speakerID, settings, target); err != nil {
			return err
		}
	} else if !fileutil.FileExists(target) {
		return services.Wrap(services.ErrNotFound, "tts", "voice-file",
			fmt.Sprintf("voice file missing for %s", voicePath), nil)
	}

	duration, err := s.measure(ctx, target, text)
	if err != nil {
		return err
	}
	audio.DurationSec = &duration
	scene.Audio = audio
	scene.AudioPath = ""
	return nil
}

func (s *Stage) generate(ctx context.Context, text string, speakerID int, settings map[string]any, target string) error {
	audio, err := s.tts.Synthesize(ctx, text, speakerID, settings)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "synthesize", "voice synthesis failed", err)
	}
	if err := fileutil.WriteArtifact(target, audio); err != nil {
		return services.Wrap(services.ErrExternalTool, "tts", "write-voice", "failed to store voice file", err)
	}
	return nil
}

// measure probes the written voice file, falling back to a text-length
// estimate when the file does not exist.
func (s *Stage) measure(ctx context.Context, target, text string) (float64, error) {
	duration, err := s.prober.Duration(ctx, target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return timing.EstimateVoiceSec(text, s.cfg.Voicevox.CharsPerSecond), nil
		}
		return 0, err
	}
	return duration, nil
}

func (s *Stage) fallbackSpeaker(item *params.ScriptItem) int {
	if id, ok := item.SpeakerOverride(); ok {
		return id
	}
	if key := item.SpeakerKey(); key != "" {
		if id, ok := s.cfg.Voicevox.SpeakerMap[key]; ok {
			return id
		}
	}
	return s.cfg.Voicevox.DefaultSpeaker
}

// resolveVoiceFile maps a document voice path to an absolute location under
// the video's project directory, rejecting traversal.
func (s *Stage) resolveVoiceFile(videoID, voiceValue string) (string, error) {
	projectDir := filepath.Join(s.cfg.Paths.ProjectsRoot, videoID)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}
	rel := NormalizeVoicePath(videoID, voiceValue)
	if rel == "" {
		return "", services.Wrap(services.ErrValidation, "tts", "voice-path", "voice path is empty", nil)
	}
	target, err := fileutil.SafeJoin(projectDir, rel)
	if err != nil {
		return "", services.Wrap(services.ErrUnsafePath, "tts", "voice-path",
			fmt.Sprintf("voice path %q escapes the project directory", voiceValue), err)
	}
	return target, nil
}

// hookSceneOf returns the first scene when it carries hook text.
func hookSceneOf(doc *params.Document) *params.Scene {
	if len(doc.Scenes) == 0 {
		return nil
	}
	scene := doc.Scenes[0]
	if strings.TrimSpace(scene.Text()) == "" {
		return nil
	}
	return scene
}

// DefaultVoiceName derives the conventional voice file path for a script
// item. Group and item indexes are zero-based in the document and rendered
// one-based in the file name.
func DefaultVoiceName(videoID string, groupIndex, itemIndex int) string {
	return fmt.Sprintf("media/audio/%s-%02d-%02d.wav", videoID, groupIndex+1, itemIndex+1)
}

// NormalizeVoicePath strips redundant project prefixes authors commonly put
// on voice paths so that the remainder is relative to the project directory.
func NormalizeVoicePath(videoID, value string) string {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return ""
	}
	prefixes := []string{
		"/data/projects/" + videoID + "/",
		"data/projects/" + videoID + "/",
		"/" + videoID + "/",
		videoID + "/",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(clean, prefix) {
			clean = clean[len(prefix):]
			break
		}
	}
	return strings.TrimLeft(clean, "/\\")
}

// resolveVoiceSettings merges voice presets and inline settings for one
// spoken object and decides the speaker id. Precedence, lowest to highest:
// preset named by the object's voiceSpeaker key, preset named by defaultKey,
// preset named by voicePreset, then the inline voiceTts mapping. A speakerId
// carried in the merged settings wins over fallback and is removed from the
// returned settings.
func resolveVoiceSettings(extra map[string]any, presets map[string]params.Preset, defaultKey string, fallback int) (int, map[string]any) {
	settings := map[string]any{}

	var speakerKeys []string
	if key := stringify(extra["voiceSpeaker"]); key != "" {
		speakerKeys = append(speakerKeys, key)
	}
	if defaultKey != "" {
		speakerKeys = append(speakerKeys, defaultKey)
	}
	for _, key := range speakerKeys {
		mergePreset(settings, presets[key])
	}
	if name, ok := extra["voicePreset"].(string); ok {
		mergePreset(settings, presets[name])
	}
	if inline, ok := extra["voiceTts"].(map[string]any); ok {
		for k, v := range inline {
			settings[k] = v
		}
	}

	speakerID := fallback
	if raw, ok := settings["speakerId"]; ok {
		if id, ok := settingToInt(raw); ok {
			speakerID = id
		}
		delete(settings, "speakerId")
	}
	return speakerID, settings
}

func mergePreset(dst map[string]any, preset params.Preset) {
	for k, v := range preset {
		dst[k] = v
	}
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func settingToInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		if id, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return id, true
		}
	}
	return 0, false
}
