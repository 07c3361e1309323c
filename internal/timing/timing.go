// Package timing resolves hook-scene and total document durations.
package timing

import (
	"math"
	"strings"
	"unicode/utf8"

	"montage/internal/params"
)

// Policy carries the hook-scene duration knobs.
type Policy struct {
	HookMarginSec  float64
	MinHookSec     float64
	CharsPerSecond float64
}

// RoundMillis rounds a duration to millisecond precision.
func RoundMillis(value float64) float64 {
	return math.Round(value*1000) / 1000
}

// EstimateVoiceSec estimates a spoken duration from text length. Used when no
// synthesized artifact exists to probe.
func EstimateVoiceSec(text string, charsPerSecond float64) float64 {
	length := utf8.RuneCountInString(strings.TrimSpace(text))
	if length == 0 {
		return 0
	}
	if charsPerSecond < 1 {
		charsPerSecond = 1
	}
	return RoundMillis(math.Max(0.4, float64(length)/charsPerSecond))
}

// HookDuration resolves the hook scene's duration and writes it back onto
// scene 0. A duration already present on the scene's audio descriptor is
// trusted; otherwise the first script group's voice durations plus inter-item
// gaps plus the margin are summed and floored at the minimum hook duration.
// Returns false when the document has no scenes or script groups.
func (p Policy) HookDuration(doc *params.Document) (float64, bool) {
	if doc == nil || len(doc.Scenes) == 0 || len(doc.ScriptGroups) == 0 {
		return 0, false
	}
	first := doc.Scenes[0]

	duration := 0.0
	if first.Audio != nil && first.Audio.DurationSec != nil {
		duration = *first.Audio.DurationSec
	}
	if duration == 0 {
		group := doc.ScriptGroups[0]
		gap := 0.0
		if group.GapSec != nil {
			gap = *group.GapSec
		}
		total := 0.0
		for idx, item := range group.Items {
			if item.VoiceSec != nil {
				total += *item.VoiceSec
			} else {
				total += EstimateVoiceSec(item.TextValue(), p.CharsPerSecond)
			}
			if idx < len(group.Items)-1 {
				total += gap
			}
		}
		total += p.HookMarginSec
		duration = math.Max(p.MinHookSec, total)
	}

	computed := RoundMillis(duration)
	first.DurationSec = &computed
	return computed, true
}

// TotalDuration computes the document's total duration: the sum of explicit
// scene durations, else framesSpec/fpsSpec from the render spec. Missing or
// unusable fields yield false rather than an error.
func TotalDuration(doc *params.Document) (float64, bool) {
	if doc == nil {
		return 0, false
	}
	total := 0.0
	for _, scene := range doc.Scenes {
		if scene.DurationSec != nil && *scene.DurationSec > 0 {
			total += *scene.DurationSec
		}
	}
	if total > 0 {
		return RoundMillis(total), true
	}

	fps, ok := doc.SpecFloat("fps")
	if !ok || fps <= 0 {
		fps = 30
	}
	frames, ok := doc.SpecFloat("durationInFrames")
	if !ok || frames <= 0 {
		return 0, false
	}
	return RoundMillis(frames / fps), true
}
