package params

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultItemType is the script item kind assumed when a document omits one.
const DefaultItemType = "talk"

// ScriptGroup is an ordered cluster of spoken lines sharing a gap policy.
type ScriptGroup struct {
	ID        string
	GapSec    *float64
	KeepStack bool
	Items     []*ScriptItem
	Extra     map[string]any
}

// ScriptItem is one spoken line. Voice and VoiceSec are write-once per job:
// the synthesis stage assigns them when absent and otherwise treats the path
// as fixed.
type ScriptItem struct {
	Type           string
	Speaker        *string
	Text           *string
	Voice          *string
	VoiceSec       *float64
	DurationFrames *int
	DurationSec    *float64
	Extra          map[string]any
}

// SpeakerKey returns the item's speaker routing key, if any.
func (i *ScriptItem) SpeakerKey() string {
	if i == nil || i.Speaker == nil {
		return ""
	}
	return *i.Speaker
}

// TextValue returns the item's text, or empty when unset.
func (i *ScriptItem) TextValue() string {
	if i == nil || i.Text == nil {
		return ""
	}
	return *i.Text
}

// ExtraFields exposes the overflow mapping for settings resolution.
func (i *ScriptItem) ExtraFields() map[string]any { return i.Extra }

// SpeakerOverride returns an explicit synthesis speaker id carried in the
// overflow keys the orchestrator recognizes (voicevoxSpeaker, ttsSpeakerId,
// voiceSpeaker), when one is integer-convertible.
func (i *ScriptItem) SpeakerOverride() (int, bool) {
	if i == nil || i.Extra == nil {
		return 0, false
	}
	for _, key := range []string{"voicevoxSpeaker", "ttsSpeakerId", "voiceSpeaker"} {
		value, ok := i.Extra[key]
		if !ok || value == nil {
			continue
		}
		if id, ok := toInt(value); ok {
			return id, true
		}
	}
	return 0, false
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, false
		}
		return parsed, true
	case json.Number:
		parsed, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(parsed), true
	default:
		return 0, false
	}
}

func (g *ScriptGroup) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("script group: %w", err)
	}

	*g = ScriptGroup{KeepStack: true}
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
			return fmt.Errorf("script group field %q: %w", key, err)
		}
		return nil
	}
	if err := pop("id", &g.ID); err != nil {
		return err
	}
	if err := pop("gapSec", &g.GapSec); err != nil {
		return err
	}
	if err := pop("keepStack", &g.KeepStack); err != nil {
		return err
	}
	if err := pop("items", &g.Items); err != nil {
		return err
	}
	if g.GapSec != nil && *g.GapSec < 0 {
		return fmt.Errorf("script group %q gapSec must be non-negative", g.ID)
	}

	if len(raw) > 0 {
		g.Extra = make(map[string]any, len(raw))
		for key, value := range raw {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				return fmt.Errorf("script group field %q: %w", key, err)
			}
			g.Extra[key] = decoded
		}
	}
	return nil
}

func (g ScriptGroup) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 4+len(g.Extra))
	out["id"] = g.ID
	out["gapSec"] = g.GapSec
	out["keepStack"] = g.KeepStack
	items := g.Items
	if items == nil {
		items = []*ScriptItem{}
	}
	out["items"] = items
	for key, value := range g.Extra {
		out[key] = value
	}
	return json.Marshal(out)
}

func (i *ScriptItem) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("script item: %w", err)
	}

	*i = ScriptItem{Type: DefaultItemType}
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
			return fmt.Errorf("script item field %q: %w", key, err)
		}
		return nil
	}
	if err := pop("type", &i.Type); err != nil {
		return err
	}
	if err := pop("speaker", &i.Speaker); err != nil {
		return err
	}
	if err := pop("text", &i.Text); err != nil {
		return err
	}
	if err := pop("voice", &i.Voice); err != nil {
		return err
	}
	if err := pop("voiceSec", &i.VoiceSec); err != nil {
		return err
	}
	if err := pop("durationFrames", &i.DurationFrames); err != nil {
		return err
	}
	if err := pop("durationSec", &i.DurationSec); err != nil {
		return err
	}
	if i.VoiceSec != nil && *i.VoiceSec < 0 {
		return fmt.Errorf("script item voiceSec must be non-negative")
	}
	if i.DurationFrames != nil && *i.DurationFrames < 0 {
		return fmt.Errorf("script item durationFrames must be non-negative")
	}
	if i.DurationSec != nil && *i.DurationSec < 0 {
		return fmt.Errorf("script item durationSec must be non-negative")
	}

	if len(raw) > 0 {
		i.Extra = make(map[string]any, len(raw))
		for key, value := range raw {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				return fmt.Errorf("script item field %q: %w", key, err)
			}
			i.Extra[key] = decoded
		}
	}
	return nil
}

func (i ScriptItem) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 7+len(i.Extra))
	out["type"] = i.Type
	out["speaker"] = i.Speaker
	out["text"] = i.Text
	out["voice"] = i.Voice
	out["voiceSec"] = i.VoiceSec
	out["durationFrames"] = i.DurationFrames
	out["durationSec"] = i.DurationSec
	for key, value := range i.Extra {
		out[key] = value
	}
	return json.Marshal(out)
}
