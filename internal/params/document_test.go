package params_test

import (
	"encoding/json"
	"strings"
	"testing"

	"montage/internal/params"
)

const sampleDoc = `{
	"spec": {"fps": 30, "durationInFrames": 900},
	"meta": {"title": "Sample"},
	"scenes": [
		{"startFrame": 0, "durationSec": null, "text": "opening hook", "transition": "fade"},
		{"startFrame": 90, "durationSec": 10.0, "audio": "media/audio/bgm.wav"}
	],
	"scriptGroups": [
		{
			"id": "g1",
			"gapSec": 0.5,
			"items": [
				{"speaker": "left", "text": "hello", "voicevoxSpeaker": 8},
				{"text": "world", "voicePreset": "calm", "mood": "soft"}
			]
		}
	],
	"vars": {"voicePresets": {"calm": {"speedScale": 0.9}}},
	"theme": "dark"
}`

func parseDoc(t *testing.T, data string) *params.Document {
	t.Helper()
	doc := new(params.Document)
	if err := json.Unmarshal([]byte(data), doc); err != nil {
		t.Fatalf("unmarshal document: %v", err)
	}
	return doc
}

func TestUnmarshalSplitsKnownAndOverflowFields(t *testing.T) {
	doc := parseDoc(t, sampleDoc)

	if doc.Extra["theme"] != "dark" {
		t.Fatalf("expected top-level overflow key, got %#v", doc.Extra)
	}
	if len(doc.Scenes) != 2 || len(doc.ScriptGroups) != 1 {
		t.Fatalf("unexpected structure: %d scenes, %d groups", len(doc.Scenes), len(doc.ScriptGroups))
	}
	if doc.Scenes[0].Text() != "opening hook" {
		t.Fatalf("scene text = %q", doc.Scenes[0].Text())
	}
	if doc.Scenes[0].Extra["transition"] != "fade" {
		t.Fatalf("scene overflow missing: %#v", doc.Scenes[0].Extra)
	}
	if doc.Scenes[1].AudioPath != "media/audio/bgm.wav" {
		t.Fatalf("plain audio path = %q", doc.Scenes[1].AudioPath)
	}

	group := doc.ScriptGroups[0]
	if group.GapSec == nil || *group.GapSec != 0.5 {
		t.Fatalf("gapSec = %v", group.GapSec)
	}
	if !group.KeepStack {
		t.Fatal("keepStack should default to true")
	}
	item := group.Items[0]
	if item.Type != params.DefaultItemType {
		t.Fatalf("item type = %q", item.Type)
	}
	if id, ok := item.SpeakerOverride(); !ok || id != 8 {
		t.Fatalf("speaker override = %d, %v", id, ok)
	}
	if group.Items[1].Extra["mood"] != "soft" {
		t.Fatalf("item overflow missing: %#v", group.Items[1].Extra)
	}
}

func TestMarshalKeepsStableFieldPresence(t *testing.T) {
	doc := parseDoc(t, sampleDoc)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	text := string(data)

	// Declared-but-unset fields stay present as null for downstream readers.
	for _, key := range []string{`"voiceSec":null`, `"voice":null`, `"captions":null`, `"durationFrames":null`} {
		if !strings.Contains(text, key) {
			t.Fatalf("marshaled document missing %s:\n%s", key, text)
		}
	}
	for _, key := range []string{`"theme":"dark"`, `"transition":"fade"`, `"mood":"soft"`, `"voicevoxSpeaker":8`} {
		if !strings.Contains(text, key) {
			t.Fatalf("overflow key %s lost on round trip:\n%s", key, text)
		}
	}
}

func TestRoundTripPreservesPlainAudioPath(t *testing.T) {
	doc := parseDoc(t, sampleDoc)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	again := parseDoc(t, string(data))
	if again.Scenes[1].AudioPath != "media/audio/bgm.wav" {
		t.Fatalf("audio path lost: %q", again.Scenes[1].AudioPath)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc := parseDoc(t, sampleDoc)

	clone, err := doc.Clone()
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	sec := 5.5
	clone.Scenes[0].DurationSec = &sec
	voice := "media/audio/x.wav"
	clone.ScriptGroups[0].Items[0].Voice = &voice
	clone.Meta["videoId"] = "abc"

	if doc.Scenes[0].DurationSec != nil {
		t.Fatal("clone mutation leaked into original scene")
	}
	if doc.ScriptGroups[0].Items[0].Voice != nil {
		t.Fatal("clone mutation leaked into original item")
	}
	if _, ok := doc.Meta["videoId"]; ok {
		t.Fatal("clone mutation leaked into original meta")
	}
}

func TestEnsureMetaStampsVideoIDOnce(t *testing.T) {
	doc := parseDoc(t, sampleDoc)
	doc.EnsureMeta("vid-1")
	if doc.Meta["videoId"] != "vid-1" {
		t.Fatalf("meta videoId = %v", doc.Meta["videoId"])
	}
	doc.EnsureMeta("vid-2")
	if doc.Meta["videoId"] != "vid-1" {
		t.Fatal("EnsureMeta must not overwrite an existing id")
	}
}

func TestVoicePresetsMergesRequestOverDocument(t *testing.T) {
	doc := parseDoc(t, sampleDoc)

	merged := doc.VoicePresets(map[string]params.Preset{
		"calm":   {"speedScale": 1.2},
		"excite": {"pitchScale": 0.1},
	})
	if got := merged["calm"]["speedScale"]; got != 1.2 {
		t.Fatalf("request preset should win, got %v", got)
	}
	if _, ok := merged["excite"]; !ok {
		t.Fatal("request-only preset missing")
	}
}

func TestUnmarshalRejectsNegativeDurations(t *testing.T) {
	bad := `{"spec":{},"meta":{},"scenes":[{"startFrame":-1}],"scriptGroups":[]}`
	doc := new(params.Document)
	if err := json.Unmarshal([]byte(bad), doc); err == nil {
		t.Fatal("expected error for negative startFrame")
	}

	bad = `{"spec":{},"meta":{},"scenes":[],"scriptGroups":[{"id":"g","items":[{"voiceSec":-1}]}]}`
	doc = new(params.Document)
	if err := json.Unmarshal([]byte(bad), doc); err == nil {
		t.Fatal("expected error for negative voiceSec")
	}
}

func TestSpecFloatReadsNumbers(t *testing.T) {
	doc := parseDoc(t, sampleDoc)
	fps, ok := doc.SpecFloat("fps")
	if !ok || fps != 30 {
		t.Fatalf("fps = %v, %v", fps, ok)
	}
	if _, ok := doc.SpecFloat("missing"); ok {
		t.Fatal("missing key should not resolve")
	}
}
