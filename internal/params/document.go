package params

import (
	"encoding/json"
	"fmt"
)

// Document is the per-video parameter specification. Known fields are typed;
// unrecognized top-level keys are carried in Extra and re-emitted on
// serialization so downstream consumers see the document unchanged.
type Document struct {
	Spec         map[string]any
	Meta         map[string]any
	Scenes       []*Scene
	ScriptGroups []*ScriptGroup
	Captions     []map[string]any
	Banners      []map[string]any
	Speeches     []map[string]any
	Vars         map[string]any
	Extra        map[string]any
}

// UnmarshalJSON decodes a document, splitting recognized keys from overflow.
func (d *Document) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parameter document: %w", err)
	}

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
			return fmt.Errorf("parameter document field %q: %w", key, err)
		}
		return nil
	}

	*d = Document{}
	if err := pop("spec", &d.Spec); err != nil {
		return err
	}
	if err := pop("meta", &d.Meta); err != nil {
		return err
	}
	if err := pop("scenes", &d.Scenes); err != nil {
		return err
	}
	if err := pop("scriptGroups", &d.ScriptGroups); err != nil {
		return err
	}
	if err := pop("captions", &d.Captions); err != nil {
		return err
	}
	if err := pop("banners", &d.Banners); err != nil {
		return err
	}
	if err := pop("speeches", &d.Speeches); err != nil {
		return err
	}
	if err := pop("vars", &d.Vars); err != nil {
		return err
	}

	if len(raw) > 0 {
		d.Extra = make(map[string]any, len(raw))
		for key, value := range raw {
			var decoded any
			if err := json.Unmarshal(value, &decoded); err != nil {
				return fmt.Errorf("parameter document field %q: %w", key, err)
			}
			d.Extra[key] = decoded
		}
	}
	return nil
}

// MarshalJSON emits the document with stable field presence: every declared
// field appears even when unset, so downstream consumers never need to probe
// for missing keys.
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 8+len(d.Extra))
	out["spec"] = emptyObjectIfNil(d.Spec)
	out["meta"] = emptyObjectIfNil(d.Meta)
	out["scenes"] = d.Scenes
	out["scriptGroups"] = d.ScriptGroups
	out["captions"] = nilOrValue(d.Captions != nil, d.Captions)
	out["banners"] = nilOrValue(d.Banners != nil, d.Banners)
	out["speeches"] = nilOrValue(d.Speeches != nil, d.Speeches)
	out["vars"] = nilOrValue(d.Vars != nil, d.Vars)
	for key, value := range d.Extra {
		out[key] = value
	}
	return json.Marshal(out)
}

// Clone returns a deep copy of the document. Jobs operate on clones so the
// client's original submission is never mutated.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("clone parameter document: %w", err)
	}
	copied := new(Document)
	if err := json.Unmarshal(data, copied); err != nil {
		return nil, fmt.Errorf("clone parameter document: %w", err)
	}
	return copied, nil
}

// EnsureMeta stamps the video id into meta when absent.
func (d *Document) EnsureMeta(videoID string) {
	if d.Meta == nil {
		d.Meta = make(map[string]any, 1)
	}
	if _, ok := d.Meta["videoId"]; !ok {
		d.Meta["videoId"] = videoID
	}
}

// SpecFloat reads a numeric value from the render spec mapping.
func (d *Document) SpecFloat(key string) (float64, bool) {
	if d.Spec == nil {
		return 0, false
	}
	switch v := d.Spec[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func emptyObjectIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func nilOrValue(present bool, value any) any {
	if !present {
		return nil
	}
	return value
}
