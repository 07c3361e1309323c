package params

// Preset is a named bundle of synthesis tuning parameters.
type Preset map[string]any

// VoicePresets merges document-embedded presets (vars.voicePresets) with
// request-supplied presets. Request presets win for the same name.
func (d *Document) VoicePresets(requestPresets map[string]Preset) map[string]Preset {
	merged := make(map[string]Preset)
	if d != nil && d.Vars != nil {
		if raw, ok := d.Vars["voicePresets"].(map[string]any); ok {
			for name, value := range raw {
				if preset, ok := value.(map[string]any); ok {
					merged[name] = Preset(preset)
				}
			}
		}
	}
	for name, preset := range requestPresets {
		if preset != nil {
			merged[name] = preset
		}
	}
	return merged
}
