package config

const (
	defaultProjectsRoot      = "~/.local/share/montage/projects"
	defaultOutputDir         = "~/.local/share/montage/out"
	defaultLogDir            = "~/.local/share/montage/logs"
	defaultAPIBind           = "127.0.0.1:8787"
	defaultParameterTemplate = "{video_id}/parameter.json"
	defaultVoicevoxBaseURL   = "http://127.0.0.1:50021"
	defaultVoicevoxTimeout   = 30
	defaultDefaultSpeaker    = 3
	defaultLeftSpeaker       = 8
	defaultRightSpeaker      = 3
	defaultCharsPerSecond    = 8.0
	defaultHookMarginSec     = 0.8
	defaultMinHookSec        = 3.0
	defaultHookAudioPath     = "media/audio/hook.wav"
	defaultRenderOutput      = "{video_id}.mp4"
	defaultRenderWorkdir     = "/app/ns-video"
	defaultDockerService     = "remotion"
	defaultDockerShell       = "/bin/sh"
	defaultDockerUser        = "node"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectsRoot:      defaultProjectsRoot,
			OutputDir:         defaultOutputDir,
			LogDir:            defaultLogDir,
			APIBind:           defaultAPIBind,
			ParameterTemplate: defaultParameterTemplate,
		},
		Voicevox: Voicevox{
			BaseURL:        defaultVoicevoxBaseURL,
			TimeoutSeconds: defaultVoicevoxTimeout,
			DefaultSpeaker: defaultDefaultSpeaker,
			SpeakerMap: map[string]int{
				"left":  defaultLeftSpeaker,
				"right": defaultRightSpeaker,
			},
			CharsPerSecond: defaultCharsPerSecond,
		},
		Timing: Timing{
			HookMarginSec: defaultHookMarginSec,
			MinHookSec:    defaultMinHookSec,
			HookAudioPath: defaultHookAudioPath,
		},
		Render: Render{
			OutputTemplate: defaultRenderOutput,
			Workdir:        defaultRenderWorkdir,
			DockerService:  defaultDockerService,
			DockerShell:    defaultDockerShell,
			DockerUser:     defaultDockerUser,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
