package jobs

import (
	"encoding/json"
	"strings"
	"time"

	"montage/internal/params"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

var allStatuses = []Status{StatusQueued, StatusRunning, StatusDone, StatusFailed}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether a status is final.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// Options carries the per-job behavior flags.
type Options struct {
	Render        bool `json:"render"`
	Overwrite     bool `json:"overwrite"`
	GenerateAudio bool `json:"generateAudio"`
	DryRun        bool `json:"dryRun"`
}

// DefaultOptions returns the submission defaults: render and audio generation
// on, overwrite and dry-run off.
func DefaultOptions() Options {
	return Options{Render: true, GenerateAudio: true}
}

// UnmarshalJSON applies submission defaults for omitted flags.
func (o *Options) UnmarshalJSON(data []byte) error {
	aux := struct {
		Render        *bool `json:"render"`
		Overwrite     *bool `json:"overwrite"`
		GenerateAudio *bool `json:"generateAudio"`
		DryRun        *bool `json:"dryRun"`
	}{}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*o = DefaultOptions()
	if aux.Render != nil {
		o.Render = *aux.Render
	}
	if aux.Overwrite != nil {
		o.Overwrite = *aux.Overwrite
	}
	if aux.GenerateAudio != nil {
		o.GenerateAudio = *aux.GenerateAudio
	}
	if aux.DryRun != nil {
		o.DryRun = *aux.DryRun
	}
	return nil
}

// Request is a job submission.
type Request struct {
	VideoID      string                   `json:"videoId"`
	Parameter    *params.Document         `json:"parameter"`
	Options      Options                  `json:"options"`
	VoicePresets map[string]params.Preset `json:"voicePresets,omitempty"`
}

// UnmarshalJSON decodes a submission, applying option defaults when the
// options key is absent entirely.
func (r *Request) UnmarshalJSON(data []byte) error {
	type plain Request
	aux := plain{Options: DefaultOptions()}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Request(aux)
	return nil
}

// Result describes a completed job's outputs.
type Result struct {
	ParameterPath string   `json:"parameterPath"`
	HookSec       *float64 `json:"hookSec,omitempty"`
	TotalSec      *float64 `json:"totalSec,omitempty"`
	VideoPath     string   `json:"videoPath,omitempty"`
}

// ErrorInfo is the terminal error descriptor of a failed job.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Job is one orchestration run. Records live for the process lifetime only.
type Job struct {
	ID        string
	Request   Request
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Progress  map[string]any
	Result    *Result
	Error     *ErrorInfo
}

// Update describes a partial job mutation. Nil fields are left untouched;
// Progress is merged key-wise into the existing mapping, never replacing it.
type Update struct {
	Status   *Status
	Progress map[string]any
	Result   *Result
	Error    *ErrorInfo
}

// StatusPtr is a convenience for building Update values.
func StatusPtr(status Status) *Status { return &status }
