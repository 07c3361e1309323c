package services_test

import (
	"errors"
	"strings"
	"testing"

	"montage/internal/services"
)

func TestWrapTagsMarkerAndDetail(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrExternalTool, "tts", "synthesis", "speaker 3", cause)

	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("marker lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	for _, fragment := range []string{"tts", "synthesis", "speaker 3"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("detail %q missing from %q", fragment, err.Error())
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "tts", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestErrorCodeClassification(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{services.Wrap(services.ErrValidation, "submit", "", "bad id", nil), "validation_error"},
		{services.Wrap(services.ErrConfiguration, "render", "", "no template", nil), "config_error"},
		{services.Wrap(services.ErrNotFound, "tts", "", "voice file missing", nil), "not_found"},
		{services.Wrap(services.ErrUnsafePath, "tts", "", "", nil), "unsafe_path"},
		{services.Wrap(services.ErrExternalTool, "probe", "", "", nil), "external_tool_error"},
		{errors.New("anything else"), "internal_error"},
	}
	for _, tc := range cases {
		if got := services.ErrorCode(tc.err); got != tc.want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
