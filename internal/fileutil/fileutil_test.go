package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"montage/internal/fileutil"
)

func TestSafeJoinKeepsPathUnderBase(t *testing.T) {
	base := t.TempDir()

	got, err := fileutil.SafeJoin(base, "media/audio/clip.wav")
	if err != nil {
		t.Fatalf("SafeJoin failed: %v", err)
	}
	want := filepath.Join(base, "media", "audio", "clip.wav")
	if got != want {
		t.Fatalf("SafeJoin = %q, want %q", got, want)
	}
}

func TestSafeJoinStripsLeadingSlashesAndDotSegments(t *testing.T) {
	base := t.TempDir()

	cases := []struct {
		relative string
		want     string
	}{
		{"/media/audio/a.wav", filepath.Join(base, "media", "audio", "a.wav")},
		{"./media/./a.wav", filepath.Join(base, "media", "a.wav")},
		{"a//b", filepath.Join(base, "a", "b")},
		{"  media/a.wav", filepath.Join(base, "media", "a.wav")},
	}
	for _, tc := range cases {
		got, err := fileutil.SafeJoin(base, tc.relative)
		if err != nil {
			t.Fatalf("SafeJoin(%q) failed: %v", tc.relative, err)
		}
		if got != tc.want {
			t.Fatalf("SafeJoin(%q) = %q, want %q", tc.relative, got, tc.want)
		}
	}
}

func TestSafeJoinRejectsTraversal(t *testing.T) {
	base := t.TempDir()

	for _, relative := range []string{
		"../../etc/passwd",
		"media/../../secret.wav",
		"..",
	} {
		if _, err := fileutil.SafeJoin(base, relative); !errors.Is(err, fileutil.ErrUnsafePath) {
			t.Fatalf("SafeJoin(%q) = %v, want ErrUnsafePath", relative, err)
		}
	}
}

func TestWriteArtifactCreatesParents(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "media", "audio", "v-01-01.wav")

	if err := fileutil.WriteArtifact(target, []byte("RIFF")); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if string(data) != "RIFF" {
		t.Fatalf("unexpected artifact contents %q", data)
	}
	if !fileutil.FileExists(target) {
		t.Fatal("FileExists should report the written artifact")
	}
}
