// Package fileutil provides confinement-checked path resolution and artifact
// writes for project directories.
package fileutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath marks a client-supplied path that escapes its base directory.
var ErrUnsafePath = errors.New("unsafe path detected")

// SafeJoin resolves relative beneath base. Leading slashes are stripped and
// empty or "." segments discarded; a ".." segment fails with ErrUnsafePath, as
// does any result that would not remain under base. Every client-supplied
// artifact path must pass through here before a filesystem read or write.
func SafeJoin(base, relative string) (string, error) {
	clean := strings.TrimLeft(strings.TrimSpace(relative), "/\\")
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '/' || r == '\\' })
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" || part == "." {
			continue
		}
		if part == ".." {
			return "", fmt.Errorf("%w: %q traverses outside the project directory", ErrUnsafePath, relative)
		}
		kept = append(kept, part)
	}

	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base %q: %w", base, err)
	}
	full := filepath.Join(append([]string{baseAbs}, kept...)...)
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", full, err)
	}
	if fullAbs != baseAbs && !strings.HasPrefix(fullAbs, baseAbs+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q escapes %q", ErrUnsafePath, relative, base)
	}
	return fullAbs, nil
}

// WriteArtifact writes data to path, creating parent directories as needed.
func WriteArtifact(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
