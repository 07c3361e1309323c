package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"montage/internal/logging"
)

func TestNewJSONFormatEmitsStructuredRecords(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("job accepted", logging.String("videoId", "vid01"), logging.Int("speaker", 3))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode log record: %v", err)
	}
	if record["msg"] != "job accepted" {
		t.Fatalf("unexpected message: %v", record["msg"])
	}
	if record["videoId"] != "vid01" {
		t.Fatalf("unexpected videoId attr: %v", record["videoId"])
	}
	if record["speaker"] != float64(3) {
		t.Fatalf("unexpected speaker attr: %v", record["speaker"])
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("emitted")

	out := buf.String()
	if strings.Contains(out, "suppressed") {
		t.Fatalf("expected info record suppressed, got %q", out)
	}
	if !strings.Contains(out, "emitted") {
		t.Fatalf("expected warn record emitted, got %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestErrorAttr(t *testing.T) {
	attr := logging.Error(errors.New("boom"))
	if attr.Key != "error" {
		t.Fatalf("unexpected attr key: %q", attr.Key)
	}
	attr = logging.Error(nil)
	if attr.Value.String() != "<nil>" {
		t.Fatalf("unexpected nil error rendering: %q", attr.Value.String())
	}
}

func TestOpenLogFileCreatesDirectoryAndAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	file, err := logging.OpenLogFile(dir, "montage.log")
	if err != nil {
		t.Fatalf("OpenLogFile returned error: %v", err)
	}
	if _, err := file.Write([]byte("first\n")); err != nil {
		t.Fatalf("write log: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	file, err = logging.OpenLogFile(dir, "montage.log")
	if err != nil {
		t.Fatalf("reopen log file: %v", err)
	}
	if _, err := file.Write([]byte("second\n")); err != nil {
		t.Fatalf("append log: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close log: %v", err)
	}

	contents, err := os.ReadFile(filepath.Join(dir, "montage.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if string(contents) != "first\nsecond\n" {
		t.Fatalf("unexpected log contents: %q", contents)
	}
}
