package command_test

import (
	"context"
	"testing"

	"montage/internal/services/command"
)

func TestRunCapturesStdout(t *testing.T) {
	result, err := command.Run(context.Background(), "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("exit code = %d", result.ExitCode)
	}
	if result.Output() != "hello" {
		t.Fatalf("output = %q", result.Output())
	}
}

func TestRunReportsNonZeroExitWithoutError(t *testing.T) {
	result, err := command.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ExitCode != 3 {
		t.Fatalf("exit code = %d, want 3", result.ExitCode)
	}
	if result.Output() != "oops" {
		t.Fatalf("output = %q, want stderr content", result.Output())
	}
}

func TestRunErrorsWhenBinaryMissing(t *testing.T) {
	if _, err := command.Run(context.Background(), "definitely-not-a-binary-xyz"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}
