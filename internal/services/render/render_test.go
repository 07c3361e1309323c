package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"montage/internal/config"
	"montage/internal/logging"
	"montage/internal/services"
	"montage/internal/services/command"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.ProjectsRoot = t.TempDir()
	cfg.Paths.OutputDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Render.CommandTemplate = "npm run render -- --project {video_id}"
	return &cfg
}

func TestRenderBuildsDockerExecCommand(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(filepath.Join(cfg.Paths.OutputDir, "demo-01.mp4"), []byte("mp4"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	var gotName string
	var gotArgs []string
	inv := New(cfg, logging.NewNop(), WithRunner(func(_ context.Context, name string, args ...string) (command.Result, error) {
		gotName = name
		gotArgs = args
		return command.Result{}, nil
	}))

	path, err := inv.Render(context.Background(), "demo-01")
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if path != filepath.Join(cfg.Paths.OutputDir, "demo-01.mp4") {
		t.Fatalf("output path = %q", path)
	}
	if gotName != "docker" {
		t.Fatalf("command name = %q", gotName)
	}
	want := []string{"exec", "--user", "node", "remotion", "/bin/sh", "-c"}
	for i, arg := range want {
		if gotArgs[i] != arg {
			t.Fatalf("arg[%d] = %q, want %q", i, gotArgs[i], arg)
		}
	}
	shellCmd := gotArgs[len(gotArgs)-1]
	if !strings.Contains(shellCmd, "--project 'demo-01'") {
		t.Errorf("video id not quoted into template: %q", shellCmd)
	}
	if !strings.Contains(shellCmd, "npm_config_project='demo-01' REMOTION_PROJECT='demo-01'") {
		t.Errorf("env exports missing: %q", shellCmd)
	}
	if !strings.HasPrefix(shellCmd, "cd '/app/ns-video' && ") {
		t.Errorf("workdir prefix missing: %q", shellCmd)
	}
}

func TestRenderQuotesHostileVideoID(t *testing.T) {
	cfg := testConfig(t)
	hostile := "demo'; rm -rf tmp"
	if err := os.WriteFile(filepath.Join(cfg.Paths.OutputDir, hostile+".mp4"), []byte("mp4"), 0o644); err != nil {
		t.Fatalf("seed output: %v", err)
	}

	var shellCmd string
	inv := New(cfg, logging.NewNop(), WithRunner(func(_ context.Context, _ string, args ...string) (command.Result, error) {
		shellCmd = args[len(args)-1]
		return command.Result{}, nil
	}))

	if _, err := inv.Render(context.Background(), hostile); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if strings.Contains(shellCmd, "--project "+hostile) {
		t.Fatalf("video id reached shell unquoted: %q", shellCmd)
	}
	if !strings.Contains(shellCmd, `'demo'\''; rm -rf tmp'`) {
		t.Fatalf("single quote not escaped: %q", shellCmd)
	}
}

func TestRenderSurfacesNonZeroExit(t *testing.T) {
	cfg := testConfig(t)
	inv := New(cfg, logging.NewNop(), WithRunner(func(context.Context, string, ...string) (command.Result, error) {
		return command.Result{ExitCode: 7, Stderr: "render blew up"}, nil
	}))

	_, err := inv.Render(context.Background(), "demo-01")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool", err)
	}
	if !strings.Contains(err.Error(), "render blew up") {
		t.Fatalf("captured output missing from error: %v", err)
	}
}

func TestRenderMissingOutputArtifact(t *testing.T) {
	cfg := testConfig(t)
	inv := New(cfg, logging.NewNop(), WithRunner(func(context.Context, string, ...string) (command.Result, error) {
		return command.Result{}, nil
	}))

	_, err := inv.Render(context.Background(), "demo-01")
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("error = %v, want ErrExternalTool for missing output", err)
	}
	if !strings.Contains(err.Error(), "output not found") {
		t.Fatalf("error = %v", err)
	}
}

func TestEnabled(t *testing.T) {
	cfg := testConfig(t)
	inv := New(cfg, logging.NewNop())
	if !inv.Enabled() {
		t.Fatal("expected invoker enabled with command template set")
	}
	cfg.Render.CommandTemplate = "  "
	if inv.Enabled() {
		t.Fatal("expected invoker disabled with blank template")
	}
}
