package daemon

import (
	"context"
	"testing"

	"montage/internal/logging"
	"montage/internal/services/render"
	"montage/internal/synthesis"
	"montage/internal/testsupport"
	"montage/internal/workflow"
)

func TestNewRequiresDependencies(t *testing.T) {
	if _, err := New(nil, nil, nil, nil); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestSecondInstanceCannotAcquireLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()

	build := func() *Daemon {
		store := testsupport.MustOpenStore(t)
		voice := synthesis.New(cfg, logger, stubTTS{}, stubProber{})
		manager := workflow.NewManager(cfg, logger, store, voice, render.New(cfg, logger))
		d, err := New(cfg, store, logger, manager)
		if err != nil {
			t.Fatalf("daemon.New: %v", err)
		}
		return d
	}

	first := build()
	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	t.Cleanup(first.Stop)

	second := build()
	if err := second.Start(context.Background()); err == nil {
		second.Stop()
		t.Fatal("second instance should fail to acquire the lock")
	}
}

func TestStatusReportsRunningState(t *testing.T) {
	d, _ := startDaemon(t)
	status := d.Status(context.Background())
	if !status.Running {
		t.Fatal("status.Running = false after Start")
	}
	if status.LockFilePath == "" {
		t.Fatal("lock path empty")
	}
}
