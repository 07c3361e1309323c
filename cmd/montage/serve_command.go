package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"montage/internal/daemon"
	"montage/internal/jobs"
	"montage/internal/logging"
	"montage/internal/services/ffprobe"
	"montage/internal/services/render"
	"montage/internal/services/voicevox"
	"montage/internal/synthesis"
	"montage/internal/workflow"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the montage daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(ctx)
		},
	}
}

func runDaemonProcess(ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logFile, err := logging.OpenLogFile(cfg.Paths.LogDir, "montage.log")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: io.MultiWriter(os.Stdout, logFile),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := jobs.Open()
	if err != nil {
		logger.Error("open job store", logging.Error(err))
		return err
	}
	defer store.Close()

	tts := voicevox.NewClient(cfg.Voicevox.BaseURL,
		voicevox.WithTimeout(time.Duration(cfg.Voicevox.TimeoutSeconds)*time.Second))
	prober := ffprobe.New(cfg.FFprobeBinary())
	voice := synthesis.New(cfg, logger, tts, prober)
	invoker := render.New(cfg, logger)
	manager := workflow.NewManager(cfg, logger, store, voice, invoker)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("montage daemon shutting down")
	d.Stop()
	return nil
}
