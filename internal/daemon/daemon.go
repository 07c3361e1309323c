package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"montage/internal/config"
	"montage/internal/deps"
	"montage/internal/jobs"
	"montage/internal/logging"
	"montage/internal/workflow"
)

// Daemon hosts the HTTP API and enforces single-instance execution through a
// lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *jobs.Store
	manager *workflow.Manager

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	JobStats     map[jobs.Status]int
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, manager *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || manager == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "montage.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		manager:  manager,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another montage daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	server, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.api = server
	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("montage daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server, waits for in-flight jobs, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	d.manager.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("montage daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status reports runtime state for the status endpoint and CLI.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("failed to collect job stats", logging.Error(err))
		stats = nil
	}
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		JobStats:     stats,
		Dependencies: deps.CheckBinaries(deps.Requirements(d.cfg)),
	}
}

// Addr returns the bound API address once the daemon is started.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}
