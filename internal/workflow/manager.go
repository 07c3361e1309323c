// Package workflow owns the job lifecycle: it accepts submissions, runs the
// pipeline stages in the background, and guarantees every job reaches a
// terminal status.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"montage/internal/config"
	"montage/internal/fileutil"
	"montage/internal/jobs"
	"montage/internal/logging"
	"montage/internal/params"
	"montage/internal/services"
	"montage/internal/services/render"
	"montage/internal/synthesis"
	"montage/internal/timing"
)

// ErrConflict reports that a submission targets a video id whose artifacts
// already exist and overwrite was not requested.
var ErrConflict = errors.New("video id already exists")

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Manager coordinates job submission and background execution.
type Manager struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *jobs.Store
	voice  *synthesis.Stage
	render *render.Invoker
	policy timing.Policy

	wg sync.WaitGroup
}

// NewManager wires the pipeline stages into a job manager.
func NewManager(cfg *config.Config, logger *slog.Logger, store *jobs.Store, voice *synthesis.Stage, renderInvoker *render.Invoker) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:    cfg,
		logger: logger,
		store:  store,
		voice:  voice,
		render: renderInvoker,
		policy: timing.Policy{
			HookMarginSec:  cfg.Timing.HookMarginSec,
			MinHookSec:     cfg.Timing.MinHookSec,
			CharsPerSecond: cfg.Voicevox.CharsPerSecond,
		},
	}
}

// Submit validates a request, registers the job, and starts it in the
// background. The returned job snapshot is in the queued state.
func (m *Manager) Submit(ctx context.Context, req jobs.Request) (*jobs.Job, error) {
	videoID := strings.TrimSpace(req.VideoID)
	if videoID == "" || !videoIDPattern.MatchString(videoID) {
		return nil, services.Wrap(services.ErrValidation, "submit", "video-id",
			fmt.Sprintf("invalid video id %q", req.VideoID), nil)
	}
	req.VideoID = videoID
	if req.Parameter == nil {
		return nil, services.Wrap(services.ErrValidation, "submit", "parameter", "parameter document is required", nil)
	}

	if !req.Options.Overwrite {
		existing, err := m.existingArtifact(videoID)
		if err != nil {
			return nil, err
		}
		if existing != "" {
			return nil, fmt.Errorf("%w: %s (set overwrite to replace)", ErrConflict, existing)
		}
	}

	job, err := m.store.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	m.logger.Info("job accepted",
		logging.String("job_id", job.ID),
		logging.String("video_id", videoID))

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.runJob(context.Background(), job.ID)
	}()
	return job, nil
}

// Wait blocks until all in-flight jobs have reached a terminal status.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// existingArtifact returns the path of a parameter file or rendered video
// that already exists for videoID, or "" when neither does.
func (m *Manager) existingArtifact(videoID string) (string, error) {
	paramPath, err := fileutil.SafeJoin(m.cfg.Paths.ProjectsRoot, m.cfg.ParameterRelPath(videoID))
	if err != nil {
		return "", services.Wrap(services.ErrUnsafePath, "submit", "parameter-path", "parameter template escapes the projects root", err)
	}
	if fileutil.FileExists(paramPath) {
		return paramPath, nil
	}
	videoPath, err := fileutil.SafeJoin(m.cfg.Paths.OutputDir, m.cfg.RenderOutputRelPath(videoID))
	if err != nil {
		return "", services.Wrap(services.ErrUnsafePath, "submit", "output-path", "output template escapes the output directory", err)
	}
	if fileutil.FileExists(videoPath) {
		return videoPath, nil
	}
	return "", nil
}

// runJob drives one job through the pipeline. Whatever happens, the job ends
// in a terminal status: a deferred finalizer converts errors and panics into
// a failed record.
func (m *Manager) runJob(ctx context.Context, jobID string) {
	var runErr error
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("panic: %v", r)
		}
		if runErr == nil {
			return
		}
		m.logger.Error("job failed",
			logging.String("job_id", jobID),
			logging.Error(runErr))
		if _, err := m.store.Update(ctx, jobID, jobs.Update{
			Status:   jobs.StatusPtr(jobs.StatusFailed),
			Progress: map[string]any{"stage": "failed"},
			Error: &jobs.ErrorInfo{
				Code:    services.ErrorCode(runErr),
				Message: runErr.Error(),
			},
		}); err != nil {
			m.logger.Error("failed to record job failure",
				logging.String("job_id", jobID),
				logging.Error(err))
		}
	}()

	job, err := m.store.Get(ctx, jobID)
	if err != nil {
		runErr = err
		return
	}
	if job == nil {
		runErr = services.Wrap(services.ErrNotFound, "run", "load", "job disappeared before start", nil)
		return
	}
	if _, err := m.store.Update(ctx, jobID, jobs.Update{
		Status:   jobs.StatusPtr(jobs.StatusRunning),
		Progress: map[string]any{"stage": "tts"},
	}); err != nil {
		runErr = err
		return
	}

	result, err := m.execute(ctx, jobID, job)
	if err != nil {
		runErr = err
		return
	}
	if _, err := m.store.Update(ctx, jobID, jobs.Update{
		Status:   jobs.StatusPtr(jobs.StatusDone),
		Progress: map[string]any{"stage": "finishing"},
		Result:   result,
	}); err != nil {
		runErr = err
	}
}

func (m *Manager) execute(ctx context.Context, jobID string, job *jobs.Job) (*jobs.Result, error) {
	videoID := job.Request.VideoID
	doc, err := job.Request.Parameter.Clone()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "tts", "clone", "failed to copy parameter document", err)
	}
	doc.EnsureMeta(videoID)

	publish := func(ctx context.Context, progress map[string]any) error {
		_, err := m.store.Update(ctx, jobID, jobs.Update{Progress: progress})
		return err
	}
	if err := m.voice.Run(ctx, videoID, doc, job.Request.Options.GenerateAudio, job.Request.VoicePresets, publish); err != nil {
		return nil, err
	}

	if err := publish(ctx, map[string]any{"stage": "param-building"}); err != nil {
		return nil, err
	}
	hookSec, hookOK := m.policy.HookDuration(doc)
	paramPath, err := m.writeParameter(videoID, doc)
	if err != nil {
		return nil, err
	}

	result := &jobs.Result{ParameterPath: paramPath}
	if hookOK {
		result.HookSec = &hookSec
	}
	if totalSec, ok := timing.TotalDuration(doc); ok {
		result.TotalSec = &totalSec
	}

	if job.Request.Options.Render && !job.Request.Options.DryRun {
		if m.render.Enabled() {
			if err := publish(ctx, map[string]any{"stage": "rendering"}); err != nil {
				return nil, err
			}
			videoPath, err := m.render.Render(ctx, videoID)
			if err != nil {
				return nil, err
			}
			result.VideoPath = videoPath
		} else {
			m.logger.Info("render command not configured, skipping render",
				logging.String("video_id", videoID))
		}
	}
	return result, nil
}

// writeParameter persists the resolved parameter document under the projects
// root and returns its absolute path.
func (m *Manager) writeParameter(videoID string, doc *params.Document) (string, error) {
	path, err := fileutil.SafeJoin(m.cfg.Paths.ProjectsRoot, m.cfg.ParameterRelPath(videoID))
	if err != nil {
		return "", services.Wrap(services.ErrUnsafePath, "param-building", "parameter-path", "parameter template escapes the projects root", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "param-building", "encode", "failed to encode parameter document", err)
	}
	if err := fileutil.WriteArtifact(path, append(data, '\n')); err != nil {
		return "", services.Wrap(services.ErrTransient, "param-building", "write", "failed to write parameter file", err)
	}
	return path, nil
}
