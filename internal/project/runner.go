package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/auri/auri-agent/internal/logging"
	"github.com/auri/auri-agent/internal/render"
	"github.com/dustin/go-humanize"
)

const (
	DefaultPollInterval  = 2 * time.Second
	DefaultRenderTimeout = 30 * time.Minute

	outputFilename = "final.mp4"
)

// Runner polls for pending render jobs and executes them one at a time.
type Runner struct {
	repo          Repository
	renderer      render.Renderer
	outputDir     string
	logger        *slog.Logger
	pollInterval  time.Duration
	renderTimeout time.Duration
	running       atomic.Bool
	paused        atomic.Bool
}

func NewRunner(repo Repository, renderer render.Renderer, outputDir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		repo:          repo,
		renderer:      renderer,
		outputDir:     outputDir,
		logger:        logger,
		pollInterval:  DefaultPollInterval,
		renderTimeout: DefaultRenderTimeout,
	}
}

func (r *Runner) SetPollInterval(d time.Duration) {
	if d > 0 {
		r.pollInterval = d
	}
}

func (r *Runner) SetRenderTimeout(d time.Duration) {
	if d > 0 {
		r.renderTimeout = d
	}
}

// OutputPath is where a job's render lands: <outputDir>/<project>/<job>/final.mp4.
// The script fallback writes its .sh and .bat next to it.
func (r *Runner) OutputPath(projectID, jobID string) string {
	return filepath.Join(r.outputDir, projectID, jobID, outputFilename)
}

// Start blocks until ctx is cancelled. Calling it twice is a no-op.
func (r *Runner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("render runner started", "poll_interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("render runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNextJob(ctx)
			}
		}
	}
}

func (r *Runner) Pause() {
	r.paused.Store(true)
	r.logger.Info("render runner paused")
}

func (r *Runner) Resume() {
	r.paused.Store(false)
	r.logger.Info("render runner resumed")
}

func (r *Runner) IsPaused() bool {
	return r.paused.Load()
}

func (r *Runner) IsRunning() bool {
	return r.running.Load()
}

func (r *Runner) GetActiveJobCount(ctx context.Context) int {
	n, err := r.repo.CountJobsByStatus(ctx, JobStatusRunning)
	if err != nil {
		return 0
	}
	return n
}

// processNextJob runs the oldest pending job, if any. It reports whether a
// job was picked up.
func (r *Runner) processNextJob(ctx context.Context) bool {
	jobs, err := r.repo.ListPendingJobs(ctx)
	if err != nil {
		r.logger.Error("failed to list pending jobs", "error", err)
		return false
	}
	if len(jobs) == 0 {
		return false
	}

	job := jobs[0]
	log := logging.WithProjectID(logging.WithJobID(r.logger, job.ID), job.ProjectID)

	p, err := r.repo.GetProject(ctx, job.ProjectID)
	if err != nil || p == nil {
		r.fail(ctx, log, job.ID, "project not found")
		return true
	}

	if err := r.repo.UpdateJobStatus(ctx, job.ID, JobStatusRunning, ""); err != nil {
		log.Error("failed to mark job running", "error", err)
		return true
	}
	if err := r.repo.UpdateJobProgress(ctx, job.ID, 10); err != nil {
		log.Warn("failed to update job progress", "error", err)
	}
	log.Info("render started", "items", len(p.Plan), "request", job.Request != "")

	rctx, cancel := context.WithTimeout(ctx, r.renderTimeout)
	defer cancel()

	rj := render.Job{
		Plan:        p.Plan,
		AssetsDir:   p.AssetsDir,
		OutPath:     r.OutputPath(p.ID, job.ID),
		MusicGainDB: p.Globals.MusicGainDB,
		CrossfadeMs: p.Globals.CrossfadeMs,
	}

	var res render.Result
	if job.Request != "" {
		res, err = render.Assemble(rctx, r.renderer, rj, job.Request)
	} else {
		res, err = r.renderer.Render(rctx, rj)
	}
	if err != nil {
		msg := err.Error()
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			msg = fmt.Sprintf("render timed out after %s", r.renderTimeout)
		case ctx.Err() != nil:
			msg = "cancelled"
		}
		// The parent ctx may already be done; record the failure regardless.
		r.fail(context.WithoutCancel(ctx), log, job.ID, msg)
		return true
	}

	job.Kind = res.Kind
	job.OutputPath = res.Path
	job.BatchPath = res.BatchPath
	job.Skipped = res.Skipped
	job.SizeBytes = res.SizeBytes
	if err := r.repo.CompleteJob(ctx, job); err != nil {
		log.Error("failed to record render result", "error", err)
		return true
	}
	log.Info("render completed",
		"kind", res.Kind,
		"output", logging.SanitizePath(res.Path),
		"size", humanize.Bytes(uint64(max(res.SizeBytes, 0))),
		"skipped", len(res.Skipped),
	)
	return true
}

func (r *Runner) fail(ctx context.Context, log *slog.Logger, jobID, msg string) {
	log.Error("render failed", "error", msg)
	if err := r.repo.UpdateJobStatus(ctx, jobID, JobStatusFailed, msg); err != nil {
		log.Error("failed to mark job failed", "error", err)
	}
}
