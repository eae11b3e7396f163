package render

import (
	"context"
	"errors"
	"log/slog"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/edit"
)

// Dispatcher tries the direct renderer first and falls back to writing
// scripts. A failed direct render never fails the job; only errors from the
// script renderer (filesystem writes) and context cancellation are returned.
type Dispatcher struct {
	direct Renderer
	script Renderer
	logger *slog.Logger
}

// NewDispatcher wires both renderers. direct may be nil to always emit
// scripts.
func NewDispatcher(direct, script Renderer, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{direct: direct, script: script, logger: nopLogger(logger)}
}

func (d *Dispatcher) Render(ctx context.Context, job Job) (Result, error) {
	if missing := job.Plan.Missing(); len(missing) > 0 {
		d.logger.Warn("plan has scenes without footage", "scene_indexes", missing)
	}

	if d.direct != nil {
		res, err := d.direct.Render(ctx, job)
		if err == nil {
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		if errors.Is(err, ErrUnavailable) {
			d.logger.Info("direct render unavailable, writing ffmpeg scripts", "reason", err)
		} else {
			d.logger.Warn("direct render failed, writing ffmpeg scripts", "error", err)
		}
	}

	return d.script.Render(ctx, job)
}

// Assemble parses a free-text edit request, applies it to the job's plan and
// renders the result. Music gain and crossfade found in the request override
// the values already on the job.
func Assemble(ctx context.Context, r Renderer, job Job, request string) (Result, error) {
	cmds := edit.Parse(request)
	job.Plan = assembly.Apply(job.Plan, cmds)

	g := job.Globals().Merge(assembly.GlobalsFrom(cmds))
	job.MusicGainDB, job.CrossfadeMs = g.MusicGainDB, g.CrossfadeMs
	return r.Render(ctx, job)
}

// NewSystemDispatcher wires the ffmpeg-backed direct renderer and the script
// fallback against the host's tools. The returned doctor has not been
// probed yet.
func NewSystemDispatcher(opts Options, logger *slog.Logger) (*Dispatcher, *CachedDoctor) {
	opts = opts.withDefaults()
	exec := NewCommandExecutor(logger)
	doctor := NewCachedDoctor(SystemTools{FFmpeg: opts.FFmpegPath, FFprobe: opts.FFprobePath, Exec: exec}, logger)
	probe := NewFFprobe(opts.FFprobePath, exec)

	direct := NewDirectRenderer(opts, doctor, probe, exec, logger)
	script := NewScriptRenderer(opts, probe, logger)
	return NewDispatcher(direct, script, logger), doctor
}
