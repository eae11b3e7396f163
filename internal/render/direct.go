package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
)

// DirectRenderer renders the plan by running ffmpeg. Clips that cannot be
// opened or probed are dropped and the remaining clips are still rendered.
type DirectRenderer struct {
	opts   Options
	doctor *CachedDoctor
	probe  Prober
	exec   Executor
	logger *slog.Logger
}

func NewDirectRenderer(opts Options, doctor *CachedDoctor, probe Prober, exec Executor, logger *slog.Logger) *DirectRenderer {
	return &DirectRenderer{
		opts:   opts.withDefaults(),
		doctor: doctor,
		probe:  probe,
		exec:   exec,
		logger: nopLogger(logger),
	}
}

func (r *DirectRenderer) Render(ctx context.Context, job Job) (Result, error) {
	if r.doctor != nil {
		caps, err := r.doctor.Get(ctx)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if !caps.CanRenderDirect() {
			return Result{}, fmt.Errorf("%w: ffmpeg or ffprobe not installed", ErrUnavailable)
		}
	}

	candidates, skipped := selectClips(job)
	clips := make([]clip, 0, len(candidates))
	for _, c := range candidates {
		if err := r.load(ctx, &c); err != nil {
			r.logger.Warn("skipping clip", "scene_index", c.item.SceneIndex, "file", c.item.Filename, "error", err)
			skipped = append(skipped, c.item.SceneIndex)
			continue
		}
		clips = append(clips, c)
	}
	if len(clips) == 0 {
		return Result{}, fmt.Errorf("%w: no renderable clips", ErrUnavailable)
	}

	if job.CrossfadeMs > 0 {
		r.logger.Info("crossfade not applied; clips are joined with hard cuts", "crossfade_ms", job.CrossfadeMs)
	}

	unlock, err := lockOutput(ctx, job.OutPath)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	gr := buildGraph(clips, job.Globals(), r.opts)
	run := r.exec.Run(ctx, r.opts.FFmpegPath, ffmpegArgs(gr, job.OutPath, "", r.opts)...)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if !run.IsSuccess() {
		return Result{}, fmt.Errorf("ffmpeg exited %d: %s", run.ExitCode, truncate(run.StderrTail, 512))
	}

	slices.Sort(skipped)
	res := Result{
		Kind:     KindFile,
		Path:     job.OutPath,
		Rendered: sceneIndexes(clips),
		Skipped:  skipped,
	}
	if info, err := os.Stat(job.OutPath); err == nil {
		res.SizeBytes = info.Size()
	}

	r.logger.Info("render complete",
		"out", job.OutPath,
		"clips", len(clips),
		"skipped", len(skipped),
		"size", humanize.Bytes(uint64(res.SizeBytes)),
		"duration", run.Duration,
	)
	return res, nil
}

// load checks that the clip exists and records whether it carries audio.
func (r *DirectRenderer) load(ctx context.Context, c *clip) error {
	if _, err := os.Stat(c.path); err != nil {
		return err
	}
	if r.probe == nil {
		return nil
	}
	p, err := r.probe.Probe(ctx, c.path)
	if err != nil {
		return err
	}
	if !p.HasVideo() {
		return fmt.Errorf("no video stream")
	}
	c.hasAudio = p.HasAudio()
	return nil
}
