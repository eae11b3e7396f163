package render

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// Capabilities reports which media tools are installed.
type Capabilities struct {
	FFmpeg        bool      `json:"ffmpeg"`
	FFprobe       bool      `json:"ffprobe"`
	FFmpegPath    string    `json:"ffmpeg_path,omitempty"`
	FFprobePath   string    `json:"ffprobe_path,omitempty"`
	FFmpegVersion string    `json:"ffmpeg_version,omitempty"`
	ProbedAt      time.Time `json:"probed_at"`
}

// CanRenderDirect reports whether the direct renderer can run.
func (c *Capabilities) CanRenderDirect() bool {
	return c != nil && c.FFmpeg && c.FFprobe
}

// ToolProber detects installed media tools.
type ToolProber interface {
	ProbeTools(ctx context.Context) (*Capabilities, error)
}

// SystemTools looks ffmpeg and ffprobe up on PATH.
type SystemTools struct {
	FFmpeg  string
	FFprobe string
	Exec    Executor
}

func (s SystemTools) ProbeTools(ctx context.Context) (*Capabilities, error) {
	caps := &Capabilities{ProbedAt: time.Now()}

	if p, err := exec.LookPath(orDefault(s.FFmpeg, "ffmpeg")); err == nil {
		caps.FFmpegPath = p
		if s.Exec != nil {
			res := s.Exec.Run(ctx, p, "-hide_banner", "-version")
			if !res.IsSuccess() {
				return caps, fmt.Errorf("ffmpeg -version exited %d", res.ExitCode)
			}
			caps.FFmpegVersion = firstLine(string(res.Stdout))
		}
		caps.FFmpeg = true
	}
	if p, err := exec.LookPath(orDefault(s.FFprobe, "ffprobe")); err == nil {
		caps.FFprobePath = p
		caps.FFprobe = true
	}
	return caps, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

// CachedDoctor caches tool probes with a TTL so every render does not spawn
// a subprocess.
type CachedDoctor struct {
	prober ToolProber
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(prober ToolProber, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		prober: prober,
		ttl:    defaultCacheTTL,
		logger: nopLogger(logger),
	}
}

// SetTTL overrides the cache lifetime.
func (d *CachedDoctor) SetTTL(ttl time.Duration) {
	d.mu.Lock()
	d.ttl = ttl
	d.mu.Unlock()
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe regardless of cache freshness. A failed probe
// falls back to the stale cache when there is one.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.prober.ProbeTools(ctx)
	if err != nil {
		d.logger.Warn("media tool probe failed", "error", err)
		if d.cached != nil {
			d.logger.Info("returning stale capabilities cache")
			return d.cached, nil
		}
		return nil, err
	}

	d.logger.Info("media tool probe complete",
		"ffmpeg", caps.FFmpeg,
		"ffprobe", caps.FFprobe,
		"version", caps.FFmpegVersion,
	)
	d.cached = caps
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
