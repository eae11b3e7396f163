// Package render turns a finished assembly plan into a video. A direct
// renderer drives ffmpeg in-process; when that is not possible a script
// renderer writes portable shell and batch scripts that run the same filter
// graph later. The Dispatcher picks between the two.
package render

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/auri/auri-agent/internal/assembly"
)

const (
	KindFile   = "file"
	KindScript = "ffmpeg_script"
)

// ErrUnavailable reports that direct rendering cannot run: ffmpeg is missing
// or the plan has no clip that can be loaded.
var ErrUnavailable = errors.New("direct render unavailable")

// Job is everything a renderer needs.
type Job struct {
	Plan        assembly.Plan
	AssetsDir   string
	OutPath     string
	MusicGainDB float64
	CrossfadeMs int
}

// Globals returns the whole-timeline settings of the job.
func (j Job) Globals() assembly.Globals {
	return assembly.Globals{MusicGainDB: j.MusicGainDB, CrossfadeMs: j.CrossfadeMs}
}

// Result describes what a renderer produced. For KindFile, Path is the video;
// for KindScript, Path is the shell script and BatchPath the Windows script.
type Result struct {
	Kind      string `json:"kind"`
	Path      string `json:"path"`
	BatchPath string `json:"batch_path,omitempty"`
	GraphPath string `json:"graph_path,omitempty"`
	Rendered  []int  `json:"rendered"`
	Skipped   []int  `json:"skipped"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Renderer produces output for a job.
type Renderer interface {
	Render(ctx context.Context, job Job) (Result, error)
}

// Options configure the ffmpeg invocation shared by both renderers.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	VideoCodec  string
	AudioCodec  string
	FontFile    string
	FontSize    int
	Width       int
	Height      int
	FPS         int
}

// DefaultOptions renders vertical 1080x1920 H.264/AAC video.
func DefaultOptions() Options {
	return Options{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		VideoCodec:  "libx264",
		AudioCodec:  "aac",
		FontSize:    42,
		Width:       1080,
		Height:      1920,
		FPS:         30,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FFmpegPath == "" {
		o.FFmpegPath = d.FFmpegPath
	}
	if o.FFprobePath == "" {
		o.FFprobePath = d.FFprobePath
	}
	if o.VideoCodec == "" {
		o.VideoCodec = d.VideoCodec
	}
	if o.AudioCodec == "" {
		o.AudioCodec = d.AudioCodec
	}
	if o.FontSize <= 0 {
		o.FontSize = d.FontSize
	}
	return o
}

// clip is a plan item resolved to a source file.
type clip struct {
	item     assembly.Item
	path     string
	hasAudio bool
}

// selectClips resolves the items that can be rendered: those with a user
// filename. Stock placeholders and items with missing footage are returned as
// skipped scene indexes.
func selectClips(job Job) (clips []clip, skipped []int) {
	skipped = []int{}
	for _, it := range job.Plan {
		if it.Filename == "" || it.MissingFootage() {
			skipped = append(skipped, it.SceneIndex)
			continue
		}
		clips = append(clips, clip{item: it, path: resolvePath(job.AssetsDir, it.Filename), hasAudio: true})
	}
	return clips, skipped
}

func resolvePath(assetsDir, filename string) string {
	if filepath.IsAbs(filename) || assetsDir == "" {
		return filename
	}
	return filepath.Join(assetsDir, filename)
}

func sceneIndexes(clips []clip) []int {
	out := make([]int, 0, len(clips))
	for _, c := range clips {
		out = append(out, c.item.SceneIndex)
	}
	return out
}

func nopLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
