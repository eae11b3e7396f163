package render

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Probe is the subset of ffprobe output the renderer needs.
type Probe struct {
	Streams []Stream    `json:"streams"`
	Format  ProbeFormat `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// ProbeFormat captures container-level metadata.
type ProbeFormat struct {
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

func (p Probe) hasStream(kind string) bool {
	for _, s := range p.Streams {
		if strings.EqualFold(s.CodecType, kind) {
			return true
		}
	}
	return false
}

// HasVideo reports whether the container has a video stream.
func (p Probe) HasVideo() bool { return p.hasStream("video") }

// HasAudio reports whether the container has an audio stream.
func (p Probe) HasAudio() bool { return p.hasStream("audio") }

// DurationSeconds returns the container duration, or 0 when unknown.
func (p Probe) DurationSeconds() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(p.Format.Duration), 64)
	if err != nil {
		return 0
	}
	return v
}

// Prober inspects a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (Probe, error)
}

// FFprobe runs ffprobe through an Executor.
type FFprobe struct {
	binary string
	exec   Executor
}

func NewFFprobe(binary string, exec Executor) *FFprobe {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary, exec: exec}
}

func (f *FFprobe) Probe(ctx context.Context, path string) (Probe, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Probe{}, errors.New("ffprobe: empty path")
	}

	res := f.exec.Run(ctx, f.binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if !res.IsSuccess() {
		return Probe{}, fmt.Errorf("ffprobe exited %d: %s", res.ExitCode, strings.TrimSpace(res.StderrTail))
	}

	var p Probe
	if err := json.Unmarshal(res.Stdout, &p); err != nil {
		return Probe{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return p, nil
}
