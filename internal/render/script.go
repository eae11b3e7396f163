package render

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const noInputsMessage = "No inputs found. Unable to assemble"

// ScriptRenderer writes "<out>.sh" and "<out>.bat" scripts that run ffmpeg
// with the plan's filter graph. The graph itself goes to
// "<out>.filtergraph" so neither shell has to quote it.
type ScriptRenderer struct {
	opts   Options
	probe  Prober
	logger *slog.Logger
}

// NewScriptRenderer creates a script renderer. probe may be nil, in which case
// every clip is assumed to carry an audio stream.
func NewScriptRenderer(opts Options, probe Prober, logger *slog.Logger) *ScriptRenderer {
	return &ScriptRenderer{opts: opts.withDefaults(), probe: probe, logger: nopLogger(logger)}
}

func (r *ScriptRenderer) Render(ctx context.Context, job Job) (Result, error) {
	unlock, err := lockOutput(ctx, job.OutPath)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	clips, skipped := selectClips(job)
	if r.probe != nil {
		for i := range clips {
			if p, err := r.probe.Probe(ctx, clips[i].path); err == nil {
				clips[i].hasAudio = p.HasAudio()
			}
		}
	}

	res := Result{
		Kind:      KindScript,
		Path:      job.OutPath + ".sh",
		BatchPath: job.OutPath + ".bat",
		Rendered:  sceneIndexes(clips),
		Skipped:   skipped,
	}

	var sh, bat []string
	if len(clips) == 0 {
		r.logger.Error("no renderable clips in plan", "items", len(job.Plan), "out", job.OutPath)
		sh = shellScript(nil, job)
		bat = batchScript(nil, job)
	} else {
		gr := buildGraph(clips, job.Globals(), r.opts)
		res.GraphPath = job.OutPath + ".filtergraph"
		if err := os.WriteFile(res.GraphPath, []byte(gr.filter+"\n"), 0644); err != nil {
			return Result{}, fmt.Errorf("write filter graph: %w", err)
		}
		args := ffmpegArgs(gr, job.OutPath, res.GraphPath, r.opts)
		sh = shellScript(append([]string{r.opts.FFmpegPath}, args...), job)
		bat = batchScript(append([]string{r.opts.FFmpegPath}, args...), job)
	}

	if err := os.WriteFile(res.Path, []byte(strings.Join(sh, "\n")+"\n"), 0755); err != nil {
		return Result{}, fmt.Errorf("write shell script: %w", err)
	}
	if err := os.WriteFile(res.BatchPath, []byte(strings.Join(bat, "\r\n")+"\r\n"), 0644); err != nil {
		return Result{}, fmt.Errorf("write batch script: %w", err)
	}

	r.logger.Info("ffmpeg scripts written",
		"script", res.Path,
		"clips", len(clips),
		"skipped", len(skipped),
	)
	return res, nil
}

func shellScript(cmd []string, job Job) []string {
	lines := []string{"#!/usr/bin/env bash", "set -e"}
	if job.CrossfadeMs > 0 {
		lines = append(lines, fmt.Sprintf("# crossfade of %dms requested; clips are joined with hard cuts", job.CrossfadeMs))
	}
	if len(cmd) == 0 {
		return append(lines,
			fmt.Sprintf("echo %s > %s", shQuote(noInputsMessage), shQuote(job.OutPath+".log")),
			"exit 1",
		)
	}
	quoted := make([]string, len(cmd))
	for i, a := range cmd {
		quoted[i] = shQuote(a)
	}
	return append(lines, strings.Join(quoted, " "))
}

func batchScript(cmd []string, job Job) []string {
	lines := []string{"@echo off", "setlocal enableextensions"}
	if job.CrossfadeMs > 0 {
		lines = append(lines, fmt.Sprintf("REM crossfade of %dms requested; clips are joined with hard cuts", job.CrossfadeMs))
	}
	if len(cmd) == 0 {
		return append(lines,
			fmt.Sprintf("echo %s > %s", noInputsMessage, batQuote(job.OutPath+".log")),
			"exit /b 1",
		)
	}
	quoted := make([]string, len(cmd))
	for i, a := range cmd {
		quoted[i] = batQuote(a)
	}
	return append(lines, strings.Join(quoted, " "), "exit /b %ERRORLEVEL%")
}

// shQuote single-quotes s for POSIX shells.
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// batQuote double-quotes s for cmd.exe; percent signs are doubled so they are
// not expanded.
func batQuote(s string) string {
	s = strings.ReplaceAll(s, `"`, "")
	return `"` + strings.ReplaceAll(s, "%", "%%") + `"`
}
