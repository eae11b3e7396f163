package render

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type execCall struct {
	name string
	args []string
}

// fakeExecutor records invocations. For ffmpeg runs it writes a small file
// at the output path (the last argument) unless exitCode is non-zero.
type fakeExecutor struct {
	mu       sync.Mutex
	calls    []execCall
	exitCode int
	stderr   string
	stdout   []byte
}

func (f *fakeExecutor) Run(ctx context.Context, name string, args ...string) RunResult {
	f.mu.Lock()
	f.calls = append(f.calls, execCall{name: name, args: append([]string(nil), args...)})
	f.mu.Unlock()

	if f.exitCode != 0 {
		return RunResult{ExitCode: f.exitCode, StderrTail: f.stderr}
	}
	if len(args) > 0 {
		_ = os.WriteFile(args[len(args)-1], []byte("video-bytes"), 0644)
	}
	return RunResult{ExitCode: 0, Stdout: f.stdout, Duration: 10 * time.Millisecond}
}

func (f *fakeExecutor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeExecutor) lastArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1].args
}

type fakeProber struct {
	probes map[string]Probe
}

func (f *fakeProber) Probe(ctx context.Context, path string) (Probe, error) {
	p, ok := f.probes[path]
	if !ok {
		return Probe{}, errors.New("moov atom not found")
	}
	return p, nil
}

func avProbe() Probe {
	return Probe{Streams: []Stream{{CodecType: "video"}, {CodecType: "audio"}}}
}

func videoOnlyProbe() Probe {
	return Probe{Streams: []Stream{{CodecType: "video"}}}
}

type fakeToolProber struct {
	caps  *Capabilities
	err   error
	calls atomic.Int32
}

func (f *fakeToolProber) ProbeTools(ctx context.Context) (*Capabilities, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	c := *f.caps
	c.ProbedAt = time.Now()
	return &c, nil
}

type fakeRenderer struct {
	res  Result
	err  error
	jobs []Job
}

func (f *fakeRenderer) Render(ctx context.Context, job Job) (Result, error) {
	f.jobs = append(f.jobs, job)
	return f.res, f.err
}
