package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/auri/auri-agent/internal/project"
	"github.com/auri/auri-agent/internal/render"
	"github.com/auri/auri-agent/internal/workflow"
)

type fakeToolProber struct {
	caps *render.Capabilities
}

func (f *fakeToolProber) ProbeTools(ctx context.Context) (*render.Capabilities, error) {
	c := *f.caps
	return &c, nil
}

func TestHealth_NoAuth(t *testing.T) {
	env := newTestEnv(t)
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if body["status"] != "ok" || body["version"] != "test" || body["device_id"] != "test-device" {
		t.Errorf("body = %v", body)
	}
	if up, _ := body["uptime_s"].(float64); up < 10 {
		t.Errorf("uptime_s = %v, want >= 10", body["uptime_s"])
	}
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/status", "/projects", "/jobs"} {
		rr := httptest.NewRecorder()
		env.handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token = %d, want 401", path, rr.Code)
		}
	}
}

func TestStatusHandler_NilDoctor(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodGet, "/status", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rr.Code, http.StatusOK)
	}
	body := decodeJSONBody(t, rr)
	if _, ok := body["tools"]; ok {
		t.Fatal("tools should be omitted when doctor is nil")
	}
	if body["state"] != "idle" {
		t.Errorf("state = %v, want idle", body["state"])
	}
}

func TestStatusHandler_EmptyCache(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Doctor = render.NewCachedDoctor(&fakeToolProber{caps: &render.Capabilities{FFmpeg: true}}, nil)

	rr := httptest.NewRecorder()
	statusHandler(env.cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	if _, ok := decodeJSONBody(t, rr)["tools"]; ok {
		t.Fatal("tools should be omitted when the cache is empty")
	}
}

func TestStatusHandler_WithCachedCaps(t *testing.T) {
	env := newTestEnv(t)
	doctor := render.NewCachedDoctor(&fakeToolProber{caps: &render.Capabilities{
		FFmpeg:        true,
		FFprobe:       true,
		FFmpegVersion: "ffmpeg version 7.0",
		ProbedAt:      time.Now(),
	}}, nil)
	if _, err := doctor.Refresh(context.Background()); err != nil {
		t.Fatalf("doctor.Refresh() error = %v", err)
	}
	env.cfg.Doctor = doctor

	rr := httptest.NewRecorder()
	statusHandler(env.cfg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

	tools, ok := decodeJSONBody(t, rr)["tools"].(map[string]interface{})
	if !ok {
		t.Fatal("tools missing from response")
	}
	if tools["can_render_direct"] != true || tools["ffmpeg_version"] != "ffmpeg version 7.0" {
		t.Errorf("tools = %v", tools)
	}
	if _, ok := tools["last_probe_at"]; !ok {
		t.Error("last_probe_at missing")
	}
}

func TestStatusHandler_States(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.createProject(t)

	job, err := env.cfg.Service.QueueRender(ctx, p.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := env.repo.UpdateJobStatus(ctx, job.ID, project.JobStatusFailed, "ffmpeg exploded"); err != nil {
		t.Fatal(err)
	}

	body := decodeJSONBody(t, env.do(t, http.MethodGet, "/status", nil))
	if body["state"] != "error" || body["last_error"] != "ffmpeg exploded" {
		t.Errorf("status = %v", body)
	}
	if body["projects_count"] != float64(1) {
		t.Errorf("projects_count = %v", body["projects_count"])
	}

	env.cfg.Runner.Pause()
	body = decodeJSONBody(t, env.do(t, http.MethodGet, "/status", nil))
	if body["state"] != "paused" {
		t.Errorf("state = %v, want paused", body["state"])
	}
}

func TestRunnerPauseResume(t *testing.T) {
	env := newTestEnv(t)

	if rr := env.do(t, http.MethodPost, "/runner/pause", nil); rr.Code != http.StatusNoContent {
		t.Fatalf("pause status = %d", rr.Code)
	}
	if !env.cfg.Runner.IsPaused() {
		t.Error("runner should be paused")
	}
	env.do(t, http.MethodPost, "/runner/resume", nil)
	if env.cfg.Runner.IsPaused() {
		t.Error("runner should be resumed")
	}

	cfg := env.cfg
	cfg.Runner = nil
	rr := httptest.NewRecorder()
	runnerHandler(cfg, true).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/runner/pause", nil))
	assertError(t, rr, http.StatusServiceUnavailable, "UNAVAILABLE")
}

func TestAnalyzeHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/scripts/analyze", AnalyzeRequest{Script: testScript})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var a project.Analysis
	decodeInto(t, rr, &a)
	if len(a.Scenes) != 3 || len(a.Shots) != 3 || len(a.Checklist) != 1 || len(a.Prompts) != 3 {
		t.Errorf("analysis = %+v", a)
	}
	if !a.HasTimeRanges || !a.Workflow.NeedsVideo {
		t.Errorf("flags = %v %+v", a.HasTimeRanges, a.Workflow)
	}

	assertError(t, env.do(t, http.MethodPost, "/scripts/analyze", AnalyzeRequest{Script: "  "}), http.StatusBadRequest, "BAD_REQUEST")
	assertError(t, env.do(t, http.MethodPost, "/scripts/analyze", "{not json"), http.StatusBadRequest, "BAD_REQUEST")
}

func TestParseEditsHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/edits/parse", EditsParseRequest{Text: "speed up scene 2 by 2x and lower music by 6dB"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp EditsParseResponse
	decodeInto(t, rr, &resp)
	if len(resp.Commands) != 2 {
		t.Fatalf("commands = %+v", resp.Commands)
	}
	if resp.Globals.MusicGainDB != -6 {
		t.Errorf("globals = %+v", resp.Globals)
	}

	rr = env.do(t, http.MethodPost, "/edits/parse", EditsParseRequest{Text: "make it pop"})
	if body := decodeJSONBody(t, rr); len(body["commands"].([]interface{})) != 0 {
		t.Errorf("unrecognized text should yield [], got %v", body["commands"])
	}
}

func TestWorkflowStepsHandler(t *testing.T) {
	env := newTestEnv(t)
	steps := []workflow.Step{{Title: "Ideas"}, {Title: "Write Script"}, {Title: "Captions"}}

	rr := env.do(t, http.MethodPost, "/workflow/steps", WorkflowStepsRequest{
		Ideas:  []string{"a reel about mornings"},
		Steps:  steps,
		Script: testScript,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp workflow.Expansion
	decodeInto(t, rr, &resp)
	if !resp.Inserted || !resp.VideoIdeas || !resp.Workflow.NeedsVideo {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.Steps) != 6 || resp.Steps[2].Title != "Plan Footage" {
		t.Errorf("steps = %+v", resp.Steps)
	}

	rr = env.do(t, http.MethodPost, "/workflow/steps", WorkflowStepsRequest{Script: "a caption"})
	if body := decodeJSONBody(t, rr); body["inserted"] != false || len(body["steps"].([]interface{})) != 0 {
		t.Errorf("plain script body = %v", body)
	}

	assertError(t, env.do(t, http.MethodPost, "/workflow/steps", "{not json"), http.StatusBadRequest, "BAD_REQUEST")
}

func TestWriteServiceError(t *testing.T) {
	cfg := ServerConfig{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rr := httptest.NewRecorder()
	writeServiceError(rr, cfg, project.ErrNotFound)
	assertError(t, rr, http.StatusNotFound, "NOT_FOUND")

	rr = httptest.NewRecorder()
	writeServiceError(rr, cfg, project.ErrEmptyRequest)
	assertError(t, rr, http.StatusBadRequest, "BAD_REQUEST")

	rr = httptest.NewRecorder()
	writeServiceError(rr, cfg, context.DeadlineExceeded)
	assertError(t, rr, http.StatusInternalServerError, "INTERNAL_ERROR")
}
