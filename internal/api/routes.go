package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/config"
	"github.com/auri/auri-agent/internal/edit"
	"github.com/auri/auri-agent/internal/project"
	"github.com/auri/auri-agent/internal/workflow"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(CORSAllowlist())

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))
		r.Post("/runner/pause", runnerHandler(cfg, true))
		r.Post("/runner/resume", runnerHandler(cfg, false))

		r.Post("/scripts/analyze", analyzeHandler(cfg))
		r.Post("/edits/parse", parseEditsHandler(cfg))
		r.Post("/workflow/steps", workflowStepsHandler(cfg))

		r.Post("/projects", createProjectHandler(cfg))
		r.Get("/projects", listProjectsHandler(cfg))
		r.Route("/projects/{id}", func(r chi.Router) {
			r.Get("/", getProjectHandler(cfg))
			r.Delete("/", deleteProjectHandler(cfg))
			r.Get("/checklist", checklistHandler(cfg))
			r.Put("/selections", selectionsHandler(cfg))
			r.Post("/edits", applyEditHandler(cfg))
			r.Delete("/edits", clearEditsHandler(cfg))
			r.Get("/plan", planHandler(cfg))
			r.Post("/renders", queueRenderHandler(cfg))
			r.Get("/jobs", listProjectJobsHandler(cfg))
			r.Post("/export/edl", exportEDLHandler(cfg))
			r.Get("/export/checklist.pdf", exportChecklistHandler(cfg))
		})

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
		r.With(LoopbackGuard()).Get("/jobs/{id}/output", jobOutputHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	version := cfg.Version
	if version == "" {
		version = config.Version
	}
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		projects, _ := cfg.Repository.ListProjects(ctx)
		pending, _ := cfg.Repository.CountJobsByStatus(ctx, project.JobStatusPending)
		jobs, _ := cfg.Repository.ListJobs(ctx, 10)

		state := "idle"
		var activeJob *JobResponse
		jobsRunning := 0
		lastError := ""

		if cfg.Runner != nil && cfg.Runner.IsPaused() {
			state = "paused"
		}

		for _, j := range jobs {
			if j.Status == project.JobStatusRunning {
				state = "rendering"
				resp := JobToResponse(j)
				activeJob = &resp
				jobsRunning++
			}
			if j.Status == project.JobStatusFailed && lastError == "" {
				lastError = j.Error
			}
		}

		if lastError != "" && state == "idle" {
			state = "error"
		}

		resp := StatusResponse{
			State:         state,
			LastError:     lastError,
			ProjectsCount: len(projects),
			JobsRunning:   jobsRunning,
			JobsPending:   pending,
			ActiveJob:     activeJob,
		}

		// Only cached results are reported; probing can be slow.
		if cfg.Doctor != nil {
			if caps := cfg.Doctor.Peek(); caps != nil {
				resp.Tools = &ToolsStatusResponse{
					FFmpeg:        caps.FFmpeg,
					FFprobe:       caps.FFprobe,
					FFmpegVersion: caps.FFmpegVersion,
					CanRender:     caps.CanRenderDirect(),
				}
				if !caps.ProbedAt.IsZero() {
					resp.Tools.LastProbeAt = caps.ProbedAt.Format(time.RFC3339)
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func runnerHandler(cfg ServerConfig, pause bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Runner == nil {
			WriteError(w, http.StatusServiceUnavailable, "render runner not configured", "UNAVAILABLE")
			return
		}
		if pause {
			cfg.Runner.Pause()
		} else {
			cfg.Runner.Resume()
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func analyzeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnalyzeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if strings.TrimSpace(req.Script) == "" {
			WriteError(w, http.StatusBadRequest, "script is required", "BAD_REQUEST")
			return
		}

		WriteJSON(w, http.StatusOK, project.Analyze(req.Script))
	}
}

func parseEditsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EditsParseRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		cmds := edit.Parse(req.Text)
		WriteJSON(w, http.StatusOK, EditsParseResponse{
			Commands: nonNil(cmds),
			Globals:  assembly.GlobalsFrom(cmds),
		})
	}
}

func workflowStepsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req WorkflowStepsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		WriteJSON(w, http.StatusOK, workflow.Expand(req.Steps, req.Ideas, req.Script))
	}
}

// decodeJSON reads a bounded JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
		return false
	}
	return true
}

// writeServiceError maps project errors onto the error envelope.
func writeServiceError(w http.ResponseWriter, cfg ServerConfig, err error) {
	switch {
	case errors.Is(err, project.ErrNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), "NOT_FOUND")
	case errors.Is(err, project.ErrEmptyScript), errors.Is(err, project.ErrEmptyRequest):
		WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
	default:
		cfg.Logger.Error("request failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
