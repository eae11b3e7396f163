package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/auri/auri-agent/internal/project"
	"github.com/auri/auri-agent/internal/render"
	"github.com/go-chi/chi/v5"
)

const defaultJobsLimit = 50

var outputContentTypes = map[string]string{
	".mp4": "video/mp4",
	".mov": "video/quicktime",
	".sh":  "text/x-shellscript; charset=utf-8",
	".bat": "text/plain; charset=utf-8",
}

func queueRenderHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RenderRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}

		job, err := cfg.Service.QueueRender(r.Context(), chi.URLParam(r, "id"), req.Request)
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		WriteJSON(w, http.StatusAccepted, RenderResponse{JobID: job.ID})
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultJobsLimit
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				WriteError(w, http.StatusBadRequest, "limit must be a positive integer", "BAD_REQUEST")
				return
			}
			limit = n
		}

		jobs, err := cfg.Service.ListJobs(r.Context(), limit)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}
		writeJobs(w, jobs)
	}
}

func listProjectJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Service.ListProjectJobs(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		writeJobs(w, jobs)
	}
}

func writeJobs(w http.ResponseWriter, jobs []*project.Job) {
	resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
	for i, j := range jobs {
		resp.Jobs[i] = JobToResponse(j)
	}
	WriteJSON(w, http.StatusOK, resp)
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Service.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

// jobOutputHandler streams a finished job's artifact with Range support: the
// video for a direct render, or the shell script for a script render
// (?variant=batch selects the Windows script).
func jobOutputHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Service.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		if job.Status != project.JobStatusCompleted {
			WriteError(w, http.StatusConflict, fmt.Sprintf("job is %s", job.Status), "NOT_READY")
			return
		}

		path := job.OutputPath
		if r.URL.Query().Get("variant") == "batch" {
			if job.Kind != render.KindScript {
				WriteError(w, http.StatusBadRequest, "batch script only exists for script renders", "BAD_REQUEST")
				return
			}
			path = job.BatchPath
		}
		if !withinDir(cfg.OutputDir, path) {
			cfg.Logger.Warn("refusing to serve output outside the output directory", "job_id", job.ID)
			WriteError(w, http.StatusForbidden, "output is outside the output directory", "FORBIDDEN")
			return
		}

		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				WriteError(w, http.StatusNotFound, "output file no longer exists", "NOT_FOUND")
				return
			}
			writeServiceError(w, cfg, err)
			return
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}

		name := filepath.Base(path)
		if ct, ok := outputContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
			w.Header().Set("Content-Type", ct)
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
		http.ServeContent(w, r, name, stat.ModTime(), f)
	}
}

func withinDir(dir, path string) bool {
	if dir == "" || path == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
