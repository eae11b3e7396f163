package api

import (
	"net/http"
	"strings"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/scene"
	"github.com/go-chi/chi/v5"
)

func createProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProjectRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := cfg.Service.CreateProject(r.Context(), req.Name, req.Script, strings.TrimSpace(req.AssetsDir))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}

		WriteJSON(w, http.StatusCreated, ProjectToResponse(p))
	}
}

func listProjectsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := cfg.Service.ListProjects(r.Context())
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list projects", "INTERNAL_ERROR")
			return
		}

		resp := ProjectsResponse{Projects: make([]ProjectSummary, len(projects))}
		for i, p := range projects {
			resp.Projects[i] = ProjectToSummary(p)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.Service.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func deleteProjectHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.Service.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func checklistHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := cfg.Service.GetProject(r.Context(), id)
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		specs, err := cfg.Service.Checklist(r.Context(), id)
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}

		WriteJSON(w, http.StatusOK, ChecklistResponse{
			ProjectID:    id,
			Shots:        nonNil(specs),
			Instructions: nonNil(scene.ShootingInstructions(p.Scenes)),
		})
	}
}

func selectionsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SelectionsRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		for key := range req.Selections {
			if !strings.HasPrefix(key, "scene_") {
				WriteError(w, http.StatusBadRequest, "selection keys must look like scene_<index>", "BAD_REQUEST")
				return
			}
		}

		p, err := cfg.Service.SetSelections(r.Context(), chi.URLParam(r, "id"), req.Selections)
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

func applyEditHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EditRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, cmds, err := cfg.Service.ApplyEdit(r.Context(), chi.URLParam(r, "id"), req.Request)
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		WriteJSON(w, http.StatusOK, EditResponse{
			Commands: nonNil(cmds),
			Project:  ProjectToResponse(p),
		})
	}
}

func clearEditsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.Service.ClearEdits(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}
		WriteJSON(w, http.StatusOK, ProjectToResponse(p))
	}
}

// planHandler returns the assembly plan. ?format=yaml returns the versioned
// plan document as YAML instead of the JSON view.
func planHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.Service.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}

		switch strings.ToLower(r.URL.Query().Get("format")) {
		case "", "json":
			WriteJSON(w, http.StatusOK, PlanToResponse(p))
		case "yaml", "yml":
			data, err := assembly.Encode(assembly.NewDocument(p.Plan, p.Globals), assembly.FormatYAML)
			if err != nil {
				writeServiceError(w, cfg, err)
				return
			}
			w.Header().Set("Content-Type", "application/yaml")
			w.WriteHeader(http.StatusOK)
			w.Write(data)
		default:
			WriteError(w, http.StatusBadRequest, "format must be json or yaml", "BAD_REQUEST")
		}
	}
}
