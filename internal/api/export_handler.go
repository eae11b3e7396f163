package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/auri/auri-agent/internal/export"
	"github.com/auri/auri-agent/internal/footage"
	"github.com/auri/auri-agent/internal/scene"
	"github.com/go-chi/chi/v5"
)

// exportEDLHandler builds a CMX3600 edit list from the project's plan. With
// output_dir set the file is written there; otherwise the EDL text is
// returned inline.
func exportEDLHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req export.Request
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		if req.Format != "" && strings.ToLower(req.Format) != export.FormatEDL {
			WriteError(w, http.StatusBadRequest, "format must be edl", "BAD_REQUEST")
			return
		}
		if req.OutputDir != "" {
			if err := export.ValidateOutputDir(req.OutputDir); err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
				return
			}
		}

		p, err := cfg.Service.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}

		clips, unresolved := export.ClipsFromPlan(p.Plan, p.AssetsDir)
		if len(clips) == 0 {
			WriteError(w, http.StatusUnprocessableEntity, "no scene has footage selected", "UNRESOLVABLE_CLIPS")
			return
		}

		title := export.SanitizeName(p.Name, 120)
		if title == "" {
			title = "auri_export"
		}
		edl := export.GenerateEDL(clips, title, req.FrameRate)

		if req.OutputDir == "" {
			WriteJSON(w, http.StatusOK, EDLResponse{
				ProjectID:        p.ID,
				EDL:              edl,
				ClipCount:        len(clips),
				UnresolvedScenes: unresolved,
			})
			return
		}

		outputPath, err := export.WriteFile(req.OutputDir, export.FileName(p.Name, "edl"), []byte(edl))
		if err != nil {
			cfg.Logger.Error("edl export failed", "error", err, "project_id", p.ID)
			WriteError(w, http.StatusInternalServerError, "failed to write export file", "INTERNAL_ERROR")
			return
		}

		WriteJSON(w, http.StatusOK, export.Response{
			Status:           "ok",
			Format:           export.FormatEDL,
			OutputPath:       outputPath,
			ClipCount:        len(clips),
			UnresolvedScenes: unresolved,
		})
	}
}

func exportChecklistHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := cfg.Service.GetProject(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, cfg, err)
			return
		}

		var buf bytes.Buffer
		err = export.WriteChecklistPDF(&buf, export.Checklist{
			Title:        p.Name,
			Specs:        footage.Reduce(p.Shots),
			Instructions: scene.ShootingInstructions(p.Scenes),
			GeneratedAt:  time.Now(),
		})
		if err != nil {
			cfg.Logger.Error("checklist pdf failed", "error", err, "project_id", p.ID)
			WriteError(w, http.StatusInternalServerError, "failed to render checklist", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(p.Name, "pdf")))
		w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
		w.WriteHeader(http.StatusOK)
		buf.WriteTo(w)
	}
}
