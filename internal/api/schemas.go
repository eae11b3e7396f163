package api

import (
	"time"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/edit"
	"github.com/auri/auri-agent/internal/footage"
	"github.com/auri/auri-agent/internal/project"
	"github.com/auri/auri-agent/internal/scene"
	"github.com/auri/auri-agent/internal/workflow"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State         string               `json:"state"`
	LastError     string               `json:"last_error,omitempty"`
	ProjectsCount int                  `json:"projects_count"`
	JobsRunning   int                  `json:"jobs_running"`
	JobsPending   int                  `json:"jobs_pending"`
	ActiveJob     *JobResponse         `json:"active_job,omitempty"`
	Tools         *ToolsStatusResponse `json:"tools,omitempty"`
}

type ToolsStatusResponse struct {
	FFmpeg        bool   `json:"ffmpeg"`
	FFprobe       bool   `json:"ffprobe"`
	FFmpegVersion string `json:"ffmpeg_version,omitempty"`
	CanRender     bool   `json:"can_render_direct"`
	LastProbeAt   string `json:"last_probe_at,omitempty"`
}

type AnalyzeRequest struct {
	Script string `json:"script"`
}

type EditsParseRequest struct {
	Text string `json:"text"`
}

type EditsParseResponse struct {
	Commands []edit.Command   `json:"commands"`
	Globals  assembly.Globals `json:"globals"`
}

type WorkflowStepsRequest struct {
	Ideas  []string        `json:"ideas"`
	Steps  []workflow.Step `json:"steps"`
	Script string          `json:"script"`
}

type CreateProjectRequest struct {
	Name      string `json:"name,omitempty"`
	Script    string `json:"script"`
	AssetsDir string `json:"assets_dir,omitempty"`
}

type ProjectSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Scenes         int    `json:"scenes"`
	MissingFootage int    `json:"missing_footage"`
	Edits          int    `json:"edits"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

type ProjectResponse struct {
	ID             string                `json:"id"`
	Name           string                `json:"name"`
	AssetsDir      string                `json:"assets_dir,omitempty"`
	Scenes         []scene.Scene         `json:"scenes"`
	PlannedShots   []footage.PlannedShot `json:"planned_shots"`
	Selections     assembly.Selections   `json:"selections"`
	Edits          []string              `json:"edits"`
	Plan           assembly.Plan         `json:"plan"`
	Globals        assembly.Globals      `json:"globals"`
	MissingFootage []int                 `json:"missing_footage"`
	CreatedAt      string                `json:"created_at"`
	UpdatedAt      string                `json:"updated_at"`
}

type ChecklistResponse struct {
	ProjectID    string             `json:"project_id"`
	Shots        []footage.ShotSpec `json:"shots"`
	Instructions []string           `json:"instructions"`
}

type SelectionsRequest struct {
	Selections assembly.Selections `json:"selections"`
}

type EditRequest struct {
	Request string `json:"request"`
}

type EditResponse struct {
	Commands []edit.Command  `json:"commands"`
	Project  ProjectResponse `json:"project"`
}

type PlanResponse struct {
	ProjectID      string           `json:"project_id"`
	SchemaVersion  string           `json:"schema_version"`
	Items          assembly.Plan    `json:"items"`
	Globals        assembly.Globals `json:"globals"`
	MissingFootage []int            `json:"missing_footage"`
	TotalSeconds   float64          `json:"total_seconds"`
}

type RenderRequest struct {
	Request string `json:"request,omitempty"`
}

type RenderResponse struct {
	JobID string `json:"job_id"`
}

type JobResponse struct {
	ID         string `json:"id"`
	ProjectID  string `json:"project_id"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Request    string `json:"request,omitempty"`
	Kind       string `json:"kind,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	BatchPath  string `json:"batch_path,omitempty"`
	Skipped    []int  `json:"skipped"`
	SizeBytes  int64  `json:"size_bytes"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type EDLResponse struct {
	ProjectID        string `json:"project_id"`
	EDL              string `json:"edl"`
	ClipCount        int    `json:"clip_count"`
	UnresolvedScenes []int  `json:"unresolved_scenes"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToSummary(p *project.Project) ProjectSummary {
	return ProjectSummary{
		ID:             p.ID,
		Name:           p.Name,
		Scenes:         len(p.Scenes),
		MissingFootage: len(p.Plan.Missing()),
		Edits:          len(p.Edits),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		AssetsDir:      p.AssetsDir,
		Scenes:         nonNil(p.Scenes),
		PlannedShots:   nonNil(p.Shots),
		Selections:     p.Selections,
		Edits:          nonNil(p.Edits),
		Plan:           nonNil(p.Plan),
		Globals:        p.Globals,
		MissingFootage: nonNil(p.Plan.Missing()),
		CreatedAt:      p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      p.UpdatedAt.Format(time.RFC3339),
	}
}

func PlanToResponse(p *project.Project) PlanResponse {
	return PlanResponse{
		ProjectID:      p.ID,
		SchemaVersion:  assembly.SchemaVersion,
		Items:          nonNil(p.Plan),
		Globals:        p.Globals,
		MissingFootage: nonNil(p.Plan.Missing()),
		TotalSeconds:   p.Plan.TotalSeconds(),
	}
}

func JobToResponse(j *project.Job) JobResponse {
	return JobResponse{
		ID:         j.ID,
		ProjectID:  j.ProjectID,
		Status:     j.Status,
		Progress:   j.Progress,
		Request:    j.Request,
		Kind:       j.Kind,
		OutputPath: j.OutputPath,
		BatchPath:  j.BatchPath,
		Skipped:    nonNil(j.Skipped),
		SizeBytes:  j.SizeBytes,
		Error:      j.Error,
		CreatedAt:  j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  j.UpdatedAt.Format(time.RFC3339),
	}
}

// nonNil keeps empty lists as [] rather than null on the wire.
func nonNil[S ~[]E, E any](s S) S {
	if s == nil {
		return S{}
	}
	return s
}
