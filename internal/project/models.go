// Package project stores scripts as projects, keeps each project's assembly
// plan in step with its footage selections and edit history, and runs queued
// render jobs in the background.
package project

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/footage"
	"github.com/auri/auri-agent/internal/scene"
	"github.com/auri/auri-agent/internal/workflow"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyScript  = errors.New("script is empty")
	ErrEmptyRequest = errors.New("edit request is empty")
)

const (
	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Project struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	Script     string                `json:"script"`
	AssetsDir  string                `json:"assets_dir,omitempty"`
	Scenes     []scene.Scene         `json:"scenes"`
	Shots      []footage.PlannedShot `json:"planned_shots"`
	Selections assembly.Selections   `json:"selections"`
	Edits      []string              `json:"edits"`
	Plan       assembly.Plan         `json:"plan"`
	Globals    assembly.Globals      `json:"globals"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// Job is one queued or finished render of a project's plan.
type Job struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	Request    string    `json:"request,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	OutputPath string    `json:"output_path,omitempty"`
	BatchPath  string    `json:"batch_path,omitempty"`
	Skipped    []int     `json:"skipped"`
	SizeBytes  int64     `json:"size_bytes"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Done reports whether the job reached a terminal status.
func (j *Job) Done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Analysis is everything derived from a script without storing it.
type Analysis struct {
	HasTimeRanges bool                       `json:"has_time_ranges"`
	Workflow      workflow.Workflow          `json:"workflow"`
	Scenes        []scene.Scene              `json:"scenes"`
	Shots         []footage.PlannedShot      `json:"planned_shots"`
	Checklist     []footage.ShotSpec         `json:"checklist"`
	Instructions  []string                   `json:"instructions"`
	Prompts       []footage.GenerationPrompt `json:"generation_prompts"`
}

func NewID() string {
	return uuid.NewString()
}
