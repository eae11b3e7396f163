package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/edit"
	"github.com/auri/auri-agent/internal/footage"
	"github.com/auri/auri-agent/internal/scene"
	"github.com/auri/auri-agent/internal/workflow"
)

// Analyze runs the parsing and planning stages over a script. Labels such as
// "Camera:" are stripped from scene fields before planning.
func Analyze(script string) Analysis {
	scenes := scene.StripLabels(scene.Parse(script))
	shots := footage.Plan(scenes)
	return Analysis{
		HasTimeRanges: scene.ContainsTimeRanges(script),
		Workflow:      workflow.Determine(script),
		Scenes:        scenes,
		Shots:         shots,
		Checklist:     footage.Reduce(shots),
		Instructions:  scene.ShootingInstructions(scenes),
		Prompts:       footage.GenerationPrompts(scenes),
	}
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// CreateProject analyzes the script and stores it with a plan built from the
// planner's suggestions.
func (s *Service) CreateProject(ctx context.Context, name, script, assetsDir string) (*Project, error) {
	if strings.TrimSpace(script) == "" {
		return nil, ErrEmptyScript
	}
	a := Analyze(script)
	if strings.TrimSpace(name) == "" {
		name = defaultName(a.Scenes)
	}

	now := s.now()
	p := &Project{
		ID:         NewID(),
		Name:       strings.TrimSpace(name),
		Script:     script,
		AssetsDir:  assetsDir,
		Scenes:     a.Scenes,
		Shots:      a.Shots,
		Selections: assembly.Selections{},
		Edits:      []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	rebuild(p)

	if err := s.repo.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info("project created", "project_id", p.ID, "scenes", len(p.Scenes), "missing_footage", len(p.Plan.Missing()))
	return p, nil
}

func defaultName(scenes []scene.Scene) string {
	for _, sc := range scenes {
		if n := strings.TrimSpace(sc.Narration); n != "" {
			if r := []rune(n); len(r) > 48 {
				n = strings.TrimSpace(string(r[:48])) + "…"
			}
			return n
		}
	}
	return "Untitled project"
}

func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := s.repo.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.repo.ListProjects(ctx)
}

func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("project %s: %w", id, err)
	}
	s.logger.Info("project deleted", "project_id", id)
	return nil
}

// SetSelections replaces the project's footage selections and rebuilds the
// plan, replaying the edit history on top.
func (s *Service) SetSelections(ctx context.Context, id string, sel assembly.Selections) (*Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if sel == nil {
		sel = assembly.Selections{}
	}
	p.Selections = sel
	rebuild(p)
	return p, s.save(ctx, p)
}

// ApplyEdit appends a free-text edit request to the project's history and
// returns the commands it produced. A request that yields no commands is
// still recorded so the history mirrors what the creator asked for.
func (s *Service) ApplyEdit(ctx context.Context, id, request string) (*Project, []edit.Command, error) {
	if strings.TrimSpace(request) == "" {
		return nil, nil, ErrEmptyRequest
	}
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	cmds := edit.Parse(request)
	p.Edits = append(p.Edits, request)
	rebuild(p)
	if err := s.save(ctx, p); err != nil {
		return nil, nil, err
	}
	s.logger.Info("edit applied", "project_id", id, "commands", len(cmds))
	return p, cmds, nil
}

// ClearEdits drops the edit history and restores the unedited plan.
func (s *Service) ClearEdits(ctx context.Context, id string) (*Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Edits = []string{}
	rebuild(p)
	return p, s.save(ctx, p)
}

func (s *Service) Checklist(ctx context.Context, id string) ([]footage.ShotSpec, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	return footage.Reduce(p.Shots), nil
}

// QueueRender creates a pending render job. request is an optional one-off
// edit applied to the plan for this render only.
func (s *Service) QueueRender(ctx context.Context, id, request string) (*Job, error) {
	if _, err := s.GetProject(ctx, id); err != nil {
		return nil, err
	}
	now := s.now()
	job := &Job{
		ID:        NewID(),
		ProjectID: id,
		Status:    JobStatusPending,
		Request:   strings.TrimSpace(request),
		Skipped:   []int{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create render job: %w", err)
	}
	s.logger.Info("render queued", "job_id", job.ID, "project_id", id)
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	j, err := s.repo.GetJob(ctx, id)
	if err != nil {
		return nil, err
	}
	if j == nil {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return j, nil
}

func (s *Service) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	return s.repo.ListJobs(ctx, limit)
}

func (s *Service) ListProjectJobs(ctx context.Context, projectID string) ([]*Job, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListJobsByProject(ctx, projectID)
}

func (s *Service) save(ctx context.Context, p *Project) error {
	p.UpdatedAt = s.now()
	if err := s.repo.UpdateProject(ctx, p); err != nil {
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	return nil
}

// rebuild recomputes the plan and globals from shots, selections and the
// full edit history.
func rebuild(p *Project) {
	p.Plan, p.Globals = assembly.Replay(assembly.Build(p.Shots, p.Selections), p.Edits)
}
