package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository persists projects, render jobs and agent config. Getters return
// (nil, nil) when the row does not exist.
type Repository interface {
	CreateProject(ctx context.Context, p *Project) error
	GetProject(ctx context.Context, id string) (*Project, error)
	ListProjects(ctx context.Context) ([]*Project, error)
	UpdateProject(ctx context.Context, p *Project) error
	DeleteProject(ctx context.Context, id string) error

	CreateJob(ctx context.Context, job *Job) error
	GetJob(ctx context.Context, id string) (*Job, error)
	ListJobs(ctx context.Context, limit int) ([]*Job, error)
	ListJobsByProject(ctx context.Context, projectID string) ([]*Job, error)
	ListPendingJobs(ctx context.Context) ([]*Job, error)
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobProgress(ctx context.Context, id string, progress int) error
	CompleteJob(ctx context.Context, job *Job) error
	CountJobsByStatus(ctx context.Context, status string) (int, error)

	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const projectColumns = `id, name, script, assets_dir, scenes, shots, selections, edits, plan, globals, created_at, updated_at`

func (r *SQLiteRepository) CreateProject(ctx context.Context, p *Project) error {
	cols, err := encodeProject(p)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Script, nullString(p.AssetsDir),
		cols.scenes, cols.shots, cols.selections, cols.edits, cols.plan, cols.globals,
		p.CreatedAt.UTC().Format(time.RFC3339), p.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *SQLiteRepository) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *SQLiteRepository) UpdateProject(ctx context.Context, p *Project) error {
	cols, err := encodeProject(p)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, script = ?, assets_dir = ?, scenes = ?, shots = ?,
			selections = ?, edits = ?, plan = ?, globals = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Script, nullString(p.AssetsDir),
		cols.scenes, cols.shots, cols.selections, cols.edits, cols.plan, cols.globals,
		p.UpdatedAt.UTC().Format(time.RFC3339), p.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *SQLiteRepository) DeleteProject(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

type projectCols struct {
	scenes, shots, selections, edits, plan, globals string
}

func encodeProject(p *Project) (projectCols, error) {
	var c projectCols
	fields := []struct {
		dst *string
		v   any
	}{
		{&c.scenes, p.Scenes},
		{&c.shots, p.Shots},
		{&c.selections, p.Selections},
		{&c.edits, p.Edits},
		{&c.plan, p.Plan},
		{&c.globals, p.Globals},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return c, fmt.Errorf("encode project %s: %w", p.ID, err)
		}
		*f.dst = string(b)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var p Project
	var assetsDir sql.NullString
	var c projectCols
	var createdAt, updatedAt string

	err := row.Scan(&p.ID, &p.Name, &p.Script, &assetsDir,
		&c.scenes, &c.shots, &c.selections, &c.edits, &c.plan, &c.globals,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	p.AssetsDir = assetsDir.String
	fields := []struct {
		src string
		v   any
	}{
		{c.scenes, &p.Scenes},
		{c.shots, &p.Shots},
		{c.selections, &p.Selections},
		{c.edits, &p.Edits},
		{c.plan, &p.Plan},
		{c.globals, &p.Globals},
	}
	for _, f := range fields {
		if err := json.Unmarshal([]byte(f.src), f.v); err != nil {
			return nil, fmt.Errorf("decode project %s: %w", p.ID, err)
		}
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}

const jobColumns = `id, project_id, status, progress, request, kind, output_path, batch_path, skipped, size_bytes, error, created_at, updated_at`

func (r *SQLiteRepository) CreateJob(ctx context.Context, j *Job) error {
	skipped, err := json.Marshal(orEmpty(j.Skipped))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, j.ID, j.ProjectID, j.Status, j.Progress, nullString(j.Request), nullString(j.Kind),
		nullString(j.OutputPath), nullString(j.BatchPath), string(skipped), j.SizeBytes, nullString(j.Error),
		j.CreatedAt.UTC().Format(time.RFC3339), j.UpdatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *SQLiteRepository) GetJob(ctx context.Context, id string) (*Job, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return j, err
}

func (r *SQLiteRepository) ListJobs(ctx context.Context, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.queryJobs(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id LIMIT ?`, limit)
}

func (r *SQLiteRepository) ListJobsByProject(ctx context.Context, projectID string) ([]*Job, error) {
	return r.queryJobs(ctx, `SELECT `+jobColumns+` FROM jobs WHERE project_id = ? ORDER BY created_at DESC, id`, projectID)
}

// ListPendingJobs returns queued jobs oldest first. rowid breaks ties between
// jobs created within the same second.
func (r *SQLiteRepository) ListPendingJobs(ctx context.Context) ([]*Job, error) {
	return r.queryJobs(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = 'pending' ORDER BY created_at ASC, rowid ASC`)
}

func (r *SQLiteRepository) queryJobs(ctx context.Context, query string, args ...any) ([]*Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := []*Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func scanJob(row rowScanner) (*Job, error) {
	var j Job
	var request, kind, outputPath, batchPath, errMsg sql.NullString
	var skipped, createdAt, updatedAt string

	err := row.Scan(&j.ID, &j.ProjectID, &j.Status, &j.Progress, &request, &kind,
		&outputPath, &batchPath, &skipped, &j.SizeBytes, &errMsg, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	j.Request = request.String
	j.Kind = kind.String
	j.OutputPath = outputPath.String
	j.BatchPath = batchPath.String
	j.Error = errMsg.String
	if err := json.Unmarshal([]byte(skipped), &j.Skipped); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", j.ID, err)
	}
	j.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	j.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &j, nil
}

func (r *SQLiteRepository) UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?
	`, status, nullString(errorMsg), nowString(), id)
	return err
}

func (r *SQLiteRepository) UpdateJobProgress(ctx context.Context, id string, progress int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE jobs SET progress = ?, updated_at = ? WHERE id = ?
	`, progress, nowString(), id)
	return err
}

// CompleteJob records a successful render's outputs.
func (r *SQLiteRepository) CompleteJob(ctx context.Context, j *Job) error {
	skipped, err := json.Marshal(orEmpty(j.Skipped))
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, progress = 100, kind = ?, output_path = ?, batch_path = ?,
			skipped = ?, size_bytes = ?, error = NULL, updated_at = ?
		WHERE id = ?
	`, JobStatusCompleted, nullString(j.Kind), nullString(j.OutputPath), nullString(j.BatchPath),
		string(skipped), j.SizeBytes, nowString(), j.ID)
	return err
}

func (r *SQLiteRepository) CountJobsByStatus(ctx context.Context, status string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE status = ?", status).Scan(&count)
	return count, err
}

func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

func (r *SQLiteRepository) SetConfig(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func orEmpty(v []int) []int {
	if v == nil {
		return []int{}
	}
	return v
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
