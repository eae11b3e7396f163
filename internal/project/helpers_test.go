package project

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/auri/auri-agent/internal/db"
	"github.com/auri/auri-agent/internal/render"
)

const testScript = `Title: Morning routine hacks

0s–3s: "Hook line here"
🎥 Camera direction: close-up selfie
🖼 On-screen text: "Wait for it..."
3s-8s
✅ "Step one is coffee"
🎶 Music: lofi
8s – 12s ✅ Follow for more
🎥 Camera direction: wide shot of kitchen
`

func setupTestDB(t *testing.T) Repository {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewRepository(database.Conn())
}

type fakeRenderer struct {
	mu   sync.Mutex
	jobs []render.Job
	fn   func(ctx context.Context, job render.Job) (render.Result, error)
}

func (f *fakeRenderer) Render(ctx context.Context, job render.Job) (render.Result, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, job)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(ctx, job)
	}
	return render.Result{
		Kind:      render.KindScript,
		Path:      job.OutPath + ".sh",
		BatchPath: job.OutPath + ".bat",
		Skipped:   job.Plan.Missing(),
	}, nil
}

func (f *fakeRenderer) calls() []render.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]render.Job(nil), f.jobs...)
}
