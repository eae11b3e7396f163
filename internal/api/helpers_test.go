package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/auri/auri-agent/internal/db"
	"github.com/auri/auri-agent/internal/project"
)

const testToken = "test-token-0123456789"

const testScript = `0s-3s: "Hook line here"
🎥 Camera direction: close-up selfie
🖼 On-screen text: "Wait for it..."
3s-8s
✅ "Step one is coffee"
🎶 Music: lofi
8s-12s ✅ Follow for more
🎥 Camera direction: wide shot of kitchen
`

type testEnv struct {
	cfg     ServerConfig
	repo    project.Repository
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	repo := project.NewRepository(database.Conn())
	if err := repo.SetConfig(context.Background(), AuthTokenKey, testToken); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	outputDir := t.TempDir()
	cfg := ServerConfig{
		Version:    "test",
		OutputDir:  outputDir,
		Service:    project.NewService(repo, logger),
		Repository: repo,
		Runner:     project.NewRunner(repo, nil, outputDir, logger),
		Logger:     logger,
		StartTime:  time.Now().Add(-10 * time.Second),
		DeviceID:   "test-device",
	}
	return &testEnv{cfg: cfg, repo: repo, handler: NewRouter(cfg)}
}

// do sends an authenticated request through the full router. body may be
// nil, a string or any JSON-encodable value.
func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(t, method, path, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func newRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("json.Marshal error: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func (e *testEnv) createProject(t *testing.T) ProjectResponse {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/projects", CreateProjectRequest{Name: "Morning routine", Script: testScript, AssetsDir: "/clips"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create project status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var p ProjectResponse
	decodeInto(t, rr, &p)
	return p
}

func decodeJSONBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	return body
}

func decodeInto(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response body %q: %v", rr.Body.String(), err)
	}
}

func assertError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rr.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, status, rr.Body.String())
	}
	body := decodeJSONBody(t, rr)
	if got, _ := body["code"].(string); got != code {
		t.Errorf("error code = %q, want %q", got, code)
	}
}
