package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/auri/auri-agent/internal/assembly"
	"github.com/auri/auri-agent/internal/config"
	"github.com/auri/auri-agent/internal/project"
	"github.com/auri/auri-agent/internal/render"
	"github.com/auri/auri-agent/internal/workflow"
)

const testScript = `0s-3s: "Hook line here"
🎥 Camera direction: close-up selfie
🖼 On-screen text: "Wait for it..."
3s-8s
✅ "Step one is coffee"
🎶 Music: lofi
8s-12s ✅ Follow for more
🎥 Camera direction: wide shot of kitchen
`

// isolateConfig keeps the developer's ~/.auri and AURI_* variables out of
// the test.
func isolateConfig(t *testing.T) string {
	t.Helper()
	for _, k := range []string{
		config.EnvConfigFile, config.EnvPort, config.EnvLogLevel, config.EnvLogFormat,
		config.EnvLogFile, config.EnvOutputDir, config.EnvFFmpeg, config.EnvFFprobe,
		config.EnvVideoCodec, config.EnvFontFile, config.EnvFontSize,
		config.EnvRenderTimeout, config.EnvPollInterval,
	} {
		t.Setenv(k, "")
	}
	dir := t.TempDir()
	t.Setenv(config.EnvDataDir, dir)
	return dir
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q:\n%s", needle, haystack)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	isolateConfig(t)
	script := writeTestFile(t, t.TempDir(), "routine.txt", testScript)

	out, _, err := runCLI(t, "analyze", script)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "== Scenes ==")
	requireContains(t, out, "Hook line here")
	requireContains(t, out, "To film:    1 shot(s)")

	out, _, err = runCLI(t, "analyze", "--json", script)
	if err != nil {
		t.Fatalf("analyze --json: %v", err)
	}
	var a project.Analysis
	if err := json.Unmarshal([]byte(out), &a); err != nil {
		t.Fatalf("decode analysis: %v", err)
	}
	if len(a.Scenes) != 3 || len(a.Checklist) != 1 || !a.HasTimeRanges {
		t.Errorf("analysis = %+v", a)
	}
}

func TestAnalyzeCommand_Stdin(t *testing.T) {
	isolateConfig(t)
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("just some words with no timing"))
	cmd.SetArgs([]string{"analyze", "-"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("analyze -: %v", err)
	}
	requireContains(t, stdout.String(), "No scenes found")
}

func TestAnalyzeCommand_EmptyScript(t *testing.T) {
	isolateConfig(t)
	script := writeTestFile(t, t.TempDir(), "empty.txt", "  \n")
	if _, _, err := runCLI(t, "analyze", script); err == nil {
		t.Fatal("expected an error for an empty script")
	}
}

func TestChecklistCommand(t *testing.T) {
	isolateConfig(t)
	script := writeTestFile(t, t.TempDir(), "routine.txt", testScript)

	out, _, err := runCLI(t, "checklist", script)
	if err != nil {
		t.Fatalf("checklist: %v", err)
	}
	requireContains(t, out, "close-up selfie")
	requireContains(t, out, "Shooting instructions")
	requireContains(t, out, "Scene 3")
}

func TestWorkflowCommand(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	script := writeTestFile(t, dir, "routine.txt", testScript)
	steps := writeTestFile(t, dir, "steps.yaml", "- title: Ideas\n- title: Write Script\n- title: Captions\n")

	out, _, err := runCLI(t, "workflow", script, "--steps", steps, "--idea", "a reel", "--json")
	if err != nil {
		t.Fatalf("workflow: %v", err)
	}
	var exp workflow.Expansion
	if err := json.Unmarshal([]byte(out), &exp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !exp.Inserted || !exp.VideoIdeas || len(exp.Steps) != 6 || exp.Steps[2].Title != "Plan Footage" {
		t.Errorf("expansion = %+v", exp)
	}

	out, _, err = runCLI(t, "workflow", script, "--steps", steps)
	if err != nil {
		t.Fatalf("workflow table: %v", err)
	}
	requireContains(t, out, "== Workflow ==")
	requireContains(t, out, "Plan Footage")
	requireContains(t, out, "Video steps added.")

	bad := writeTestFile(t, dir, "bad.yaml", "title: [")
	if _, _, err := runCLI(t, "workflow", script, "--steps", bad); err == nil {
		t.Error("expected an error for a malformed steps file")
	}
}

func TestEditsCommand(t *testing.T) {
	isolateConfig(t)

	out, _, err := runCLI(t, "edits", "--json", "trim scene 2 to 2s", "and lower music by 4dB")
	if err != nil {
		t.Fatalf("edits: %v", err)
	}
	var resp struct {
		Commands []map[string]any `json:"commands"`
		Globals  assembly.Globals `json:"globals"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(resp.Commands) != 2 || resp.Globals.MusicGainDB != -4 {
		t.Errorf("resp = %+v", resp)
	}

	out, _, err = runCLI(t, "edits", "make it pop")
	if err != nil {
		t.Fatalf("edits: %v", err)
	}
	requireContains(t, out, "No edits recognized.")
}

func TestPlanCommand_WritesDocument(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	script := writeTestFile(t, dir, "routine.txt", testScript)
	sel := writeTestFile(t, dir, "selections.yaml", "scene_0:\n  filename: selfie.mp4\n")
	outPath := filepath.Join(dir, "plan.yaml")

	out, _, err := runCLI(t, "plan", script, "--selections", sel, "--edit", "speed up scene 1 by 2x", "--edit", "lower music by 3dB", "--out", outPath)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "Wrote 3-item plan")

	doc, err := readPlanDocument(outPath)
	if err != nil {
		t.Fatalf("readPlanDocument: %v", err)
	}
	if doc.Items[0].Filename != "selfie.mp4" || doc.Items[0].Speed != 2 {
		t.Errorf("scene 1 = %+v", doc.Items[0])
	}
	if doc.Globals.MusicGainDB != -3 {
		t.Errorf("globals = %+v", doc.Globals)
	}
}

func TestPlanCommand_TableAndFormats(t *testing.T) {
	isolateConfig(t)
	script := writeTestFile(t, t.TempDir(), "routine.txt", testScript)

	out, _, err := runCLI(t, "plan", script)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	requireContains(t, out, "missing")
	requireContains(t, out, "1 scene(s) have no footage")

	out, _, err = runCLI(t, "plan", script, "--format", "json")
	if err != nil {
		t.Fatalf("plan --format json: %v", err)
	}
	if err := assembly.Validate([]byte(out)); err != nil {
		t.Errorf("stdout is not a valid plan document: %v", err)
	}

	if _, _, err := runCLI(t, "plan", script, "--format", "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestPlanCommand_BadSelections(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	script := writeTestFile(t, dir, "routine.txt", testScript)
	sel := writeTestFile(t, dir, "selections.json", `{"first": {"filename": "x.mp4"}}`)

	if _, _, err := runCLI(t, "plan", script, "--selections", sel); err == nil {
		t.Fatal("expected an error for a bad selection key")
	}
}

func writeTestPlan(t *testing.T, dir string) string {
	t.Helper()
	script := writeTestFile(t, dir, "routine.txt", testScript)
	sel := writeTestFile(t, dir, "selections.json", `{"scene_0": {"filename": "selfie.mp4"}}`)
	planPath := filepath.Join(dir, "routine.json")
	if _, _, err := runCLI(t, "plan", script, "--selections", sel, "--out", planPath); err != nil {
		t.Fatalf("plan: %v", err)
	}
	return planPath
}

func TestRenderCommand_ScriptsOnly(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	planPath := writeTestPlan(t, dir)
	outPath := filepath.Join(dir, "out", "final.mp4")

	out, _, err := runCLI(t, "render", planPath, "--assets", dir, "--out", outPath, "--scripts-only", "--json", "--edit", "lower music by 5dB")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	var res render.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode result: %v\n%s", err, out)
	}
	if res.Kind != render.KindScript || res.Path != outPath+".sh" {
		t.Errorf("result = %+v", res)
	}
	if len(res.Rendered) != 1 || len(res.Skipped) != 2 {
		t.Errorf("rendered = %v, skipped = %v", res.Rendered, res.Skipped)
	}

	graph, err := os.ReadFile(res.GraphPath)
	if err != nil {
		t.Fatalf("read graph: %v", err)
	}
	requireContains(t, string(graph), "[a]volume=0.5623[aout]")
}

func TestRenderCommand_InvalidPlan(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	bad := writeTestFile(t, dir, "bad.json", `{"schema_version": "1", "items": "nope"}`)

	if _, _, err := runCLI(t, "render", bad, "--scripts-only"); err == nil {
		t.Fatal("expected schema validation to fail")
	}
}

func TestExportEDLCommand(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	planPath := writeTestPlan(t, dir)

	out, _, err := runCLI(t, "export", "edl", planPath, "--assets", "/clips")
	if err != nil {
		t.Fatalf("export edl: %v", err)
	}
	requireContains(t, out, "TITLE: routine")
	requireContains(t, out, "/clips/selfie.mp4")

	outDir := t.TempDir()
	out, _, err = runCLI(t, "export", "edl", planPath, "--title", "Morning routine", "--out-dir", outDir)
	if err != nil {
		t.Fatalf("export edl --out-dir: %v", err)
	}
	requireContains(t, out, "Scenes without a file were left out: 2, 3")
	if _, err := os.Stat(filepath.Join(outDir, "Morning routine.edl")); err != nil {
		t.Errorf("edl not written: %v", err)
	}
}

func TestExportChecklistCommand(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	script := writeTestFile(t, dir, "routine.txt", testScript)

	out, _, err := runCLI(t, "export", "checklist", script, "--out-dir", dir)
	if err != nil {
		t.Fatalf("export checklist: %v", err)
	}
	requireContains(t, out, "Wrote 1 shot(s)")

	data, err := os.ReadFile(filepath.Join(dir, "routine.pdf"))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestConfigInitAndShow(t *testing.T) {
	isolateConfig(t)
	target := filepath.Join(t.TempDir(), "config.toml")

	out, _, err := runCLI(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, "config", "init", "--path", target); err == nil {
		t.Error("expected init to refuse to overwrite")
	}

	out, _, err = runCLI(t, "--config", target, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "Config file: "+target)
	requireContains(t, out, "render.video_codec")
	requireContains(t, out, "libx264")
}

func TestConfigShow_MissingExplicitFile(t *testing.T) {
	isolateConfig(t)
	missing := filepath.Join(t.TempDir(), "absent.toml")
	if _, _, err := runCLI(t, "--config", missing, "config", "show"); err == nil {
		t.Fatal("expected an error for a missing --config file")
	}
}

func TestPlanTitle(t *testing.T) {
	tests := map[string]string{
		"/tmp/launch.yaml": "launch",
		"routine.txt":      "routine",
		"noext":            "noext",
		"-":                "Untitled",
	}
	for in, want := range tests {
		if got := planTitle(in); got != want {
			t.Errorf("planTitle(%q) = %q, want %q", in, got, want)
		}
	}
}
