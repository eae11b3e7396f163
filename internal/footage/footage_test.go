package footage

import (
	"testing"

	"github.com/auri/auri-agent/internal/scene"
)

const endToEndScript = `0s–2s: "Open with a question"
🎥 Camera direction: your selfie camera
2s–5s: "Show the product"
🎥 Camera direction: overhead shot of desk
`

func TestPlan_EndToEndScript(t *testing.T) {
	scenes := scene.Parse(endToEndScript)
	if len(scenes) != 2 {
		t.Fatalf("len(scenes) = %d, want 2", len(scenes))
	}

	planned := Plan(scenes)
	if len(planned) != 2 {
		t.Fatalf("len(planned) = %d, want 2", len(planned))
	}
	if !planned[0].RequiresUserUpload || planned[0].SuggestedSource != SourceUserUpload {
		t.Errorf("planned[0] = %+v, want user upload", planned[0])
	}
	if planned[1].RequiresUserUpload || planned[1].SuggestedSource != SourceStock {
		t.Errorf("planned[1] = %+v, want stock", planned[1])
	}
	if planned[1].SceneIndex != 1 || planned[1].StartSeconds != 2 || planned[1].EndSeconds != 5 {
		t.Errorf("planned[1] timing = %+v", planned[1])
	}

	checklist := Reduce(planned)
	if len(checklist) != 1 {
		t.Fatalf("len(checklist) = %d, want 1", len(checklist))
	}
	if checklist[0].ShotType != "Talking head / selfie" {
		t.Errorf("ShotType = %q", checklist[0].ShotType)
	}
	if checklist[0].Duration != 2.0 {
		t.Errorf("Duration = %v, want 2.0", checklist[0].Duration)
	}
	if !checklist[0].RequiresUserUpload {
		t.Error("checklist entries must require upload")
	}
}

func TestPlan_NoUploadNeeded(t *testing.T) {
	scenes := []scene.Scene{
		{StartSeconds: 0, EndSeconds: 3, Camera: "Drone shot of a beach"},
		{StartSeconds: 3, EndSeconds: 6, Camera: "Overhead flat lay"},
		{StartSeconds: 6, EndSeconds: 9},
	}
	planned := Plan(scenes)
	for _, p := range planned {
		if p.RequiresUserUpload {
			t.Errorf("scene %d unexpectedly requires upload", p.SceneIndex)
		}
	}
	if got := Reduce(planned); len(got) != 0 {
		t.Errorf("Reduce() = %+v, want empty", got)
	}
}

func TestReduce_DeduplicatesNormalizedVisuals(t *testing.T) {
	planned := []PlannedShot{
		{SceneIndex: 0, Visual: "Selfie talking", RequiresUserUpload: true, StartSeconds: 0, EndSeconds: 4, Music: "lofi"},
		{SceneIndex: 1, Visual: "SELFIE TALKING ", RequiresUserUpload: true, StartSeconds: 4, EndSeconds: 10, Music: "rock"},
	}
	got := Reduce(planned)
	if len(got) != 1 {
		t.Fatalf("len(Reduce) = %d, want 1", len(got))
	}
	if got[0].SceneIndex != 0 || got[0].Music != "lofi" || got[0].Duration != 4 {
		t.Errorf("first occurrence not kept: %+v", got[0])
	}
}

func TestReduce_MinimumDurationAndDefaults(t *testing.T) {
	planned := []PlannedShot{
		{SceneIndex: 0, Visual: "", RequiresUserUpload: true, StartSeconds: 5, EndSeconds: 5},
		{SceneIndex: 1, Visual: "", RequiresUserUpload: true, StartSeconds: 5, EndSeconds: 9},
	}
	got := Reduce(planned)
	if len(got) != 1 {
		t.Fatalf("empty visuals should share one key, got %d entries", len(got))
	}
	if got[0].Duration != 1.0 {
		t.Errorf("Duration = %v, want 1.0", got[0].Duration)
	}
	if got[0].Description != "User-specific shot" {
		t.Errorf("Description = %q", got[0].Description)
	}
	if got[0].ShotType != "General / B-roll" {
		t.Errorf("ShotType = %q", got[0].ShotType)
	}
}

func TestInferShotType(t *testing.T) {
	tests := []struct {
		camera string
		want   string
	}{
		{"Front camera, handheld", "Talking head / selfie"},
		{"TOP DOWN of the desk", "Overhead"},
		{"macro of coffee beans", "Close-up"},
		{"Establishing shot of the city", "Wide"},
		{"Drone footage", "General / B-roll"},
		{"selfie close-up", "Talking head / selfie"},
		{"", "General / B-roll"},
	}
	for _, tt := range tests {
		if got := InferShotType(tt.camera); got != tt.want {
			t.Errorf("InferShotType(%q) = %q, want %q", tt.camera, got, tt.want)
		}
	}
}

func TestGenerationPrompts(t *testing.T) {
	scenes := []scene.Scene{
		{StartSeconds: 0, EndSeconds: 3, Camera: "wide", Narration: "Hello"},
		{StartSeconds: 3, EndSeconds: 3},
	}
	got := GenerationPrompts(scenes)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Scene != "1" || got[0].DurationHint != "3s" || got[0].Prompt != "Shot: wide | Narration: Hello" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].DurationHint != "1s" || got[1].Prompt != "General scene consistent with script" {
		t.Errorf("got[1] = %+v", got[1])
	}
}
