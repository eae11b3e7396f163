// Package footage derives footage requirements from parsed scenes: one
// planned shot per scene, and a deduplicated checklist of the shots the
// creator has to film personally.
package footage

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/auri/auri-agent/internal/scene"
)

const (
	SourceUserUpload = "user_upload"
	SourceStock      = "stock"

	generalKey         = "general"
	defaultDescription = "User-specific shot"
	minShotDuration    = 1.0
)

// uploadKeywords mark a camera direction that references the creator
// personally.
var uploadKeywords = []string{"your", "you", "selfie", "personal", "custom"}

// PlannedShot is the footage requirement for one scene.
type PlannedShot struct {
	SceneIndex         int     `json:"scene_index" yaml:"scene_index"`
	Visual             string  `json:"visual" yaml:"visual"`
	OnscreenText       string  `json:"onscreen_text" yaml:"onscreen_text"`
	Music              string  `json:"music" yaml:"music"`
	Transition         string  `json:"transition" yaml:"transition"`
	RequiresUserUpload bool    `json:"requires_user_upload" yaml:"requires_user_upload"`
	SuggestedSource    string  `json:"suggested_source" yaml:"suggested_source"`
	StartSeconds       float64 `json:"start_seconds" yaml:"start_seconds"`
	EndSeconds         float64 `json:"end_seconds" yaml:"end_seconds"`
}

// ShotSpec is one entry of the minimal filming checklist.
type ShotSpec struct {
	SceneIndex         int     `json:"scene_index"`
	Duration           float64 `json:"duration"`
	ShotType           string  `json:"shot_type"`
	Description        string  `json:"description"`
	RequiresUserUpload bool    `json:"requires_user_upload"`
	OnscreenText       string  `json:"onscreen_text"`
	Music              string  `json:"music"`
	Transition         string  `json:"transition"`
}

// Plan maps every scene to a planned shot, preserving order. Classification
// is a keyword heuristic on the camera direction and is expected to be
// reviewed by the creator.
func Plan(scenes []scene.Scene) []PlannedShot {
	out := make([]PlannedShot, 0, len(scenes))
	for i, sc := range scenes {
		visual := strings.TrimSpace(sc.Camera)
		upload := RequiresUpload(visual)
		source := SourceStock
		if upload {
			source = SourceUserUpload
		}
		out = append(out, PlannedShot{
			SceneIndex:         i,
			Visual:             visual,
			OnscreenText:       strings.TrimSpace(sc.OnscreenText),
			Music:              strings.TrimSpace(sc.Music),
			Transition:         strings.TrimSpace(sc.Transition),
			RequiresUserUpload: upload,
			SuggestedSource:    source,
			StartSeconds:       float64(sc.StartSeconds),
			EndSeconds:         float64(sc.EndSeconds),
		})
	}
	return out
}

// RequiresUpload reports whether a camera direction asks for the creator's
// own footage.
func RequiresUpload(visual string) bool {
	lower := strings.ToLower(visual)
	for _, kw := range uploadKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Reduce returns the smallest set of shots the creator must film: upload
// shots only, one per distinct visual description. The first occurrence of
// a visual wins; per-scene text, music and transition of later duplicates
// are not carried over, so the planned shots stay the source of truth for
// assembly.
func Reduce(planned []PlannedShot) []ShotSpec {
	seen := make(map[string]struct{})
	out := []ShotSpec{}
	for _, p := range planned {
		if !p.RequiresUserUpload {
			continue
		}
		key := dedupKey(p.Visual)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		desc := p.Visual
		if desc == "" {
			desc = defaultDescription
		}
		out = append(out, ShotSpec{
			SceneIndex:         p.SceneIndex,
			Duration:           max(minShotDuration, p.EndSeconds-p.StartSeconds),
			ShotType:           InferShotType(p.Visual),
			Description:        desc,
			RequiresUserUpload: true,
			OnscreenText:       p.OnscreenText,
			Music:              p.Music,
			Transition:         p.Transition,
		})
	}
	return out
}

func dedupKey(visual string) string {
	v := strings.TrimSpace(visual)
	if v == "" {
		return generalKey
	}
	return cases.Fold().String(v)
}

// shotTypes are checked in priority order; the first category with a
// matching keyword wins.
var shotTypes = []struct {
	name     string
	keywords []string
}{
	{"Talking head / selfie", []string{"selfie", "front camera", "talking head"}},
	{"Overhead", []string{"overhead", "top down"}},
	{"Close-up", []string{"close", "macro"}},
	{"Wide", []string{"wide", "establishing"}},
}

// InferShotType classifies a camera direction into a coarse shot category.
func InferShotType(camera string) string {
	lower := strings.ToLower(camera)
	for _, st := range shotTypes {
		for _, kw := range st.keywords {
			if strings.Contains(lower, kw) {
				return st.name
			}
		}
	}
	return "General / B-roll"
}

// GenerationPrompt is a per-scene request for an external AI video generator.
type GenerationPrompt struct {
	Scene        string `json:"scene"`
	DurationHint string `json:"duration_hint"`
	Prompt       string `json:"prompt"`
}

// GenerationPrompts builds one provider-agnostic prompt per scene.
func GenerationPrompts(scenes []scene.Scene) []GenerationPrompt {
	out := make([]GenerationPrompt, 0, len(scenes))
	for i, sc := range scenes {
		var parts []string
		if sc.Camera != "" {
			parts = append(parts, "Shot: "+sc.Camera)
		}
		if sc.Lighting != "" {
			parts = append(parts, "Lighting: "+sc.Lighting)
		}
		if sc.Narration != "" {
			parts = append(parts, "Narration: "+sc.Narration)
		}
		if sc.OnscreenText != "" {
			parts = append(parts, "On-screen: "+sc.OnscreenText)
		}
		prompt := strings.Join(parts, " | ")
		if prompt == "" {
			prompt = "General scene consistent with script"
		}
		out = append(out, GenerationPrompt{
			Scene:        fmt.Sprint(i + 1),
			DurationHint: fmt.Sprintf("%ds", max(1, sc.EndSeconds-sc.StartSeconds)),
			Prompt:       prompt,
		})
	}
	return out
}
