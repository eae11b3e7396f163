// Package scene turns emoji-annotated short-form video scripts into an ordered
// list of timed scenes. Parsing is best-effort: malformed input degrades to
// fewer (or zero) scenes and never returns an error.
package scene

import (
	"fmt"
	"strings"
)

// Scene is one narrated, time-bounded segment of a script.
type Scene struct {
	StartSeconds int    `json:"start_seconds" yaml:"start_seconds"`
	EndSeconds   int    `json:"end_seconds" yaml:"end_seconds"`
	Narration    string `json:"text" yaml:"text"`
	Camera       string `json:"camera" yaml:"camera"`
	Lighting     string `json:"lighting" yaml:"lighting"`
	Music        string `json:"music" yaml:"music"`
	Transition   string `json:"transition" yaml:"transition"`
	OnscreenText string `json:"onscreen_text" yaml:"onscreen_text"`
}

// Start returns the display label of the scene start, e.g. "0s".
func (s Scene) Start() string {
	return fmt.Sprintf("%ds", s.StartSeconds)
}

// End returns the display label of the scene end, e.g. "3s".
func (s Scene) End() string {
	return fmt.Sprintf("%ds", s.EndSeconds)
}

// Duration returns the scene length in seconds. Scenes with inverted
// boundaries report zero.
func (s Scene) Duration() int {
	if s.EndSeconds <= s.StartSeconds {
		return 0
	}
	return s.EndSeconds - s.StartSeconds
}

// fieldLabels are the label prefixes the script generator writes after each
// annotation emoji. They are stripped by StripLabels.
var fieldLabels = struct {
	camera, lighting, music, transition, onscreen []string
}{
	camera:     []string{"Camera direction:", "Camera:", "Shot:"},
	lighting:   []string{"Lighting suggestion:", "Lighting:"},
	music:      []string{"Music style suggestion:", "Music suggestion:", "Music:"},
	transition: []string{"Transition suggestion:", "Transition:"},
	onscreen:   []string{"On-screen text:", "Onscreen text:", "On-screen:", "Text overlay:"},
}

// CleanLabel removes a leading label (case-insensitive) and surrounding
// quotes and spaces from text.
func CleanLabel(text, prefix string) string {
	if hasLabel(text, prefix) {
		text = text[len(prefix):]
	}
	return strings.Trim(strings.TrimSpace(text), `"`)
}

func hasLabel(text, prefix string) bool {
	return len(text) >= len(prefix) && strings.EqualFold(text[:len(prefix)], prefix)
}

func cleanAny(text string, prefixes []string) string {
	for _, p := range prefixes {
		if hasLabel(text, p) {
			return CleanLabel(text, p)
		}
	}
	return text
}

// StripLabels returns a copy of scenes with the generator's annotation labels
// ("Camera direction:", "On-screen text:", ...) removed from every field.
func StripLabels(scenes []Scene) []Scene {
	out := make([]Scene, len(scenes))
	for i, sc := range scenes {
		sc.Camera = cleanAny(sc.Camera, fieldLabels.camera)
		sc.Lighting = cleanAny(sc.Lighting, fieldLabels.lighting)
		sc.Music = cleanAny(sc.Music, fieldLabels.music)
		sc.Transition = cleanAny(sc.Transition, fieldLabels.transition)
		sc.OnscreenText = cleanAny(sc.OnscreenText, fieldLabels.onscreen)
		out[i] = sc
	}
	return out
}

// ShootingInstructions renders human-readable filming guidance, one block per
// scene. Empty fields are omitted.
func ShootingInstructions(scenes []Scene) []string {
	out := make([]string, 0, len(scenes))
	for i, sc := range scenes {
		seg := []string{fmt.Sprintf("Scene %d (%s–%s)", i+1, sc.Start(), sc.End())}
		if sc.Camera != "" {
			seg = append(seg, "• Shot: "+sc.Camera)
		}
		if sc.Lighting != "" {
			seg = append(seg, "• Lighting: "+sc.Lighting)
		}
		if sc.Narration != "" {
			seg = append(seg, "• Narration focus: “"+sc.Narration+"”")
		}
		if sc.OnscreenText != "" {
			seg = append(seg, "• On-screen text: "+sc.OnscreenText)
		}
		if sc.Music != "" {
			seg = append(seg, "• Music: "+sc.Music)
		}
		if sc.Transition != "" {
			seg = append(seg, "• Transition: "+sc.Transition)
		}
		out = append(out, strings.Join(seg, "\n"))
	}
	return out
}
