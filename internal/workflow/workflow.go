// Package workflow decides which production steps a generated script needs
// and splices the video steps into a creator's step list.
package workflow

import (
	"strings"

	"github.com/auri/auri-agent/internal/scene"
)

// Workflow flags the production stages a script requires.
type Workflow struct {
	NeedsVideo     bool `json:"needs_video"`
	NeedsVoiceover bool `json:"needs_voiceover"`
	NeedsThumbnail bool `json:"needs_thumbnail"`
}

// Step is one entry of the creator's plan: a title, what the assistant does
// and what the user is asked to do.
type Step struct {
	Title string `json:"title" yaml:"title"`
	Auri  string `json:"auri" yaml:"auri"`
	User  string `json:"user" yaml:"user"`
}

// Expansion is the outcome of Expand.
type Expansion struct {
	Workflow   Workflow `json:"workflow"`
	VideoIdeas bool     `json:"video_ideas"`
	Inserted   bool     `json:"inserted"`
	Steps      []Step   `json:"steps"`
}

var videoKeywords = []string{"reel", "short", "tiktok", "voiceover", "video", "skit", "b-roll"}

// Determine derives the workflow from a script. A script with scene time
// ranges needs video, voiceover and a thumbnail; anything else needs none.
func Determine(script string) Workflow {
	v := scene.ContainsTimeRanges(script)
	return Workflow{NeedsVideo: v, NeedsVoiceover: v, NeedsThumbnail: v}
}

// DetectVideoIdeas reports whether any idea mentions a video format.
func DetectVideoIdeas(ideas []string) bool {
	for _, idea := range ideas {
		lower := strings.ToLower(idea)
		for _, kw := range videoKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// VideoSteps returns the steps added to a plan once a script needs video.
func VideoSteps() []Step {
	return []Step{
		{
			Title: "Plan Footage",
			Auri:  "I will analyze your script scenes and help you decide whether to upload footage or auto-generate visuals.",
			User:  "Upload any video clips you'd like to use, or skip to auto-generate.",
		},
		{
			Title: "Generate Voiceover",
			Auri:  "I will create a voiceover narration for your video scenes.",
			User:  "Optionally upload a sample of your voice (WAV/MP3) or confirm using AI voice.",
		},
		{
			Title: "Assemble Video",
			Auri:  "I will combine your footage, voiceover, and on-screen text into a complete video.",
			User:  "Review the final video and confirm if you'd like any edits.",
		},
	}
}

// InsertVideoSteps returns a new step list with the video steps placed
// directly after position after (0-based). Out of range positions are
// clamped. Plans that already contain "Plan Footage" are returned unchanged.
func InsertVideoSteps(steps []Step, after int) []Step {
	for _, s := range steps {
		if strings.EqualFold(s.Title, "Plan Footage") {
			return append([]Step(nil), steps...)
		}
	}

	at := after + 1
	if at < 0 {
		at = 0
	}
	if at > len(steps) {
		at = len(steps)
	}

	video := VideoSteps()
	out := make([]Step, 0, len(steps)+len(video))
	out = append(out, steps[:at]...)
	out = append(out, video...)
	return append(out, steps[at:]...)
}

// ScriptStepIndex returns the index of the first step whose title mentions
// "script", or -1.
func ScriptStepIndex(steps []Step) int {
	for i, s := range steps {
		if strings.Contains(strings.ToLower(s.Title), "script") {
			return i
		}
	}
	return -1
}

// Expand reads the workflow from script and, when it needs video, splices
// the video steps in right after the script step (or at the end when the
// plan has none). The ideas only feed VideoIdeas; they never trigger an
// insertion on their own.
func Expand(steps []Step, ideas []string, script string) Expansion {
	exp := Expansion{
		Workflow:   Determine(script),
		VideoIdeas: DetectVideoIdeas(ideas),
		Steps:      append([]Step{}, steps...),
	}
	if !exp.Workflow.NeedsVideo {
		return exp
	}

	after := ScriptStepIndex(steps)
	if after < 0 {
		after = len(steps) - 1
	}
	exp.Steps = InsertVideoSteps(steps, after)
	exp.Inserted = len(exp.Steps) > len(steps)
	return exp
}
