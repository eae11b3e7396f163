// Package assembly merges planned shots with the creator's footage
// selections into an editable assembly plan and applies edit commands to it.
//
// Every function here returns a new plan; inputs are never mutated.
package assembly

import (
	"fmt"

	"github.com/auri/auri-agent/internal/edit"
	"github.com/auri/auri-agent/internal/footage"
)

const (
	ZoomIn = "in"

	minTrimSeconds = 0.2
	minSpeed       = 0.1
)

// Selection is the creator's per-scene footage choice. A nil UseStock means
// the creator did not decide and the planner's suggestion applies.
type Selection struct {
	UseStock *bool  `json:"use_stock,omitempty" yaml:"use_stock,omitempty"`
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`
}

// Selections are keyed by SelectionKey.
type Selections map[string]Selection

// SelectionKey returns the selections key of a 0-based scene index.
func SelectionKey(sceneIndex int) string {
	return fmt.Sprintf("scene_%d", sceneIndex)
}

// Item is the render instruction for one scene.
type Item struct {
	SceneIndex   int     `json:"scene_index" yaml:"scene_index"`
	UseStock     bool    `json:"use_stock" yaml:"use_stock"`
	Filename     string  `json:"filename,omitempty" yaml:"filename,omitempty"`
	Visual       string  `json:"visual" yaml:"visual"`
	OnscreenText string  `json:"onscreen_text" yaml:"onscreen_text"`
	Music        string  `json:"music" yaml:"music"`
	Transition   string  `json:"transition" yaml:"transition"`
	StartSeconds float64 `json:"start_seconds" yaml:"start_seconds"`
	EndSeconds   float64 `json:"end_seconds" yaml:"end_seconds"`
	Speed        float64 `json:"speed" yaml:"speed"`
	Zoom         *string `json:"zoom" yaml:"zoom"`
	Caption      *string `json:"caption" yaml:"caption"`
}

// MissingFootage reports whether the item has neither stock footage nor a
// user clip. Such items are kept in the plan and skipped at render time.
func (it Item) MissingFootage() bool {
	return !it.UseStock && it.Filename == ""
}

// Duration is the source span of the item before any speed change.
func (it Item) Duration() float64 {
	return it.EndSeconds - it.StartSeconds
}

// Plan is an ordered list of items, one per scene.
type Plan []Item

// Clone returns a deep copy of the plan.
func (p Plan) Clone() Plan {
	if p == nil {
		return nil
	}
	out := make(Plan, len(p))
	for i, it := range p {
		it.Zoom = cloneString(it.Zoom)
		it.Caption = cloneString(it.Caption)
		out[i] = it
	}
	return out
}

// Missing returns the scene indexes of items with missing footage.
func (p Plan) Missing() []int {
	out := []int{}
	for _, it := range p {
		if it.MissingFootage() {
			out = append(out, it.SceneIndex)
		}
	}
	return out
}

// TotalSeconds sums the source span of every item.
func (p Plan) TotalSeconds() float64 {
	total := 0.0
	for _, it := range p {
		total += it.Duration()
	}
	return total
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Build creates one item per planned shot. A scene without a selection uses
// stock footage unless the planner asked for a user upload.
func Build(planned []footage.PlannedShot, selections Selections) Plan {
	out := make(Plan, 0, len(planned))
	for _, ps := range planned {
		sel := selections[SelectionKey(ps.SceneIndex)]
		useStock := !ps.RequiresUserUpload
		if sel.UseStock != nil {
			useStock = *sel.UseStock
		}
		out = append(out, Item{
			SceneIndex:   ps.SceneIndex,
			UseStock:     useStock,
			Filename:     sel.Filename,
			Visual:       ps.Visual,
			OnscreenText: ps.OnscreenText,
			Music:        ps.Music,
			Transition:   ps.Transition,
			StartSeconds: ps.StartSeconds,
			EndSeconds:   ps.EndSeconds,
			Speed:        1.0,
		})
	}
	return out
}

// Apply returns a copy of plan with the scene-targeted commands applied.
// Commands address scenes 1-based. Whole-timeline commands (music gain,
// crossfade) are left for the renderer; see GlobalsFrom. Trims are computed
// from the item start, so applying the same trim twice has no further effect.
func Apply(plan Plan, cmds []edit.Command) Plan {
	out := plan.Clone()
	for _, cmd := range cmds {
		n, ok := cmd.SceneNumber()
		if !ok {
			continue
		}
		for i := range out {
			if out[i].SceneIndex == n-1 {
				applyOne(&out[i], cmd)
			}
		}
	}
	return out
}

func applyOne(it *Item, cmd edit.Command) {
	switch cmd.Type {
	case edit.TypeTrim:
		if v, ok := cmd.Float(); ok {
			it.EndSeconds = it.StartSeconds + max(minTrimSeconds, v)
		}
	case edit.TypeSpeed:
		if v, ok := cmd.Float(); ok {
			it.Speed = max(minSpeed, v)
		}
	case edit.TypeZoom:
		z := cmd.Text()
		it.Zoom = &z
	case edit.TypeCaption:
		c := cmd.Text()
		it.Caption = &c
	}
}

// Globals are the whole-timeline render settings.
type Globals struct {
	MusicGainDB float64 `json:"music_gain_db" yaml:"music_gain_db"`
	CrossfadeMs int     `json:"crossfade_ms" yaml:"crossfade_ms"`
}

// GlobalsFrom collects the whole-timeline commands. When a setting appears
// more than once the last command wins.
func GlobalsFrom(cmds []edit.Command) Globals {
	var g Globals
	for _, cmd := range cmds {
		switch {
		case cmd.Type == edit.TypeMusicGain && cmd.Target == edit.TargetGlobal:
			if v, ok := cmd.Float(); ok {
				g.MusicGainDB = v
			}
		case cmd.Type == edit.TypeTransition && cmd.Target == edit.TargetBetweenScenes:
			if v, ok := cmd.Float(); ok {
				g.CrossfadeMs = int(v)
			}
		}
	}
	return g
}

// Merge overlays the non-zero settings of next onto g.
func (g Globals) Merge(next Globals) Globals {
	if next.MusicGainDB != 0 {
		g.MusicGainDB = next.MusicGainDB
	}
	if next.CrossfadeMs != 0 {
		g.CrossfadeMs = next.CrossfadeMs
	}
	return g
}

// Replay applies edit requests to plan in order. Later requests see the
// result of earlier ones and override their timeline settings.
func Replay(plan Plan, requests []string) (Plan, Globals) {
	var g Globals
	for _, req := range requests {
		cmds := edit.Parse(req)
		plan = Apply(plan, cmds)
		g = g.Merge(GlobalsFrom(cmds))
	}
	return plan, g
}
