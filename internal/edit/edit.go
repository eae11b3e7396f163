// Package edit turns informal editing requests such as "trim scene 2 to
// 1.5s" or "lower music by 6dB" into structured commands.
package edit

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Type identifies the kind of edit a Command carries.
type Type string

const (
	TypeTrim       Type = "trim"
	TypeSpeed      Type = "speed"
	TypeZoom       Type = "zoom"
	TypeCaption    Type = "caption"
	TypeMusicGain  Type = "music_gain"
	TypeTransition Type = "transition"
)

const (
	TargetGlobal        = "global"
	TargetBetweenScenes = "between_scenes"

	scenePrefix = "scene:"

	defaultMusicGainDB = -6.0
)

// Command is one parsed edit. Value holds a float64 for trim (seconds),
// speed (factor) and music_gain (dB), a string for zoom and caption, and an
// int for transition (milliseconds).
type Command struct {
	Type   Type   `json:"type" yaml:"type"`
	Target string `json:"target" yaml:"target"`
	Value  any    `json:"value" yaml:"value"`
}

// SceneTarget formats the target of a command addressing a 1-based scene.
func SceneTarget(n int) string {
	return fmt.Sprintf("%s%d", scenePrefix, n)
}

// SceneNumber returns the 1-based scene number a command targets.
func (c Command) SceneNumber() (int, bool) {
	rest, ok := strings.CutPrefix(c.Target, scenePrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float returns the numeric value of the command. Commands decoded from JSON
// carry float64 for every number, so ints are widened here.
func (c Command) Float() (float64, bool) {
	switch v := c.Value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}

// Text returns the value rendered as a string.
func (c Command) Text() string {
	if s, ok := c.Value.(string); ok {
		return s
	}
	return fmt.Sprint(c.Value)
}

// rule is one recognized phrasing. build returns false to drop a match whose
// captured numbers do not parse.
type rule struct {
	re    *regexp.Regexp
	once  bool
	build func(text string, m []string) (Command, bool)
}

var (
	musicGainByRe = regexp.MustCompile(`(?i)by\s+([0-9.]+)\s*d?b`)

	rules = []rule{
		{
			re: regexp.MustCompile(`(?i)trim\s+scene\s+(\d+)\s+to\s+([0-9.]+)s`),
			build: func(_ string, m []string) (Command, bool) {
				return sceneFloat(TypeTrim, m[1], m[2])
			},
		},
		{
			re: regexp.MustCompile(`(?i)speed(\s+up)?\s+scene\s+(\d+)\s+by\s+([0-9.]+)x`),
			build: func(_ string, m []string) (Command, bool) {
				return sceneFloat(TypeSpeed, m[2], m[3])
			},
		},
		{
			re: regexp.MustCompile(`(?i)(apply\s+)?zoom-?in\s+on\s+scene\s+(\d+)`),
			build: func(_ string, m []string) (Command, bool) {
				n, err := strconv.Atoi(m[2])
				if err != nil {
					return Command{}, false
				}
				return Command{Type: TypeZoom, Target: SceneTarget(n), Value: "in"}, true
			},
		},
		{
			re: regexp.MustCompile(`(?i)captions?\s+"([^"]+)"\s+on\s+scene\s+(\d+)`),
			build: func(_ string, m []string) (Command, bool) {
				n, err := strconv.Atoi(m[2])
				if err != nil {
					return Command{}, false
				}
				return Command{Type: TypeCaption, Target: SceneTarget(n), Value: m[1]}, true
			},
		},
		{
			re:   regexp.MustCompile(`(?i)lower\s+music`),
			once: true,
			build: func(text string, _ []string) (Command, bool) {
				db := defaultMusicGainDB
				if m := musicGainByRe.FindStringSubmatch(text); m != nil {
					if v, err := strconv.ParseFloat(m[1], 64); err == nil {
						db = -math.Abs(v)
					}
				}
				return Command{Type: TypeMusicGain, Target: TargetGlobal, Value: db}, true
			},
		},
		{
			re: regexp.MustCompile(`(?i)(add|apply)\s+crossfade\s+([0-9]+)ms`),
			build: func(_ string, m []string) (Command, bool) {
				ms, err := strconv.Atoi(m[2])
				if err != nil {
					return Command{}, false
				}
				return Command{Type: TypeTransition, Target: TargetBetweenScenes, Value: ms}, true
			},
		},
	}
)

func sceneFloat(t Type, scene, value string) (Command, bool) {
	n, err := strconv.Atoi(scene)
	if err != nil {
		return Command{}, false
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return Command{}, false
	}
	return Command{Type: t, Target: SceneTarget(n), Value: v}, true
}

// Parse extracts every recognized command from text. Rules are searched
// independently, so one request may yield several commands; commands are
// grouped by rule in rule order. Unrecognized text is ignored and empty input
// yields an empty, non-nil slice.
func Parse(text string) []Command {
	cmds := []Command{}
	text = strings.TrimSpace(text)
	if text == "" {
		return cmds
	}

	for _, r := range rules {
		matches := r.re.FindAllStringSubmatch(text, -1)
		if r.once && len(matches) > 1 {
			matches = matches[:1]
		}
		for _, m := range matches {
			if cmd, ok := r.build(text, m); ok {
				cmds = append(cmds, cmd)
			}
		}
	}
	return cmds
}
