package scene

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	timeRangeRe = regexp.MustCompile(`(\d+)s\s*[–-]\s*(\d+)s`)

	// quoted narration after the check glyph; the closing quote is optional
	narrationQuotedRe = regexp.MustCompile(`^\s*[✅✓✔].*?["“](.*?)["”]?$`)
)

const (
	narrationGlyphs = "✅✓✔"
	variationSel    = "\uFE0F"
)

// annotation binds an emoji prefix to the scene field it populates.
type annotation struct {
	glyph string
	set   func(*Scene, string)
}

// annotations are tested in order; the first matching glyph wins.
var annotations = []annotation{
	{"🎥", func(s *Scene, v string) { s.Camera = v }},
	{"💡", func(s *Scene, v string) { s.Lighting = v }},
	{"🎶", func(s *Scene, v string) { s.Music = v }},
	{"🔄", func(s *Scene, v string) { s.Transition = v }},
	{"🖼", func(s *Scene, v string) { s.OnscreenText = v }},
}

// ContainsTimeRanges reports whether the script has at least one scene marker
// such as "0s–3s". Scripts without markers do not need video production.
func ContainsTimeRanges(text string) bool {
	return timeRangeRe.MatchString(normalize(text))
}

// Parse extracts scenes from a script. It never fails; input without any time
// range marker yields an empty, non-nil slice.
func Parse(text string) []Scene {
	st := parseState{done: []Scene{}}
	for _, line := range strings.Split(normalize(text), "\n") {
		st = st.step(strings.TrimSpace(line))
	}
	return st.flush().done
}

// parseState is the accumulator of the line fold: completed scenes plus the
// scene still receiving annotation lines.
type parseState struct {
	done    []Scene
	current *Scene
}

func (st parseState) flush() parseState {
	if st.current != nil {
		st.done = append(st.done, *st.current)
		st.current = nil
	}
	return st
}

func (st parseState) step(line string) parseState {
	if line == "" {
		return st
	}

	if loc := timeRangeRe.FindStringSubmatchIndex(line); loc != nil {
		st = st.flush()
		start, errS := strconv.Atoi(line[loc[2]:loc[3]])
		end, errE := strconv.Atoi(line[loc[4]:loc[5]])
		if errS != nil || errE != nil {
			return st
		}
		st.current = &Scene{
			StartSeconds: start,
			EndSeconds:   end,
			Narration:    inlineNarration(line[loc[1]:]),
		}
		return st
	}

	if st.current == nil {
		return st
	}

	for _, a := range annotations {
		if strings.HasPrefix(line, a.glyph) {
			a.set(st.current, annotationValue(line[len(a.glyph):]))
			return st
		}
	}

	if strings.ContainsRune(narrationGlyphs, firstRune(line)) {
		if chunk := narrationChunk(line); chunk != "" {
			st.current.Narration = strings.TrimSpace(st.current.Narration + " " + chunk)
		}
	}
	return st
}

// inlineNarration cleans the text following a time range on the same line,
// e.g. `: "Hook line here"` becomes `Hook line here`.
func inlineNarration(trailing string) string {
	s := strings.TrimSpace(trailing)
	s = strings.TrimLeft(s, narrationGlyphs)
	s = strings.Trim(s, " –—:-")
	return strings.Trim(s, ` "“”`)
}

func annotationValue(rest string) string {
	return strings.Trim(strings.TrimLeftFunc(rest, unicode.IsSpace), `" `)
}

func narrationChunk(line string) string {
	if m := narrationQuotedRe.FindStringSubmatch(line); m != nil {
		if chunk := strings.TrimSpace(m[1]); chunk != "" {
			return chunk
		}
	}
	rest := strings.TrimSpace(strings.TrimLeft(line, narrationGlyphs))
	if _, after, ok := strings.Cut(rest, ":"); ok {
		return strings.Trim(after, ` "“”`)
	}
	return rest
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

// normalize composes the text to NFC and drops emoji variation selectors so
// "🖼️" and "🖼" match the same annotation.
func normalize(text string) string {
	text = norm.NFC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, variationSel, "")
}
