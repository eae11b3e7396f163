package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/auri/auri-agent/internal/assembly"
)

const (
	zoomFilter = "scale=iw*1.1:ih*1.1,crop=iw/1.1:ih/1.1"

	// atempo accepts factors in [0.5, 2.0]; larger changes are chained.
	atempoMin = 0.5
	atempoMax = 2.0
	tempoEps  = 1e-6
)

// graph is a complete filter_complex invocation.
type graph struct {
	inputs   []string
	filter   string
	videoOut string
	audioOut string
}

// buildGraph cuts every clip, applies its edits, concatenates the results in
// order with one concat filter and applies the music gain to the mixed audio.
func buildGraph(clips []clip, g assembly.Globals, opts Options) graph {
	var parts []string
	var concatIn strings.Builder
	inputs := make([]string, 0, len(clips))

	for n, c := range clips {
		inputs = append(inputs, c.path)
		start, end := trimBounds(c.item)
		speed := c.item.Speed
		if speed <= 0 {
			speed = 1.0
		}

		parts = append(parts, fmt.Sprintf("[%d:v]%s[v%d]", n, videoChain(c.item, start, end, speed, opts), n))
		if c.hasAudio {
			parts = append(parts, fmt.Sprintf("[%d:a]%s[a%d]", n, audioChain(start, end, speed, opts), n))
		} else {
			parts = append(parts, fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=44100,atrim=duration=%s[a%d]",
				num((end-start)/speed), n))
		}
		fmt.Fprintf(&concatIn, "[v%d][a%d]", n, n)
	}

	if len(clips) == 0 {
		return graph{}
	}

	parts = append(parts, fmt.Sprintf("%sconcat=n=%d:v=1:a=1[v][a]", concatIn.String(), len(clips)))
	audioOut := "[a]"
	if g.MusicGainDB != 0 {
		parts = append(parts, fmt.Sprintf("[a]volume=%.4f[aout]", GainFactor(g.MusicGainDB)))
		audioOut = "[aout]"
	}

	return graph{
		inputs:   inputs,
		filter:   strings.Join(parts, ";"),
		videoOut: "[v]",
		audioOut: audioOut,
	}
}

// GainFactor converts decibels to a linear amplitude factor.
func GainFactor(db float64) float64 {
	return math.Pow(10, db/20)
}

// trimBounds clamps the item span to a non-negative, non-empty range.
func trimBounds(it assembly.Item) (float64, float64) {
	start := max(0, it.StartSeconds)
	end := max(start, it.EndSeconds)
	if end == start {
		end = start + 1.0
	}
	return start, end
}

func videoChain(it assembly.Item, start, end, speed float64, opts Options) string {
	chain := []string{fmt.Sprintf("trim=start=%s:end=%s,setpts=PTS-STARTPTS", num(start), num(end))}
	if speed != 1.0 {
		chain = append(chain, fmt.Sprintf("setpts=PTS/%.4f", speed))
	}
	if it.Zoom != nil && *it.Zoom == assembly.ZoomIn {
		chain = append(chain, zoomFilter)
	}
	if opts.Width > 0 && opts.Height > 0 {
		chain = append(chain, fmt.Sprintf(
			"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
			opts.Width, opts.Height, opts.Width, opts.Height))
	}
	if opts.FPS > 0 {
		chain = append(chain, fmt.Sprintf("fps=%d", opts.FPS))
	}
	if it.Caption != nil && strings.TrimSpace(*it.Caption) != "" {
		chain = append(chain, drawtext(*it.Caption, opts))
	}
	return strings.Join(chain, ",")
}

func audioChain(start, end, speed float64, opts Options) string {
	chain := []string{fmt.Sprintf("atrim=start=%s:end=%s,asetpts=PTS-STARTPTS", num(start), num(end))}
	if speed != 1.0 {
		for _, f := range atempoChain(speed) {
			chain = append(chain, fmt.Sprintf("atempo=%.4f", f))
		}
	}
	if opts.Width > 0 && opts.Height > 0 {
		chain = append(chain, "aformat=sample_rates=44100:channel_layouts=stereo")
	}
	return strings.Join(chain, ",")
}

// atempoChain splits a speed factor into stages each within atempo's range.
// The product of the stages equals speed.
func atempoChain(speed float64) []float64 {
	var out []float64
	r := speed
	for r > atempoMax+tempoEps {
		out = append(out, atempoMax)
		r /= atempoMax
	}
	for r < atempoMin-tempoEps {
		out = append(out, atempoMin)
		r /= atempoMin
	}
	return append(out, r)
}

// Quoted drawtext values pass through the graph parser untouched and are
// then split on ':' by the option parser, so colons and backslashes keep a
// backslash escape inside the quotes.
var captionEscaper = strings.NewReplacer(
	`\`, `\\`,
	":", `\:`,
	"'", "’",
	"\n", " ",
	"\r", " ",
)

var pathEscaper = strings.NewReplacer(
	`\`, "/",
	":", `\:`,
	"'", `'\\\''`,
)

// drawtext renders a bottom-anchored caption on a semi-opaque box. The text
// is single-quoted with expansion disabled so it is drawn verbatim.
func drawtext(caption string, opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "drawtext=text='%s':expansion=none", captionEscaper.Replace(caption))
	if opts.FontFile != "" {
		fmt.Fprintf(&b, ":fontfile='%s'", pathEscaper.Replace(opts.FontFile))
	}
	fmt.Fprintf(&b, ":x=(w-text_w)/2:y=h-text_h-100:fontsize=%d:fontcolor=white:box=1:boxcolor=black@0.5:boxborderw=10", opts.FontSize)
	return b.String()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ffmpegArgs is the full ffmpeg argument list for a graph. When graphFile is
// set the filter graph is read from that file instead of the command line.
func ffmpegArgs(gr graph, outPath, graphFile string, opts Options) []string {
	args := []string{"-y", "-hide_banner", "-nostdin"}
	for _, in := range gr.inputs {
		args = append(args, "-i", in)
	}
	if graphFile != "" {
		args = append(args, "-filter_complex_script", graphFile)
	} else {
		args = append(args, "-filter_complex", gr.filter)
	}
	args = append(args,
		"-map", gr.videoOut,
		"-map", gr.audioOut,
		"-c:v", opts.VideoCodec,
		"-c:a", opts.AudioCodec,
		"-movflags", "+faststart",
		outPath,
	)
	return args
}
