package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/auri/auri-agent/internal/assembly"
)

const defaultFPS = 30

// ClipsFromPlan resolves plan items to clips under assetsDir. Items without a
// chosen file are returned as unresolved scene indexes.
func ClipsFromPlan(plan assembly.Plan, assetsDir string) ([]Clip, []int) {
	clips := make([]Clip, 0, len(plan))
	unresolved := []int{}
	for _, it := range plan {
		if it.Filename == "" {
			unresolved = append(unresolved, it.SceneIndex)
			continue
		}
		path := it.Filename
		if !filepath.IsAbs(path) && assetsDir != "" {
			path = filepath.Join(assetsDir, path)
		}
		clips = append(clips, Clip{
			SceneIndex: it.SceneIndex,
			Name:       fmt.Sprintf("Scene %d - %s", it.SceneIndex+1, filepath.Base(it.Filename)),
			MediaPath:  path,
			StartMs:    int(math.Round(it.StartSeconds * 1000)),
			EndMs:      int(math.Round(it.EndSeconds * 1000)),
			Speed:      it.Speed,
		})
	}
	return clips, unresolved
}

// GenerateEDL writes a CMX3600 edit list. Clips are laid end to end on the
// record side; retimed clips get an M2 motion line and a record duration
// scaled by their speed.
func GenerateEDL(clips []Clip, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = defaultFPS
		frameRate = defaultFPS
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	recordMs := 0
	for i, c := range clips {
		speed := c.Speed
		if speed <= 0 {
			speed = 1
		}
		srcMs := max(0, c.EndMs-c.StartMs)
		recDurMs := int(math.Round(float64(srcMs) / speed))

		srcIn := msToTimecode(c.StartMs, fps)
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", "V",
				srcIn, msToTimecode(c.EndMs, fps),
				msToTimecode(recordMs, fps), msToTimecode(recordMs+recDurMs, fps)),
		)
		if speed != 1 {
			lines = append(lines, fmt.Sprintf("M2   %-8s %05.1f                %s", "AX", float64(fps)*speed, srcIn))
		}
		lines = append(lines,
			fmt.Sprintf("* FROM CLIP NAME:  %s", c.Name),
			fmt.Sprintf("* MEDIA PATH:  %s", c.MediaPath),
		)

		recordMs += recDurMs
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func msToTimecode(ms int, fps int) string {
	totalFrames := int(math.Round(float64(ms) * float64(fps) / 1000.0))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	seconds := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, seconds, frames)
}
