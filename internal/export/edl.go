package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/framecut/framecut-engine/internal/timeline"
)

// GenerateEDL renders the video layers of a timeline snapshot as a
// CMX-style edit decision list, for interchange with NLEs independent of
// the render pipeline. Source in/out come from the clip trim offsets,
// record in/out from the clip's placement on the timeline. Layers are
// emitted in order; hidden layers are skipped.
func GenerateEDL(snap timeline.Snapshot, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title, 70))}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	event := 0
	for _, layer := range snap.Layers {
		if layer.Kind != timeline.LayerVideo || !layer.Visible {
			continue
		}
		clips := make([]*timeline.Clip, len(layer.Clips))
		copy(clips, layer.Clips)
		sort.SliceStable(clips, func(i, j int) bool {
			return clips[i].StartTime < clips[j].StartTime
		})

		for _, clip := range clips {
			event++
			srcIn := secondsToTimecode(clip.TrimStart, fps)
			srcOut := secondsToTimecode(clip.TrimEnd, fps)
			recIn := secondsToTimecode(clip.StartTime, fps)
			recOut := secondsToTimecode(clip.End(), fps)

			name := clip.Name
			if name == "" {
				name = clip.AssetID
			}

			lines = append(lines,
				fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", event, "AX", "V", srcIn, srcOut, recIn, recOut),
				fmt.Sprintf("* FROM CLIP NAME:  %s", name),
				fmt.Sprintf("* SOURCE ASSET:  %s", clip.AssetID),
			)
		}
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

func secondsToTimecode(seconds float64, fps int) string {
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}
