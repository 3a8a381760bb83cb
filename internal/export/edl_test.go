package export

import (
	"strings"
	"testing"

	"github.com/framecut/framecut-engine/internal/timeline"
)

func edlSnapshot() timeline.Snapshot {
	return timeline.Snapshot{
		Layers: []*timeline.Layer{
			{
				ID:      "l1",
				Kind:    timeline.LayerVideo,
				Visible: true,
				Clips: []*timeline.Clip{
					{ID: "c2", AssetID: "asset-b", Name: "Clip B", StartTime: 1, Duration: 1.5, TrimStart: 0, TrimEnd: 1.5},
					{ID: "c1", AssetID: "asset-a", Name: "Clip A", StartTime: 0, Duration: 1, TrimStart: 2, TrimEnd: 3},
				},
			},
			{
				ID:      "l2",
				Kind:    timeline.LayerAudio,
				Visible: true,
				Clips:   []*timeline.Clip{{ID: "c3", AssetID: "asset-c", StartTime: 0, Duration: 5, TrimEnd: 5}},
			},
		},
		Duration: 5,
	}
}

func TestGenerateEDL(t *testing.T) {
	edl := GenerateEDL(edlSnapshot(), "Project One", 30.0)

	if !strings.Contains(edl, "TITLE: Project One") {
		t.Fatalf("missing title: %q", edl)
	}
	if !strings.Contains(edl, "FCM: NON-DROP FRAME") {
		t.Fatalf("missing non-drop-frame FCM: %q", edl)
	}
	// Clips sorted by timeline position: Clip A (trim 2..3, record 0..1)
	// then Clip B (trim 0..1.5, record 1..2.5).
	if !strings.Contains(edl, "001  AX       V     C        00:00:02:00 00:00:03:00 00:00:00:00 00:00:01:00") {
		t.Errorf("first event line mismatch:\n%s", edl)
	}
	if !strings.Contains(edl, "002  AX       V     C        00:00:00:00 00:00:01:15 00:00:01:00 00:00:02:15") {
		t.Errorf("second event line mismatch:\n%s", edl)
	}
	if !strings.Contains(edl, "* FROM CLIP NAME:  Clip A") {
		t.Errorf("missing clip name comment:\n%s", edl)
	}
	// Audio layers are not part of the video EDL.
	if strings.Contains(edl, "asset-c") {
		t.Errorf("audio clip leaked into EDL:\n%s", edl)
	}
}

func TestGenerateEDL_SkipsHiddenLayers(t *testing.T) {
	snap := edlSnapshot()
	snap.Layers[0].Visible = false
	edl := GenerateEDL(snap, "Hidden", 30.0)
	if strings.Contains(edl, "001") {
		t.Errorf("hidden layer emitted events:\n%s", edl)
	}
}

func TestGenerateEDL_DropFrame(t *testing.T) {
	edl := GenerateEDL(edlSnapshot(), "Drop", 29.97)
	if !strings.Contains(edl, "FCM: DROP FRAME") {
		t.Fatalf("expected drop frame FCM:\n%s", edl)
	}
}

func TestSecondsToTimecode(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		fps     int
		want    string
	}{
		{name: "zero", seconds: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", seconds: 1, fps: 30, want: "00:00:01:00"},
		{name: "half second", seconds: 0.5, fps: 30, want: "00:00:00:15"},
		{name: "one minute", seconds: 60, fps: 30, want: "00:01:00:00"},
		{name: "one hour", seconds: 3600, fps: 30, want: "01:00:00:00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := secondsToTimecode(tc.seconds, tc.fps); got != tc.want {
				t.Errorf("secondsToTimecode(%v, %d) = %q, want %q", tc.seconds, tc.fps, got, tc.want)
			}
		})
	}
}
