package timeline

import (
	"encoding/json"
	"reflect"
	"testing"

	"pgregory.net/rapid"
)

func newTestEditor() *Editor {
	return NewEditor(0, nil, nil)
}

func addTestClip(e *Editor, layerIndex int, start, dur float64) string {
	id := NewID()
	e.AddClip(&Clip{ID: id, AssetID: "asset-1", StartTime: start, Duration: dur, TrimEnd: dur}, layerIndex)
	return id
}

func TestEditor_AddLayerAddClipCut(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")
	clipID := addTestClip(e, 0, 0, 10)

	e.SetSelectedClip(clipID)
	e.SetCurrentTime(4)

	leftID, rightID, ok := e.CutAtPlayhead()
	if !ok {
		t.Fatal("CutAtPlayhead() failed")
	}

	st := e.State()
	clips := st.Layers[0].Clips
	if len(clips) != 2 {
		t.Fatalf("layer has %d clips after cut, want 2", len(clips))
	}
	if clips[0].ID != leftID || clips[1].ID != rightID {
		t.Error("halves not inserted in place of the original")
	}
	if clips[0].StartTime != 0 || clips[0].Duration != 4 {
		t.Errorf("left = (%v, %v), want (0, 4)", clips[0].StartTime, clips[0].Duration)
	}
	if clips[1].StartTime != 4 || clips[1].Duration != 6 {
		t.Errorf("right = (%v, %v), want (4, 6)", clips[1].StartTime, clips[1].Duration)
	}
	if c := e.Clip(clipID); c != nil {
		t.Error("original clip should be removed")
	}
}

func TestEditor_CutOutOfBoundsLeavesTimelineUnchanged(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")
	clipID := addTestClip(e, 0, 0, 10)
	before := e.Serialize()

	if _, _, ok := e.SplitClip(clipID, 0); ok {
		t.Error("cut at clip start should be rejected")
	}
	if _, _, ok := e.SplitClip(clipID, 10); ok {
		t.Error("cut at clip end should be rejected")
	}

	if !reflect.DeepEqual(before, e.Serialize()) {
		t.Error("rejected cut mutated the timeline")
	}
	// Layer + clip mutations are undoable; the rejected cuts must not have
	// added entries on top of them.
	if !e.Undo() {
		t.Fatal("expected the add_clip mutation on the undo stack")
	}
}

func TestEditor_AddClipOutOfRangeLayer(t *testing.T) {
	e := newTestEditor()
	if e.AddClip(&Clip{Duration: 5, TrimEnd: 5}, 0) {
		t.Error("AddClip() into a missing layer must be a no-op")
	}
	if e.CanUndo() {
		t.Error("a no-op must not record history")
	}
}

func TestEditor_AddClipNormalizesInconsistentTrims(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")

	clipID := NewID()
	if !e.AddClip(&Clip{ID: clipID, AssetID: "asset-1", Duration: 10, TrimStart: 2, TrimEnd: 7}, 0) {
		t.Fatal("AddClip() failed")
	}

	c := e.Clip(clipID)
	if c.TrimStart != 2 || c.TrimEnd != 12 {
		t.Fatalf("trims = (%v, %v), want re-anchored (2, 12)", c.TrimStart, c.TrimEnd)
	}

	// The identity duration == trimEnd - trimStart must survive a cut.
	leftID, rightID, ok := e.SplitClip(clipID, 4)
	if !ok {
		t.Fatal("SplitClip() failed")
	}
	for _, id := range []string{leftID, rightID} {
		half := e.Clip(id)
		if half.TrimEnd-half.TrimStart != half.Duration {
			t.Errorf("half %s: trim span %v != duration %v", id, half.TrimEnd-half.TrimStart, half.Duration)
		}
	}

	// The atomic form normalizes identically.
	_, ok = e.AddLayerWithClip(LayerVideo, "Video 2", &Clip{ID: "c2", Duration: 5, TrimStart: 1, TrimEnd: 9})
	if !ok {
		t.Fatal("AddLayerWithClip() failed")
	}
	if c := e.Clip("c2"); c.TrimStart != 1 || c.TrimEnd != 6 {
		t.Errorf("trims = (%v, %v), want (1, 6)", c.TrimStart, c.TrimEnd)
	}
}

func TestEditor_AddLayerWithClip(t *testing.T) {
	e := newTestEditor()
	layerID, ok := e.AddLayerWithClip(LayerVideo, "Video 1", &Clip{Duration: 8, TrimEnd: 8})
	if !ok {
		t.Fatal("AddLayerWithClip() failed")
	}

	st := e.State()
	if len(st.Layers) != 1 || st.Layers[0].ID != layerID {
		t.Fatal("layer not created")
	}
	if len(st.Layers[0].Clips) != 1 {
		t.Fatal("clip not placed on the new layer")
	}
	if st.Duration != 8 {
		t.Errorf("derived duration = %v, want 8", st.Duration)
	}

	// One atomic mutation: a single undo removes both.
	e.Undo()
	if len(e.State().Layers) != 0 {
		t.Error("undo of AddLayerWithClip should remove layer and clip together")
	}
}

func TestEditor_RemoveClipClearsSelection(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")
	clipID := addTestClip(e, 0, 0, 5)
	e.SetSelectedClip(clipID)

	if !e.RemoveClip(clipID) {
		t.Fatal("RemoveClip() failed")
	}
	if e.State().SelectedClipID != "" {
		t.Error("selection should be cleared when the referent is deleted")
	}
	if e.RemoveClip(clipID) {
		t.Error("removing a missing clip must be a no-op")
	}
}

func TestEditor_SelectMissingClipClearsSelection(t *testing.T) {
	e := newTestEditor()
	e.SetSelectedClip("nope")
	if e.State().SelectedClipID != "" {
		t.Error("selecting an unresolvable identifier should clear the selection")
	}
}

func TestEditor_MoveClipAcrossLayers(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")
	e.AddLayer(LayerVideo, "Video 2")
	clipID := addTestClip(e, 0, 0, 5)

	if !e.MoveClip(clipID, 12, 1) {
		t.Fatal("MoveClip() failed")
	}

	st := e.State()
	if len(st.Layers[0].Clips) != 0 {
		t.Error("clip still on the original layer")
	}
	if len(st.Layers[1].Clips) != 1 || st.Layers[1].Clips[0].StartTime != 12 {
		t.Error("clip not re-parented at the new position")
	}
	if st.Duration != 17 {
		t.Errorf("derived duration = %v, want 17", st.Duration)
	}

	if e.MoveClip(clipID, 0, 5) {
		t.Error("move to an out-of-range layer must be a no-op")
	}
}

func TestEditor_DuplicatePlacement(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")
	clipID := addTestClip(e, 0, 3, 7)

	dupID, ok := e.DuplicateClip(clipID)
	if !ok {
		t.Fatal("DuplicateClip() failed")
	}

	orig := e.Clip(clipID)
	dup := e.Clip(dupID)
	if dup.StartTime < orig.StartTime+orig.Duration {
		t.Errorf("duplicate starts at %v, inside parent footprint ending at %v", dup.StartTime, orig.End())
	}
}

func TestEditor_TrimClampsToResolvedSource(t *testing.T) {
	resolve := func(assetID string) (float64, bool) {
		if assetID == "asset-1" {
			return 12, true
		}
		return 0, false
	}
	e := NewEditor(0, resolve, nil)
	e.AddLayer(LayerVideo, "Video 1")
	clipID := addTestClip(e, 0, 0, 10)

	if !e.TrimClip(clipID, 2, 30) {
		t.Fatal("TrimClip() failed")
	}
	c := e.Clip(clipID)
	if c.TrimEnd != 12 {
		t.Errorf("TrimEnd = %v, want clamp to source duration 12", c.TrimEnd)
	}
	if c.Duration != 10 {
		t.Errorf("Duration = %v, want 10", c.Duration)
	}

	if e.TrimClip(clipID, 5, 5) {
		t.Error("degenerate trim must be a no-op")
	}
}

func TestEditor_UndoRedoRoundTrip(t *testing.T) {
	e := newTestEditor()

	e.AddLayer(LayerVideo, "Video 1")
	addTestClip(e, 0, 0, 10)
	clipID := addTestClip(e, 0, 10, 5)
	e.MoveClip(clipID, 20, -1)
	e.DuplicateClip(clipID)
	want := e.Serialize()

	const n = 5 // mutations above
	for i := 0; i < n; i++ {
		if !e.Undo() {
			t.Fatalf("Undo() #%d failed", i+1)
		}
	}
	if len(e.State().Layers) != 0 {
		t.Fatal("full undo should reach the empty timeline")
	}
	if e.Undo() {
		t.Error("exhausted undo must be a no-op")
	}

	for i := 0; i < n; i++ {
		if !e.Redo() {
			t.Fatalf("Redo() #%d failed", i+1)
		}
	}
	if !reflect.DeepEqual(want, e.Serialize()) {
		t.Error("undo×N redo×N did not restore the post-mutation state")
	}
}

func TestEditor_UndoRedoRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := newTestEditor()
		e.AddLayer(LayerVideo, "Video 1")

		var ids []string
		n := rapid.IntRange(1, 30).Draw(t, "n")
		applied := 0
		for i := 0; i < n; i++ {
			op := rapid.IntRange(0, 3).Draw(t, "op")
			switch {
			case op == 0 || len(ids) == 0:
				start := rapid.Float64Range(0, 100).Draw(t, "start")
				dur := rapid.Float64Range(1, 20).Draw(t, "dur")
				id := NewID()
				if e.AddClip(&Clip{ID: id, StartTime: start, Duration: dur, TrimEnd: dur}, 0) {
					ids = append(ids, id)
					applied++
				}
			case op == 1:
				idx := rapid.IntRange(0, len(ids)-1).Draw(t, "rm")
				if e.RemoveClip(ids[idx]) {
					ids = append(ids[:idx], ids[idx+1:]...)
					applied++
				}
			case op == 2:
				idx := rapid.IntRange(0, len(ids)-1).Draw(t, "mv")
				if e.MoveClip(ids[idx], rapid.Float64Range(0, 100).Draw(t, "to"), -1) {
					applied++
				}
			default:
				idx := rapid.IntRange(0, len(ids)-1).Draw(t, "dup")
				if id, ok := e.DuplicateClip(ids[idx]); ok {
					ids = append(ids, id)
					applied++
				}
			}
		}

		want := e.Serialize()
		for i := 0; i < applied; i++ {
			if !e.Undo() {
				t.Fatalf("Undo() #%d failed", i+1)
			}
		}
		for i := 0; i < applied; i++ {
			if !e.Redo() {
				t.Fatalf("Redo() #%d failed", i+1)
			}
		}
		if !reflect.DeepEqual(want, e.Serialize()) {
			t.Fatal("undo/redo round trip diverged")
		}
	})
}

func TestEditor_RestoreMergesOverDefaults(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")
	addTestClip(e, 0, 0, 10)
	saved := e.Serialize()

	e.Reset()
	if len(e.State().Layers) != 0 || e.State().Duration != 0 {
		t.Fatal("Reset() should produce an empty timeline")
	}

	e.Restore(saved)
	st := e.State()
	if len(st.Layers) != 1 || st.Duration != 10 {
		t.Fatalf("restore did not bring the project back: %d layers, duration %v", len(st.Layers), st.Duration)
	}

	// A partial snapshot falls back to defaults for the rest.
	e.Restore(Snapshot{})
	st = e.State()
	if len(st.Layers) != 0 || st.Zoom != 1 {
		t.Errorf("partial restore: layers = %d, zoom = %v, want 0 and 1", len(st.Layers), st.Zoom)
	}
}

func TestEditor_PlayheadClampAndZoom(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")
	addTestClip(e, 0, 0, 10)

	e.SetCurrentTime(25)
	if got := e.State().CurrentTime; got != 10 {
		t.Errorf("CurrentTime = %v, want clamp to duration 10", got)
	}
	e.SetCurrentTime(-5)
	if got := e.State().CurrentTime; got != 0 {
		t.Errorf("CurrentTime = %v, want clamp to 0", got)
	}

	e.SetZoom(2.5)
	e.SetZoom(0)
	if got := e.State().Zoom; got != 2.5 {
		t.Errorf("Zoom = %v, want 2.5 (non-positive zoom ignored)", got)
	}

	e.Play()
	if !e.State().Playing {
		t.Error("Play() should set playback")
	}
	e.TogglePlayback()
	if e.State().Playing {
		t.Error("TogglePlayback() should pause")
	}
}

func TestSnapshot_JSONRoundTrip(t *testing.T) {
	e := newTestEditor()
	e.AddLayer(LayerVideo, "Video 1")
	clipID := addTestClip(e, 0, 0, 10)
	e.SetTransition(clipID, EdgeIn, &Transition{Type: TransitionFade, Duration: 0.5})
	e.UpsertKeyframe(clipID, Keyframe{Time: 2, Easing: EasingIn})
	saved := e.Serialize()

	data, err := json.Marshal(saved)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var loaded Snapshot
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	e2 := newTestEditor()
	e2.Restore(loaded)
	if !reflect.DeepEqual(e2.Serialize(), saved) {
		t.Error("serialized project did not survive a save/load cycle")
	}
}
