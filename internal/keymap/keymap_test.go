package keymap

import (
	"testing"

	"github.com/framecut/framecut-engine/internal/timeline"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *timeline.Editor) {
	t.Helper()
	editor := timeline.NewEditor(50, nil, nil)
	return NewDispatcher(editor, nil), editor
}

func seedClip(t *testing.T, editor *timeline.Editor) string {
	t.Helper()
	clip := &timeline.Clip{AssetID: "asset-1", StartTime: 0, Duration: 10}
	_, ok := editor.AddLayerWithClip(timeline.LayerVideo, "Video 1", clip)
	if !ok {
		t.Fatal("failed to seed clip")
	}
	state := editor.State()
	return state.Layers[0].Clips[0].ID
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ctrl+Z", "ctrl+z"},
		{"Shift+Ctrl+Z", "ctrl+shift+z"},
		{"META+SHIFT+z", "shift+meta+z"},
		{" space ", "space"},
		{"z", "z"},
		{"+", "+"},
		{"ctrl++", "ctrl++"},
		{"ctrl+=", "ctrl+="},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := Normalize(tc.in); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestDispatch_UndoRedo(t *testing.T) {
	d, editor := newTestDispatcher(t)
	seedClip(t, editor)

	action, handled := d.Dispatch("Ctrl+Z")
	if !handled || action != ActionUndo {
		t.Fatalf("Dispatch(ctrl+z) = %v, %v", action, handled)
	}
	if got := len(editor.State().Layers); got != 0 {
		t.Errorf("layers after undo = %d, want 0", got)
	}

	action, handled = d.Dispatch("Shift+Ctrl+Z")
	if !handled || action != ActionRedo {
		t.Fatalf("Dispatch(shift+ctrl+z) = %v, %v", action, handled)
	}
	if got := len(editor.State().Layers); got != 1 {
		t.Errorf("layers after redo = %d, want 1", got)
	}

	// ctrl+y is the alternate redo binding.
	if action, _ := d.Dispatch("ctrl+y"); action != ActionRedo {
		t.Errorf("Dispatch(ctrl+y) = %v, want redo", action)
	}
}

func TestDispatch_CutAtPlayhead(t *testing.T) {
	d, editor := newTestDispatcher(t)
	clipID := seedClip(t, editor)
	editor.SetSelectedClip(clipID)
	editor.SetCurrentTime(4)

	if action, handled := d.Dispatch("s"); !handled || action != ActionCutAtPlayhead {
		t.Fatalf("Dispatch(s) = %v, %v", action, handled)
	}
	if got := len(editor.State().Layers[0].Clips); got != 2 {
		t.Errorf("clips after cut = %d, want 2", got)
	}
}

func TestDispatch_DeleteSelected(t *testing.T) {
	d, editor := newTestDispatcher(t)
	clipID := seedClip(t, editor)
	editor.SetSelectedClip(clipID)

	if action, _ := d.Dispatch("Delete"); action != ActionDeleteSelected {
		t.Fatalf("Dispatch(delete) = %v", action)
	}
	if got := len(editor.State().Layers[0].Clips); got != 0 {
		t.Errorf("clips after delete = %d, want 0", got)
	}

	// Bound chords report handled even when the operation is a no-op.
	if _, handled := d.Dispatch("Backspace"); !handled {
		t.Error("backspace with nothing selected should still be handled")
	}
}

func TestDispatch_DuplicateSelected(t *testing.T) {
	d, editor := newTestDispatcher(t)
	clipID := seedClip(t, editor)
	editor.SetSelectedClip(clipID)

	if action, _ := d.Dispatch("ctrl+d"); action != ActionDuplicate {
		t.Fatalf("Dispatch(ctrl+d) = %v", action)
	}
	if got := len(editor.State().Layers[0].Clips); got != 2 {
		t.Errorf("clips after duplicate = %d, want 2", got)
	}
}

func TestDispatch_PlaybackAndSeek(t *testing.T) {
	d, editor := newTestDispatcher(t)
	seedClip(t, editor)

	if action, _ := d.Dispatch("space"); action != ActionTogglePlayback {
		t.Fatalf("Dispatch(space) = %v", action)
	}
	if !editor.State().Playing {
		t.Error("space did not start playback")
	}

	d.Dispatch("ArrowRight")
	if got := editor.State().CurrentTime; got != seekStepFine {
		t.Errorf("playhead after arrowright = %v, want %v", got, seekStepFine)
	}

	d.Dispatch("Shift+ArrowRight")
	if got := editor.State().CurrentTime; got != seekStepFine+seekStepCoarse {
		t.Errorf("playhead after shift+arrowright = %v", got)
	}

	d.Dispatch("ArrowLeft")
	if got := editor.State().CurrentTime; got != seekStepCoarse {
		t.Errorf("playhead after arrowleft = %v", got)
	}
}

func TestDispatch_Zoom(t *testing.T) {
	d, editor := newTestDispatcher(t)

	d.Dispatch("+")
	if got := editor.State().Zoom; got != zoomFactor {
		t.Errorf("zoom after + = %v, want %v", got, zoomFactor)
	}
	d.Dispatch("-")
	if got := editor.State().Zoom; got != 1 {
		t.Errorf("zoom after - = %v, want 1", got)
	}
}

func TestDispatch_UnboundChord(t *testing.T) {
	d, editor := newTestDispatcher(t)
	seedClip(t, editor)
	before := editor.Serialize()

	action, handled := d.Dispatch("ctrl+alt+q")
	if handled || action != ActionNone {
		t.Errorf("Dispatch(unbound) = %v, %v, want none, false", action, handled)
	}
	after := editor.Serialize()
	if len(after.Layers) != len(before.Layers) {
		t.Error("unbound chord mutated the timeline")
	}
}
