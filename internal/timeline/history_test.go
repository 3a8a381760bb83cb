package timeline

import "testing"

func snapWithZoom(z float64) Snapshot {
	return Snapshot{Zoom: z}
}

func TestHistory_EmptyStacksAreNoOps(t *testing.T) {
	h := NewHistory(0)

	if h.CanUndo() || h.CanRedo() {
		t.Error("fresh history should have nothing to undo or redo")
	}
	if _, ok := h.Undo(snapWithZoom(1)); ok {
		t.Error("Undo() on empty stack must be a no-op")
	}
	if _, ok := h.Redo(snapWithZoom(1)); ok {
		t.Error("Redo() on empty stack must be a no-op")
	}
}

func TestHistory_UndoRedoRoundTrip(t *testing.T) {
	h := NewHistory(0)

	// Simulate mutations 1..n: pre-image of mutation i has zoom i.
	const n = 10
	for i := 1; i <= n; i++ {
		h.Record(snapWithZoom(float64(i)))
	}

	current := snapWithZoom(n + 1)
	for i := n; i >= 1; i-- {
		snap, ok := h.Undo(current)
		if !ok {
			t.Fatalf("Undo() #%d failed", n-i+1)
		}
		if snap.Zoom != float64(i) {
			t.Fatalf("Undo() returned zoom %v, want %v", snap.Zoom, float64(i))
		}
		current = snap
	}
	if h.CanUndo() {
		t.Error("all entries should be consumed")
	}

	for i := 2; i <= n+1; i++ {
		snap, ok := h.Redo(current)
		if !ok {
			t.Fatalf("Redo() to zoom %d failed", i)
		}
		if snap.Zoom != float64(i) {
			t.Fatalf("Redo() returned zoom %v, want %v", snap.Zoom, float64(i))
		}
		current = snap
	}
	if h.CanRedo() {
		t.Error("redo stack should be exhausted")
	}
}

func TestHistory_NewMutationClearsRedo(t *testing.T) {
	h := NewHistory(0)
	h.Record(snapWithZoom(1))
	h.Record(snapWithZoom(2))

	if _, ok := h.Undo(snapWithZoom(3)); !ok {
		t.Fatal("Undo() failed")
	}
	if !h.CanRedo() {
		t.Fatal("redo stack should hold the undone state")
	}

	h.Record(snapWithZoom(4))
	if h.CanRedo() {
		t.Error("a fresh mutation must invalidate the redo branch")
	}
}

func TestHistory_BoundedDepthEvictsOldest(t *testing.T) {
	h := NewHistory(DefaultHistoryDepth)

	for i := 1; i <= DefaultHistoryDepth+20; i++ {
		h.Record(snapWithZoom(float64(i)))
	}

	undos := 0
	current := snapWithZoom(0)
	for {
		snap, ok := h.Undo(current)
		if !ok {
			break
		}
		current = snap
		undos++
	}

	if undos != DefaultHistoryDepth {
		t.Fatalf("undo succeeded %d times, want %d", undos, DefaultHistoryDepth)
	}
	// The oldest surviving pre-image is the 21st mutation's.
	if current.Zoom != 21 {
		t.Errorf("deepest undo reached zoom %v, want 21", current.Zoom)
	}
}

func TestHistory_SnapshotsAreIndependent(t *testing.T) {
	h := NewHistory(0)

	state := NewState()
	state.Layers = []*Layer{{ID: "l1", Kind: LayerVideo, Clips: []*Clip{
		{ID: "c1", Duration: 5, TrimEnd: 5},
	}}}

	h.Record(state.Snapshot())

	// Mutating the live state must not reach into the recorded entry.
	state.Layers[0].Clips[0].Duration = 99

	snap, ok := h.Undo(state.Snapshot())
	if !ok {
		t.Fatal("Undo() failed")
	}
	if snap.Layers[0].Clips[0].Duration != 5 {
		t.Errorf("recorded snapshot was mutated in place: duration = %v", snap.Layers[0].Clips[0].Duration)
	}
}
