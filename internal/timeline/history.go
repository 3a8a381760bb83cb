package timeline

// DefaultHistoryDepth bounds the undo stack. Exceeding it evicts the
// oldest entry.
const DefaultHistoryDepth = 50

// History is the snapshot-based undo/redo stack. The undo stack is a
// bounded ring buffer (newest last); the redo stack is unbounded but
// cleared whenever a fresh mutation arrives, so there is no branching
// history. History operations never fail: undo/redo on an empty stack is a
// silent no-op.
type History struct {
	depth int
	seq   uint64
	undo  []entry
	redo  []entry
}

type entry struct {
	seq  uint64
	snap Snapshot
}

func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = DefaultHistoryDepth
	}
	return &History{depth: depth}
}

// Record pushes the pre-mutation snapshot and invalidates the redo branch.
func (h *History) Record(pre Snapshot) {
	if len(h.undo) >= h.depth {
		// Ring-buffer semantics: evict the oldest entry.
		copy(h.undo, h.undo[1:])
		h.undo = h.undo[:len(h.undo)-1]
	}
	h.seq++
	h.undo = append(h.undo, entry{seq: h.seq, snap: pre})
	h.redo = h.redo[:0]
}

// Undo pops the most recent pre-image, stashing the current state for
// redo. Returns (snapshot, true), or (zero, false) when there is nothing
// to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return Snapshot{}, false
	}
	e := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.seq++
	h.redo = append(h.redo, entry{seq: h.seq, snap: current})
	return e.snap, true
}

// Redo is symmetric to Undo.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.redo) == 0 {
		return Snapshot{}, false
	}
	e := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	if len(h.undo) >= h.depth {
		copy(h.undo, h.undo[1:])
		h.undo = h.undo[:len(h.undo)-1]
	}
	h.seq++
	h.undo = append(h.undo, entry{seq: h.seq, snap: current})
	return e.snap, true
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Depths reports the current stack sizes, for UI affordances and metrics.
func (h *History) Depths() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
