package timeline

import (
	"log/slog"
	"sync"
)

// DurationResolver reports the known source duration for an asset, if the
// media catalog can resolve it. A miss (ok == false) is tolerated: trims
// on an unresolvable source are simply not clamped.
type DurationResolver func(assetID string) (seconds float64, ok bool)

// TransitionEdge selects which edge of a clip a transition applies to.
type TransitionEdge string

const (
	EdgeIn  TransitionEdge = "in"
	EdgeOut TransitionEdge = "out"
)

// Editor owns one timeline aggregate and is its sole writer. Every
// structural mutation captures a pre-image history entry before applying,
// recomputes the derived duration afterwards, and resolves weak clip
// references by identifier scan. Mutations targeting a missing clip or
// layer are silent no-ops (returning false), matching the error taxonomy
// for routine user-input edge cases.
//
// An Editor is an explicitly constructed context object; there is no
// process-wide timeline. All methods are safe for concurrent use.
type Editor struct {
	mu      sync.Mutex
	state   *State
	history *History
	resolve DurationResolver
	logger  *slog.Logger
}

func NewEditor(historyDepth int, resolve DurationResolver, logger *slog.Logger) *Editor {
	return &Editor{
		state:   NewState(),
		history: NewHistory(historyDepth),
		resolve: resolve,
		logger:  logger,
	}
}

// structural runs a mutation under the history wrapper. The pre-image is
// recorded only if the mutation reports that it changed anything.
func (e *Editor) structural(op string, mutate func(s *State) bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	pre := e.state.Snapshot()
	if !mutate(e.state) {
		return false
	}
	e.history.Record(pre)
	e.state.recomputeDuration()
	if e.logger != nil {
		e.logger.Debug("timeline edit applied", "op", op)
	}
	return true
}

// AddLayer appends an empty layer of the given kind. Layer order is
// creation order.
func (e *Editor) AddLayer(kind LayerKind, name string) string {
	id := NewID()
	e.structural("add_layer", func(s *State) bool {
		s.Layers = append(s.Layers, &Layer{
			ID:      id,
			Kind:    kind,
			Name:    name,
			Visible: true,
		})
		return true
	})
	return id
}

// normalizeTrims makes an incoming clip honor duration == trimEnd -
// trimStart at the insert boundary, so every downstream edit can rely
// on the identity. Unset or degenerate trims fall back to the untrimmed
// source span; a trim span that disagrees with the duration is
// re-anchored at trimStart.
func normalizeTrims(c *Clip) {
	if c.TrimStart < 0 {
		c.TrimStart = 0
	}
	if c.TrimEnd <= c.TrimStart {
		c.TrimStart = 0
		c.TrimEnd = c.Duration
		return
	}
	if c.TrimEnd-c.TrimStart != c.Duration {
		c.TrimEnd = c.TrimStart + c.Duration
	}
}

// AddClip inserts a clip into the layer at layerIndex. Out-of-range
// indexes and non-positive durations are no-ops: layer creation and clip
// insertion are separate calls with no atomicity guarantee between them,
// so callers must not assume the layer exists. Prefer AddLayerWithClip
// when the layer is being created for the clip.
func (e *Editor) AddClip(clip *Clip, layerIndex int) bool {
	if clip == nil || clip.Duration <= 0 || clip.StartTime < 0 {
		return false
	}
	return e.structural("add_clip", func(s *State) bool {
		if layerIndex < 0 || layerIndex >= len(s.Layers) {
			return false
		}
		c := clip.Clone()
		if c.ID == "" {
			c.ID = NewID()
		}
		normalizeTrims(c)
		s.Layers[layerIndex].Clips = append(s.Layers[layerIndex].Clips, c)
		return true
	})
}

// AddLayerWithClip creates a layer and places the clip on it in one
// mutation, closing the add-layer-then-add-clip race.
func (e *Editor) AddLayerWithClip(kind LayerKind, name string, clip *Clip) (string, bool) {
	if clip == nil || clip.Duration <= 0 || clip.StartTime < 0 {
		return "", false
	}
	layerID := NewID()
	ok := e.structural("add_layer_with_clip", func(s *State) bool {
		c := clip.Clone()
		if c.ID == "" {
			c.ID = NewID()
		}
		normalizeTrims(c)
		s.Layers = append(s.Layers, &Layer{
			ID:      layerID,
			Kind:    kind,
			Name:    name,
			Visible: true,
			Clips:   []*Clip{c},
		})
		return true
	})
	if !ok {
		return "", false
	}
	return layerID, true
}

// RemoveClip removes the clip wherever the identifier is found. Clears the
// selection if it pointed at the removed clip.
func (e *Editor) RemoveClip(clipID string) bool {
	return e.structural("remove_clip", func(s *State) bool {
		for _, l := range s.Layers {
			if i := l.findClip(clipID); i >= 0 {
				l.Clips = append(l.Clips[:i], l.Clips[i+1:]...)
				if s.SelectedClipID == clipID {
					s.SelectedClipID = ""
				}
				return true
			}
		}
		return false
	})
}

// MoveClip repositions a clip and optionally re-parents it to another
// layer (newLayerIndex < 0 keeps the current layer). Overlaps are
// permitted.
func (e *Editor) MoveClip(clipID string, newStartTime float64, newLayerIndex int) bool {
	if newStartTime < 0 {
		newStartTime = 0
	}
	return e.structural("move_clip", func(s *State) bool {
		clip, li := s.findClip(clipID)
		if clip == nil {
			return false
		}
		if newLayerIndex >= len(s.Layers) {
			return false
		}
		clip.StartTime = newStartTime
		if newLayerIndex >= 0 && newLayerIndex != li {
			from := s.Layers[li]
			i := from.findClip(clipID)
			from.Clips = append(from.Clips[:i], from.Clips[i+1:]...)
			s.Layers[newLayerIndex].Clips = append(s.Layers[newLayerIndex].Clips, clip)
		}
		return true
	})
}

// SplitClip cuts a clip at a time relative to the clip's start, replacing
// it in place with the two halves. Returns the new clip IDs, or ok ==
// false when the cut is out of bounds or the clip is gone.
func (e *Editor) SplitClip(clipID string, at float64) (leftID, rightID string, ok bool) {
	e.structural("split_clip", func(s *State) bool {
		clip, li := s.findClip(clipID)
		if clip == nil {
			return false
		}
		left, right := CutAt(clip, at)
		if left == nil {
			return false
		}
		l := s.Layers[li]
		i := l.findClip(clipID)
		l.Clips = append(l.Clips[:i], append([]*Clip{left, right}, l.Clips[i+1:]...)...)
		if s.SelectedClipID == clipID {
			s.SelectedClipID = left.ID
		}
		leftID, rightID, ok = left.ID, right.ID, true
		return true
	})
	return leftID, rightID, ok
}

// CutAtPlayhead splits the selected clip at the current playhead position.
func (e *Editor) CutAtPlayhead() (leftID, rightID string, ok bool) {
	e.mu.Lock()
	clip, _ := e.state.findClip(e.state.SelectedClipID)
	if clip == nil {
		e.mu.Unlock()
		return "", "", false
	}
	id := clip.ID
	at := e.state.CurrentTime - clip.StartTime
	e.mu.Unlock()
	return e.SplitClip(id, at)
}

// DuplicateClip deep-copies a clip and places the copy immediately after
// the original on the same layer, so the child never overlaps its source.
func (e *Editor) DuplicateClip(clipID string) (newID string, ok bool) {
	e.structural("duplicate_clip", func(s *State) bool {
		clip, li := s.findClip(clipID)
		if clip == nil {
			return false
		}
		d := Duplicate(clip)
		d.StartTime = clip.End()
		s.Layers[li].Clips = append(s.Layers[li].Clips, d)
		newID, ok = d.ID, true
		return true
	})
	return newID, ok
}

// TrimClip re-trims a clip to new source offsets, clamped to the source
// duration when the media catalog knows it. Degenerate trims are no-ops.
func (e *Editor) TrimClip(clipID string, trimStart, trimEnd float64) bool {
	return e.structural("trim_clip", func(s *State) bool {
		clip, li := s.findClip(clipID)
		if clip == nil {
			return false
		}
		sourceDuration := 0.0
		if e.resolve != nil {
			if d, known := e.resolve(clip.AssetID); known {
				sourceDuration = d
			}
		}
		trimmed := TrimTo(clip, trimStart, trimEnd, sourceDuration)
		if trimmed == nil {
			return false
		}
		l := s.Layers[li]
		l.Clips[l.findClip(clipID)] = trimmed
		return true
	})
}

// SetTransition sets or clears (tr == nil) the transition on one edge of a
// clip.
func (e *Editor) SetTransition(clipID string, edge TransitionEdge, tr *Transition) bool {
	if tr != nil && tr.Duration < 0 {
		return false
	}
	return e.structural("set_transition", func(s *State) bool {
		clip, _ := s.findClip(clipID)
		if clip == nil {
			return false
		}
		switch edge {
		case EdgeIn:
			clip.TransitionIn = tr.Clone()
		case EdgeOut:
			clip.TransitionOut = tr.Clone()
		default:
			return false
		}
		return true
	})
}

// UpsertKeyframe inserts or replaces the keyframe at kf.Time, keeping the
// sequence sorted. Times outside [0, clip.Duration] are no-ops.
func (e *Editor) UpsertKeyframe(clipID string, kf Keyframe) bool {
	return e.structural("upsert_keyframe", func(s *State) bool {
		clip, _ := s.findClip(clipID)
		if clip == nil || kf.Time < 0 || kf.Time > clip.Duration {
			return false
		}
		if kf.Easing == "" {
			kf.Easing = EasingLinear
		}
		upsertKeyframe(clip, kf.Clone())
		return true
	})
}

func (e *Editor) RemoveKeyframe(clipID string, time float64) bool {
	return e.structural("remove_keyframe", func(s *State) bool {
		clip, _ := s.findClip(clipID)
		if clip == nil {
			return false
		}
		return removeKeyframe(clip, time)
	})
}

func (e *Editor) SetTransform(clipID string, tr *Transform) bool {
	return e.structural("set_transform", func(s *State) bool {
		clip, _ := s.findClip(clipID)
		if clip == nil {
			return false
		}
		clip.Transform = tr.Clone()
		return true
	})
}

func (e *Editor) AddEffect(clipID string, effect Effect) (string, bool) {
	id := NewID()
	ok := e.structural("add_effect", func(s *State) bool {
		clip, _ := s.findClip(clipID)
		if clip == nil {
			return false
		}
		ef := effect.Clone()
		ef.ID = id
		clip.Effects = append(clip.Effects, ef)
		return true
	})
	if !ok {
		return "", false
	}
	return id, true
}

func (e *Editor) RemoveEffect(clipID, effectID string) bool {
	return e.structural("remove_effect", func(s *State) bool {
		clip, _ := s.findClip(clipID)
		if clip == nil {
			return false
		}
		for i, ef := range clip.Effects {
			if ef.ID == effectID {
				clip.Effects = append(clip.Effects[:i], clip.Effects[i+1:]...)
				return true
			}
		}
		return false
	})
}

// SetSelectedClip updates the weak selection reference. Selecting an
// identifier that no longer resolves clears the selection.
func (e *Editor) SetSelectedClip(clipID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if clipID != "" {
		if c, _ := e.state.findClip(clipID); c == nil {
			clipID = ""
		}
	}
	e.state.SelectedClipID = clipID
}

// SetCurrentTime moves the playhead, clamped to [0, duration].
func (e *Editor) SetCurrentTime(t float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t < 0 {
		t = 0
	}
	if t > e.state.Duration {
		t = e.state.Duration
	}
	e.state.CurrentTime = t
}

// Seek moves the playhead by a relative offset.
func (e *Editor) Seek(delta float64) {
	e.mu.Lock()
	t := e.state.CurrentTime + delta
	e.mu.Unlock()
	e.SetCurrentTime(t)
}

func (e *Editor) SetZoom(z float64) {
	if z <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Zoom = z
}

func (e *Editor) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Playing = true
}

func (e *Editor) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Playing = false
}

func (e *Editor) TogglePlayback() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.Playing = !e.state.Playing
}

func (e *Editor) SetCanvasSize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state.CanvasWidth = width
	e.state.CanvasHeight = height
}

// Reset replaces the state with an empty timeline ("new project").
func (e *Editor) Reset() {
	e.structural("reset", func(s *State) bool {
		*s = *NewState()
		return true
	})
}

// Restore replaces the durable state from a snapshot (project load).
// Missing fields fall back to defaults; selection and playhead are
// re-validated against the restored graph.
func (e *Editor) Restore(snap Snapshot) {
	e.structural("restore", func(s *State) bool {
		e.applySnapshot(s, snap)
		return true
	})
}

func (e *Editor) applySnapshot(s *State, snap Snapshot) {
	snap = snap.Clone()
	if snap.Layers == nil {
		snap.Layers = []*Layer{}
	}
	s.Layers = snap.Layers
	if snap.Zoom > 0 {
		s.Zoom = snap.Zoom
	} else if s.Zoom <= 0 {
		s.Zoom = 1
	}
	s.recomputeDuration()
	if s.SelectedClipID != "" {
		if c, _ := s.findClip(s.SelectedClipID); c == nil {
			s.SelectedClipID = ""
		}
	}
}

// Undo applies the most recent pre-image. Empty history is a silent no-op.
func (e *Editor) Undo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.history.Undo(e.state.Snapshot())
	if !ok {
		return false
	}
	e.applySnapshot(e.state, snap)
	return true
}

func (e *Editor) Redo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.history.Redo(e.state.Snapshot())
	if !ok {
		return false
	}
	e.applySnapshot(e.state, snap)
	return true
}

func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo()
}

func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo()
}

// Serialize returns the durable state: the payload project persistence
// stores and export submission consumes.
func (e *Editor) Serialize() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Snapshot()
}

// State returns a structurally independent copy of the full state,
// including the UI-transient fields.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.state.Snapshot()
	st := *e.state
	st.Layers = snap.Layers
	return st
}

// Clip resolves a clip by identifier, returning a copy. A miss returns
// nil.
func (e *Editor) Clip(clipID string) *Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, _ := e.state.findClip(clipID)
	return c.Clone()
}

// SelectedClip resolves the selection, or nil when nothing valid is
// selected.
func (e *Editor) SelectedClip() *Clip {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, _ := e.state.findClip(e.state.SelectedClipID)
	return c.Clone()
}

// DeleteSelected removes the selected clip, if the selection still
// resolves.
func (e *Editor) DeleteSelected() bool {
	e.mu.Lock()
	id := e.state.SelectedClipID
	e.mu.Unlock()
	if id == "" {
		return false
	}
	return e.RemoveClip(id)
}

// DuplicateSelected duplicates the selected clip, if any.
func (e *Editor) DuplicateSelected() (string, bool) {
	e.mu.Lock()
	id := e.state.SelectedClipID
	e.mu.Unlock()
	if id == "" {
		return "", false
	}
	return e.DuplicateClip(id)
}
