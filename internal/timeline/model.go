// Package timeline holds the in-memory edit model for a single project:
// the layer/clip graph, the pure clip operations, and the snapshot-based
// undo/redo history. All times are in seconds.
package timeline

import (
	"github.com/google/uuid"
)

type LayerKind string

const (
	LayerVideo LayerKind = "video"
	LayerAudio LayerKind = "audio"
	LayerText  LayerKind = "text"
	LayerImage LayerKind = "image"
)

type TransitionType string

const (
	TransitionFade     TransitionType = "fade"
	TransitionDissolve TransitionType = "dissolve"
	TransitionWipe     TransitionType = "wipe"
	TransitionSlide    TransitionType = "slide"
)

type Easing string

const (
	EasingLinear Easing = "linear"
	EasingIn     Easing = "ease-in"
	EasingOut    Easing = "ease-out"
	EasingInOut  Easing = "ease-in-out"
)

// Transition is an entry or exit transition on a clip edge.
type Transition struct {
	Type     TransitionType    `json:"type"`
	Duration float64           `json:"duration"`
	Props    map[string]string `json:"props,omitempty"`
}

// Transform is the spatial placement of a clip on the canvas. Pointer
// fields distinguish "not set" from zero, so keyframes can carry partial
// transforms.
type Transform struct {
	X        *float64 `json:"x,omitempty"`
	Y        *float64 `json:"y,omitempty"`
	Scale    *float64 `json:"scale,omitempty"`
	Rotation *float64 `json:"rotation,omitempty"`
	Opacity  *float64 `json:"opacity,omitempty"`
}

// Keyframe pins a partial transform at a time within the clip's local
// clock, interpolated with the given easing.
type Keyframe struct {
	Time   float64   `json:"time"`
	Value  Transform `json:"value"`
	Easing Easing    `json:"easing"`
}

type Effect struct {
	ID    string            `json:"id"`
	Type  string            `json:"type"`
	Props map[string]string `json:"props,omitempty"`
}

// Clip is a placed, trimmed reference to a source asset. It holds only the
// asset's identifier; the asset itself belongs to the media catalog.
// Invariant: Duration == TrimEnd - TrimStart after every clip operation.
type Clip struct {
	ID            string      `json:"id"`
	AssetID       string      `json:"asset_id"`
	Name          string      `json:"name,omitempty"`
	StartTime     float64     `json:"start_time"`
	Duration      float64     `json:"duration"`
	TrimStart     float64     `json:"trim_start"`
	TrimEnd       float64     `json:"trim_end"`
	TransitionIn  *Transition `json:"transition_in,omitempty"`
	TransitionOut *Transition `json:"transition_out,omitempty"`
	Effects       []Effect    `json:"effects,omitempty"`
	Transform     *Transform  `json:"transform,omitempty"`
	Keyframes     []Keyframe  `json:"keyframes,omitempty"`
}

// Layer is an ordered track holding clips of one kind. Clips on a layer
// may overlap; compositing order is a rendering concern, not an edit-model
// concern.
type Layer struct {
	ID      string    `json:"id"`
	Kind    LayerKind `json:"kind"`
	Name    string    `json:"name"`
	Clips   []*Clip   `json:"clips"`
	Locked  bool      `json:"locked"`
	Visible bool      `json:"visible"`
	Muted   bool      `json:"muted"`
}

// State is the aggregate root for one timeline. Duration is derived: the
// max over all clips of startTime+duration, recomputed after every
// structural mutation. SelectedClipID is a weak reference resolved by
// lookup at use time.
type State struct {
	Layers         []*Layer `json:"layers"`
	CurrentTime    float64  `json:"current_time"`
	Duration       float64  `json:"duration"`
	SelectedClipID string   `json:"selected_clip_id,omitempty"`
	Zoom           float64  `json:"zoom"`
	Playing        bool     `json:"playing"`
	CanvasWidth    int      `json:"canvas_width"`
	CanvasHeight   int      `json:"canvas_height"`
}

// Snapshot is the structurally independent copy of timeline state used for
// undo/redo and export submission. Selection, playhead, and playback are
// UI-transient and excluded.
type Snapshot struct {
	Layers   []*Layer `json:"layers"`
	Duration float64  `json:"duration"`
	Zoom     float64  `json:"zoom"`
}

func NewID() string {
	return uuid.NewString()
}

// NewState returns an empty timeline at default zoom and canvas size.
func NewState() *State {
	return &State{
		Zoom:         1,
		CanvasWidth:  1920,
		CanvasHeight: 1080,
	}
}

func (t *Transition) Clone() *Transition {
	if t == nil {
		return nil
	}
	c := *t
	if t.Props != nil {
		c.Props = make(map[string]string, len(t.Props))
		for k, v := range t.Props {
			c.Props[k] = v
		}
	}
	return &c
}

func (t *Transform) Clone() *Transform {
	if t == nil {
		return nil
	}
	c := Transform{}
	c.X = cloneFloat(t.X)
	c.Y = cloneFloat(t.Y)
	c.Scale = cloneFloat(t.Scale)
	c.Rotation = cloneFloat(t.Rotation)
	c.Opacity = cloneFloat(t.Opacity)
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func (e Effect) Clone() Effect {
	c := e
	if e.Props != nil {
		c.Props = make(map[string]string, len(e.Props))
		for k, v := range e.Props {
			c.Props[k] = v
		}
	}
	return c
}

func (k Keyframe) Clone() Keyframe {
	c := k
	if cl := k.Value.Clone(); cl != nil {
		c.Value = *cl
	}
	return c
}

// Clone returns a deep copy of the clip, keeping the same identifier.
func (c *Clip) Clone() *Clip {
	if c == nil {
		return nil
	}
	cp := *c
	cp.TransitionIn = c.TransitionIn.Clone()
	cp.TransitionOut = c.TransitionOut.Clone()
	cp.Transform = c.Transform.Clone()
	if c.Effects != nil {
		cp.Effects = make([]Effect, len(c.Effects))
		for i, e := range c.Effects {
			cp.Effects[i] = e.Clone()
		}
	}
	if c.Keyframes != nil {
		cp.Keyframes = make([]Keyframe, len(c.Keyframes))
		for i, k := range c.Keyframes {
			cp.Keyframes[i] = k.Clone()
		}
	}
	return &cp
}

// End returns the clip's end position on the timeline.
func (c *Clip) End() float64 {
	return c.StartTime + c.Duration
}

func (l *Layer) Clone() *Layer {
	if l == nil {
		return nil
	}
	cp := *l
	cp.Clips = make([]*Clip, len(l.Clips))
	for i, c := range l.Clips {
		cp.Clips[i] = c.Clone()
	}
	return &cp
}

func (l *Layer) findClip(id string) int {
	for i, c := range l.Clips {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Snapshot produces a deep copy of the durable parts of the state.
func (s *State) Snapshot() Snapshot {
	layers := make([]*Layer, len(s.Layers))
	for i, l := range s.Layers {
		layers[i] = l.Clone()
	}
	return Snapshot{Layers: layers, Duration: s.Duration, Zoom: s.Zoom}
}

// Clone returns a structurally independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	layers := make([]*Layer, len(s.Layers))
	for i, l := range s.Layers {
		layers[i] = l.Clone()
	}
	return Snapshot{Layers: layers, Duration: s.Duration, Zoom: s.Zoom}
}

// recomputeDuration rescans all clips. O(total clips) per mutation, which
// is fine at human editing pace.
func (s *State) recomputeDuration() {
	max := 0.0
	for _, l := range s.Layers {
		for _, c := range l.Clips {
			if end := c.End(); end > max {
				max = end
			}
		}
	}
	s.Duration = max
	if s.CurrentTime > max {
		s.CurrentTime = max
	}
}

// findClip resolves a clip identifier across all layers. Returns the clip
// and its layer index, or (nil, -1) on a miss.
func (s *State) findClip(id string) (*Clip, int) {
	if id == "" {
		return nil, -1
	}
	for li, l := range s.Layers {
		if i := l.findClip(id); i >= 0 {
			return l.Clips[i], li
		}
	}
	return nil, -1
}
