// Package keymap translates keyboard chords into editor operations.
// Chords are normalized strings like "ctrl+shift+z": modifiers in
// ctrl, alt, shift, meta order, then the lowercased key.
package keymap

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/framecut/framecut-engine/internal/timeline"
)

// Action names what a dispatched chord did.
type Action string

const (
	ActionNone              Action = ""
	ActionUndo              Action = "undo"
	ActionRedo              Action = "redo"
	ActionCutAtPlayhead     Action = "cut_at_playhead"
	ActionDeleteSelected    Action = "delete_selected"
	ActionDuplicate         Action = "duplicate_selected"
	ActionTogglePlayback    Action = "toggle_playback"
	ActionSeekBack          Action = "seek_back"
	ActionSeekForward       Action = "seek_forward"
	ActionSeekBackCoarse    Action = "seek_back_coarse"
	ActionSeekForwardCoarse Action = "seek_forward_coarse"
	ActionZoomIn            Action = "zoom_in"
	ActionZoomOut           Action = "zoom_out"
)

const (
	seekStepFine   = 0.1
	seekStepCoarse = 1.0
	zoomFactor     = 1.25
)

// Dispatcher routes chords to a single editor. It is safe for
// concurrent use because the editor itself is.
type Dispatcher struct {
	editor *timeline.Editor
	logger *slog.Logger
}

func NewDispatcher(editor *timeline.Editor, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{editor: editor, logger: logger}
}

// Dispatch runs the operation bound to the chord. Returns the action
// taken and whether the chord was bound at all. Bound chords whose
// operation turns out to be a no-op (nothing selected, nothing to
// undo) still report handled, matching browser behavior where the
// default is suppressed.
func (d *Dispatcher) Dispatch(chord string) (Action, bool) {
	action := d.resolve(Normalize(chord))
	if action == ActionNone {
		return ActionNone, false
	}
	if d.logger != nil {
		d.logger.Debug("chord dispatched", "chord", chord, "action", string(action))
	}
	return action, true
}

func (d *Dispatcher) resolve(chord string) Action {
	switch chord {
	case "ctrl+z", "meta+z":
		d.editor.Undo()
		return ActionUndo
	case "ctrl+shift+z", "meta+shift+z", "ctrl+y":
		d.editor.Redo()
		return ActionRedo
	case "s", "ctrl+k":
		d.editor.CutAtPlayhead()
		return ActionCutAtPlayhead
	case "delete", "backspace":
		d.editor.DeleteSelected()
		return ActionDeleteSelected
	case "ctrl+d", "meta+d":
		d.editor.DuplicateSelected()
		return ActionDuplicate
	case "space":
		d.editor.TogglePlayback()
		return ActionTogglePlayback
	case "arrowleft":
		d.editor.Seek(-seekStepFine)
		return ActionSeekBack
	case "arrowright":
		d.editor.Seek(seekStepFine)
		return ActionSeekForward
	case "shift+arrowleft":
		d.editor.Seek(-seekStepCoarse)
		return ActionSeekBackCoarse
	case "shift+arrowright":
		d.editor.Seek(seekStepCoarse)
		return ActionSeekForwardCoarse
	case "+", "=", "ctrl++", "ctrl+=":
		d.editor.SetZoom(d.editor.State().Zoom * zoomFactor)
		return ActionZoomIn
	case "-", "ctrl+-":
		d.editor.SetZoom(d.editor.State().Zoom / zoomFactor)
		return ActionZoomOut
	default:
		return ActionNone
	}
}

var modifierOrder = map[string]int{"ctrl": 0, "alt": 1, "shift": 2, "meta": 3}

// Normalize lowercases a chord and puts its modifiers in canonical
// order, so "Shift+Ctrl+Z" and "ctrl+shift+z" dispatch identically.
// A trailing "+" key (as in "ctrl++") is preserved.
func Normalize(chord string) string {
	lower := strings.ToLower(strings.TrimSpace(chord))
	if lower == "" {
		return ""
	}

	key := "+"
	body := lower
	if !strings.HasSuffix(lower, "++") && lower != "+" {
		parts := strings.Split(lower, "+")
		key = parts[len(parts)-1]
		body = strings.Join(parts[:len(parts)-1], "+")
	} else {
		body = strings.TrimSuffix(lower, "+")
		body = strings.TrimSuffix(body, "+")
	}

	var mods []string
	for _, p := range strings.Split(body, "+") {
		if p == "" {
			continue
		}
		if _, ok := modifierOrder[p]; ok {
			mods = append(mods, p)
		} else {
			// A non-modifier in the body means the chord was malformed;
			// treat the part as the key and ignore the rest.
			key = p
		}
	}
	sort.Slice(mods, func(i, j int) bool {
		return modifierOrder[mods[i]] < modifierOrder[mods[j]]
	})

	if len(mods) == 0 {
		return key
	}
	return strings.Join(mods, "+") + "+" + key
}
