package timeline

// Pure structural edits on single clips. None of these mutate their input;
// callers (the Editor) decide placement and replacement. Invalid inputs are
// signalled with nil returns, never errors: out-of-bounds cuts and
// degenerate trims are routine user input, and the UI is expected to skip
// the edit.

// CutAt splits a clip at a time relative to the clip's start. The cut must
// lie strictly inside (0, clip.Duration); otherwise both returns are nil.
//
// The two halves exactly reconstruct the original timeline footprint, and
// their trim offsets still address the correct sub-ranges of the shared
// source. Keyframes are partitioned by time and re-based onto each half's
// local clock; a keyframe exactly at the boundary goes to the right half.
// The left half keeps the entry transition, the right half the exit
// transition.
func CutAt(c *Clip, at float64) (*Clip, *Clip) {
	if c == nil || at <= 0 || at >= c.Duration {
		return nil, nil
	}

	left := c.Clone()
	left.ID = NewID()
	left.Duration = at
	left.TrimEnd = c.TrimStart + at
	left.TransitionOut = nil

	right := c.Clone()
	right.ID = NewID()
	right.StartTime = c.StartTime + at
	right.Duration = c.Duration - at
	right.TrimStart = c.TrimStart + at
	right.TransitionIn = nil

	left.Keyframes = nil
	right.Keyframes = nil
	for _, k := range c.Keyframes {
		if k.Time < at {
			left.Keyframes = append(left.Keyframes, k.Clone())
		} else {
			r := k.Clone()
			r.Time = k.Time - at
			right.Keyframes = append(right.Keyframes, r)
		}
	}

	return left, right
}

// Duplicate returns a deep, independent copy of the clip with a fresh
// identifier. Placement on the timeline is the caller's responsibility.
func Duplicate(c *Clip) *Clip {
	if c == nil {
		return nil
	}
	d := c.Clone()
	d.ID = NewID()
	return d
}

// TrimTo re-trims a clip to the given source offsets. sourceDuration is the
// known duration of the source asset, or 0 when unknown; when known, the
// offsets are clamped to [0, sourceDuration]. Returns nil if the resulting
// duration would not be positive. The clip's timeline position is
// unchanged; keyframes past the new duration are dropped.
func TrimTo(c *Clip, trimStart, trimEnd, sourceDuration float64) *Clip {
	if c == nil {
		return nil
	}
	if trimStart < 0 {
		trimStart = 0
	}
	if sourceDuration > 0 {
		if trimStart > sourceDuration {
			trimStart = sourceDuration
		}
		if trimEnd > sourceDuration {
			trimEnd = sourceDuration
		}
	}
	dur := trimEnd - trimStart
	if dur <= 0 {
		return nil
	}

	t := c.Clone()
	t.TrimStart = trimStart
	t.TrimEnd = trimEnd
	t.Duration = dur
	if len(t.Keyframes) > 0 {
		kept := t.Keyframes[:0]
		for _, k := range t.Keyframes {
			if k.Time <= dur {
				kept = append(kept, k)
			}
		}
		t.Keyframes = kept
	}
	return t
}

// upsertKeyframe inserts a keyframe keeping the sequence sorted by time.
// A keyframe at an existing time replaces it (last write wins).
func upsertKeyframe(c *Clip, kf Keyframe) {
	for i, k := range c.Keyframes {
		if k.Time == kf.Time {
			c.Keyframes[i] = kf
			return
		}
		if k.Time > kf.Time {
			c.Keyframes = append(c.Keyframes, Keyframe{})
			copy(c.Keyframes[i+1:], c.Keyframes[i:])
			c.Keyframes[i] = kf
			return
		}
	}
	c.Keyframes = append(c.Keyframes, kf)
}

func removeKeyframe(c *Clip, time float64) bool {
	for i, k := range c.Keyframes {
		if k.Time == time {
			c.Keyframes = append(c.Keyframes[:i], c.Keyframes[i+1:]...)
			return true
		}
	}
	return false
}
