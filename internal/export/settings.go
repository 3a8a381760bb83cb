// Package export owns the lifecycle of at most one render job per editor
// session: submission, sequential status polling, cancellation, artifact
// download, and the settings the job is submitted with.
package export

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Resolution presets, keyed by the marketing name. The value is the base
// length of the shorter canvas side the preset promises.
var presetBase = map[string]int{
	"480p":  480,
	"720p":  720,
	"1080p": 1080,
	"1440p": 1440,
	"2160p": 2160,
}

// Settings describe one export. Width/Height may be given directly
// ("custom"); otherwise they are derived from Preset × AspectRatio.
type Settings struct {
	Preset      string `json:"preset,omitempty"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Format      string `json:"format"`
	Quality     string `json:"quality"`
	Filename    string `json:"filename"`
}

// Resolution returns the effective output dimensions.
//
// Derivation rule for preset × ratio: the preset's base value is assigned
// to the smaller side. A ratio ≥ 1 (landscape or square) pins the height
// to the base and computes width = height × ratio; a ratio < 1 (portrait)
// pins the width and computes height = width / ratio. The computed side is
// rounded to the nearest integer.
func (s Settings) Resolution() (width, height int, err error) {
	if s.Width > 0 && s.Height > 0 {
		return s.Width, s.Height, nil
	}

	base, ok := presetBase[s.Preset]
	if !ok {
		return 0, 0, fmt.Errorf("unknown resolution preset %q", s.Preset)
	}
	ratio, err := parseAspectRatio(s.AspectRatio)
	if err != nil {
		return 0, 0, err
	}

	if ratio >= 1 {
		height = base
		width = int(math.Round(float64(base) * ratio))
	} else {
		width = base
		height = int(math.Round(float64(base) / ratio))
	}
	return width, height, nil
}

// Validate normalizes and checks the settings before submission.
func (s *Settings) Validate() error {
	if s.Format == "" {
		s.Format = "mp4"
	}
	if s.Quality == "" {
		s.Quality = "high"
	}
	if s.Filename == "" {
		s.Filename = "export." + s.Format
	}
	s.Filename = SanitizeName(s.Filename, 120)
	if s.Filename == "" {
		return fmt.Errorf("filename is empty after sanitizing")
	}
	if _, _, err := s.Resolution(); err != nil {
		return err
	}
	return nil
}

// parseAspectRatio parses "W:H" into W/H.
func parseAspectRatio(spec string) (float64, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid aspect ratio %q", spec)
	}
	w, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, fmt.Errorf("invalid aspect ratio %q", spec)
	}
	return w / h, nil
}
