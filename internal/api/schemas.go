package api

import (
	"time"

	"github.com/framecut/framecut-engine/internal/export"
	"github.com/framecut/framecut-engine/internal/media"
	"github.com/framecut/framecut-engine/internal/project"
	"github.com/framecut/framecut-engine/internal/session"
	"github.com/framecut/framecut-engine/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	Sessions int    `json:"sessions"`
}

type SessionResponse struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	CanUndo   bool   `json:"can_undo"`
	CanRedo   bool   `json:"can_redo"`
}

type SessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

type SessionStateResponse struct {
	Session SessionResponse `json:"session"`
	State   timeline.State  `json:"state"`
}

// EditRequest is the single edit endpoint's payload. Op selects the
// operation; the other fields carry that operation's parameters and are
// ignored otherwise. Optional numerics are pointers so zero values stay
// distinguishable from absent ones.
type EditRequest struct {
	Op         string               `json:"op"`
	LayerKind  string               `json:"layer_kind,omitempty"`
	LayerName  string               `json:"layer_name,omitempty"`
	LayerIndex *int                 `json:"layer_index,omitempty"`
	Clip       *ClipPayload         `json:"clip,omitempty"`
	ClipID     string               `json:"clip_id,omitempty"`
	At         *float64             `json:"at,omitempty"`
	StartTime  *float64             `json:"start_time,omitempty"`
	TrimStart  *float64             `json:"trim_start,omitempty"`
	TrimEnd    *float64             `json:"trim_end,omitempty"`
	Edge       string               `json:"edge,omitempty"`
	Transition *timeline.Transition `json:"transition,omitempty"`
	Keyframe   *timeline.Keyframe   `json:"keyframe,omitempty"`
	Time       *float64             `json:"time,omitempty"`
	Transform  *timeline.Transform  `json:"transform,omitempty"`
	Effect     *timeline.Effect     `json:"effect,omitempty"`
	EffectID   string               `json:"effect_id,omitempty"`
	Value      *float64             `json:"value,omitempty"`
	Width      *int                 `json:"width,omitempty"`
	Height     *int                 `json:"height,omitempty"`
}

type ClipPayload struct {
	AssetID   string  `json:"asset_id"`
	Name      string  `json:"name,omitempty"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	TrimStart float64 `json:"trim_start,omitempty"`
	TrimEnd   float64 `json:"trim_end,omitempty"`
}

// ToClip builds the editor clip, assigning the identifier up front so
// handlers can return it after the editor clones the value.
func (p *ClipPayload) ToClip() *timeline.Clip {
	return &timeline.Clip{
		ID:        timeline.NewID(),
		AssetID:   p.AssetID,
		Name:      p.Name,
		StartTime: p.StartTime,
		Duration:  p.Duration,
		TrimStart: p.TrimStart,
		TrimEnd:   p.TrimEnd,
	}
}

type EditResponse struct {
	Op       string         `json:"op"`
	Applied  bool           `json:"applied"`
	LayerID  string         `json:"layer_id,omitempty"`
	ClipID   string         `json:"clip_id,omitempty"`
	LeftID   string         `json:"left_id,omitempty"`
	RightID  string         `json:"right_id,omitempty"`
	EffectID string         `json:"effect_id,omitempty"`
	CanUndo  bool           `json:"can_undo"`
	CanRedo  bool           `json:"can_redo"`
	State    timeline.State `json:"state"`
}

type HistoryResponse struct {
	Applied bool           `json:"applied"`
	CanUndo bool           `json:"can_undo"`
	CanRedo bool           `json:"can_redo"`
	State   timeline.State `json:"state"`
}

type KeyRequest struct {
	Chord string `json:"chord"`
}

type KeyResponse struct {
	Action  string         `json:"action"`
	Handled bool           `json:"handled"`
	State   timeline.State `json:"state"`
}

type ExportStartRequest struct {
	Settings export.Settings `json:"settings"`
}

type ExportTaskResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Progress     int    `json:"progress"`
	Error        string `json:"error,omitempty"`
	OutputRef    string `json:"output_ref,omitempty"`
	ArtifactPath string `json:"artifact_path,omitempty"`
	Filename     string `json:"filename,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type AssetResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	MimeType  string  `json:"mime_type,omitempty"`
	SizeBytes int64   `json:"size_bytes"`
	Duration  float64 `json:"duration"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type AssetsResponse struct {
	Assets []AssetResponse `json:"assets"`
}

type ProbeRequest struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
}

type SaveProjectRequest struct {
	Name      string `json:"name"`
	SessionID string `json:"session_id"`
}

type LoadProjectRequest struct {
	SessionID string `json:"session_id"`
}

type ProjectResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ProjectsResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func SessionToResponse(s *session.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		CanUndo:   s.Editor.CanUndo(),
		CanRedo:   s.Editor.CanRedo(),
	}
}

func TaskToResponse(t export.Task) ExportTaskResponse {
	return ExportTaskResponse{
		ID:           t.ID,
		Status:       string(t.Status),
		Progress:     t.Progress,
		Error:        t.Error,
		OutputRef:    t.OutputRef,
		ArtifactPath: t.ArtifactPath,
		Filename:     t.Filename,
		CreatedAt:    t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    t.UpdatedAt.Format(time.RFC3339),
	}
}

func AssetToResponse(a *media.Asset) AssetResponse {
	return AssetResponse{
		ID:        a.ID,
		Name:      a.Name,
		Kind:      a.Kind,
		MimeType:  a.MimeType,
		SizeBytes: a.SizeBytes,
		Duration:  a.Duration,
		Width:     a.Width,
		Height:    a.Height,
		CreatedAt: a.CreatedAt.Format(time.RFC3339),
	}
}

func ProjectToResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
	}
}
