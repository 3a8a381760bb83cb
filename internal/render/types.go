package render

import "github.com/framecut/framecut-engine/internal/timeline"

// Job states as reported by the render service. The service owns these;
// the export controller maps them onto its local task state.
const (
	StatePending    = "pending"
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateFailed     = "failed"
	StateCancelled  = "cancelled"
)

// SubmitRequest is the body sent to POST /api/render/jobs. The timeline is
// a point-in-time snapshot; the service never sees later edits.
type SubmitRequest struct {
	Timeline timeline.Snapshot `json:"timeline"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Format   string            `json:"format"`
	Quality  string            `json:"quality"`
	Filename string            `json:"filename"`
}

type SubmitResponse struct {
	TaskID string `json:"task_id"`
}

// JobStatus is the response from GET /api/render/jobs/{id}.
type JobStatus struct {
	TaskID    string `json:"task_id"`
	State     string `json:"state"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	OutputRef string `json:"output_ref,omitempty"`
}

// Terminal reports whether the job can make no further transitions.
func (s *JobStatus) Terminal() bool {
	switch s.State {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}
