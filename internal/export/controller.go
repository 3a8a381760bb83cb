package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/framecut/framecut-engine/internal/render"
	"github.com/framecut/framecut-engine/internal/timeline"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal states permit no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Task mirrors the render service's handle for one in-flight export, plus
// the locally downloaded artifact once the job completes.
type Task struct {
	ID           string    `json:"id"`
	Status       Status    `json:"status"`
	Progress     int       `json:"progress"`
	Error        string    `json:"error,omitempty"`
	OutputRef    string    `json:"output_ref,omitempty"`
	ArtifactPath string    `json:"artifact_path,omitempty"`
	Filename     string    `json:"filename"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Event is pushed to the controller's observer on every task transition.
type Event struct {
	Type string `json:"type"`
	Task Task   `json:"task"`
}

const (
	EventProgress  = "progress"
	EventCompleted = "completed"
	EventFailed    = "failed"
	EventCancelled = "cancelled"
)

var (
	// ErrExportActive rejects a second export while one is non-terminal.
	ErrExportActive = errors.New("an export is already in progress")
	// ErrNoActiveExport rejects cancelling when nothing can be cancelled.
	ErrNoActiveExport = errors.New("no active export to cancel")
)

// DefaultPollInterval is how often the render service is asked for status
// while a job is non-terminal.
const DefaultPollInterval = 2 * time.Second

// Controller drives at most one export at a time. Polls are issued
// strictly sequentially: the next poll is scheduled only after the
// previous response is applied. A terminal local state always wins over
// late poll responses, so a stray "processing" arriving after a cancel
// can never resurrect the task.
type Controller struct {
	client       render.Client
	logger       *slog.Logger
	pollInterval time.Duration
	artifactsDir string

	mu         sync.Mutex
	task       *Task
	cancelPoll context.CancelFunc
	onEvent    func(Event)
}

func NewController(client render.Client, artifactsDir string, pollInterval time.Duration, logger *slog.Logger) *Controller {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Controller{
		client:       client,
		logger:       logger,
		pollInterval: pollInterval,
		artifactsDir: artifactsDir,
	}
}

// OnEvent registers the single observer for task transitions. Must be set
// before the first Start.
func (c *Controller) OnEvent(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = fn
}

// Task returns a copy of the current task, or ok == false when the
// controller is idle.
func (c *Controller) Task() (Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task == nil {
		return Task{}, false
	}
	return *c.task, true
}

// Start submits the timeline snapshot and begins polling. The snapshot is
// a point-in-time copy: later edits to the live timeline do not affect the
// job. Returns ErrExportActive while a previous task is non-terminal; a
// submit failure leaves the controller in the failed state, from which a
// fresh Start is allowed.
func (c *Controller) Start(ctx context.Context, snap timeline.Snapshot, settings Settings) (Task, error) {
	if err := settings.Validate(); err != nil {
		return Task{}, err
	}
	width, height, err := settings.Resolution()
	if err != nil {
		return Task{}, err
	}

	now := time.Now()
	c.mu.Lock()
	if c.task != nil && !c.task.Status.Terminal() {
		c.mu.Unlock()
		return Task{}, ErrExportActive
	}
	c.task = &Task{
		Status:    StatusPending,
		Filename:  settings.Filename,
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.mu.Unlock()

	taskID, err := c.client.Submit(ctx, render.SubmitRequest{
		Timeline: snap,
		Width:    width,
		Height:   height,
		Format:   settings.Format,
		Quality:  settings.Quality,
		Filename: settings.Filename,
	})
	if err != nil {
		return c.fail("", fmt.Sprintf("failed to start export: %v", err)), err
	}

	pollCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	c.task.ID = taskID
	c.task.UpdatedAt = time.Now()
	c.cancelPoll = cancel
	task := *c.task
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("export started",
			"task_id", taskID,
			"resolution", fmt.Sprintf("%dx%d", width, height),
			"format", settings.Format,
		)
	}
	c.emit(EventProgress, task)

	go c.pollLoop(pollCtx, taskID)
	return task, nil
}

// Cancel aborts the active export. Only valid while the task is
// non-terminal. On success the local state flips to cancelled immediately,
// without waiting for the next poll; on failure the last known state is
// left untouched and the error is surfaced.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.task == nil || c.task.ID == "" || c.task.Status.Terminal() {
		c.mu.Unlock()
		return ErrNoActiveExport
	}
	taskID := c.task.ID
	c.mu.Unlock()

	if err := c.client.Cancel(ctx, taskID); err != nil {
		return fmt.Errorf("cancel export: %w", err)
	}

	c.mu.Lock()
	// The job may have finished while the cancel request was in flight;
	// terminal state wins either way.
	if c.task == nil || c.task.ID != taskID || c.task.Status.Terminal() {
		c.mu.Unlock()
		return nil
	}
	c.task.Status = StatusCancelled
	c.task.UpdatedAt = time.Now()
	task := *c.task
	c.stopPolling()
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("export cancelled", "task_id", taskID)
	}
	c.emit(EventCancelled, task)
	return nil
}

// Clear drops a terminal task so the UI returns to an actionable idle
// state. Clearing a non-terminal task is refused.
func (c *Controller) Clear() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.task == nil || !c.task.Status.Terminal() {
		return false
	}
	c.task = nil
	return true
}

// Close stops any polling; used on session teardown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPolling()
}

func (c *Controller) stopPolling() {
	if c.cancelPoll != nil {
		c.cancelPoll()
		c.cancelPoll = nil
	}
}

// pollLoop queries status on a fixed interval until the task reaches a
// terminal state. A new poll is never issued before the previous one
// resolves; the timer is re-armed only after the response is applied.
func (c *Controller) pollLoop(ctx context.Context, taskID string) {
	timer := time.NewTimer(c.pollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		st, err := c.client.Status(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.fail(taskID, fmt.Sprintf("export status poll failed: %v", err))
			return
		}

		if done := c.applyPoll(taskID, st); done {
			return
		}
		timer.Reset(c.pollInterval)
	}
}

// applyPoll folds one poll response into the local task. Returns true when
// the loop should stop. Responses for a replaced task or a locally
// terminal task are ignored.
func (c *Controller) applyPoll(taskID string, st *render.JobStatus) bool {
	c.mu.Lock()
	if c.task == nil || c.task.ID != taskID || c.task.Status.Terminal() {
		c.mu.Unlock()
		return true
	}

	switch st.State {
	case render.StatePending:
		c.task.Status = StatusPending
	case render.StateProcessing:
		c.task.Status = StatusProcessing
	case render.StateCompleted:
		// Completion is acknowledged only after the artifact is on disk.
		// Until delivery succeeds the task stays non-terminal, so a
		// download error can still transition it to failed.
		c.task.Status = StatusProcessing
		c.task.Progress = 100
	case render.StateFailed:
		c.task.Status = StatusFailed
		if st.Error != "" {
			c.task.Error = st.Error
		} else {
			c.task.Error = "render job failed"
		}
	case render.StateCancelled:
		c.task.Status = StatusCancelled
	default:
		c.mu.Unlock()
		if c.logger != nil {
			c.logger.Warn("unknown render job state", "task_id", taskID, "state", st.State)
		}
		return false
	}

	if st.State != render.StateCompleted {
		c.task.Progress = clampProgress(st.Progress)
	}
	c.task.OutputRef = st.OutputRef
	c.task.UpdatedAt = time.Now()
	task := *c.task
	done := c.task.Status.Terminal() || st.State == render.StateCompleted
	if done {
		c.stopPolling()
	}
	c.mu.Unlock()

	switch {
	case st.State == render.StateCompleted:
		c.deliver(task)
	case task.Status == StatusFailed:
		c.emit(EventFailed, task)
	case task.Status == StatusCancelled:
		c.emit(EventCancelled, task)
	default:
		c.emit(EventProgress, task)
	}
	return done
}

// deliver fetches the finished artifact, writes it under the artifacts
// dir, then flips the task to completed and clears it back to idle; a
// completed task is ephemeral. A download failure transitions the task
// to failed instead, with the error surfaced.
func (c *Controller) deliver(task Task) {
	path, err := c.download(task)
	if err != nil {
		c.fail(task.ID, fmt.Sprintf("export output download failed: %v", err))
		return
	}

	c.mu.Lock()
	if c.task == nil || c.task.ID != task.ID || c.task.Status.Terminal() {
		// Cancelled or replaced while the download was in flight;
		// terminal state wins and the artifact is discarded.
		c.mu.Unlock()
		os.Remove(path)
		return
	}
	c.task.Status = StatusCompleted
	c.task.Progress = 100
	c.task.ArtifactPath = path
	c.task.UpdatedAt = time.Now()
	task = *c.task
	c.task = nil
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Info("export completed", "task_id", task.ID, "artifact", path)
	}
	c.emit(EventCompleted, task)
}

func (c *Controller) download(task Task) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	rc, err := c.client.FetchOutput(ctx, task.ID)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	if err := os.MkdirAll(c.artifactsDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(c.artifactsDir, task.ID+"_"+task.Filename)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// fail transitions to failed unless a terminal state is already set.
// taskID may be empty during submission, before the service issued one.
func (c *Controller) fail(taskID, msg string) Task {
	c.mu.Lock()
	if c.task == nil || c.task.ID != taskID || c.task.Status.Terminal() {
		t := Task{}
		if c.task != nil {
			t = *c.task
		}
		c.mu.Unlock()
		return t
	}
	c.task.Status = StatusFailed
	c.task.Error = msg
	c.task.UpdatedAt = time.Now()
	task := *c.task
	c.stopPolling()
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.Error("export failed", "task_id", taskID, "error", msg)
	}
	c.emit(EventFailed, task)
	return task
}

// clampProgress bounds a service-reported percentage to [0, 100].
func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func (c *Controller) emit(eventType string, task Task) {
	c.mu.Lock()
	fn := c.onEvent
	c.mu.Unlock()
	if fn != nil {
		fn(Event{Type: eventType, Task: task})
	}
}
