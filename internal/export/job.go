package export

import (
	"fmt"
	"sync"
	"time"

	"github.com/3IMAD69/LocalCut-sub000/internal/engine"
	"github.com/3IMAD69/LocalCut-sub000/pkg/models"
)

// Job status constants
const (
	StatusPending    = "pending"
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Job priority constants
const (
	PriorityLow    = 0
	PriorityNormal = 5
	PriorityHigh   = 10
)

// Request describes one export: a clip, its committed editing state and
// the output settings. Transient drag overrides never appear here; the
// conversion is parameterized by committed edits only, through the same
// pipeline functions the preview uses.
type Request struct {
	Clip       *models.TimelineClip `json:"clip"`
	Asset      *models.MediaAsset   `json:"asset"`
	Editing    models.EditingState  `json:"editing"`
	OutputPath string               `json:"output_path"`
	VideoCodec string               `json:"video_codec,omitempty"`
	AudioCodec string               `json:"audio_codec,omitempty"`
	Priority   int                  `json:"priority"`
}

// JobError wraps an export-time failure. The job returns to a retryable
// terminal state and the timeline model is untouched.
type JobError struct {
	JobID string
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("export job %s failed: %v", e.JobID, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// Job is one export job and its live status.
type Job struct {
	mu sync.Mutex

	ID        string    `json:"id"`
	Request   Request   `json:"request"`
	CreatedAt time.Time `json:"created_at"`

	Status    string                  `json:"status"`
	Progress  float64                 `json:"progress"`
	ErrorMsg  string                  `json:"error_msg,omitempty"`
	Discarded []engine.DiscardedTrack `json:"discarded,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	cancel func()
}

func (j *Job) setStatus(status string) {
	j.mu.Lock()
	j.Status = status
	j.mu.Unlock()
}

func (j *Job) setProgress(p float64) {
	j.mu.Lock()
	j.Progress = p
	j.mu.Unlock()
}

// SnapshotStatus returns the job's status fields without racing the worker.
func (j *Job) SnapshotStatus() (status string, progress float64, errMsg string, discarded []engine.DiscardedTrack) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.Status, j.Progress, j.ErrorMsg, j.Discarded
}
