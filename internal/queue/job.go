package queue

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

type JobType string

const (
	JobTypeAIGeneration    JobType = "ai_generation"
	JobTypeBatchGeneration JobType = "batch_generation"
	JobTypeExport          JobType = "export"
	JobTypeImport          JobType = "import"
	JobTypeMediaProcessing JobType = "media_processing"
)

// KnownJobType reports whether t is one of the job types the queue accepts.
func KnownJobType(t JobType) bool {
	switch t {
	case JobTypeAIGeneration, JobTypeBatchGeneration, JobTypeExport, JobTypeImport, JobTypeMediaProcessing:
		return true
	}
	return false
}

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Finished reports whether the status is terminal. Terminal jobs are never
// mutated again.
func (s JobStatus) Finished() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// validTransition encodes the job state machine:
//
//	pending    -> processing | cancelled
//	processing -> completed | failed | cancelled
//
// There is no processing -> pending edge: the queue never requeues, retries
// are the caller's responsibility by creating a new job.
func validTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusPending:
		return to == JobStatusProcessing || to == JobStatusCancelled
	case JobStatusProcessing:
		return to.Finished()
	}
	return false
}

// Job is one unit of asynchronous work tracked through the status lifecycle.
// Data, Result and Metadata are opaque to the queue.
type Job struct {
	ID          string         `json:"id"`
	Type        JobType        `json:"type"`
	UserID      string         `json:"userId"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"`
	Data        map[string]any `json:"data,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// clone returns a shallow snapshot safe to hand outside the queue's lock.
// Payload maps are shared; by contract nobody mutates them after creation.
func (j *Job) clone() *Job {
	snapshot := *j
	return &snapshot
}

func newJobID() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("job_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
