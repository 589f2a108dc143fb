package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Workflow status constants
const (
	WorkflowStatusActive    = "active"
	WorkflowStatusPaused    = "paused"
	WorkflowStatusCompleted = "completed"
)

// Workflow job status constants
const (
	WorkflowJobStatusPending    = "pending"
	WorkflowJobStatusProcessing = "processing"
	WorkflowJobStatusCompleted  = "completed"
	WorkflowJobStatusFailed     = "failed"
)

// WorkflowStep is one step of a workflow template. Steps are data, not code:
// the service function is a named reference resolved by an external driver,
// the mappings declare which workflow context keys feed the step and which
// keys its output populates.
type WorkflowStep struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Type              string            `json:"type"`
	ServiceFunction   string            `json:"serviceFunction"`
	InputMapping      map[string]string `json:"inputMapping,omitempty"`
	OutputMapping     map[string]string `json:"outputMapping,omitempty"`
	EstimatedDuration int               `json:"estimatedDuration"` // seconds
	EstimatedCost     int               `json:"estimatedCost"`     // cents
}

// Workflow is a multi-step pipeline instance. Steps are frozen at creation
// time from the template, later template edits never affect existing rows.
type Workflow struct {
	ID               uuid.UUID `gorm:"primaryKey"`
	CreatorID        string    `gorm:"index;not null"`
	Name             string    `gorm:"not null"`
	Description      string
	WorkflowType     string `gorm:"not null"`
	SourceType       string
	SourceID         string
	Steps            *JSONField[[]WorkflowStep] `gorm:"type:jsonb"`
	Status           string                     `gorm:"not null"`
	CurrentStepIndex int
	CompletedSteps   *JSONField[[]int] `gorm:"type:jsonb"`
	Jobs             []WorkflowJob     `gorm:"constraint:OnDelete:CASCADE;"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (w Workflow) String() string {
	val, _ := json.Marshal(w)
	return string(val)
}

// StepList returns the frozen step definitions, never nil.
func (w *Workflow) StepList() []WorkflowStep {
	if w.Steps == nil {
		return nil
	}
	return w.Steps.Data
}

// CompletedStepList returns the indices of completed steps, never nil.
func (w *Workflow) CompletedStepList() []int {
	if w.CompletedSteps == nil {
		return []int{}
	}
	return w.CompletedSteps.Data
}

// WorkflowJob tracks one step execution attempt. It is bookkeeping owned by
// the orchestrator and is not routed through the job queue.
type WorkflowJob struct {
	ID         uuid.UUID `gorm:"primaryKey"`
	WorkflowID uuid.UUID `gorm:"index;not null"`
	StepIndex  int       `gorm:"not null"`
	JobType    string
	InputData  *JSONField[map[string]any] `gorm:"type:jsonb"`
	Status     string                     `gorm:"not null"`
	Progress   int
	Error      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Finished reports whether the workflow job reached a terminal status.
func (j *WorkflowJob) Finished() bool {
	return j.Status == WorkflowJobStatusCompleted || j.Status == WorkflowJobStatusFailed
}
