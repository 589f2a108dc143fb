package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kreaite/studio-core/internal/store/model"
)

// WorkflowJob interface for step-execution tracking records
type WorkflowJob interface {
	Create(ctx context.Context, job model.WorkflowJob) (*model.WorkflowJob, error)
	Get(ctx context.Context, id uuid.UUID) (*model.WorkflowJob, error)
	ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]model.WorkflowJob, error)
	Update(ctx context.Context, job *model.WorkflowJob) (*model.WorkflowJob, error)
	FailUnfinished(ctx context.Context, workflowID uuid.UUID, message string) (int64, error)
}

type WorkflowJobStore struct {
	db *gorm.DB
}

// Make sure we conform to WorkflowJob interface
var _ WorkflowJob = (*WorkflowJobStore)(nil)

func NewWorkflowJobStore(db *gorm.DB) WorkflowJob {
	return &WorkflowJobStore{db: db}
}

func (s *WorkflowJobStore) Create(ctx context.Context, job model.WorkflowJob) (*model.WorkflowJob, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	result := s.getDB(ctx).Create(&job)
	if result.Error != nil {
		return nil, fmt.Errorf("creating workflow job: %w", result.Error)
	}
	return &job, nil
}

func (s *WorkflowJobStore) Get(ctx context.Context, id uuid.UUID) (*model.WorkflowJob, error) {
	var job model.WorkflowJob
	result := s.getDB(ctx).First(&job, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying workflow job: %w", result.Error)
	}
	return &job, nil
}

func (s *WorkflowJobStore) ListByWorkflow(ctx context.Context, workflowID uuid.UUID) ([]model.WorkflowJob, error) {
	var jobs []model.WorkflowJob
	result := s.getDB(ctx).Where("workflow_id = ?", workflowID).Order("step_index").Find(&jobs)
	if result.Error != nil {
		return nil, fmt.Errorf("listing workflow jobs: %w", result.Error)
	}
	return jobs, nil
}

func (s *WorkflowJobStore) Update(ctx context.Context, job *model.WorkflowJob) (*model.WorkflowJob, error) {
	result := s.getDB(ctx).Save(job)
	if result.Error != nil {
		return nil, fmt.Errorf("updating workflow job: %w", result.Error)
	}
	return job, nil
}

// FailUnfinished marks every pending or processing job of the workflow as
// failed with the given message. Used by the blunt workflow cancellation.
func (s *WorkflowJobStore) FailUnfinished(ctx context.Context, workflowID uuid.UUID, message string) (int64, error) {
	result := s.getDB(ctx).Model(&model.WorkflowJob{}).
		Where("workflow_id = ? AND status IN ?", workflowID, []string{model.WorkflowJobStatusPending, model.WorkflowJobStatusProcessing}).
		Updates(map[string]any{"status": model.WorkflowJobStatusFailed, "error": message})
	if result.Error != nil {
		return 0, fmt.Errorf("failing workflow jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *WorkflowJobStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
