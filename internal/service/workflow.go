package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kreaite/studio-core/internal/store"
	"github.com/kreaite/studio-core/internal/store/model"
	"github.com/kreaite/studio-core/pkg/log"
)

// WorkflowCancelledMessage is written on every unfinished workflow job when
// the owning workflow is cancelled.
const WorkflowCancelledMessage = "workflow cancelled by user"

type WorkflowService struct {
	store  store.Store
	logger *log.StructuredLogger
}

func NewWorkflowService(store store.Store) *WorkflowService {
	return &WorkflowService{
		store:  store,
		logger: log.NewDebugLogger("workflow_service"),
	}
}

// WorkflowEstimate carries advisory cost and duration totals.
type WorkflowEstimate struct {
	Cost     int `json:"estimatedCost"`     // cents
	Duration int `json:"estimatedDuration"` // seconds
}

// WorkflowStatus is the aggregation returned by GetWorkflowStatus.
type WorkflowStatus struct {
	ID               uuid.UUID           `json:"id"`
	Status           string              `json:"status"`
	StepCount        int                 `json:"stepCount"`
	CurrentStepIndex int                 `json:"currentStepIndex"`
	CompletedSteps   []int               `json:"completedSteps"`
	Jobs             []model.WorkflowJob `json:"jobs"`
}

type CreateWorkflowForm struct {
	CreatorID    string
	WorkflowType string
	SourceType   string
	SourceID     string
	Name         string
	Description  string
}

// CreateWorkflow instantiates a workflow from the named template. The
// template's steps are copied by value, later template edits never affect
// the persisted row.
func (s *WorkflowService) CreateWorkflow(ctx context.Context, form CreateWorkflowForm) (*model.Workflow, *WorkflowEstimate, error) {
	tracer := s.logger.WithContext(ctx).Operation("create_workflow").WithParam("workflow_type", form.WorkflowType).Build()

	tpl, ok := lookupTemplate(form.WorkflowType)
	if !ok {
		return nil, nil, NewErrUnknownWorkflowType(form.WorkflowType)
	}

	name := form.Name
	if name == "" {
		name = tpl.Name
	}

	workflow, err := s.store.Workflow().Create(ctx, model.Workflow{
		ID:             uuid.New(),
		CreatorID:      form.CreatorID,
		Name:           name,
		Description:    form.Description,
		WorkflowType:   form.WorkflowType,
		SourceType:     form.SourceType,
		SourceID:       form.SourceID,
		Steps:          model.MakeJSONField(tpl.Steps),
		Status:         model.WorkflowStatusActive,
		CompletedSteps: model.MakeJSONField([]int{}),
	})
	if err != nil {
		tracer.Error(err).Log()
		return nil, nil, fmt.Errorf("creating workflow: %w", err)
	}

	tracer.Success().WithParam("workflow_id", workflow.ID.String()).Log()
	return workflow, &WorkflowEstimate{Cost: tpl.EstimatedCost(), Duration: tpl.EstimatedDuration()}, nil
}

// StartWorkflow creates the pending job record for step 0. It does not
// execute the step, execution belongs to the external driver that resolves
// the step's service function.
func (s *WorkflowService) StartWorkflow(ctx context.Context, id uuid.UUID) (*model.WorkflowJob, error) {
	tracer := s.logger.WithContext(ctx).Operation("start_workflow").WithParam("workflow_id", id.String()).Build()

	workflow, err := s.store.Workflow().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrWorkflowNotFound(id)
		}
		tracer.Error(err).Log()
		return nil, err
	}
	if workflow.Status != model.WorkflowStatusActive {
		return nil, NewErrInvalidWorkflowState(id, workflow.Status, "start")
	}

	steps := workflow.StepList()
	if len(steps) == 0 {
		return nil, NewErrInvalidWorkflowState(id, workflow.Status, "start")
	}

	job, err := s.store.WorkflowJob().Create(ctx, model.WorkflowJob{
		WorkflowID: workflow.ID,
		StepIndex:  0,
		JobType:    steps[0].Type,
		Status:     model.WorkflowJobStatusPending,
		InputData: model.MakeJSONField(map[string]any{
			"sourceType": workflow.SourceType,
			"sourceId":   workflow.SourceID,
		}),
	})
	if err != nil {
		tracer.Error(err).Log()
		return nil, fmt.Errorf("creating workflow job: %w", err)
	}

	tracer.Success().WithParam("workflow_job_id", job.ID.String()).Log()
	return job, nil
}

// GetWorkflowStatus is an aggregation read with no derived logic.
func (s *WorkflowService) GetWorkflowStatus(ctx context.Context, id uuid.UUID) (*WorkflowStatus, error) {
	workflow, err := s.store.Workflow().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrWorkflowNotFound(id)
		}
		return nil, err
	}

	jobs, err := s.store.WorkflowJob().ListByWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}

	return &WorkflowStatus{
		ID:               workflow.ID,
		Status:           workflow.Status,
		StepCount:        len(workflow.StepList()),
		CurrentStepIndex: workflow.CurrentStepIndex,
		CompletedSteps:   workflow.CompletedStepList(),
		Jobs:             jobs,
	}, nil
}

// CancelWorkflow pauses the workflow and fails every unfinished job record.
// Cancellation is blunt: in-flight external work is not interrupted, only
// the bookkeeping state is marked.
func (s *WorkflowService) CancelWorkflow(ctx context.Context, id uuid.UUID) (*model.Workflow, error) {
	tracer := s.logger.WithContext(ctx).Operation("cancel_workflow").WithParam("workflow_id", id.String()).Build()

	ctx, err := s.store.NewTransactionContext(ctx)
	if err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	workflow, err := s.store.Workflow().Get(ctx, id)
	if err != nil {
		_, _ = store.Rollback(ctx)
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrWorkflowNotFound(id)
		}
		tracer.Error(err).Log()
		return nil, err
	}

	workflow.Status = model.WorkflowStatusPaused
	if workflow, err = s.store.Workflow().Update(ctx, workflow); err != nil {
		_, _ = store.Rollback(ctx)
		tracer.Error(err).Log()
		return nil, err
	}

	failed, err := s.store.WorkflowJob().FailUnfinished(ctx, id, WorkflowCancelledMessage)
	if err != nil {
		_, _ = store.Rollback(ctx)
		tracer.Error(err).Log()
		return nil, err
	}

	if _, err := store.Commit(ctx); err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().WithParam("failed_jobs", failed).Log()
	return workflow, nil
}

// ResumeWorkflow flips a paused workflow back to active. It does not
// recreate job records, re-triggering the next step is the caller's
// responsibility.
func (s *WorkflowService) ResumeWorkflow(ctx context.Context, id uuid.UUID) (*model.Workflow, error) {
	tracer := s.logger.WithContext(ctx).Operation("resume_workflow").WithParam("workflow_id", id.String()).Build()

	workflow, err := s.store.Workflow().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrWorkflowNotFound(id)
		}
		tracer.Error(err).Log()
		return nil, err
	}
	if workflow.Status != model.WorkflowStatusPaused {
		return nil, NewErrInvalidWorkflowState(id, workflow.Status, "resume")
	}

	workflow.Status = model.WorkflowStatusActive
	if workflow, err = s.store.Workflow().Update(ctx, workflow); err != nil {
		tracer.Error(err).Log()
		return nil, err
	}

	tracer.Success().Log()
	return workflow, nil
}

func (s *WorkflowService) ListWorkflows(ctx context.Context, filter *store.WorkflowQueryFilter) ([]model.Workflow, error) {
	return s.store.Workflow().List(ctx, filter)
}

// EstimateWorkflowCost is pure template introspection.
func (s *WorkflowService) EstimateWorkflowCost(workflowType string) (*WorkflowEstimate, error) {
	tpl, ok := lookupTemplate(workflowType)
	if !ok {
		return nil, NewErrUnknownWorkflowType(workflowType)
	}
	return &WorkflowEstimate{Cost: tpl.EstimatedCost(), Duration: tpl.EstimatedDuration()}, nil
}

// GetAvailableWorkflows lists the fixed templates sorted by type.
func (s *WorkflowService) GetAvailableWorkflows() []WorkflowTemplate {
	return availableTemplates()
}
