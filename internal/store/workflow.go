package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kreaite/studio-core/internal/store/model"
)

// Workflow interface for workflow-related database operations
type Workflow interface {
	Create(ctx context.Context, workflow model.Workflow) (*model.Workflow, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Workflow, error)
	List(ctx context.Context, filter *WorkflowQueryFilter) ([]model.Workflow, error)
	Update(ctx context.Context, workflow *model.Workflow) (*model.Workflow, error)
}

type WorkflowStore struct {
	db *gorm.DB
}

// Make sure we conform to Workflow interface
var _ Workflow = (*WorkflowStore)(nil)

func NewWorkflowStore(db *gorm.DB) Workflow {
	return &WorkflowStore{db: db}
}

func (s *WorkflowStore) Create(ctx context.Context, workflow model.Workflow) (*model.Workflow, error) {
	if workflow.ID == uuid.Nil {
		workflow.ID = uuid.New()
	}
	result := s.getDB(ctx).Create(&workflow)
	if result.Error != nil {
		return nil, fmt.Errorf("creating workflow: %w", result.Error)
	}
	return &workflow, nil
}

func (s *WorkflowStore) Get(ctx context.Context, id uuid.UUID) (*model.Workflow, error) {
	var workflow model.Workflow
	result := s.getDB(ctx).First(&workflow, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying workflow: %w", result.Error)
	}
	return &workflow, nil
}

func (s *WorkflowStore) List(ctx context.Context, filter *WorkflowQueryFilter) ([]model.Workflow, error) {
	var workflows []model.Workflow
	tx := s.getDB(ctx).Model(&model.Workflow{}).Order("created_at DESC")
	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}
	if result := tx.Find(&workflows); result.Error != nil {
		return nil, fmt.Errorf("listing workflows: %w", result.Error)
	}
	return workflows, nil
}

func (s *WorkflowStore) Update(ctx context.Context, workflow *model.Workflow) (*model.Workflow, error) {
	result := s.getDB(ctx).Save(workflow)
	if result.Error != nil {
		return nil, fmt.Errorf("updating workflow: %w", result.Error)
	}
	return workflow, nil
}

func (s *WorkflowStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
