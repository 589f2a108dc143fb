package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kreaite/studio-core/internal/store/model"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Workflow() Workflow
	WorkflowJob() WorkflowJob
	InitialMigration() error
	Close() error
}

type DataStore struct {
	db          *gorm.DB
	workflow    Workflow
	workflowJob WorkflowJob
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:          db,
		workflow:    NewWorkflowStore(db),
		workflowJob: NewWorkflowJobStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Workflow() Workflow {
	return s.workflow
}

func (s *DataStore) WorkflowJob() WorkflowJob {
	return s.workflowJob
}

func (s *DataStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Workflow{}, &model.WorkflowJob{})
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
