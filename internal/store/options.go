package store

import (
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type WorkflowQueryFilter BaseQuerier

func NewWorkflowQueryFilter() *WorkflowQueryFilter {
	return &WorkflowQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *WorkflowQueryFilter) ByCreatorID(creatorID string) *WorkflowQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("creator_id = ?", creatorID)
	})
	return qf
}

func (qf *WorkflowQueryFilter) ByStatus(status string) *WorkflowQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status = ?", status)
	})
	return qf
}

func (qf *WorkflowQueryFilter) ByWorkflowType(workflowType string) *WorkflowQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("workflow_type = ?", workflowType)
	})
	return qf
}
