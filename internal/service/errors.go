package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrResourceNotFound struct {
	error
}

func NewErrResourceNotFound(id string, resourceType string) *ErrResourceNotFound {
	return &ErrResourceNotFound{fmt.Errorf("%s %s not found", resourceType, id)}
}

func NewErrJobNotFound(id string) *ErrResourceNotFound {
	return NewErrResourceNotFound(id, "job")
}

func NewErrWorkflowNotFound(id uuid.UUID) *ErrResourceNotFound {
	return NewErrResourceNotFound(id.String(), "workflow")
}

type ErrJobAlreadyFinished struct {
	error
}

func NewErrJobAlreadyFinished(id string, status string) *ErrJobAlreadyFinished {
	return &ErrJobAlreadyFinished{fmt.Errorf("job %s is already %s", id, status)}
}

type ErrInvalidJobType struct {
	error
}

func NewErrInvalidJobType(jobType string) *ErrInvalidJobType {
	return &ErrInvalidJobType{fmt.Errorf("unknown job type: %s", jobType)}
}

type ErrUnknownWorkflowType struct {
	error
}

func NewErrUnknownWorkflowType(workflowType string) *ErrUnknownWorkflowType {
	return &ErrUnknownWorkflowType{fmt.Errorf("unknown workflow type: %s", workflowType)}
}

type ErrInvalidWorkflowState struct {
	error
}

func NewErrInvalidWorkflowState(id uuid.UUID, status string, action string) *ErrInvalidWorkflowState {
	return &ErrInvalidWorkflowState{fmt.Errorf("cannot %s workflow %s in status %s", action, id, status)}
}
