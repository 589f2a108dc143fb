package v1alpha1

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/kreaite/studio-core/internal/service"
	"github.com/kreaite/studio-core/internal/store"
	"github.com/kreaite/studio-core/pkg/log"
)

type CreateWorkflowRequest struct {
	CreatorID    string `json:"creatorId" validate:"required"`
	WorkflowType string `json:"workflowType" validate:"required"`
	SourceType   string `json:"sourceType"`
	SourceID     string `json:"sourceId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}

func (h *ServiceHandler) CreateWorkflow(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("workflow_handler").WithContext(r.Context()).Operation("create_workflow").Build()

	var req CreateWorkflowRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	workflow, estimate, err := h.workflowSrv.CreateWorkflow(r.Context(), service.CreateWorkflowForm{
		CreatorID:    req.CreatorID,
		WorkflowType: req.WorkflowType,
		SourceType:   req.SourceType,
		SourceID:     req.SourceID,
		Name:         req.Name,
		Description:  req.Description,
	})
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrUnknownWorkflowType:
			renderError(w, r, http.StatusBadRequest, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create workflow: %v", err))
		}
		return
	}

	logger.Success().WithParam("workflow_id", workflow.ID.String()).Log()
	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, workflowToReply(workflow, estimate))
}

func (h *ServiceHandler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	filter := store.NewWorkflowQueryFilter()
	if creatorID := r.URL.Query().Get("creatorId"); creatorID != "" {
		filter = filter.ByCreatorID(creatorID)
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter = filter.ByStatus(status)
	}
	if workflowType := r.URL.Query().Get("workflowType"); workflowType != "" {
		filter = filter.ByWorkflowType(workflowType)
	}

	workflows, err := h.workflowSrv.ListWorkflows(r.Context(), filter)
	if err != nil {
		renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to list workflows: %v", err))
		return
	}

	reply := WorkflowListReply{Workflows: make([]WorkflowReply, 0, len(workflows))}
	for i := range workflows {
		reply.Workflows = append(reply.Workflows, workflowToReply(&workflows[i], nil))
	}
	_ = render.Render(w, r, reply)
}

func (h *ServiceHandler) GetWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid workflow id: %v", err))
		return
	}

	status, err := h.workflowSrv.GetWorkflowStatus(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get workflow status: %v", err))
		}
		return
	}

	reply := WorkflowStatusReply{
		ID:             status.ID,
		Status:         status.Status,
		StepCount:      status.StepCount,
		CurrentStep:    status.CurrentStepIndex,
		CompletedSteps: status.CompletedSteps,
		Jobs:           make([]WorkflowJobReply, 0, len(status.Jobs)),
	}
	for _, job := range status.Jobs {
		reply.Jobs = append(reply.Jobs, workflowJobToReply(job))
	}
	_ = render.Render(w, r, reply)
}

func (h *ServiceHandler) StartWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid workflow id: %v", err))
		return
	}
	logger := log.NewDebugLogger("workflow_handler").WithContext(r.Context()).Operation("start_workflow").WithParam("workflow_id", id.String()).Build()

	job, err := h.workflowSrv.StartWorkflow(r.Context(), id)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrInvalidWorkflowState:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to start workflow: %v", err))
		}
		return
	}

	logger.Success().Log()
	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, workflowJobToReply(*job))
}

func (h *ServiceHandler) CancelWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid workflow id: %v", err))
		return
	}
	logger := log.NewDebugLogger("workflow_handler").WithContext(r.Context()).Operation("cancel_workflow").WithParam("workflow_id", id.String()).Build()

	workflow, err := h.workflowSrv.CancelWorkflow(r.Context(), id)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to cancel workflow: %v", err))
		}
		return
	}

	logger.Success().Log()
	_ = render.Render(w, r, workflowToReply(workflow, nil))
}

func (h *ServiceHandler) ResumeWorkflow(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid workflow id: %v", err))
		return
	}
	logger := log.NewDebugLogger("workflow_handler").WithContext(r.Context()).Operation("resume_workflow").WithParam("workflow_id", id.String()).Build()

	workflow, err := h.workflowSrv.ResumeWorkflow(r.Context(), id)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrInvalidWorkflowState:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to resume workflow: %v", err))
		}
		return
	}

	logger.Success().Log()
	_ = render.Render(w, r, workflowToReply(workflow, nil))
}

func (h *ServiceHandler) ListWorkflowTemplates(w http.ResponseWriter, r *http.Request) {
	templates := h.workflowSrv.GetAvailableWorkflows()
	reply := TemplateListReply{Templates: make([]TemplateReply, 0, len(templates))}
	for _, tpl := range templates {
		reply.Templates = append(reply.Templates, TemplateReply{
			Type:              tpl.Type,
			Name:              tpl.Name,
			Description:       tpl.Description,
			Steps:             tpl.Steps,
			EstimatedCost:     tpl.EstimatedCost(),
			EstimatedDuration: tpl.EstimatedDuration(),
		})
	}
	_ = render.Render(w, r, reply)
}
