package v1alpha1

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kreaite/studio-core/internal/queue"
	"github.com/kreaite/studio-core/internal/service"
	"github.com/kreaite/studio-core/internal/store/model"
	"github.com/kreaite/studio-core/pkg/requestid"
)

// ServiceHandler binds the job and workflow services to the HTTP surface.
type ServiceHandler struct {
	jobSrv      *service.JobService
	workflowSrv *service.WorkflowService
	validate    *validator.Validate
}

func NewServiceHandler(jobSrv *service.JobService, workflowSrv *service.WorkflowService) *ServiceHandler {
	return &ServiceHandler{
		jobSrv:      jobSrv,
		workflowSrv: workflowSrv,
		validate:    validator.New(),
	}
}

func (h *ServiceHandler) RegisterRoutes(router chi.Router) {
	router.Route("/jobs", func(r chi.Router) {
		r.Post("/", h.CreateJob)
		r.Get("/", h.ListJobs)
		r.Get("/stats", h.GetJobStats)
		r.Get("/{id}", h.GetJob)
		r.Delete("/{id}", h.CancelJob)
		r.Get("/{id}/events", h.StreamJobEvents)
	})
	router.Route("/workflows", func(r chi.Router) {
		r.Get("/templates", h.ListWorkflowTemplates)
		r.Post("/", h.CreateWorkflow)
		r.Get("/", h.ListWorkflows)
		r.Get("/{id}", h.GetWorkflowStatus)
		r.Post("/{id}/start", h.StartWorkflow)
		r.Post("/{id}/resume", h.ResumeWorkflow)
		r.Delete("/{id}", h.CancelWorkflow)
	})
}

type ErrorReply struct {
	Message   string  `json:"message"`
	RequestId *string `json:"requestId,omitempty"`

	status int
}

func (e ErrorReply) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	_ = render.Render(w, r, ErrorReply{
		Message:   message,
		RequestId: requestid.FromContextPtr(r.Context()),
		status:    status,
	})
}

type JobReply struct {
	queue.Job
}

func (JobReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }

type JobListReply struct {
	Jobs []queue.Job `json:"jobs"`
}

func (JobListReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }

type StatsReply struct {
	queue.Stats
}

func (StatsReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }

type WorkflowReply struct {
	ID               uuid.UUID                 `json:"id"`
	CreatorID        string                    `json:"creatorId"`
	Name             string                    `json:"name"`
	Description      string                    `json:"description,omitempty"`
	WorkflowType     string                    `json:"workflowType"`
	SourceType       string                    `json:"sourceType,omitempty"`
	SourceID         string                    `json:"sourceId,omitempty"`
	Status           string                    `json:"status"`
	CurrentStepIndex int                       `json:"currentStepIndex"`
	CompletedSteps   []int                     `json:"completedSteps"`
	Steps            []model.WorkflowStep      `json:"steps"`
	Estimate         *service.WorkflowEstimate `json:"estimate,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
}

func (WorkflowReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }

func workflowToReply(workflow *model.Workflow, estimate *service.WorkflowEstimate) WorkflowReply {
	return WorkflowReply{
		ID:               workflow.ID,
		CreatorID:        workflow.CreatorID,
		Name:             workflow.Name,
		Description:      workflow.Description,
		WorkflowType:     workflow.WorkflowType,
		SourceType:       workflow.SourceType,
		SourceID:         workflow.SourceID,
		Status:           workflow.Status,
		CurrentStepIndex: workflow.CurrentStepIndex,
		CompletedSteps:   workflow.CompletedStepList(),
		Steps:            workflow.StepList(),
		Estimate:         estimate,
		CreatedAt:        workflow.CreatedAt,
	}
}

type WorkflowListReply struct {
	Workflows []WorkflowReply `json:"workflows"`
}

func (WorkflowListReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }

type WorkflowJobReply struct {
	ID        uuid.UUID      `json:"id"`
	StepIndex int            `json:"stepIndex"`
	JobType   string         `json:"jobType,omitempty"`
	InputData map[string]any `json:"inputData,omitempty"`
	Status    string         `json:"status"`
	Progress  int            `json:"progress"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func workflowJobToReply(job model.WorkflowJob) WorkflowJobReply {
	reply := WorkflowJobReply{
		ID:        job.ID,
		StepIndex: job.StepIndex,
		JobType:   job.JobType,
		Status:    job.Status,
		Progress:  job.Progress,
		Error:     job.Error,
		CreatedAt: job.CreatedAt,
	}
	if job.InputData != nil {
		reply.InputData = job.InputData.Data
	}
	return reply
}

func (WorkflowJobReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }

type WorkflowStatusReply struct {
	ID             uuid.UUID          `json:"id"`
	Status         string             `json:"status"`
	StepCount      int                `json:"stepCount"`
	CurrentStep    int                `json:"currentStepIndex"`
	CompletedSteps []int              `json:"completedSteps"`
	Jobs           []WorkflowJobReply `json:"jobs"`
}

func (WorkflowStatusReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }

type TemplateReply struct {
	Type              string               `json:"type"`
	Name              string               `json:"name"`
	Description       string               `json:"description"`
	Steps             []model.WorkflowStep `json:"steps"`
	EstimatedCost     int                  `json:"estimatedCost"`
	EstimatedDuration int                  `json:"estimatedDuration"`
}

type TemplateListReply struct {
	Templates []TemplateReply `json:"templates"`
}

func (TemplateListReply) Render(w http.ResponseWriter, r *http.Request) error { return nil }
