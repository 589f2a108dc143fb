package v1alpha1

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/kreaite/studio-core/internal/queue"
	"github.com/kreaite/studio-core/internal/service"
	"github.com/kreaite/studio-core/pkg/log"
)

type CreateJobRequest struct {
	Type     string         `json:"type" validate:"required"`
	UserID   string         `json:"userId" validate:"required"`
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata"`
}

func (h *ServiceHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	logger := log.NewDebugLogger("job_handler").WithContext(r.Context()).Operation("create_job").Build()

	var req CreateJobRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		renderError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	job, err := h.jobSrv.CreateJob(r.Context(), req.Type, req.UserID, req.Data, req.Metadata)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrInvalidJobType:
			renderError(w, r, http.StatusBadRequest, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to create job: %v", err))
		}
		return
	}

	logger.Success().WithParam("job_id", job.ID).Log()
	render.Status(r, http.StatusCreated)
	_ = render.Render(w, r, JobReply{Job: *job})
}

func (h *ServiceHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := h.jobSrv.GetJob(r.Context(), jobID)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to get job: %v", err))
		}
		return
	}

	_ = render.Render(w, r, JobReply{Job: *job})
}

func (h *ServiceHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		renderError(w, r, http.StatusBadRequest, "userId query parameter is required")
		return
	}

	limit := queue.DefaultUserJobsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			renderError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid limit: %s", raw))
			return
		}
		limit = parsed
	}

	jobs := h.jobSrv.ListUserJobs(r.Context(), userID, limit)
	reply := JobListReply{Jobs: make([]queue.Job, 0, len(jobs))}
	for _, job := range jobs {
		reply.Jobs = append(reply.Jobs, *job)
	}
	_ = render.Render(w, r, reply)
}

func (h *ServiceHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	logger := log.NewDebugLogger("job_handler").WithContext(r.Context()).Operation("cancel_job").WithParam("job_id", jobID).Build()

	job, err := h.jobSrv.CancelJob(r.Context(), jobID)
	if err != nil {
		logger.Error(err).Log()
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		case *service.ErrJobAlreadyFinished:
			renderError(w, r, http.StatusConflict, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to cancel job: %v", err))
		}
		return
	}

	logger.Success().Log()
	_ = render.Render(w, r, JobReply{Job: *job})
}

func (h *ServiceHandler) GetJobStats(w http.ResponseWriter, r *http.Request) {
	_ = render.Render(w, r, StatsReply{Stats: h.jobSrv.Stats(r.Context())})
}
