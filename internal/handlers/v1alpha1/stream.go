package v1alpha1

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kreaite/studio-core/internal/service"
	"github.com/kreaite/studio-core/pkg/log"
)

// StreamJobEvents pushes job updates over SSE. The stream starts with a
// snapshot of the current job state, then carries one event per change, and
// ends once the job reaches a terminal status.
func (h *ServiceHandler) StreamJobEvents(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")
	logger := log.NewDebugLogger("job_handler").WithContext(r.Context()).Operation("stream_job_events").WithParam("job_id", jobID).Build()

	flusher, ok := w.(http.Flusher)
	if !ok {
		renderError(w, r, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates, unsubscribe, err := h.jobSrv.WatchJob(r.Context(), jobID)
	if err != nil {
		switch err.(type) {
		case *service.ErrResourceNotFound:
			renderError(w, r, http.StatusNotFound, err.Error())
		default:
			renderError(w, r, http.StatusInternalServerError, err.Error())
		}
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case job, open := <-updates:
			if !open {
				// job reached a terminal status
				fmt.Fprint(w, "event: done\ndata: {}\n\n")
				flusher.Flush()
				logger.Success().Log()
				return
			}
			payload, err := json.Marshal(job)
			if err != nil {
				logger.Error(err).Log()
				return
			}
			fmt.Fprintf(w, "event: job\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
