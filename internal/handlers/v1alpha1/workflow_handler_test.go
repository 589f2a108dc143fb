package v1alpha1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreaite/studio-core/internal/queue"
)

type workflowReply struct {
	ID           uuid.UUID `json:"id"`
	Status       string    `json:"status"`
	WorkflowType string    `json:"workflowType"`
	Name         string    `json:"name"`
	Steps        []any     `json:"steps"`
	Estimate     *struct {
		Cost     int `json:"estimatedCost"`
		Duration int `json:"estimatedDuration"`
	} `json:"estimate"`
}

func createWorkflow(t *testing.T, router chi.Router) workflowReply {
	t.Helper()
	body := `{"creatorId":"creator-1","workflowType":"book_to_audiobook","sourceType":"book","sourceId":"book-42"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var reply workflowReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return reply
}

func TestCreateWorkflowHandler(t *testing.T) {
	router := newTestRouter(t, queue.New())

	reply := createWorkflow(t, router)
	assert.Equal(t, "book_to_audiobook", reply.WorkflowType)
	assert.Equal(t, "active", reply.Status)
	assert.Len(t, reply.Steps, 4)
	require.NotNil(t, reply.Estimate)
	assert.Equal(t, 1600, reply.Estimate.Cost)
	assert.Equal(t, 370, reply.Estimate.Duration)
}

func TestCreateWorkflowHandlerErrors(t *testing.T) {
	router := newTestRouter(t, queue.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/workflows", bytes.NewBufferString(`{"creatorId":"creator-1","workflowType":"book_to_hologram"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/workflows", bytes.NewBufferString(`{"workflowType":"book_to_audiobook"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkflowLifecycleHandlers(t *testing.T) {
	router := newTestRouter(t, queue.New())
	workflow := createWorkflow(t, router)

	// start creates the step zero job
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/workflows/"+workflow.ID.String()+"/start", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var job struct {
		StepIndex int    `json:"stepIndex"`
		Status    string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, 0, job.StepIndex)
	assert.Equal(t, "pending", job.Status)

	// cancel pauses the workflow and fails the job
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/workflows/"+workflow.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var cancelled workflowReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, "paused", cancelled.Status)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workflows/"+workflow.ID.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Status    string `json:"status"`
		StepCount int    `json:"stepCount"`
		Jobs      []struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "paused", status.Status)
	assert.Equal(t, 4, status.StepCount)
	require.Len(t, status.Jobs, 1)
	assert.Equal(t, "failed", status.Jobs[0].Status)
	assert.Contains(t, status.Jobs[0].Error, "cancelled")

	// resume flips back to active
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/workflows/"+workflow.ID.String()+"/resume", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resumed workflowReply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resumed))
	assert.Equal(t, "active", resumed.Status)

	// resuming an active workflow conflicts
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/workflows/"+workflow.ID.String()+"/resume", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWorkflowHandlerNotFound(t *testing.T) {
	router := newTestRouter(t, queue.New())

	missing := uuid.New().String()
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/v1/workflows/"+missing, nil),
		httptest.NewRequest(http.MethodPost, "/api/v1/workflows/"+missing+"/start", nil),
		httptest.NewRequest(http.MethodPost, "/api/v1/workflows/"+missing+"/resume", nil),
		httptest.NewRequest(http.MethodDelete, "/api/v1/workflows/"+missing, nil),
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, req.URL.Path)
	}
}

func TestWorkflowHandlerBadID(t *testing.T) {
	router := newTestRouter(t, queue.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workflows/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListWorkflowTemplatesHandler(t *testing.T) {
	router := newTestRouter(t, queue.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workflows/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var reply struct {
		Templates []struct {
			Type              string `json:"type"`
			Steps             []any  `json:"steps"`
			EstimatedCost     int    `json:"estimatedCost"`
			EstimatedDuration int    `json:"estimatedDuration"`
		} `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	require.Len(t, reply.Templates, 4)
	assert.Equal(t, "book_to_audiobook", reply.Templates[0].Type)
	assert.Equal(t, 1600, reply.Templates[0].EstimatedCost)
	assert.Equal(t, 370, reply.Templates[0].EstimatedDuration)
}

func TestListWorkflowsHandler(t *testing.T) {
	router := newTestRouter(t, queue.New())
	createWorkflow(t, router)
	createWorkflow(t, router)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workflows?creatorId=creator-1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var reply struct {
		Workflows []workflowReply `json:"workflows"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Len(t, reply.Workflows, 2)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workflows?creatorId=somebody-else", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	assert.Empty(t, reply.Workflows)
}
