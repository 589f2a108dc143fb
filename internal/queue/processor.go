package queue

import (
	"context"
	"fmt"
	"math"
)

// ProgressFunc reports generation progress as a percentage in [0,100].
type ProgressFunc func(progress int)

// GenerationFunc is the caller-supplied business logic for a single-unit
// generation job: it receives the job's payload and a progress callback and
// returns the result payload.
type GenerationFunc func(ctx context.Context, data map[string]any, onProgress ProgressFunc) (map[string]any, error)

// BatchItemFunc processes one item of a batch job.
type BatchItemFunc func(ctx context.Context, item any, index int) (any, error)

// RunGeneration executes fn for the job and drives the job to a terminal
// status: completed with the result on success, failed with the error message
// on error or panic. There are no retries, a single failure is terminal.
func RunGeneration(ctx context.Context, q *Queue, jobID string, fn GenerationFunc) {
	job, ok := q.GetJob(jobID)
	if !ok {
		return
	}

	result, err := runProtected(ctx, job.Data, fn, func(progress int) {
		q.UpdateJob(jobID, JobUpdate{Progress: &progress})
	})
	if err != nil {
		failJob(q, jobID, err.Error())
		return
	}

	status := JobStatusCompleted
	progress := 100
	q.UpdateJob(jobID, JobUpdate{Status: &status, Progress: &progress, Result: result})
}

// RunBatch executes fn sequentially over the job's data.items list with
// per-item isolation: one item's failure does not abort the batch. The job
// fails only when every item failed; otherwise it completes with a result
// holding the collected results, the per-item errors and the total processed
// count. Partial success is the common case and callers must inspect the
// errors array.
func RunBatch(ctx context.Context, q *Queue, jobID string, fn BatchItemFunc) {
	job, ok := q.GetJob(jobID)
	if !ok {
		return
	}

	items, ok := job.Data["items"].([]any)
	if !ok {
		failJob(q, jobID, "job data has no items list")
		return
	}

	results := make([]any, 0, len(items))
	itemErrors := make([]map[string]any, 0)

	for i, item := range items {
		res, err := runItemProtected(ctx, item, i, fn)
		if err != nil {
			itemErrors = append(itemErrors, map[string]any{
				"index": i,
				"error": err.Error(),
			})
		} else {
			results = append(results, res)
		}

		progress := int(math.Round(float64(i+1) / float64(len(items)) * 100))
		q.UpdateJob(jobID, JobUpdate{Progress: &progress})
	}

	if len(items) > 0 && len(itemErrors) == len(items) {
		failJob(q, jobID, fmt.Sprintf("all %d items failed", len(items)))
		return
	}

	status := JobStatusCompleted
	progress := 100
	q.UpdateJob(jobID, JobUpdate{
		Status:   &status,
		Progress: &progress,
		Result: map[string]any{
			"results":        results,
			"errors":         itemErrors,
			"totalProcessed": len(items),
		},
	})
}

func failJob(q *Queue, jobID, message string) {
	status := JobStatusFailed
	q.UpdateJob(jobID, JobUpdate{Status: &status, Error: &message})
}

// runProtected shields the queue from panics in caller-supplied code.
func runProtected(ctx context.Context, data map[string]any, fn GenerationFunc, onProgress ProgressFunc) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()
	return fn(ctx, data, onProgress)
}

func runItemProtected(ctx context.Context, item any, index int, fn BatchItemFunc) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("item panicked: %v", r)
		}
	}()
	return fn(ctx, item, index)
}
