package main

import (
	"context"
	"fmt"
	"time"

	"github.com/kreaite/studio-core/internal/queue"
)

// registerProcessors wires the built-in simulated processors. They stand in
// for the real generation backends and exercise the full job lifecycle:
// progress updates, results and per-item batch isolation.
func registerProcessors(q *queue.Queue) {
	single := func(ctx context.Context, job *queue.Job) {
		queue.RunGeneration(ctx, q, job.ID, simulateGeneration)
	}

	q.RegisterProcessor(queue.JobTypeAIGeneration, single)
	q.RegisterProcessor(queue.JobTypeExport, single)
	q.RegisterProcessor(queue.JobTypeImport, single)
	q.RegisterProcessor(queue.JobTypeMediaProcessing, single)

	q.RegisterProcessor(queue.JobTypeBatchGeneration, func(ctx context.Context, job *queue.Job) {
		queue.RunBatch(ctx, q, job.ID, simulateBatchItem)
	})
}

func simulateGeneration(ctx context.Context, data map[string]any, onProgress queue.ProgressFunc) (map[string]any, error) {
	for _, progress := range []int{20, 40, 60, 80} {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
		onProgress(progress)
	}

	return map[string]any{
		"output":      fmt.Sprintf("generated content for %v", data["prompt"]),
		"generatedAt": time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func simulateBatchItem(ctx context.Context, item any, index int) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}
	return map[string]any{"item": item, "output": fmt.Sprintf("generated content %d", index)}, nil
}
