package service

import (
	"context"

	"github.com/kreaite/studio-core/internal/queue"
	"github.com/kreaite/studio-core/pkg/log"
)

type JobService struct {
	queue  *queue.Queue
	logger *log.StructuredLogger
}

func NewJobService(q *queue.Queue) *JobService {
	return &JobService{
		queue:  q,
		logger: log.NewDebugLogger("job_service"),
	}
}

func (s *JobService) CreateJob(ctx context.Context, jobType string, userID string, data, metadata map[string]any) (*queue.Job, error) {
	tracer := s.logger.WithContext(ctx).Operation("create_job").WithParam("job_type", jobType).WithParam("user_id", userID).Build()

	if !queue.KnownJobType(queue.JobType(jobType)) {
		return nil, NewErrInvalidJobType(jobType)
	}

	job := s.queue.CreateJob(queue.JobType(jobType), userID, data, metadata)

	tracer.Success().WithParam("job_id", job.ID).Log()
	return job, nil
}

func (s *JobService) GetJob(ctx context.Context, jobID string) (*queue.Job, error) {
	job, ok := s.queue.GetJob(jobID)
	if !ok {
		return nil, NewErrJobNotFound(jobID)
	}
	return job, nil
}

func (s *JobService) ListUserJobs(ctx context.Context, userID string, limit int) []*queue.Job {
	return s.queue.GetUserJobs(userID, limit)
}

func (s *JobService) CancelJob(ctx context.Context, jobID string) (*queue.Job, error) {
	tracer := s.logger.WithContext(ctx).Operation("cancel_job").WithParam("job_id", jobID).Build()

	job, ok := s.queue.GetJob(jobID)
	if !ok {
		return nil, NewErrJobNotFound(jobID)
	}
	if job.Status.Finished() {
		return nil, NewErrJobAlreadyFinished(jobID, string(job.Status))
	}

	if !s.queue.CancelJob(jobID) {
		// lost the race against the processor finishing the job
		job, _ = s.queue.GetJob(jobID)
		return nil, NewErrJobAlreadyFinished(jobID, string(job.Status))
	}

	job, _ = s.queue.GetJob(jobID)
	tracer.Success().Log()
	return job, nil
}

func (s *JobService) Stats(ctx context.Context) queue.Stats {
	return s.queue.Stats()
}

// WatchJob subscribes to live updates of one job. The returned channel gets
// an initial snapshot, then one event per change, and is closed once the job
// reaches a terminal status. Callers must invoke the unsubscribe function.
func (s *JobService) WatchJob(ctx context.Context, jobID string) (<-chan queue.Job, func(), error) {
	ch, unsubscribe, ok := s.queue.Watch(jobID)
	if !ok {
		return nil, nil, NewErrJobNotFound(jobID)
	}
	return ch, unsubscribe, nil
}
