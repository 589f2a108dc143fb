package queue

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxConcurrent   = 5
	DefaultUserJobsLimit   = 50
	DefaultRetention       = 24 * time.Hour
	DefaultCleanupInterval = time.Hour

	watchBufferSize = 32
)

type EventType string

const (
	EventJobCreated EventType = "job:created"
	EventJobUpdated EventType = "job:updated"
)

// Event carries a job snapshot taken at the moment of the transition.
type Event struct {
	Type EventType
	Job  Job
}

// EventHandler observes every job lifecycle transition. Handlers run outside
// the queue's lock and may call back into the queue.
type EventHandler func(Event)

// ProcessorFunc executes the business logic of one promoted job. It receives
// a snapshot of the job and is expected to drive it to a terminal status
// through UpdateJob.
type ProcessorFunc func(ctx context.Context, job *Job)

// JobUpdate is a partial update applied to a job. Nil fields are left untouched.
type JobUpdate struct {
	Status   *JobStatus
	Progress *int
	Result   map[string]any
	Error    *string
}

type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Cancelled  int `json:"cancelled"`
	Total      int `json:"total"`
	QueueDepth int `json:"queueDepth"`
}

// Queue is the in-memory job store plus the admission-controlled FIFO
// scheduler. At most maxConcurrent jobs are in processing at any time;
// the rest wait in a FIFO of pending job ids. All state is guarded by a
// single mutex, event handlers and processors run outside of it.
type Queue struct {
	mu sync.Mutex

	maxConcurrent   int
	retention       time.Duration
	cleanupInterval time.Duration

	jobs      map[string]*Job
	userIndex map[string][]string
	pending   []string
	active    int

	processors map[JobType]ProcessorFunc
	handlers   []EventHandler
	watchers   map[string][]chan Job
}

type Option func(*Queue)

func WithMaxConcurrent(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.maxConcurrent = n
		}
	}
}

func WithRetention(d time.Duration) Option {
	return func(q *Queue) {
		q.retention = d
	}
}

func WithCleanupInterval(d time.Duration) Option {
	return func(q *Queue) {
		q.cleanupInterval = d
	}
}

func New(opts ...Option) *Queue {
	q := &Queue{
		maxConcurrent:   DefaultMaxConcurrent,
		retention:       DefaultRetention,
		cleanupInterval: DefaultCleanupInterval,
		jobs:            make(map[string]*Job),
		userIndex:       make(map[string][]string),
		processors:      make(map[JobType]ProcessorFunc),
		watchers:        make(map[string][]chan Job),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

// RegisterProcessor binds a processor to a job type. Promoted jobs of that
// type are handed to the processor in their own goroutine. Jobs of a type
// without a processor stay in processing until an external driver finishes
// them through UpdateJob.
func (q *Queue) RegisterProcessor(t JobType, p ProcessorFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.processors[t] = p
}

// Notify registers a global observer of job lifecycle events.
func (q *Queue) Notify(h EventHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, h)
}

// CreateJob allocates a new pending job, appends it to the promotion FIFO and
// immediately attempts promotion. The returned snapshot reflects any promotion
// that happened in the same turn.
func (q *Queue) CreateJob(jobType JobType, userID string, data, metadata map[string]any) *Job {
	q.mu.Lock()
	job := &Job{
		ID:        newJobID(),
		Type:      jobType,
		UserID:    userID,
		Status:    JobStatusPending,
		Progress:  0,
		Data:      data,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	q.jobs[job.ID] = job
	q.userIndex[userID] = append(q.userIndex[userID], job.ID)
	q.pending = append(q.pending, job.ID)

	events := []Event{{Type: EventJobCreated, Job: *job.clone()}}
	started := q.promoteLocked(&events)
	snapshot := job.clone()
	q.notifyWatchersLocked(events)
	q.mu.Unlock()

	q.emit(events)
	q.dispatch(started)
	return snapshot
}

// GetJob returns a snapshot of the job, or false if the id is unknown.
func (q *Queue) GetJob(id string) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

// GetUserJobs lists a user's jobs ordered by creation time descending,
// truncated to limit (DefaultUserJobsLimit when limit <= 0).
func (q *Queue) GetUserJobs(userID string, limit int) []*Job {
	if limit <= 0 {
		limit = DefaultUserJobsLimit
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	ids := q.userIndex[userID]
	jobs := make([]*Job, 0, min(limit, len(ids)))
	for i := len(ids) - 1; i >= 0 && len(jobs) < limit; i-- {
		if job, ok := q.jobs[ids[i]]; ok {
			jobs = append(jobs, job.clone())
		}
	}
	return jobs
}

// UpdateJob applies a partial update. It returns false only for unknown ids.
// Updates targeting a finished job are no-ops: terminal states are final, so
// a late completion callback from a cancelled job's still-running processor
// cannot resurrect it. Status may only move to completed, failed or
// cancelled; promotion to processing is the scheduler's job alone.
func (q *Queue) UpdateJob(id string, upd JobUpdate) (*Job, bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return nil, false
	}
	if job.Status.Finished() {
		snapshot := job.clone()
		q.mu.Unlock()
		return snapshot, true
	}

	if upd.Progress != nil {
		job.Progress = clampProgress(*upd.Progress)
	}
	if upd.Result != nil {
		job.Result = upd.Result
	}
	if upd.Error != nil {
		job.Error = *upd.Error
	}

	var started []*Job
	if s := upd.Status; s != nil && *s != job.Status && s.Finished() && validTransition(job.Status, *s) {
		q.finishLocked(job, *s)
		var events []Event
		started = q.promoteLocked(&events)
		snapshot := job.clone()
		events = append([]Event{{Type: EventJobUpdated, Job: *snapshot}}, events...)
		q.notifyWatchersLocked(events)
		q.mu.Unlock()

		q.emit(events)
		q.dispatch(started)
		return snapshot, true
	}

	snapshot := job.clone()
	events := []Event{{Type: EventJobUpdated, Job: *snapshot}}
	q.notifyWatchersLocked(events)
	q.mu.Unlock()

	q.emit(events)
	return snapshot, true
}

// CancelJob cancels a pending or processing job. A cancelled-while-queued job
// is removed from the FIFO and will never be promoted. Cancellation does not
// interrupt a processor already running; its eventual update lands on a
// terminal job and is dropped. Returns false for unknown or finished jobs.
func (q *Queue) CancelJob(id string) bool {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok || job.Status.Finished() {
		q.mu.Unlock()
		return false
	}

	q.finishLocked(job, JobStatusCancelled)

	var events []Event
	started := q.promoteLocked(&events)
	events = append([]Event{{Type: EventJobUpdated, Job: *job.clone()}}, events...)
	q.notifyWatchersLocked(events)
	q.mu.Unlock()

	q.emit(events)
	q.dispatch(started)
	return true
}

// Stats returns counts per status and the current promotion queue depth.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := Stats{QueueDepth: len(q.pending), Total: len(q.jobs)}
	for _, job := range q.jobs {
		switch job.Status {
		case JobStatusPending:
			s.Pending++
		case JobStatusProcessing:
			s.Processing++
		case JobStatusCompleted:
			s.Completed++
		case JobStatusFailed:
			s.Failed++
		case JobStatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Watch subscribes to snapshots of one job, starting with its current state.
// The channel closes after the terminal snapshot is delivered. The returned
// cancel func unsubscribes; it must be called unless the channel was closed.
// Slow consumers lose intermediate progress snapshots rather than blocking
// the queue.
func (q *Queue) Watch(id string) (<-chan Job, func(), bool) {
	q.mu.Lock()
	job, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return nil, nil, false
	}

	ch := make(chan Job, watchBufferSize)
	ch <- *job.clone()
	if job.Status.Finished() {
		close(ch)
		q.mu.Unlock()
		return ch, func() {}, true
	}

	q.watchers[id] = append(q.watchers[id], ch)
	q.mu.Unlock()

	cancel := func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		chans := q.watchers[id]
		for i, c := range chans {
			if c == ch {
				q.watchers[id] = append(chans[:i], chans[i+1:]...)
				close(ch)
				break
			}
		}
		if len(q.watchers[id]) == 0 {
			delete(q.watchers, id)
		}
	}
	return ch, cancel, true
}

// RemoveFinished deletes terminal jobs whose completion time is before the
// cutoff, together with their user-index entries. Returns the number removed.
func (q *Queue) RemoveFinished(olderThan time.Time) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	removed := 0
	for id, job := range q.jobs {
		if !job.Status.Finished() || job.CompletedAt == nil || !job.CompletedAt.Before(olderThan) {
			continue
		}
		delete(q.jobs, id)
		q.userIndex[job.UserID] = removeID(q.userIndex[job.UserID], id)
		if len(q.userIndex[job.UserID]) == 0 {
			delete(q.userIndex, job.UserID)
		}
		removed++
	}
	return removed
}

// finishLocked moves a non-terminal job into a terminal status and releases
// the resources it held. Callers must run promotion afterwards.
func (q *Queue) finishLocked(job *Job, status JobStatus) {
	from := job.Status
	job.Status = status
	now := time.Now()
	job.CompletedAt = &now

	switch from {
	case JobStatusProcessing:
		q.active--
	case JobStatusPending:
		q.pending = removeID(q.pending, job.ID)
	}
}

// promoteLocked pops the FIFO head while capacity remains, skipping ids whose
// job was cancelled while queued. Promotion is strictly FIFO by creation
// order, no priority and no per-user fairness.
func (q *Queue) promoteLocked(events *[]Event) []*Job {
	var started []*Job
	for q.active < q.maxConcurrent && len(q.pending) > 0 {
		id := q.pending[0]
		q.pending = q.pending[1:]

		job, ok := q.jobs[id]
		if !ok || job.Status != JobStatusPending {
			continue
		}

		job.Status = JobStatusProcessing
		now := time.Now()
		job.StartedAt = &now
		q.active++

		snapshot := job.clone()
		*events = append(*events, Event{Type: EventJobUpdated, Job: *snapshot})
		started = append(started, snapshot)
	}
	return started
}

// notifyWatchersLocked forwards updated snapshots to per-job subscribers and
// closes their channels on terminal transitions. Sends never block: a full
// buffer drops the snapshot.
func (q *Queue) notifyWatchersLocked(events []Event) {
	for _, e := range events {
		if e.Type != EventJobUpdated {
			continue
		}
		chans := q.watchers[e.Job.ID]
		for _, ch := range chans {
			select {
			case ch <- e.Job:
			default:
			}
		}
		if e.Job.Status.Finished() && len(chans) > 0 {
			for _, ch := range chans {
				close(ch)
			}
			delete(q.watchers, e.Job.ID)
		}
	}
}

// emit calls the global observers, outside the lock.
func (q *Queue) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	q.mu.Lock()
	handlers := make([]EventHandler, len(q.handlers))
	copy(handlers, q.handlers)
	q.mu.Unlock()

	for _, e := range events {
		for _, h := range handlers {
			h(e)
		}
	}
}

// dispatch launches the registered processor for each freshly promoted job.
func (q *Queue) dispatch(started []*Job) {
	if len(started) == 0 {
		return
	}
	q.mu.Lock()
	procs := make(map[JobType]ProcessorFunc, len(q.processors))
	for t, p := range q.processors {
		procs[t] = p
	}
	q.mu.Unlock()

	for _, job := range started {
		if p, ok := procs[job.Type]; ok {
			go p(context.Background(), job)
		}
	}
}

func clampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
