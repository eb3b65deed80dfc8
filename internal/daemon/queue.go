package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/labrunner/internal/errors"
	"git.home.luguber.info/inful/labrunner/internal/history"
	"git.home.luguber.info/inful/labrunner/internal/logfields"
	"git.home.luguber.info/inful/labrunner/internal/metrics"
)

// JobKind says what a queued job executes.
type JobKind string

const (
	JobTarget JobKind = "target" // a recipe target (with dependencies)
	JobSweep  JobKind = "sweep"  // a whole sweep through its backend
)

// Job is one unit of daemon work.
type Job struct {
	ID          string        `json:"id"`
	Kind        JobKind       `json:"kind"`
	Name        string        `json:"name"`
	Source      string        `json:"source"` // schedule:<name>, watch, manual
	Status      string        `json:"status"`
	EnqueuedAt  time.Time     `json:"enqueued_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`

	cancel context.CancelFunc
}

// NewJob builds a job with a fresh ID in the queued state.
func NewJob(kind JobKind, name, source string) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Kind:       kind,
		Name:       name,
		Source:     source,
		Status:     history.StatusQueued,
		EnqueuedAt: time.Now(),
	}
}

// Executor runs a job to completion. The queue treats execution as opaque;
// the daemon wires in the recipe engine and sweep backends.
type Executor interface {
	ExecuteJob(ctx context.Context, job *Job) error
}

// Queue is a bounded job queue processed by a fixed worker pool. Completed
// jobs stay in a short in-memory ring for the status API; durable history
// goes through the emitter.
type Queue struct {
	jobs        chan *Job
	workers     int
	maxSize     int
	mu          sync.RWMutex
	active      map[string]*Job
	history     []*Job
	historySize int
	stopChan    chan struct{}
	wg          sync.WaitGroup
	executor    Executor
	emitter     *history.Emitter
	recorder    metrics.Recorder
}

// NewQueue creates a queue with the given capacity and worker count.
func NewQueue(maxSize, workers int, executor Executor) *Queue {
	if maxSize <= 0 {
		maxSize = 32
	}
	if workers <= 0 {
		workers = 2
	}

	return &Queue{
		jobs:        make(chan *Job, maxSize),
		workers:     workers,
		maxSize:     maxSize,
		active:      make(map[string]*Job),
		history:     make([]*Job, 0),
		historySize: 50,
		stopChan:    make(chan struct{}),
		executor:    executor,
		recorder:    metrics.NoopRecorder{},
	}
}

// WithEmitter wires durable history recording. A nil emitter disables it.
func (q *Queue) WithEmitter(e *history.Emitter) *Queue {
	q.emitter = e
	return q
}

// WithRecorder wires metrics. A nil recorder falls back to the noop.
func (q *Queue) WithRecorder(r metrics.Recorder) *Queue {
	if r != nil {
		q.recorder = r
	}
	return q
}

// Start begins processing jobs with the configured number of workers.
func (q *Queue) Start(ctx context.Context) {
	slog.Info("Starting job queue", "workers", q.workers, "max_size", q.maxSize)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

// Stop cancels active jobs and waits for the workers to drain.
func (q *Queue) Stop(ctx context.Context) {
	slog.Info("Stopping job queue")

	close(q.stopChan)

	q.mu.Lock()
	for _, job := range q.active {
		if job.cancel != nil {
			job.cancel()
		}
	}
	q.mu.Unlock()

	q.wg.Wait()
	slog.Info("Job queue stopped")
}

// Enqueue adds a job. It never blocks: a full queue is reported as a daemon
// error so callers can surface backpressure instead of stalling.
func (q *Queue) Enqueue(ctx context.Context, job *Job) error {
	if job == nil || job.ID == "" {
		return errors.New(errors.CategoryDaemon, errors.SeverityError, "job must have an ID")
	}

	job.Status = history.StatusQueued

	select {
	case q.jobs <- job:
	default:
		return errors.New(errors.CategoryDaemon, errors.SeverityWarning, "job queue is full").
			WithContext("capacity", q.maxSize).
			WithContext("job", job.Name)
	}

	q.recorder.SetQueueDepth(len(q.jobs))
	if err := q.emitter.EmitQueued(ctx, job.ID, job.Name, string(job.Kind), "", ""); err != nil {
		slog.Warn("Failed to record job in history", logfields.JobID(job.ID), logfields.Error(err))
	}
	slog.Info("Job enqueued",
		logfields.JobID(job.ID),
		slog.String("kind", string(job.Kind)),
		slog.String("name", job.Name),
		slog.String("source", job.Source))
	return nil
}

// Length returns the number of jobs waiting for a worker.
func (q *Queue) Length() int {
	return len(q.jobs)
}

// Capacity returns the queue's buffer size.
func (q *Queue) Capacity() int {
	return q.maxSize
}

// Workers returns the worker pool size.
func (q *Queue) Workers() int {
	return q.workers
}

// ActiveJobs returns a copy of the currently running jobs.
func (q *Queue) ActiveJobs() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	active := make([]*Job, 0, len(q.active))
	for _, job := range q.active {
		active = append(active, job)
	}
	return active
}

// History returns recent completed jobs, oldest first.
func (q *Queue) History() []*Job {
	q.mu.RLock()
	defer q.mu.RUnlock()

	hist := make([]*Job, len(q.history))
	copy(hist, q.history)
	return hist
}

func (q *Queue) worker(ctx context.Context, index int) {
	defer q.wg.Done()

	workerID := fmt.Sprintf("worker-%d", index)
	slog.Debug("Queue worker started", logfields.Worker(workerID))

	for {
		select {
		case <-ctx.Done():
			slog.Debug("Queue worker stopped by context", logfields.Worker(workerID))
			return
		case <-q.stopChan:
			slog.Debug("Queue worker stopped by stop signal", logfields.Worker(workerID))
			return
		case job := <-q.jobs:
			if job != nil {
				q.processJob(ctx, job, index, workerID)
			}
		}
	}
}

func (q *Queue) processJob(ctx context.Context, job *Job, index int, workerID string) {
	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel
	defer cancel()

	startTime := time.Now()
	job.StartedAt = &startTime
	job.Status = history.StatusRunning

	q.mu.Lock()
	q.active[job.ID] = job
	activeCount := len(q.active)
	q.mu.Unlock()

	q.recorder.SetQueueDepth(len(q.jobs))
	q.recorder.SetActiveJobs(activeCount)

	if err := q.emitter.EmitStarted(jobCtx, job.ID, index, -1); err != nil {
		slog.Warn("Failed to record job start", logfields.JobID(job.ID), logfields.Error(err))
	}
	slog.Info("Job started",
		logfields.JobID(job.ID),
		slog.String("kind", string(job.Kind)),
		slog.String("name", job.Name),
		slog.String("worker", workerID))

	err := q.executor.ExecuteJob(jobCtx, job)

	endTime := time.Now()
	job.CompletedAt = &endTime
	job.Duration = endTime.Sub(*job.StartedAt)

	q.mu.Lock()
	delete(q.active, job.ID)
	q.addToHistory(job)
	activeCount = len(q.active)
	q.mu.Unlock()

	q.recorder.SetActiveJobs(activeCount)
	q.finishJob(jobCtx, job, err)
}

// finishJob records the terminal status. Events are emitted with a context
// detached from the job's so a canceled job still lands in history.
func (q *Queue) finishJob(ctx context.Context, job *Job, err error) {
	recordCtx := context.WithoutCancel(ctx)

	switch metrics.ResultFor(err) {
	case metrics.ResultCanceled:
		job.Status = history.StatusCanceled
		job.Error = err.Error()
		if emitErr := q.emitter.EmitCanceled(recordCtx, job.ID, job.Duration); emitErr != nil {
			slog.Warn("Failed to record job cancellation", logfields.JobID(job.ID), logfields.Error(emitErr))
		}
		slog.Info("Job canceled",
			logfields.JobID(job.ID),
			slog.String("name", job.Name),
			logfields.DurationMS(float64(job.Duration.Milliseconds())))
	case metrics.ResultFailed:
		job.Status = history.StatusFailed
		job.Error = err.Error()
		if emitErr := q.emitter.EmitFailed(recordCtx, job.ID, exitCodeFor(err), err.Error(), job.Duration); emitErr != nil {
			slog.Warn("Failed to record job failure", logfields.JobID(job.ID), logfields.Error(emitErr))
		}
		slog.Error("Job failed",
			logfields.JobID(job.ID),
			slog.String("name", job.Name),
			logfields.DurationMS(float64(job.Duration.Milliseconds())),
			logfields.Error(err))
	default:
		job.Status = history.StatusCompleted
		if emitErr := q.emitter.EmitCompleted(recordCtx, job.ID, job.Duration); emitErr != nil {
			slog.Warn("Failed to record job completion", logfields.JobID(job.ID), logfields.Error(emitErr))
		}
		slog.Info("Job completed",
			logfields.JobID(job.ID),
			slog.String("name", job.Name),
			logfields.DurationMS(float64(job.Duration.Milliseconds())))
	}
}

func (q *Queue) addToHistory(job *Job) {
	q.history = append(q.history, job)

	if len(q.history) > q.historySize {
		copy(q.history, q.history[len(q.history)-q.historySize:])
		q.history = q.history[:q.historySize]
	}
}

// exitCodeFor pulls the recorded tool exit code out of an error, or -1.
func exitCodeFor(err error) int {
	if lre, ok := err.(*errors.LabRunnerError); ok {
		if code, ok := lre.Context["exit_code"].(int); ok {
			return code
		}
	}
	return -1
}
