package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config holds scheduler configuration
type Config struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
	// RetryAttempts is how often a failed run is resubmitted
	RetryAttempts int
	RetryDelay    time.Duration
	// Retention is how long finished tasks stay readable
	Retention time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Workers:       2,
		QueueSize:     100,
		TaskTimeout:   30 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    time.Minute,
		Retention:     24 * time.Hour,
	}
}

// Error codes that fail the same way on every attempt
var permanentCodes = map[string]bool{
	shared.ErrMissingParameter.Code: true,
	shared.ErrInvalidInput.Code:     true,
	"UNKNOWN_JOB":                   true,
	"UNKNOWN_SEARCH":                true,
}

func isPermanent(err error) bool {
	var de *shared.DomainError
	return errors.As(err, &de) && permanentCodes[de.Code]
}

// Scheduler runs submitted job tasks on a worker pool and retries failed runs
type Scheduler struct {
	config  Config
	catalog *batch.Catalog
	logger  *zap.Logger

	queue  chan *batch.Task
	tasks  map[uuid.UUID]*batch.Task
	taskMu sync.RWMutex

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

var (
	_ batch.Submitter  = (*Scheduler)(nil)
	_ batch.TaskReader = (*Scheduler)(nil)
)

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, catalog *batch.Catalog, logger *zap.Logger) *Scheduler {
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		config:  config,
		catalog: catalog,
		logger:  logger,
		queue:   make(chan *batch.Task, config.QueueSize),
		tasks:   make(map[uuid.UUID]*batch.Task),
	}
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Job scheduler started",
		zap.Int("workers", s.config.Workers),
		zap.Duration("task_timeout", s.config.TaskTimeout),
		zap.Int("retry_attempts", s.config.RetryAttempts),
	)
	return nil
}

// Stop cancels running tasks and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Job scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *Scheduler) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Submit queues a run of a registered job
func (s *Scheduler) Submit(ctx context.Context, job string, params batch.Params) (*batch.Task, error) {
	if !s.running() {
		return nil, ErrSchedulerNotRunning
	}
	if !s.catalog.Has(job) {
		return nil, shared.NewDomainError("UNKNOWN_JOB", "unknown job: "+job)
	}

	task := batch.NewTask(job, params, s.config.RetryAttempts)
	s.taskMu.Lock()
	s.prune(time.Now())
	s.tasks[task.ID] = task
	snapshot := copyTask(task)
	s.taskMu.Unlock()

	if !s.enqueue(task) {
		s.taskMu.Lock()
		delete(s.tasks, task.ID)
		s.taskMu.Unlock()
		return nil, ErrJobQueueFull
	}

	logger.L(ctx).Info("Task submitted",
		zap.String("task_id", task.ID.String()),
		zap.String("job", job),
	)
	return snapshot, nil
}

func (s *Scheduler) enqueue(task *batch.Task) bool {
	select {
	case s.queue <- task:
		return true
	default:
		return false
	}
}

// Task returns a snapshot of a submitted task
func (s *Scheduler) Task(_ context.Context, id uuid.UUID) (*batch.Task, error) {
	s.taskMu.RLock()
	defer s.taskMu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return copyTask(task), nil
}

// prune drops finished tasks older than the retention. Callers hold taskMu.
func (s *Scheduler) prune(now time.Time) {
	if s.config.Retention <= 0 {
		return
	}
	for id, task := range s.tasks {
		if task.IsFinal() && task.CompletedAt != nil && now.Sub(*task.CompletedAt) > s.config.Retention {
			delete(s.tasks, id)
		}
	}
}

func copyTask(t *batch.Task) *batch.Task {
	c := *t
	if t.Params != nil {
		c.Params = make(batch.Params, len(t.Params))
		for k, v := range t.Params {
			c.Params[k] = v
		}
	}
	if t.Summary != nil {
		summary := *t.Summary
		summary.Errors = append([]batch.CandidateError(nil), t.Summary.Errors...)
		c.Summary = &summary
	}
	return &c
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	s.logger.Debug("Worker started", zap.Int("worker_id", workerID))
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Worker stopping", zap.Int("worker_id", workerID))
			return
		case task := <-s.queue:
			s.processTask(ctx, task, workerID)
		}
	}
}

// processTask executes one task run
func (s *Scheduler) processTask(ctx context.Context, task *batch.Task, workerID int) {
	s.taskMu.Lock()
	task.Start()
	job, params := task.Job, task.Params
	s.taskMu.Unlock()

	ctx = logger.WithTaskID(ctx, task.ID.String())
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("task_id", task.ID.String()),
		zap.String("job", job),
	)
	log.Info("Processing task")

	summary, err := s.run(ctx, job, params)

	s.taskMu.Lock()
	if err == nil {
		task.Complete(summary)
		s.taskMu.Unlock()
		log.Info("Task completed successfully")
		return
	}

	task.Fail(err.Error())
	task.Summary = summary
	if isPermanent(err) {
		task.MaxRetries = task.RetryCount
	}
	retry := task.ShouldRetry()
	if retry {
		task.ScheduleRetry(s.config.RetryDelay)
	}
	retryCount, maxRetries := task.RetryCount, task.MaxRetries
	s.taskMu.Unlock()

	log.Error("Task failed", zap.Error(err))
	if !retry {
		return
	}

	log.Info("Task scheduled for retry",
		zap.Int("retry_count", retryCount),
		zap.Int("max_retries", maxRetries),
	)
	time.AfterFunc(s.config.RetryDelay, func() {
		if !s.running() || s.enqueue(task) {
			return
		}
		s.taskMu.Lock()
		task.Fail(ErrJobQueueFull.Error())
		task.MaxRetries = task.RetryCount
		s.taskMu.Unlock()
		log.Warn("Failed to re-queue task for retry")
	})
}

func (s *Scheduler) run(ctx context.Context, job string, params batch.Params) (*batch.Summary, error) {
	runnable, err := s.catalog.Build(job, params)
	if err != nil {
		return nil, err
	}
	if s.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.TaskTimeout)
		defer cancel()
	}
	return runnable.Run(ctx)
}
