package scheduler

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"go.uber.org/zap"
)

// IntervalTriggerConfig holds configuration for the interval trigger
type IntervalTriggerConfig struct {
	// Schedules maps a job name to its run interval
	Schedules map[string]time.Duration
	// CheckInterval is how often to check if a job is due
	CheckInterval time.Duration
}

// IntervalTrigger submits scheduled jobs once their interval has passed
type IntervalTrigger struct {
	config    IntervalTriggerConfig
	submitter batch.Submitter
	logger    *zap.Logger
	now       func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[string]time.Time
}

// NewIntervalTrigger creates a new interval trigger
func NewIntervalTrigger(config IntervalTriggerConfig, submitter batch.Submitter, logger *zap.Logger) *IntervalTrigger {
	if config.CheckInterval <= 0 {
		config.CheckInterval = time.Minute
	}
	return &IntervalTrigger{
		config:    config,
		submitter: submitter,
		logger:    logger,
		now:       time.Now,
		lastRun:   make(map[string]time.Time),
	}
}

// Start starts the trigger loop. Jobs first run one interval after start.
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	started := t.now()
	for job := range t.config.Schedules {
		t.lastRun[job] = started
	}
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Interval trigger started",
		zap.Int("scheduled_jobs", len(t.config.Schedules)),
		zap.Duration("check_interval", t.config.CheckInterval),
	)
	return nil
}

// Stop stops the trigger loop
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Interval trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *IntervalTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// due returns the jobs whose interval has passed and records them as run
func (t *IntervalTrigger) due(now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var jobs []string
	for job, every := range t.config.Schedules {
		if every <= 0 {
			continue
		}
		if now.Sub(t.lastRun[job]) >= every {
			t.lastRun[job] = now
			jobs = append(jobs, job)
		}
	}
	sort.Strings(jobs)
	return jobs
}

// checkAndTrigger submits every due job
func (t *IntervalTrigger) checkAndTrigger(ctx context.Context) {
	for _, job := range t.due(t.now()) {
		task, err := t.submitter.Submit(ctx, job, nil)
		if err != nil {
			t.logger.Error("Failed to submit scheduled job",
				zap.String("job", job),
				zap.Error(err),
			)
			continue
		}
		t.logger.Info("Scheduled job submitted",
			zap.String("job", job),
			zap.String("task_id", task.ID.String()),
		)
	}
}
