package scheduler

import "github.com/erp/revrec/internal/domain/shared"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a task to a stopped scheduler
	ErrSchedulerNotRunning = shared.NewDomainError("SCHEDULER_STOPPED", "scheduler is not running")

	// ErrJobQueueFull is returned when the task queue is full
	ErrJobQueueFull = shared.NewDomainError("QUEUE_FULL", "job queue is full")
)
