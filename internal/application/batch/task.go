package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a submitted run
type TaskStatus string

const (
	TaskStatusPending TaskStatus = "PENDING"
	TaskStatusRunning TaskStatus = "RUNNING"
	TaskStatusSuccess TaskStatus = "SUCCESS"
	TaskStatusFailed  TaskStatus = "FAILED"
)

// Task is one submitted run of a named job
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Job         string     `json:"job"`
	Params      Params     `json:"params,omitempty"`
	Status      TaskStatus `json:"status"`
	Error       string     `json:"error,omitempty"`
	Summary     *Summary   `json:"summary,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// NewTask creates a pending task
func NewTask(job string, params Params, maxRetries int) *Task {
	return &Task{
		ID:          uuid.New(),
		Job:         job,
		Params:      params,
		Status:      TaskStatusPending,
		MaxRetries:  maxRetries,
		SubmittedAt: time.Now(),
	}
}

// Start marks the task as running
func (t *Task) Start() {
	now := time.Now()
	t.Status = TaskStatusRunning
	t.StartedAt = &now
	t.NextRetryAt = nil
	t.Error = ""
}

// Complete marks the task as successful
func (t *Task) Complete(summary *Summary) {
	now := time.Now()
	t.Status = TaskStatusSuccess
	t.CompletedAt = &now
	t.Summary = summary
}

// Fail marks the task as failed
func (t *Task) Fail(err string) {
	now := time.Now()
	t.Status = TaskStatusFailed
	t.CompletedAt = &now
	t.Error = err
}

// ShouldRetry returns true if the task should be retried
func (t *Task) ShouldRetry() bool {
	return t.Status == TaskStatusFailed && t.RetryCount < t.MaxRetries
}

// ScheduleRetry puts the task back to pending
func (t *Task) ScheduleRetry(delay time.Duration) {
	t.RetryCount++
	t.Status = TaskStatusPending
	next := time.Now().Add(delay)
	t.NextRetryAt = &next
	t.Error = ""
}

// IsFinal reports whether the task will not run again
func (t *Task) IsFinal() bool {
	return t.Status == TaskStatusSuccess || (t.Status == TaskStatusFailed && !t.ShouldRetry())
}

// Submitter queues runs of named jobs
type Submitter interface {
	// Submit queues a run and returns a snapshot of the pending task
	Submit(ctx context.Context, job string, params Params) (*Task, error)
}

// TaskReader looks up submitted tasks
type TaskReader interface {
	// Task returns a snapshot of the task or shared.ErrNotFound
	Task(ctx context.Context, id uuid.UUID) (*Task, error)
}
