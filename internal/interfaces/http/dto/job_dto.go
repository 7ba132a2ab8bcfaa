package dto

import (
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/google/uuid"
)

// SubmitJobRequest carries the parameters of one run.
// Values override the configured job settings.
type SubmitJobRequest struct {
	Params map[string]string `json:"params"`
}

// JobNameRequest is the job name path parameter
type JobNameRequest struct {
	Name string `uri:"name" binding:"required,max=64"`
}

// HookRequest identifies the saved record
type HookRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

// Hook event names
const (
	HookEventCreate = "create"
	HookEventEdit   = "edit"
)

// ReturnAuthorizationHookRequest identifies a saved return authorization and the kind of save
type ReturnAuthorizationHookRequest struct {
	ID    string `json:"id" binding:"required,uuid"`
	Event string `json:"event" binding:"required,oneof=create edit"`
}

// SummaryResponse is the outcome of one finished run
type SummaryResponse struct {
	Total     int                    `json:"total"`
	Succeeded int                    `json:"succeeded"`
	Skipped   int                    `json:"skipped"`
	Failed    int                    `json:"failed"`
	Duration  string                 `json:"duration"`
	Errors    []CandidateErrorOutput `json:"errors,omitempty"`
}

// CandidateErrorOutput is one failed candidate
type CandidateErrorOutput struct {
	ID    string `json:"id,omitempty"`
	Key   string `json:"key,omitempty"`
	Error string `json:"error"`
}

// TaskResponse is the state of a submitted run
type TaskResponse struct {
	ID          string            `json:"id"`
	Job         string            `json:"job"`
	Params      map[string]string `json:"params,omitempty"`
	Status      string            `json:"status"`
	Error       string            `json:"error,omitempty"`
	RetryCount  int               `json:"retry_count"`
	MaxRetries  int               `json:"max_retries"`
	SubmittedAt time.Time         `json:"submitted_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	NextRetryAt *time.Time        `json:"next_retry_at,omitempty"`
	Summary     *SummaryResponse  `json:"summary,omitempty"`
}

// ToTaskResponse converts a task snapshot
func ToTaskResponse(t *batch.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID.String(),
		Job:         t.Job,
		Params:      t.Params,
		Status:      string(t.Status),
		Error:       t.Error,
		RetryCount:  t.RetryCount,
		MaxRetries:  t.MaxRetries,
		SubmittedAt: t.SubmittedAt,
		StartedAt:   t.StartedAt,
		CompletedAt: t.CompletedAt,
		NextRetryAt: t.NextRetryAt,
	}
	if t.Summary != nil {
		resp.Summary = toSummaryResponse(t.Summary)
	}
	return resp
}

func toSummaryResponse(s *batch.Summary) *SummaryResponse {
	out := &SummaryResponse{
		Total:     s.Total,
		Succeeded: s.Succeeded,
		Skipped:   s.Skipped,
		Failed:    s.Failed,
		Duration:  s.Duration().String(),
	}
	for _, e := range s.Errors {
		item := CandidateErrorOutput{Key: e.Key, Error: e.Error}
		if e.ID != uuid.Nil {
			item.ID = e.ID.String()
		}
		out.Errors = append(out.Errors, item)
	}
	return out
}

// HookResponse reports what a save hook did
type HookResponse struct {
	// Flagged is true when a record was queued for a batch pass
	Flagged bool          `json:"flagged"`
	Task    *TaskResponse `json:"task,omitempty"`
}

// JobListResponse lists the registered jobs
type JobListResponse struct {
	Jobs []string `json:"jobs"`
}
