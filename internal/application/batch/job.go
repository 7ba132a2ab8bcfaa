package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
)

// ErrSkipped is returned by Job.Process when a candidate no longer qualifies
// (flag already cleared, record already processed, nothing to reconcile).
var ErrSkipped = errors.New("candidate skipped")

// Job is a batch job processed candidate by candidate.
// Input selects the candidates without side effects; Process handles one of them.
type Job interface {
	Name() string
	Input(ctx context.Context) ([]uuid.UUID, error)
	Process(ctx context.Context, c *Candidate) error
}

// Runnable is anything the scheduler can execute as one run
type Runnable interface {
	Name() string
	Run(ctx context.Context) (*Summary, error)
}

// Params are the named parameters a run was submitted with
type Params map[string]string

// Get returns the parameter value or an empty string
func (p Params) Get(name string) string {
	if p == nil {
		return ""
	}
	return p[name]
}

// Require returns the parameter value or a missing parameter error
func (p Params) Require(name string) (string, error) {
	v := p.Get(name)
	if v == "" {
		return "", shared.NewMissingParameterError(name)
	}
	return v, nil
}

// Candidate is one record handed to Job.Process.
// Jobs report the version they loaded through Seen; the runner stores a
// processed marker for that version once the candidate succeeds or is skipped.
type Candidate struct {
	ID uuid.UUID

	job     string
	markers shared.IdempotencyStore
	version int
	seen    bool
}

// NewCandidate creates a candidate without processed markers
func NewCandidate(job string, id uuid.UUID) *Candidate {
	return &Candidate{ID: id, job: job}
}

// Seen records the loaded version of the candidate and reports whether that
// version was already processed by an earlier run.
func (c *Candidate) Seen(ctx context.Context, version int) (bool, error) {
	c.version = version
	c.seen = true
	if c.markers == nil {
		return false, nil
	}
	processed, err := c.markers.IsProcessed(ctx, c.MarkerKey())
	if err != nil {
		return false, fmt.Errorf("check processed marker: %w", err)
	}
	return processed, nil
}

// Release drops the processed marker of this attempt. Jobs call it when they
// wrote nothing, so a later run sees the same version again.
func (c *Candidate) Release() {
	c.seen = false
}

// MarkerKey returns job:id:version
func (c *Candidate) MarkerKey() string {
	return MarkerKey(c.job, c.ID, c.version)
}

// MarkerKey builds the processed marker key of one record version
func MarkerKey(job string, id uuid.UUID, version int) string {
	return fmt.Sprintf("%s:%s:%d", job, id, version)
}

// CandidateError is a per-candidate failure kept in the run summary
// Runs that do not work on records leave ID empty and set Key instead.
type CandidateError struct {
	ID    uuid.UUID `json:"id"`
	Key   string    `json:"key,omitempty"`
	Error string    `json:"error"`
}

// Summary is the outcome of one run
type Summary struct {
	Job        string           `json:"job"`
	Total      int              `json:"total"`
	Succeeded  int              `json:"succeeded"`
	Skipped    int              `json:"skipped"`
	Failed     int              `json:"failed"`
	Errors     []CandidateError `json:"errors,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
}

// Duration returns the wall time of the run
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
