package batch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/logger"
	"github.com/erp/revrec/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Candidate outcomes reported to Metrics
const (
	OutcomeSucceeded = "succeeded"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Metrics receives run and candidate measurements
type Metrics interface {
	RecordCandidate(ctx context.Context, job, outcome string)
	RecordRun(ctx context.Context, job string, duration time.Duration, failed int)
}

// RunnerConfig holds the knobs shared by every job run
type RunnerConfig struct {
	// Workers bounds the number of candidates processed in parallel
	Workers int
	// ExitOnError stops launching candidates after the first failure
	ExitOnError bool
	// MarkerTTL is how long processed markers are kept
	MarkerTTL time.Duration
	// ConflictRetries bounds re-processing after shared.ErrConcurrencyConflict
	ConflictRetries int
}

// DefaultRunnerConfig returns the default runner configuration
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Workers:         4,
		ExitOnError:     false,
		MarkerTTL:       72 * time.Hour,
		ConflictRetries: 3,
	}
}

// Runner executes jobs candidate by candidate
type Runner struct {
	cfg     RunnerConfig
	markers shared.IdempotencyStore
	metrics Metrics
	logger  *zap.Logger
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithMetrics records run measurements
func WithMetrics(m Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a new Runner. markers may be nil, which disables processed markers.
func NewRunner(cfg RunnerConfig, markers shared.IdempotencyStore, logger *zap.Logger, opts ...RunnerOption) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		cfg:     cfg,
		markers: markers,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bind returns a Runnable that runs job under r
func (r *Runner) Bind(job Job) Runnable {
	return &boundJob{runner: r, job: job}
}

type boundJob struct {
	runner *Runner
	job    Job
}

func (b *boundJob) Name() string {
	return b.job.Name()
}

func (b *boundJob) Run(ctx context.Context) (*Summary, error) {
	return b.runner.Run(ctx, b.job)
}

// Run selects the job's candidates and processes them with bounded parallelism.
// An Input error aborts the run. Candidate failures are logged and counted;
// they abort the run only when ExitOnError is set.
func (r *Runner) Run(ctx context.Context, job Job) (*Summary, error) {
	ctx = logger.WithJob(ctx, job.Name())
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", job.Name())
	defer span.End()

	summary := &Summary{Job: job.Name(), StartedAt: time.Now()}
	log := r.logger.With(zap.String("job", job.Name()))

	ids, err := job.Input(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to select candidates", zap.Error(err))
		return nil, err
	}
	summary.Total = len(ids)
	log.Info("Starting job run", zap.Int("candidates", len(ids)))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)

	for _, id := range ids {
		if gctx.Err() != nil {
			break
		}
		id := id
		g.Go(func() error {
			err := r.processCandidate(gctx, job, id)
			outcome := OutcomeSucceeded
			mu.Lock()
			switch {
			case err == nil:
				summary.Succeeded++
			case errors.Is(err, ErrSkipped):
				summary.Skipped++
				outcome = OutcomeSkipped
			default:
				summary.Failed++
				summary.Errors = append(summary.Errors, CandidateError{ID: id, Error: err.Error()})
				outcome = OutcomeFailed
			}
			mu.Unlock()
			if r.metrics != nil {
				r.metrics.RecordCandidate(ctx, job.Name(), outcome)
			}
			if outcome == OutcomeFailed {
				log.Error("Candidate failed",
					zap.String("candidate_id", id.String()),
					zap.Error(err),
				)
				if r.cfg.ExitOnError {
					return err
				}
			}
			return nil
		})
	}
	runErr := g.Wait()

	summary.FinishedAt = time.Now()
	if r.metrics != nil {
		r.metrics.RecordRun(ctx, job.Name(), summary.Duration(), summary.Failed)
	}
	log.Info("Job run finished",
		zap.Int("total", summary.Total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
		zap.Duration("duration", summary.Duration()),
	)
	if runErr != nil {
		telemetry.RecordError(span, runErr)
		return summary, runErr
	}
	telemetry.SetOK(span)
	return summary, nil
}

// processCandidate runs Process for one id, retrying lost optimistic locks,
// and stores the processed marker of the handled version.
func (r *Runner) processCandidate(ctx context.Context, job Job, id uuid.UUID) error {
	ctx = logger.WithCandidate(ctx, id.String())
	var err error
	for attempt := 0; ; attempt++ {
		c := &Candidate{ID: id, job: job.Name(), markers: r.markers}
		err = job.Process(ctx, c)
		if errors.Is(err, shared.ErrConcurrencyConflict) && attempt < r.cfg.ConflictRetries {
			r.logger.Warn("Concurrent update, retrying candidate",
				zap.String("job", job.Name()),
				zap.String("candidate_id", id.String()),
				zap.Int("attempt", attempt+1),
			)
			continue
		}
		if err == nil || errors.Is(err, ErrSkipped) {
			r.mark(ctx, c)
		}
		return err
	}
}

func (r *Runner) mark(ctx context.Context, c *Candidate) {
	if r.markers == nil || !c.seen {
		return
	}
	if _, err := r.markers.MarkProcessed(ctx, c.MarkerKey(), r.cfg.MarkerTTL); err != nil {
		r.logger.Warn("Failed to store processed marker",
			zap.String("key", c.MarkerKey()),
			zap.Error(err),
		)
	}
}
