package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrJob       = attribute.Key("job")
	AttrOutcome   = attribute.Key("outcome")
	AttrPoolState = attribute.Key("db.pool.state")
)

// JobDurationBuckets are histogram boundaries for job run duration (seconds)
var JobDurationBuckets = []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900, 1800}

// JobMetrics records job runs and candidate outcomes
type JobMetrics struct {
	candidates  metric.Int64Counter
	runs        metric.Int64Counter
	failedRuns  metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewJobMetrics creates the job instruments on meter
func NewJobMetrics(meter metric.Meter) (*JobMetrics, error) {
	if meter == nil {
		return nil, fmt.Errorf("meter is nil")
	}
	m := &JobMetrics{}
	var err error

	if m.candidates, err = meter.Int64Counter("revrec_job_candidates_total",
		metric.WithDescription("Candidates processed per job and outcome"),
		metric.WithUnit("{candidates}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create candidates counter: %w", err)
	}
	if m.runs, err = meter.Int64Counter("revrec_job_runs_total",
		metric.WithDescription("Completed job runs"),
		metric.WithUnit("{runs}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create runs counter: %w", err)
	}
	if m.failedRuns, err = meter.Int64Counter("revrec_job_runs_with_failures_total",
		metric.WithDescription("Job runs with at least one failed candidate"),
		metric.WithUnit("{runs}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create failed runs counter: %w", err)
	}
	if m.runDuration, err = meter.Float64Histogram("revrec_job_run_duration_seconds",
		metric.WithDescription("Job run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(JobDurationBuckets...),
	); err != nil {
		return nil, fmt.Errorf("failed to create duration histogram: %w", err)
	}
	return m, nil
}

// RecordCandidate counts one candidate outcome
func (m *JobMetrics) RecordCandidate(ctx context.Context, job, outcome string) {
	m.candidates.Add(ctx, 1, metric.WithAttributes(AttrJob.String(job), AttrOutcome.String(outcome)))
}

// RecordRun records a finished run
func (m *JobMetrics) RecordRun(ctx context.Context, job string, duration time.Duration, failed int) {
	attrs := metric.WithAttributes(AttrJob.String(job))
	m.runs.Add(ctx, 1, attrs)
	m.runDuration.Record(ctx, duration.Seconds(), attrs)
	if failed > 0 {
		m.failedRuns.Add(ctx, 1, attrs)
	}
}
