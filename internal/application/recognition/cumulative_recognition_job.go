package recognition

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CumulativeConfig holds the named parameters of cumulative recognition
type CumulativeConfig struct {
	// BilledStatus is the status label an order needs before it is marked fully recognized
	BilledStatus string
	// EventType is stamped on the percent-complete events
	EventType int
}

// CumulativeRecognitionJob records percent-complete revenue events per
// allocation group and per special shipping line of approved DSOs.
type CumulativeRecognitionJob struct {
	deps Dependencies
	cfg  CumulativeConfig
	now  func() time.Time
}

// NewCumulativeRecognitionJob creates a new CumulativeRecognitionJob
func NewCumulativeRecognitionJob(deps Dependencies, cfg CumulativeConfig) *CumulativeRecognitionJob {
	return &CumulativeRecognitionJob{deps: deps, cfg: cfg, now: time.Now}
}

// Name returns the job name
func (j *CumulativeRecognitionJob) Name() string { return JobCumulativeRecognition }

// Input validates the job parameters and returns DSOs whose events are not complete
func (j *CumulativeRecognitionJob) Input(ctx context.Context) ([]uuid.UUID, error) {
	if j.cfg.BilledStatus == "" {
		return nil, shared.NewMissingParameterError("billed_status")
	}
	if j.cfg.EventType == 0 {
		return nil, shared.NewMissingParameterError("cumulative_event_type")
	}
	return j.deps.Repos.SalesOrders().FindRecognitionCandidates(ctx, shared.DefaultFilter())
}

// Process evaluates every recognition group of one order in a single transaction
func (j *CumulativeRecognitionJob) Process(ctx context.Context, c *batch.Candidate) error {
	var events pending
	err := j.deps.Scope.Execute(ctx, func(repos Repositories) error {
		order, err := repos.SalesOrders().FindByID(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load sales order: %w", err)
		}
		// no processed marker: shipments move quantity_fulfilled without a new
		// order version, so every run compares percentages again
		if order.RevenueEventsCreated {
			return batch.ErrSkipped
		}

		complete, created := true, 0
		for _, g := range order.RecognitionGroups() {
			groupComplete, n, err := j.evaluateGroup(ctx, repos, order, g, &events)
			if err != nil {
				return err
			}
			complete = complete && groupComplete
			created += n
		}

		if complete && order.StatusText == j.cfg.BilledStatus {
			order.MarkRevenueEventsCreated()
			j.deps.log(ctx).Info("Sales order fully recognized", zap.String("number", order.Number))
		} else if created == 0 {
			return nil
		}
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return err
	}
	j.deps.publish(ctx, events.events)
	return nil
}

// evaluateGroup creates a percent-complete event on every event line of the
// group whose last stored percent differs. It reports whether the group is
// complete and how many events were inserted. The source key chains each event
// to the one before it, so a percentage reached again after a reversal gets a
// new event.
func (j *CumulativeRecognitionJob) evaluateGroup(
	ctx context.Context,
	repos Repositories,
	order *trade.SalesOrder,
	g trade.RecognitionGroup,
	events *pending,
) (bool, int, error) {
	if !g.Fulfilled.IsPositive() {
		return false, 0, nil
	}
	eventDate := j.now()
	if g.LastFulfilledOn != nil {
		eventDate = *g.LastFulfilledOn
	}

	complete, created := true, 0
	for _, lineID := range g.LineIDs {
		last, err := repos.RevenueEvents().LastCumulativeEvent(ctx, lineID)
		if err != nil {
			return false, 0, fmt.Errorf("last cumulative event: %w", err)
		}
		lastPercent, after := decimal.Zero, "none"
		if last != nil {
			after = last.ID.String()
			if last.CumulativePercent.Valid {
				lastPercent = last.CumulativePercent.Decimal
			}
		}
		outcome := revenue.EvaluateProgress(g.Fulfilled, g.Total, lastPercent)
		if !outcome.Complete {
			complete = false
		}
		if !outcome.CreateEvent {
			continue
		}

		e, err := revenue.NewCumulativeEvent(
			revenue.SourceKey(JobCumulativeRecognition, order.ID, lineID, "pct-"+outcome.Percent.StringFixed(2)+"-after-"+after),
			lineID, j.cfg.EventType, outcome.Percent, eventDate,
		)
		if err != nil {
			return false, 0, err
		}
		stored, inserted, err := recordEvent(ctx, repos, JobCumulativeRecognition, e, events)
		if err != nil {
			return false, 0, err
		}
		if err := order.LinkRevenueEvent(lineID, stored.ID); err != nil {
			return false, 0, err
		}
		if inserted {
			created++
		}
	}
	return complete, created, nil
}

var _ batch.Job = (*CumulativeRecognitionJob)(nil)
