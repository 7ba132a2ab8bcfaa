package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParamOverstatedSearch names the query selecting overstated events
const ParamOverstatedSearch = "overstated_search"

// OverstatedCleanupJob deletes recognition events that push a line past its
// ordered quantity, together with their revenue plans.
type OverstatedCleanupJob struct {
	deps   Dependencies
	search string
}

// NewOverstatedCleanupJob creates a new OverstatedCleanupJob
func NewOverstatedCleanupJob(deps Dependencies, search string) *OverstatedCleanupJob {
	return &OverstatedCleanupJob{deps: deps, search: search}
}

// Name returns the job name
func (j *OverstatedCleanupJob) Name() string { return JobOverstatedCleanup }

// Input returns the ids of the events to delete, newest first per line
func (j *OverstatedCleanupJob) Input(ctx context.Context) ([]uuid.UUID, error) {
	if j.search == "" {
		return nil, shared.NewMissingParameterError(ParamOverstatedSearch)
	}
	if j.search != revenue.SearchOverRecognizedLines {
		return nil, shared.NewDomainError("UNKNOWN_SEARCH", "unknown overstated search: "+j.search)
	}
	lines, err := j.deps.Repos.RevenueEvents().FindOverRecognizedLines(ctx, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	for _, l := range lines {
		for _, e := range revenue.SelectOverstated(l) {
			ids = append(ids, e.ID)
		}
	}
	return ids, nil
}

// Process removes one event, its plans and the fulfillment back-reference in a single transaction
func (j *OverstatedCleanupJob) Process(ctx context.Context, c *batch.Candidate) error {
	var events pending
	err := j.deps.Scope.Execute(ctx, func(repos Repositories) error {
		e, err := repos.RevenueEvents().FindByID(ctx, c.ID)
		if errors.Is(err, shared.ErrNotFound) {
			return batch.ErrSkipped
		}
		if err != nil {
			return fmt.Errorf("load revenue event: %w", err)
		}

		plans, err := repos.RevenuePlans().DeleteByEvent(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("delete revenue plans: %w", err)
		}

		f, err := repos.ItemFulfillments().FindByRevenueEvent(ctx, e.ID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
		case err != nil:
			return fmt.Errorf("find fulfillment of event: %w", err)
		default:
			if f.UnlinkRevenueEvent(e.ID) {
				if err := repos.ItemFulfillments().Save(ctx, f); err != nil {
					return err
				}
			}
		}

		if err := repos.RevenueEvents().Delete(ctx, e.ID); err != nil {
			return fmt.Errorf("delete revenue event: %w", err)
		}
		events.add(revenue.NewRevenueEventRemovedEvent(e, plans))
		j.deps.log(ctx).Info("Removed overstated revenue event",
			zap.String("transaction_line_id", e.TransactionLineID.String()),
			zap.String("quantity", e.Quantity.String()),
			zap.Int64("plans_removed", plans),
		)
		return nil
	})
	if err != nil {
		return err
	}
	j.deps.publish(ctx, events.events)
	return nil
}

var _ batch.Job = (*OverstatedCleanupJob)(nil)
