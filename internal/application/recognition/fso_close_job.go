package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FSOCloseJob releases the unshipped quantity of closed fulfillment orders
// back to the remaining quantity of their blanket order.
type FSOCloseJob struct {
	deps Dependencies
}

// NewFSOCloseJob creates a new FSOCloseJob
func NewFSOCloseJob(deps Dependencies) *FSOCloseJob {
	return &FSOCloseJob{deps: deps}
}

// Name returns the job name
func (j *FSOCloseJob) Name() string { return JobFSOClose }

// Input returns closed or close-flagged FSOs not yet processed
func (j *FSOCloseJob) Input(ctx context.Context) ([]uuid.UUID, error) {
	return j.deps.Repos.SalesOrders().FindClosableFSOs(ctx, shared.DefaultFilter())
}

// Process handles one FSO in a single transaction
func (j *FSOCloseJob) Process(ctx context.Context, c *batch.Candidate) error {
	var events pending
	err := j.deps.Scope.Execute(ctx, func(repos Repositories) error {
		order, err := repos.SalesOrders().FindByID(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load sales order: %w", err)
		}
		if !order.IsFSO() || order.ClosedProcessed {
			return batch.ErrSkipped
		}
		if seen, err := c.Seen(ctx, order.Version); err != nil || seen {
			return skipOr(err)
		}

		bso, err := loadBlanketOrder(ctx, repos, order.BlanketOrderID)
		switch {
		case errors.Is(err, ledger.ErrNoBlanketOrder):
			j.deps.log(ctx).Warn("FSO has no blanket order, nothing released",
				zap.String("number", order.Number))
		case err != nil:
			return err
		default:
			if _, err := bso.Apply(ledger.ScenarioFSOClose, closeContributions(order)); err != nil {
				return err
			}
			if err := repos.BlanketOrders().Save(ctx, bso); err != nil {
				return fmt.Errorf("save blanket order: %w", err)
			}
			events.takeFrom(bso)
		}

		order.MarkClosedProcessed()
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return err
	}
	j.deps.publish(ctx, events.events)
	return nil
}

// closeContributions returns the item group parents followed by the closed
// lines never linked to a fulfillment, first occurrence per product
func closeContributions(order *trade.SalesOrder) []ledger.Contribution {
	var out []ledger.Contribution
	for _, l := range order.ItemGroupParentLines() {
		out = append(out, ledger.Contribution{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	for _, l := range order.ClosedUnfulfilledLines() {
		if l.ProductID == "" {
			continue
		}
		out = append(out, ledger.Contribution{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return ledger.DedupeByProduct(out)
}

var _ batch.Job = (*FSOCloseJob)(nil)
