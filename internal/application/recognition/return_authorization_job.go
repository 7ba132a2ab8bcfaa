package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Source key roles of the deal return events
const (
	roleDealPositive = "deal-positive"
	roleDealNegative = "deal-negative"
	roleNotReturned  = "not-returned"
)

// ReturnAuthorizationJob books flagged returns.
// Deal returns get their revenue events and refund the blanket order;
// fulfillment returns raise the pending return quantity.
type ReturnAuthorizationJob struct {
	deps Dependencies
}

// NewReturnAuthorizationJob creates a new ReturnAuthorizationJob
func NewReturnAuthorizationJob(deps Dependencies) *ReturnAuthorizationJob {
	return &ReturnAuthorizationJob{deps: deps}
}

// Name returns the job name
func (j *ReturnAuthorizationJob) Name() string { return JobReturnAuthorization }

// Input returns returns whose process flag is set
func (j *ReturnAuthorizationJob) Input(ctx context.Context) ([]uuid.UUID, error) {
	return j.deps.Repos.ReturnAuthorizations().FindFlagged(ctx, shared.DefaultFilter())
}

// Process handles one return in a single transaction
func (j *ReturnAuthorizationJob) Process(ctx context.Context, c *batch.Candidate) error {
	var events pending
	err := j.deps.Scope.Execute(ctx, func(repos Repositories) error {
		rma, err := repos.ReturnAuthorizations().FindByID(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load return authorization: %w", err)
		}
		if !rma.ProcessFlag {
			return batch.ErrSkipped
		}
		if seen, err := c.Seen(ctx, rma.Version); err != nil || seen {
			return skipOr(err)
		}

		bso, err := loadBlanketOrder(ctx, repos, rma.BlanketOrderID)
		if errors.Is(err, ledger.ErrNoBlanketOrder) {
			// left flagged; the processed marker keeps this version out of later runs
			j.deps.log(ctx).Warn("Return authorization has no blanket order, skipped",
				zap.String("number", rma.Number))
			return batch.ErrSkipped
		}
		if err != nil {
			return err
		}

		switch {
		case rma.IsDealReturn():
			if err := j.processDealReturn(ctx, repos, rma, bso, &events); err != nil {
				return err
			}
		case rma.IsFulfillmentReturn():
			if err := j.processFulfillmentReturn(ctx, repos, rma, bso, &events); err != nil {
				return err
			}
		default:
			j.deps.log(ctx).Info("Return authorization not ready for revenue, flag cleared",
				zap.String("number", rma.Number),
				zap.String("status", string(rma.Status)),
			)
		}

		rma.ClearProcessFlag()
		return repos.ReturnAuthorizations().Save(ctx, rma)
	})
	if err != nil {
		return err
	}
	j.deps.publish(ctx, events.events)
	return nil
}

// processDealReturn records, per non-inventory line, a positive event on the DSO
// line, a negative event on the return line, and a reversal on the DSO line for
// quantity shipped but not returned. The returned quantities are refunded on
// the blanket order.
func (j *ReturnAuthorizationJob) processDealReturn(
	ctx context.Context,
	repos Repositories,
	rma *trade.ReturnAuthorization,
	bso *ledger.BlanketOrder,
	events *pending,
) error {
	var contributions []ledger.Contribution
	shippedNotReturned := make(map[string]bool)

	for _, line := range rma.DealReturnLines() {
		if line.RevenueEventID != nil {
			continue
		}
		contributions = append(contributions, ledger.Contribution{ProductID: line.ProductID, Quantity: line.Quantity})

		dsoLine, err := j.deps.findDSOLine(ctx, repos, line.ProductID)
		if err != nil {
			return err
		}
		if dsoLine == nil {
			continue
		}

		positive, err := j.record(ctx, repos, rma, line, dsoLine.ID, revenue.KindDealPositive, roleDealPositive, line.Quantity, events)
		if err != nil {
			return err
		}
		line.RevenueEventID = &positive

		negative, err := j.record(ctx, repos, rma, line, line.ID, revenue.KindCredit, roleDealNegative, line.Quantity, events)
		if err != nil {
			return err
		}
		line.NegativeEventID = &negative

		if line.ShippedNotReturned.IsPositive() {
			shippedNotReturned[line.ProductID] = true
			reverse, err := j.record(ctx, repos, rma, line, dsoLine.ID, revenue.KindReversal, roleNotReturned, line.ShippedNotReturned, events)
			if err != nil {
				return err
			}
			line.ReverseEventID = &reverse
		}
	}

	if len(contributions) == 0 {
		return nil
	}
	if _, err := bso.ApplyDealReturn(ledger.DedupeByProduct(contributions), shippedNotReturned); err != nil {
		return err
	}
	if err := repos.BlanketOrders().Save(ctx, bso); err != nil {
		return fmt.Errorf("save blanket order: %w", err)
	}
	events.takeFrom(bso)
	return nil
}

// processFulfillmentReturn raises the pending return quantity of the returned products
func (j *ReturnAuthorizationJob) processFulfillmentReturn(
	ctx context.Context,
	repos Repositories,
	rma *trade.ReturnAuthorization,
	bso *ledger.BlanketOrder,
	events *pending,
) error {
	contributions := pendingReturnContributions(rma)
	if len(contributions) == 0 {
		j.deps.log(ctx).Error("No return lines match the blanket order",
			zap.String("number", rma.Number),
			zap.String("blanket_order", bso.Number),
		)
		return nil
	}
	return applyPendingReturn(ctx, repos, bso, contributions, events)
}

func (j *ReturnAuthorizationJob) record(
	ctx context.Context,
	repos Repositories,
	rma *trade.ReturnAuthorization,
	line *trade.ReturnLine,
	target uuid.UUID,
	kind revenue.Kind,
	role string,
	quantity decimal.Decimal,
	events *pending,
) (uuid.UUID, error) {
	e, err := revenue.NewRevenueEvent(
		revenue.SourceKey(JobReturnAuthorization, rma.ID, line.ID, role),
		target, kind, line.Rate, quantity, rma.TranDate,
	)
	if err != nil {
		return uuid.Nil, err
	}
	stored, _, err := recordEvent(ctx, repos, JobReturnAuthorization, e, events)
	if err != nil {
		return uuid.Nil, err
	}
	return stored.ID, nil
}

// pendingReturnContributions returns the first contribution of every product on
// the single-component and component-less return lines
func pendingReturnContributions(rma *trade.ReturnAuthorization) []ledger.Contribution {
	var contributions []ledger.Contribution
	for _, l := range rma.FulfillmentReturnLines() {
		if l.ProductID == "" {
			continue
		}
		contributions = append(contributions, ledger.Contribution{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return ledger.DedupeByProduct(contributions)
}

func applyPendingReturn(ctx context.Context, repos Repositories, bso *ledger.BlanketOrder, contributions []ledger.Contribution, events *pending) error {
	if _, err := bso.Apply(ledger.ScenarioFulfillmentReturnPending, contributions); err != nil {
		return err
	}
	if err := repos.BlanketOrders().Save(ctx, bso); err != nil {
		return fmt.Errorf("save blanket order: %w", err)
	}
	events.takeFrom(bso)
	return nil
}

var _ batch.Job = (*ReturnAuthorizationJob)(nil)
