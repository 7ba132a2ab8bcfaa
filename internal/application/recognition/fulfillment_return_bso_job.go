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

// FulfillmentReturnBSOJob raises the pending return quantity of the blanket
// order for fulfillment returns. Save hooks submit it for a single reshipped
// return through the transaction_id parameter. Targeted runs still require the
// process flag: a cleared flag means the pending return is already booked.
type FulfillmentReturnBSOJob struct {
	deps   Dependencies
	params batch.Params
}

// NewFulfillmentReturnBSOJob creates a new FulfillmentReturnBSOJob
func NewFulfillmentReturnBSOJob(deps Dependencies, params batch.Params) *FulfillmentReturnBSOJob {
	return &FulfillmentReturnBSOJob{deps: deps, params: params}
}

// Name returns the job name
func (j *FulfillmentReturnBSOJob) Name() string { return JobFulfillmentReturnBSO }

// Input returns the submitted return, or every flagged fulfillment return
func (j *FulfillmentReturnBSOJob) Input(ctx context.Context) ([]uuid.UUID, error) {
	return candidateIDs(ctx, j.params, func(ctx context.Context) ([]uuid.UUID, error) {
		return j.deps.Repos.ReturnAuthorizations().FindFlaggedByType(ctx, trade.ReturnTypeFulfillment, shared.DefaultFilter())
	})
}

// Process handles one return in a single transaction
func (j *FulfillmentReturnBSOJob) Process(ctx context.Context, c *batch.Candidate) error {
	var events pending
	err := j.deps.Scope.Execute(ctx, func(repos Repositories) error {
		rma, err := repos.ReturnAuthorizations().FindByID(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load return authorization: %w", err)
		}
		if rma.Type != trade.ReturnTypeFulfillment {
			return batch.ErrSkipped
		}
		if !rma.ProcessFlag {
			return batch.ErrSkipped
		}
		if seen, err := c.Seen(ctx, rma.Version); err != nil || seen {
			return skipOr(err)
		}

		bso, err := loadBlanketOrder(ctx, repos, rma.BlanketOrderID)
		if errors.Is(err, ledger.ErrNoBlanketOrder) {
			j.deps.log(ctx).Warn("Fulfillment return has no blanket order, skipped",
				zap.String("number", rma.Number))
			return batch.ErrSkipped
		}
		if err != nil {
			return err
		}

		var contributions []ledger.Contribution
		for _, l := range rma.Lines {
			if l.ProductID == "" {
				continue
			}
			contributions = append(contributions, ledger.Contribution{ProductID: l.ProductID, Quantity: l.Quantity})
		}
		if err := applyPendingReturn(ctx, repos, bso, ledger.DedupeByProduct(contributions), &events); err != nil {
			return err
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

var _ batch.Job = (*FulfillmentReturnBSOJob)(nil)
