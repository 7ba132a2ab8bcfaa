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

// ItemReceiptJob credits revenue for goods received back and books the
// receipt on the blanket order of fulfillment returns.
type ItemReceiptJob struct {
	deps Dependencies
}

// NewItemReceiptJob creates a new ItemReceiptJob
func NewItemReceiptJob(deps Dependencies) *ItemReceiptJob {
	return &ItemReceiptJob{deps: deps}
}

// Name returns the job name
func (j *ItemReceiptJob) Name() string { return JobItemReceipt }

// Input returns receipts whose process flag is set
func (j *ItemReceiptJob) Input(ctx context.Context) ([]uuid.UUID, error) {
	return j.deps.Repos.ItemReceipts().FindFlagged(ctx, shared.DefaultFilter())
}

// Process handles one receipt in a single transaction
func (j *ItemReceiptJob) Process(ctx context.Context, c *batch.Candidate) error {
	var events pending
	err := j.deps.Scope.Execute(ctx, func(repos Repositories) error {
		receipt, err := repos.ItemReceipts().FindByID(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load item receipt: %w", err)
		}
		if !receipt.ProcessFlag {
			return batch.ErrSkipped
		}
		if seen, err := c.Seen(ctx, receipt.Version); err != nil || seen {
			return skipOr(err)
		}

		if receipt.FromReturnAuthorization() {
			if err := j.processReturnReceipt(ctx, repos, receipt, &events); err != nil {
				return err
			}
		}

		receipt.ClearProcessFlag()
		return repos.ItemReceipts().Save(ctx, receipt)
	})
	if err != nil {
		return err
	}
	j.deps.publish(ctx, events.events)
	return nil
}

func (j *ItemReceiptJob) processReturnReceipt(ctx context.Context, repos Repositories, receipt *trade.ItemReceipt, events *pending) error {
	rma, err := repos.ReturnAuthorizations().FindByID(ctx, *receipt.CreatedFromID)
	if err != nil {
		return fmt.Errorf("load return authorization %s: %w", receipt.CreatedFromID, err)
	}

	if rma.Type == trade.ReturnTypeFulfillment && rma.HasBlanketOrder() {
		bso, err := loadBlanketOrder(ctx, repos, rma.BlanketOrderID)
		switch {
		case errors.Is(err, ledger.ErrNoBlanketOrder):
			j.deps.log(ctx).Warn("Blanket order not found, receipt not booked",
				zap.String("return_authorization_id", rma.ID.String()))
		case err != nil:
			return err
		default:
			return j.processFulfillmentReturnReceipt(ctx, repos, receipt, rma, bso, events)
		}
	}

	for i := range receipt.Lines {
		line := &receipt.Lines[i]
		if line.RevenueEventID != nil || line.ProductID == "" {
			continue
		}
		if _, err := j.credit(ctx, repos, receipt, line, componentRateOr(line.ComponentRate, line.Rate), events); err != nil {
			return err
		}
	}
	return nil
}

// processFulfillmentReturnReceipt credits every line and moves the received
// quantities from pending return to returned on the blanket order.
func (j *ItemReceiptJob) processFulfillmentReturnReceipt(
	ctx context.Context,
	repos Repositories,
	receipt *trade.ItemReceipt,
	rma *trade.ReturnAuthorization,
	bso *ledger.BlanketOrder,
	events *pending,
) error {
	var contributions []ledger.Contribution
	for i := range receipt.Lines {
		line := &receipt.Lines[i]
		if line.ProductID == "" {
			continue
		}

		if !line.HasComponentDetail() {
			// no component detail: credit at the additional rate; the raw
			// quantity counts only when the product has a DSO line
			credited := line.RevenueEventID != nil
			if !credited {
				rate := line.Rate
				if line.AdditionalRate.Valid {
					rate = line.AdditionalRate.Decimal
				}
				var err error
				if credited, err = j.credit(ctx, repos, receipt, line, rate, events); err != nil {
					return err
				}
			}
			if credited {
				contributions = append(contributions, ledger.Contribution{ProductID: line.ProductID, Quantity: line.Quantity})
			}
			continue
		}

		src := ledger.ContributionSource{
			ProductID:         line.ProductID,
			Quantity:          line.Quantity,
			ComponentCount:    line.ComponentCount,
			ComponentQuantity: line.ComponentQuantity,
		}
		if matched := rma.LineByProduct(line.ProductID); matched != nil {
			src.MatchedQuantity = decimal.NewNullDecimal(matched.Quantity)
		}
		if contribution, ok := ledger.ResolveContribution(src); ok {
			contributions = append(contributions, contribution)
		}
		if line.RevenueEventID == nil {
			if _, err := j.credit(ctx, repos, receipt, line, line.ComponentRate.Decimal, events); err != nil {
				return err
			}
		}
	}

	scenario := ledger.ScenarioReceipt
	if rma.Reship {
		scenario = ledger.ScenarioReceiptReship
	}
	if _, err := bso.Apply(scenario, ledger.DedupeByProduct(contributions)); err != nil {
		return err
	}
	if err := repos.BlanketOrders().Save(ctx, bso); err != nil {
		return fmt.Errorf("save blanket order: %w", err)
	}
	events.takeFrom(bso)
	return nil
}

// credit records a credit event on the product's DSO line and links it to the receipt line.
// Lines without a DSO line are skipped with a warning and report false.
func (j *ItemReceiptJob) credit(ctx context.Context, repos Repositories, receipt *trade.ItemReceipt, line *trade.ReceiptLine, rate decimal.Decimal, events *pending) (bool, error) {
	dsoLine, err := j.deps.findDSOLine(ctx, repos, line.ProductID)
	if err != nil || dsoLine == nil {
		return false, err
	}
	e, err := revenue.NewRevenueEvent(
		revenue.SourceKey(JobItemReceipt, receipt.ID, line.ID, string(revenue.KindCredit)),
		dsoLine.ID, revenue.KindCredit, rate, line.Quantity, receipt.TranDate,
	)
	if err != nil {
		return false, err
	}
	stored, _, err := recordEvent(ctx, repos, JobItemReceipt, e, events)
	if err != nil {
		return false, err
	}
	return true, receipt.LinkRevenueEvent(line.ID, stored.ID)
}

// componentRateOr returns the component rate when set, otherwise fallback
func componentRateOr(rate decimal.NullDecimal, fallback decimal.Decimal) decimal.Decimal {
	if rate.Valid {
		return rate.Decimal
	}
	return fallback
}

// skipOr turns a marker hit into batch.ErrSkipped
func skipOr(err error) error {
	if err != nil {
		return err
	}
	return batch.ErrSkipped
}

var _ batch.Job = (*ItemReceiptJob)(nil)
