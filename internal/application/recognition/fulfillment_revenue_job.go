package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const roleShipment = "shipment"

// FulfillmentRevenueJob recognizes revenue on the DSO line for every shipped
// fulfillment line. Save hooks submit it for one fulfillment through the
// transaction_id parameter.
type FulfillmentRevenueJob struct {
	deps   Dependencies
	params batch.Params
}

// NewFulfillmentRevenueJob creates a new FulfillmentRevenueJob
func NewFulfillmentRevenueJob(deps Dependencies, params batch.Params) *FulfillmentRevenueJob {
	return &FulfillmentRevenueJob{deps: deps, params: params}
}

// Name returns the job name
func (j *FulfillmentRevenueJob) Name() string { return JobFulfillmentRevenue }

// Input returns the submitted fulfillment, or every shipment with unrecognized lines
func (j *FulfillmentRevenueJob) Input(ctx context.Context) ([]uuid.UUID, error) {
	return candidateIDs(ctx, j.params, func(ctx context.Context) ([]uuid.UUID, error) {
		return j.deps.Repos.ItemFulfillments().FindUnrecognizedShipments(ctx, shared.DefaultFilter())
	})
}

// Process handles one fulfillment in a single transaction
func (j *FulfillmentRevenueJob) Process(ctx context.Context, c *batch.Candidate) error {
	var events pending
	err := j.deps.Scope.Execute(ctx, func(repos Repositories) error {
		f, err := repos.ItemFulfillments().FindByID(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load item fulfillment: %w", err)
		}
		if f.FromTransferOrder() || !f.IsShipped() {
			return batch.ErrSkipped
		}
		if seen, err := c.Seen(ctx, f.Version); err != nil || seen {
			return skipOr(err)
		}

		fso, err := j.loadFSO(ctx, repos, f)
		if err != nil {
			return err
		}

		linked := 0
		for i := range f.Lines {
			line := &f.Lines[i]
			if !line.NeedsRecognition() {
				continue
			}
			dsoLine, err := j.deps.findDSOLine(ctx, repos, line.ProductID)
			if err != nil {
				return err
			}
			if dsoLine == nil {
				continue
			}
			e, err := revenue.NewRevenueEvent(
				revenue.SourceKey(JobFulfillmentRevenue, f.ID, line.ID, roleShipment),
				dsoLine.ID, revenue.KindRecognition, shipmentRate(line, fso), line.Quantity, f.TranDate,
			)
			if err != nil {
				return err
			}
			stored, _, err := recordEvent(ctx, repos, JobFulfillmentRevenue, e, &events)
			if err != nil {
				return err
			}
			if err := f.LinkRevenueEvent(line.ID, stored.ID); err != nil {
				return err
			}
			linked++
		}
		if linked == 0 {
			// a DSO line may appear later without the fulfillment changing
			c.Release()
			return nil
		}
		return repos.ItemFulfillments().Save(ctx, f)
	})
	if err != nil {
		return err
	}
	j.deps.publish(ctx, events.events)
	return nil
}

// loadFSO returns the order the fulfillment ships, or nil when it is unknown
func (j *FulfillmentRevenueJob) loadFSO(ctx context.Context, repos Repositories, f *trade.ItemFulfillment) (*trade.SalesOrder, error) {
	if f.CreatedFromID == nil || f.CreatedFromType != trade.SourceSalesOrder {
		return nil, nil
	}
	order, err := repos.SalesOrders().FindByID(ctx, *f.CreatedFromID)
	if errors.Is(err, shared.ErrNotFound) {
		j.deps.log(ctx).Warn("Fulfillment order not found, item rate defaults to zero",
			zap.String("sales_order_id", f.CreatedFromID.String()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load fulfillment order: %w", err)
	}
	return order, nil
}

// shipmentRate is the component rate when it is non-zero, otherwise the FSO item rate
func shipmentRate(line *trade.FulfillmentLine, fso *trade.SalesOrder) decimal.Decimal {
	if line.ComponentRate.Valid && !line.ComponentRate.Decimal.IsZero() {
		return line.ComponentRate.Decimal
	}
	if fso == nil {
		return decimal.Zero
	}
	if l := fso.LineByProduct(line.ProductID); l != nil {
		return l.ItemRate
	}
	return decimal.Zero
}

var _ batch.Job = (*FulfillmentRevenueJob)(nil)
