package recognition

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/erp/revrec/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job names
const (
	JobItemReceipt           = "item_receipt_revenue"
	JobReturnAuthorization   = "return_authorization_revenue"
	JobFulfillmentReturnBSO  = "fulfillment_return_bso"
	JobFSOClose              = "fso_close"
	JobFulfillmentRevenue    = "fulfillment_revenue"
	JobCumulativeRecognition = "cumulative_recognition"
	JobOverstatedCleanup     = "overstated_cleanup"
)

// ParamTransactionID restricts a run to one transaction
const ParamTransactionID = "transaction_id"

// Dependencies are shared by every recognition job
type Dependencies struct {
	// Repos serves candidate selection outside of any transaction
	Repos Repositories
	// Scope serves per-candidate writes
	Scope TransactionScope
	// Publisher receives domain events after commit; may be nil
	Publisher shared.EventPublisher
	Logger    *zap.Logger
}

func (d Dependencies) log(ctx context.Context) *zap.Logger {
	l := d.Logger
	if l == nil {
		l = zap.NewNop()
	}
	if job := logger.GetJob(ctx); job != "" {
		l = l.With(zap.String("job", job))
	}
	if id := logger.GetCandidateID(ctx); id != "" {
		l = l.With(zap.String("candidate_id", id))
	}
	return l
}

// publish hands committed events to the publisher. Failures are logged only:
// the writes they describe are already committed.
func (d Dependencies) publish(ctx context.Context, events []shared.DomainEvent) {
	if d.Publisher == nil || len(events) == 0 {
		return
	}
	if err := d.Publisher.Publish(ctx, events...); err != nil {
		d.log(ctx).Error("Failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}

// pending collects domain events raised inside one transaction
type pending struct {
	events []shared.DomainEvent
}

func (p *pending) add(events ...shared.DomainEvent) {
	p.events = append(p.events, events...)
}

// takeFrom moves the aggregate's pending events into p
func (p *pending) takeFrom(agg shared.AggregateRoot) {
	p.add(agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
}

// recordEvent stores e unless its source key is already taken. It returns the
// stored event and whether this call inserted it.
func recordEvent(ctx context.Context, repos Repositories, job string, e *revenue.RevenueEvent, p *pending) (*revenue.RevenueEvent, bool, error) {
	stored, created, err := repos.RevenueEvents().Record(ctx, e)
	if err != nil {
		return nil, false, fmt.Errorf("record revenue event %s: %w", e.SourceKey, err)
	}
	if created {
		p.add(revenue.NewRevenueEventRecordedEvent(job, stored))
	}
	return stored, created, nil
}

// findDSOLine returns the DSO line of a product, or nil when there is none.
// A missing line is logged as a warning.
func (d Dependencies) findDSOLine(ctx context.Context, repos Repositories, productID string) (*trade.SalesOrderLine, error) {
	line, err := repos.SalesOrders().FindDSOLineByProduct(ctx, productID)
	if errors.Is(err, shared.ErrNotFound) {
		d.log(ctx).Warn("No DSO line for product", zap.String("product_id", productID))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find DSO line for product %s: %w", productID, err)
	}
	return line, nil
}

// loadBlanketOrder returns ledger.ErrNoBlanketOrder when id is unset or the order is gone
func loadBlanketOrder(ctx context.Context, repos Repositories, id *uuid.UUID) (*ledger.BlanketOrder, error) {
	if id == nil || *id == uuid.Nil {
		return nil, ledger.ErrNoBlanketOrder
	}
	bso, err := repos.BlanketOrders().FindByID(ctx, *id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, ledger.ErrNoBlanketOrder
	}
	if err != nil {
		return nil, fmt.Errorf("load blanket order %s: %w", id, err)
	}
	return bso, nil
}

// candidateIDs returns the transaction id parameter when set, otherwise the result of find
func candidateIDs(ctx context.Context, params map[string]string, find func(ctx context.Context) ([]uuid.UUID, error)) ([]uuid.UUID, error) {
	if raw := params[ParamTransactionID]; raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, shared.NewDomainError(shared.ErrInvalidInput.Code, "invalid "+ParamTransactionID+": "+raw)
		}
		return []uuid.UUID{id}, nil
	}
	return find(ctx)
}
