package recognition

import (
	"context"
	"fmt"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Hooks reacts to saves signalled by the record store
type Hooks struct {
	deps  Dependencies
	tasks batch.Submitter
}

// NewHooks creates new save hooks
func NewHooks(deps Dependencies, tasks batch.Submitter) *Hooks {
	return &Hooks{deps: deps, tasks: tasks}
}

// ReturnAuthorizationCreated flags a new return for the next revenue pass
func (h *Hooks) ReturnAuthorizationCreated(ctx context.Context, id uuid.UUID) error {
	return h.deps.Scope.Execute(ctx, func(repos Repositories) error {
		rma, err := repos.ReturnAuthorizations().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load return authorization: %w", err)
		}
		if rma.ProcessFlag {
			return nil
		}
		rma.MarkForProcessing()
		return repos.ReturnAuthorizations().Save(ctx, rma)
	})
}

// ReturnAuthorizationEdited submits the pending-return job for a return whose
// reship box was ticked. The reship is marked handled even when the submission
// fails, so the flagged batch pass picks the return up instead.
func (h *Hooks) ReturnAuthorizationEdited(ctx context.Context, id uuid.UUID) (*batch.Task, error) {
	var task *batch.Task
	err := h.deps.Scope.Execute(ctx, func(repos Repositories) error {
		rma, err := repos.ReturnAuthorizations().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load return authorization: %w", err)
		}
		if !rma.NeedsReshipProcessing() {
			return nil
		}

		task, err = h.tasks.Submit(ctx, JobFulfillmentReturnBSO, batch.Params{ParamTransactionID: id.String()})
		if err != nil {
			h.deps.log(ctx).Error("Failed to submit fulfillment return task",
				zap.String("return_authorization_id", id.String()), zap.Error(err))
			task = nil
		}
		rma.MarkReshipProcessed()
		return repos.ReturnAuthorizations().Save(ctx, rma)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ItemReceiptCreated flags a new receipt for the next revenue pass
func (h *Hooks) ItemReceiptCreated(ctx context.Context, id uuid.UUID) error {
	return h.deps.Scope.Execute(ctx, func(repos Repositories) error {
		receipt, err := repos.ItemReceipts().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load item receipt: %w", err)
		}
		if receipt.ProcessFlag {
			return nil
		}
		receipt.MarkForProcessing()
		return repos.ItemReceipts().Save(ctx, receipt)
	})
}

// SalesOrderEdited queues a closed FSO for the close job and reports whether it did
func (h *Hooks) SalesOrderEdited(ctx context.Context, id uuid.UUID) (bool, error) {
	flagged := false
	err := h.deps.Scope.Execute(ctx, func(repos Repositories) error {
		order, err := repos.SalesOrders().FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load sales order: %w", err)
		}
		if !order.ShouldFlagClose() || order.CloseFlag {
			return nil
		}
		order.FlagForClose()
		flagged = true
		return repos.SalesOrders().Save(ctx, order)
	})
	if err != nil {
		return false, err
	}
	return flagged, nil
}

// FulfillmentSaved submits fulfillment revenue for one fulfillment and returns the task
func (h *Hooks) FulfillmentSaved(ctx context.Context, id uuid.UUID) (*batch.Task, error) {
	if _, err := h.deps.Repos.ItemFulfillments().FindByID(ctx, id); err != nil {
		return nil, fmt.Errorf("load item fulfillment: %w", err)
	}
	task, err := h.tasks.Submit(ctx, JobFulfillmentRevenue, batch.Params{ParamTransactionID: id.String()})
	if err != nil {
		return nil, fmt.Errorf("submit fulfillment revenue: %w", err)
	}
	h.deps.log(ctx).Info("Fulfillment revenue submitted",
		zap.String("item_fulfillment_id", id.String()),
		zap.String("task_id", task.ID.String()),
		zap.String("status", string(task.Status)),
	)
	return task, nil
}
