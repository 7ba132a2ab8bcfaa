package trade

import (
	"context"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
)

// SalesOrderRepository defines persistence operations for sales orders
type SalesOrderRepository interface {
	// FindByID finds a sales order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)

	// FindDSOLineByProduct returns the distribution sales order line carrying the product.
	// Returns shared.ErrNotFound when no DSO line matches.
	FindDSOLineByProduct(ctx context.Context, productID string) (*SalesOrderLine, error)

	// FindClosableFSOs returns FSOs that are closed or flagged for close and not yet processed
	FindClosableFSOs(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error)

	// FindRecognitionCandidates returns approved DSOs whose revenue events are not complete
	FindRecognitionCandidates(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error)

	// Save persists header and line changes with an optimistic version check
	Save(ctx context.Context, order *SalesOrder) error
}

// ReturnAuthorizationRepository defines persistence operations for return authorizations
type ReturnAuthorizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnAuthorization, error)

	// FindFlagged returns returns whose process flag is set
	FindFlagged(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error)

	// FindFlaggedByType returns flagged returns of one type
	FindFlaggedByType(ctx context.Context, returnType ReturnType, filter shared.Filter) ([]uuid.UUID, error)

	Save(ctx context.Context, rma *ReturnAuthorization) error
}

// ItemReceiptRepository defines persistence operations for item receipts
type ItemReceiptRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ItemReceipt, error)

	// FindFlagged returns receipts whose process flag is set
	FindFlagged(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error)

	Save(ctx context.Context, receipt *ItemReceipt) error
}

// ItemFulfillmentRepository defines persistence operations for item fulfillments
type ItemFulfillmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ItemFulfillment, error)

	// FindUnrecognizedShipments returns shipped fulfillments, not from a transfer order,
	// that still have a product line without a revenue event
	FindUnrecognizedShipments(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error)

	// FindByRevenueEvent returns the fulfillment whose line references the event
	FindByRevenueEvent(ctx context.Context, eventID uuid.UUID) (*ItemFulfillment, error)

	Save(ctx context.Context, fulfillment *ItemFulfillment) error
}
