package ledger

import (
	"context"

	"github.com/google/uuid"
)

// BlanketOrderRepository defines persistence operations for blanket orders
type BlanketOrderRepository interface {
	// FindByID finds a blanket order with its ledger lines
	FindByID(ctx context.Context, id uuid.UUID) (*BlanketOrder, error)

	// Save persists ledger counters with an optimistic version check.
	// Returns shared.ErrConcurrencyConflict when the stored version moved.
	Save(ctx context.Context, order *BlanketOrder) error
}
