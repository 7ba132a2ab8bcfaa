package revenue

import (
	"context"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
)

// RevenueEventRepository defines persistence operations for revenue events
type RevenueEventRepository interface {
	// Record inserts the event unless an event with the same source key exists.
	// It returns the stored event and whether it was newly created.
	Record(ctx context.Context, event *RevenueEvent) (*RevenueEvent, bool, error)

	FindByID(ctx context.Context, id uuid.UUID) (*RevenueEvent, error)

	FindBySourceKey(ctx context.Context, sourceKey string) (*RevenueEvent, error)

	// LastCumulativeEvent returns the most recent percent-complete event on the line, or nil
	LastCumulativeEvent(ctx context.Context, lineID uuid.UUID) (*RevenueEvent, error)

	// FindOverRecognizedLines returns lines whose recognized quantity exceeds the ordered quantity
	FindOverRecognizedLines(ctx context.Context, filter shared.Filter) ([]LineRecognition, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// RevenuePlanRepository defines persistence operations for revenue plans
type RevenuePlanRepository interface {
	Create(ctx context.Context, plan *RevenuePlan) error

	// DeleteByEvent removes every plan generated from the event
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
}
