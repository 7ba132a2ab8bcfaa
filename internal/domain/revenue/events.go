package revenue

import (
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeRevenueEventRecorded is raised after a new revenue event is stored
const EventTypeRevenueEventRecorded = "RevenueEventRecorded"

// EventTypeRevenueEventRemoved is raised after an overstated event is deleted
const EventTypeRevenueEventRemoved = "RevenueEventRemoved"

// RevenueEventRecordedEvent announces a stored revenue event
type RevenueEventRecordedEvent struct {
	shared.BaseDomainEvent
	Job               string          `json:"job"`
	TransactionLineID uuid.UUID       `json:"transaction_line_id"`
	Kind              Kind            `json:"kind"`
	Quantity          decimal.Decimal `json:"quantity"`
	Amount            decimal.Decimal `json:"amount"`
}

// NewRevenueEventRecordedEvent creates a new RevenueEventRecordedEvent
func NewRevenueEventRecordedEvent(job string, e *RevenueEvent) *RevenueEventRecordedEvent {
	return &RevenueEventRecordedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRevenueEventRecorded, AggregateTypeRevenueEvent, e.ID),
		Job:               job,
		TransactionLineID: e.TransactionLineID,
		Kind:              e.Kind,
		Quantity:          e.Quantity,
		Amount:            e.Amount,
	}
}

// RevenueEventRemovedEvent announces a deleted overstated event
type RevenueEventRemovedEvent struct {
	shared.BaseDomainEvent
	TransactionLineID uuid.UUID `json:"transaction_line_id"`
	PlansRemoved      int64     `json:"plans_removed"`
}

// NewRevenueEventRemovedEvent creates a new RevenueEventRemovedEvent
func NewRevenueEventRemovedEvent(e *RevenueEvent, plansRemoved int64) *RevenueEventRemovedEvent {
	return &RevenueEventRemovedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeRevenueEventRemoved, AggregateTypeRevenueEvent, e.ID),
		TransactionLineID: e.TransactionLineID,
		PlansRemoved:      plansRemoved,
	}
}
