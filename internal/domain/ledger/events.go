package ledger

import (
	"github.com/erp/revrec/internal/domain/shared"
)

// EventTypeBlanketOrderAdjusted is raised whenever ledger counters move
const EventTypeBlanketOrderAdjusted = "BlanketOrderAdjusted"

// BlanketOrderAdjustedEvent carries the counters moved by one Apply call
type BlanketOrderAdjustedEvent struct {
	shared.BaseDomainEvent
	BlanketOrderNumber string       `json:"blanket_order_number"`
	Scenario           Scenario     `json:"scenario"`
	Adjustments        []Adjustment `json:"adjustments"`
}

// NewBlanketOrderAdjustedEvent creates a new BlanketOrderAdjustedEvent
func NewBlanketOrderAdjustedEvent(b *BlanketOrder, scenario Scenario, adj []Adjustment) *BlanketOrderAdjustedEvent {
	return &BlanketOrderAdjustedEvent{
		BaseDomainEvent:    shared.NewBaseDomainEvent(EventTypeBlanketOrderAdjusted, AggregateTypeBlanketOrder, b.ID),
		BlanketOrderNumber: b.Number,
		Scenario:           scenario,
		Adjustments:        adj,
	}
}
