package trade

import (
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeItemFulfillment is the aggregate type name for item fulfillments
const AggregateTypeItemFulfillment = "ItemFulfillment"

// FulfillmentLine is an item line of an item fulfillment
type FulfillmentLine struct {
	ID             uuid.UUID
	LineNo         int
	ProductID      string
	ItemType       ItemType
	Quantity       decimal.Decimal
	ComponentRate  decimal.NullDecimal
	RevenueEventID *uuid.UUID
}

// NeedsRecognition returns true for lines with a product that were never recognized.
// Kit parents are never recognized themselves; their members are.
func (l *FulfillmentLine) NeedsRecognition() bool {
	return l.ProductID != "" && l.RevenueEventID == nil && l.ItemType != ItemTypeKit
}

// ItemFulfillment is a shipment made against a fulfillment sales order
type ItemFulfillment struct {
	shared.BaseAggregateRoot
	Number          string
	ShipStatus      ShipStatus
	CreatedFromType SourceType
	CreatedFromID   *uuid.UUID
	TranDate        time.Time
	Lines           []FulfillmentLine
}

// IsShipped returns true once the fulfillment has shipped
func (f *ItemFulfillment) IsShipped() bool {
	return f.ShipStatus == ShipStatusShipped
}

// FromTransferOrder returns true when the fulfillment ships a transfer order
func (f *ItemFulfillment) FromTransferOrder() bool {
	return f.CreatedFromType == SourceTransferOrder
}

// LinkRevenueEvent stores the back-reference to a revenue event on a line
func (f *ItemFulfillment) LinkRevenueEvent(lineID, eventID uuid.UUID) error {
	for i := range f.Lines {
		if f.Lines[i].ID == lineID {
			f.Lines[i].RevenueEventID = &eventID
			f.UpdatedAt = time.Now()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "item fulfillment line not found: "+lineID.String())
}

// UnlinkRevenueEvent removes every back-reference to the event and reports whether one was found
func (f *ItemFulfillment) UnlinkRevenueEvent(eventID uuid.UUID) bool {
	found := false
	for i := range f.Lines {
		if f.Lines[i].RevenueEventID != nil && *f.Lines[i].RevenueEventID == eventID {
			f.Lines[i].RevenueEventID = nil
			found = true
		}
	}
	if found {
		f.UpdatedAt = time.Now()
	}
	return found
}
