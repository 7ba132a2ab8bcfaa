package trade

import (
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeItemReceipt is the aggregate type name for item receipts
const AggregateTypeItemReceipt = "ItemReceipt"

// ReceiptLine is an item line of an item receipt
type ReceiptLine struct {
	ID        uuid.UUID
	LineNo    int
	ProductID string
	Quantity  decimal.Decimal
	Rate      decimal.Decimal
	// AdditionalRate is the fulfillment order item rate used when no component rate is set
	AdditionalRate    decimal.NullDecimal
	ComponentCount    *int
	ComponentQuantity decimal.NullDecimal
	ComponentRate     decimal.NullDecimal
	RevenueEventID    *uuid.UUID
}

// HasComponentDetail returns true when both the component count and the component rate are set
func (l *ReceiptLine) HasComponentDetail() bool {
	return l.ComponentCount != nil && l.ComponentRate.Valid
}

// ItemReceipt records goods received back against a return authorization
// (or against a transfer or purchase order, which revenue processing ignores).
type ItemReceipt struct {
	shared.BaseAggregateRoot
	Number          string
	CreatedFromType SourceType
	CreatedFromID   *uuid.UUID
	TranDate        time.Time
	ProcessFlag     bool
	Lines           []ReceiptLine
}

// FromReturnAuthorization reports whether the receipt was created from a return authorization
func (r *ItemReceipt) FromReturnAuthorization() bool {
	return r.CreatedFromType == SourceReturnAuthorization && r.CreatedFromID != nil
}

// MarkForProcessing sets the process flag on a newly created receipt
func (r *ItemReceipt) MarkForProcessing() {
	r.ProcessFlag = true
	r.touch()
}

// ClearProcessFlag clears the process flag after a batch pass
func (r *ItemReceipt) ClearProcessFlag() {
	r.ProcessFlag = false
	r.touch()
}

// LinkRevenueEvent stores the back-reference to a revenue event on a line
func (r *ItemReceipt) LinkRevenueEvent(lineID, eventID uuid.UUID) error {
	for i := range r.Lines {
		if r.Lines[i].ID == lineID {
			r.Lines[i].RevenueEventID = &eventID
			r.touch()
			return nil
		}
	}
	return shared.NewDomainError("LINE_NOT_FOUND", "item receipt line not found: "+lineID.String())
}

func (r *ItemReceipt) touch() {
	r.UpdatedAt = time.Now()
}
