package trade

import (
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeReturnAuthorization is the aggregate type name for return authorizations
const AggregateTypeReturnAuthorization = "ReturnAuthorization"

// ReturnLine is an item line of a return authorization
type ReturnLine struct {
	ID                 uuid.UUID
	LineNo             int
	ProductID          string
	ItemName           string
	Quantity           decimal.Decimal
	Rate               decimal.Decimal
	ComponentCount     *int
	ShippedNotReturned decimal.Decimal
	RevenueEventID     *uuid.UUID
	NegativeEventID    *uuid.UUID
	ReverseEventID     *uuid.UUID
}

// ReturnAuthorization (RMA) is a customer return against a blanket order.
type ReturnAuthorization struct {
	shared.BaseAggregateRoot
	Number          string
	Type            ReturnType
	Status          ReturnStatus
	TranDate        time.Time
	BlanketOrderID  *uuid.UUID
	ProcessFlag     bool
	ReadyForRevenue bool
	Reship          bool
	ReshipProcessed bool
	Lines           []ReturnLine
}

// HasBlanketOrder returns true when the return is linked to a blanket order
func (r *ReturnAuthorization) HasBlanketOrder() bool {
	return r.BlanketOrderID != nil && *r.BlanketOrderID != uuid.Nil
}

// IsPendingApproval returns true while the return awaits approval
func (r *ReturnAuthorization) IsPendingApproval() bool {
	return r.Status == ReturnStatusPendingApproval
}

// IsDealReturn returns true for deal returns that are ready for revenue processing
func (r *ReturnAuthorization) IsDealReturn() bool {
	return r.ReadyForRevenue && r.Type == ReturnTypeDeal && !r.IsPendingApproval()
}

// IsFulfillmentReturn returns true for fulfillment returns outside revenue processing
func (r *ReturnAuthorization) IsFulfillmentReturn() bool {
	return !r.ReadyForRevenue && r.Type == ReturnTypeFulfillment && !r.IsPendingApproval()
}

// MarkForProcessing sets the process flag on a newly created return
func (r *ReturnAuthorization) MarkForProcessing() {
	r.ProcessFlag = true
	r.touch()
}

// ClearProcessFlag clears the process flag after a batch pass
func (r *ReturnAuthorization) ClearProcessFlag() {
	r.ProcessFlag = false
	r.touch()
}

// NeedsReshipProcessing reports whether the reship box was ticked and not yet handled
func (r *ReturnAuthorization) NeedsReshipProcessing() bool {
	return r.Reship && !r.ReshipProcessed
}

// MarkReshipProcessed records that the reship follow-up was submitted
func (r *ReturnAuthorization) MarkReshipProcessed() {
	r.ReshipProcessed = true
	r.touch()
}

// DealReturnLines returns the lines taking part in deal return revenue processing
func (r *ReturnAuthorization) DealReturnLines() []*ReturnLine {
	var out []*ReturnLine
	for i := range r.Lines {
		if IsNonInventoryName(r.Lines[i].ItemName) {
			out = append(out, &r.Lines[i])
		}
	}
	return out
}

// FulfillmentReturnLines returns single-component and component-less lines.
// Multi-component rows are excluded since their parent line carries the quantity.
func (r *ReturnAuthorization) FulfillmentReturnLines() []ReturnLine {
	var out []ReturnLine
	for _, l := range r.Lines {
		if l.ComponentCount == nil || *l.ComponentCount == 1 {
			out = append(out, l)
		}
	}
	return out
}

// LineByProduct returns the first line carrying the product id
func (r *ReturnAuthorization) LineByProduct(productID string) *ReturnLine {
	for i := range r.Lines {
		if r.Lines[i].ProductID == productID {
			return &r.Lines[i]
		}
	}
	return nil
}

func (r *ReturnAuthorization) touch() {
	r.UpdatedAt = time.Now()
}
