package ledger

import (
	"fmt"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeBlanketOrder is the aggregate type name for blanket orders
const AggregateTypeBlanketOrder = "BlanketOrder"

// ErrNoBlanketOrder is returned when a transaction has no blanket order to reconcile against
var ErrNoBlanketOrder = shared.NewDomainError("NO_BLANKET_ORDER", "transaction is not linked to a blanket order")

// BlanketLine is the per-product ledger of a blanket order
type BlanketLine struct {
	ID            uuid.UUID
	ProductID     string
	Remaining     decimal.Decimal
	PendingReturn decimal.Decimal
	Returned      decimal.Decimal
	Refunded      decimal.Decimal
	SumShipped    decimal.Decimal
}

// BlanketOrder (BSO) tracks quantities promised, shipped and returned per product
// across all of its dependent transactions.
type BlanketOrder struct {
	shared.BaseAggregateRoot
	Number string
	Lines  []BlanketLine
}

// NewBlanketOrder creates an empty blanket order
func NewBlanketOrder(number string) *BlanketOrder {
	return &BlanketOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
	}
}

// Line returns the ledger line for a product, or nil
func (b *BlanketOrder) Line(productID string) *BlanketLine {
	for i := range b.Lines {
		if b.Lines[i].ProductID == productID {
			return &b.Lines[i]
		}
	}
	return nil
}

// Adjustment is one applied counter movement
type Adjustment struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// Apply moves the ledger counters of every line whose product has a contribution.
// Contributions for products the blanket order does not carry are ignored.
// Contributions must already be deduplicated by product.
func (b *BlanketOrder) Apply(scenario Scenario, contributions []Contribution) ([]Adjustment, error) {
	d, ok := DeltaFor(scenario)
	if !ok {
		return nil, shared.NewDomainError("INVALID_SCENARIO", fmt.Sprintf("unknown ledger scenario %q", scenario))
	}

	var applied []Adjustment
	for _, c := range contributions {
		line := b.Line(c.ProductID)
		if line == nil {
			continue
		}
		line.Remaining = line.Remaining.Add(scale(d.Remaining, c.Quantity))
		line.PendingReturn = line.PendingReturn.Add(scale(d.PendingReturn, c.Quantity))
		line.Returned = line.Returned.Add(scale(d.Returned, c.Quantity))
		line.Refunded = line.Refunded.Add(scale(d.Refunded, c.Quantity))
		line.SumShipped = line.SumShipped.Add(scale(d.SumShipped, c.Quantity))
		applied = append(applied, Adjustment{ProductID: c.ProductID, Quantity: c.Quantity})
	}

	if len(applied) > 0 {
		b.UpdatedAt = time.Now()
		b.AddDomainEvent(NewBlanketOrderAdjustedEvent(b, scenario, applied))
	}
	return applied, nil
}

// ApplyDealReturn books a refunded deal return. Products whose return line
// still had shipped-not-returned quantity keep their remaining quantity
// raised by the returned quantity instead of lowered.
func (b *BlanketOrder) ApplyDealReturn(contributions []Contribution, shippedNotReturned map[string]bool) ([]Adjustment, error) {
	before := make(map[string]decimal.Decimal)
	for _, c := range contributions {
		if line := b.Line(c.ProductID); line != nil {
			if _, seen := before[c.ProductID]; !seen {
				before[c.ProductID] = line.Remaining
			}
		}
	}

	applied, err := b.Apply(ScenarioDealReturn, contributions)
	if err != nil {
		return nil, err
	}

	for _, c := range contributions {
		if !shippedNotReturned[c.ProductID] {
			continue
		}
		if line := b.Line(c.ProductID); line != nil {
			line.Remaining = before[c.ProductID].Add(c.Quantity)
		}
	}
	return applied, nil
}
