package trade

import (
	"sort"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeSalesOrder is the aggregate type name for sales orders
const AggregateTypeSalesOrder = "SalesOrder"

// SalesOrderLine is an item line of a sales order. Its ID is the line unique
// key that revenue events reference.
type SalesOrderLine struct {
	ID                uuid.UUID
	LineNo            int
	ProductID         string
	ItemName          string
	ItemType          ItemType
	Quantity          decimal.Decimal
	QuantityFulfilled decimal.Decimal
	Rate              decimal.Decimal
	// ItemRate is the per-unit rate carried from the arrangement onto fulfillment orders
	ItemRate          decimal.Decimal
	ComponentCount    *int
	ComponentRate     decimal.NullDecimal
	AllocationGroup   string
	SpecialShipping   bool
	Closed            bool
	FulfillmentLinked bool
	LastFulfilledOn   *time.Time
	RevenueEventID    *uuid.UUID
}

// FulfilledValue returns the value shipped so far on this line
func (l *SalesOrderLine) FulfilledValue() decimal.Decimal {
	return l.QuantityFulfilled.Mul(l.Rate)
}

// TotalValue returns the committed value of this line
func (l *SalesOrderLine) TotalValue() decimal.Decimal {
	return l.Quantity.Mul(l.Rate)
}

// SalesOrder is a sales order as seen by the recognition jobs
type SalesOrder struct {
	shared.BaseAggregateRoot
	Number     string
	Kind       OrderKind
	Status     OrderStatus
	StatusText string
	TranDate   time.Time
	// BlanketOrderID links fulfillment orders to the blanket order they draw down
	BlanketOrderID       *uuid.UUID
	CloseFlag            bool
	ClosedProcessed      bool
	RevenueEventsCreated bool
	Lines                []SalesOrderLine
}

// IsFSO returns true for fulfillment sales orders
func (o *SalesOrder) IsFSO() bool {
	return o.Kind == OrderKindFSO
}

// IsClosed returns true if the order is closed as a whole
func (o *SalesOrder) IsClosed() bool {
	return o.Status == OrderStatusClosed
}

// HasClosedLine returns true if any line is closed
func (o *SalesOrder) HasClosedLine() bool {
	for i := range o.Lines {
		if o.Lines[i].Closed {
			return true
		}
	}
	return false
}

// ShouldFlagClose reports whether a saved FSO must be queued for the close job
func (o *SalesOrder) ShouldFlagClose() bool {
	if !o.IsFSO() || o.ClosedProcessed {
		return false
	}
	return o.IsClosed() || o.HasClosedLine()
}

// FlagForClose queues the order for the close job
func (o *SalesOrder) FlagForClose() {
	o.CloseFlag = true
	o.touch()
}

// MarkClosedProcessed records that the close quantities were released to the blanket order
func (o *SalesOrder) MarkClosedProcessed() {
	o.ClosedProcessed = true
	o.CloseFlag = false
	o.touch()
}

// MarkRevenueEventsCreated records that every recognition group reached 100%
func (o *SalesOrder) MarkRevenueEventsCreated() {
	o.RevenueEventsCreated = true
	o.touch()
}

// Line returns the line with the given unique key
func (o *SalesOrder) Line(lineID uuid.UUID) *SalesOrderLine {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i]
		}
	}
	return nil
}

// LineByProduct returns the first line carrying the product id
func (o *SalesOrder) LineByProduct(productID string) *SalesOrderLine {
	for i := range o.Lines {
		if o.Lines[i].ProductID == productID {
			return &o.Lines[i]
		}
	}
	return nil
}

// LinkRevenueEvent stores the back-reference to a revenue event on a line.
func (o *SalesOrder) LinkRevenueEvent(lineID, eventID uuid.UUID) error {
	line := o.Line(lineID)
	if line == nil {
		return shared.NewDomainError("LINE_NOT_FOUND", "sales order line not found: "+lineID.String())
	}
	line.RevenueEventID = &eventID
	o.touch()
	return nil
}

// ItemGroupParentLines returns the "-G" parent lines of the order
func (o *SalesOrder) ItemGroupParentLines() []SalesOrderLine {
	var out []SalesOrderLine
	for _, l := range o.Lines {
		if IsItemGroupParentName(l.ItemName) {
			out = append(out, l)
		}
	}
	return out
}

// ClosedUnfulfilledLines returns closed lines with no fulfillment linked to them,
// leaving out components whose product is also an item group parent.
func (o *SalesOrder) ClosedUnfulfilledLines() []SalesOrderLine {
	parents := make(map[string]struct{})
	for _, l := range o.ItemGroupParentLines() {
		parents[l.ProductID] = struct{}{}
	}

	var out []SalesOrderLine
	for _, l := range o.Lines {
		if !l.Closed || l.FulfillmentLinked {
			continue
		}
		if _, isParent := parents[l.ProductID]; isParent {
			continue
		}
		out = append(out, l)
	}
	return out
}

// RecognitionGroup aggregates the lines evaluated together by cumulative recognition.
type RecognitionGroup struct {
	Key     string
	Special bool
	// LineIDs are the lines that receive the percent-complete events
	LineIDs         []uuid.UUID
	Fulfilled       decimal.Decimal
	Total           decimal.Decimal
	LastFulfilledOn *time.Time
}

// RecognitionGroups returns one group per allocation group, in key order, plus a
// trailing group for special shipping lines when the order has any. The event
// line of an allocation group is its lowest-numbered line; every special
// shipping line receives its own event.
func (o *SalesOrder) RecognitionGroups() []RecognitionGroup {
	byKey := make(map[string]*RecognitionGroup)
	firstLine := make(map[string]int)
	var special *RecognitionGroup

	for _, l := range o.Lines {
		switch {
		case l.AllocationGroup != "":
			g, ok := byKey[l.AllocationGroup]
			if !ok {
				g = &RecognitionGroup{Key: l.AllocationGroup}
				byKey[l.AllocationGroup] = g
				firstLine[l.AllocationGroup] = l.LineNo
				g.LineIDs = []uuid.UUID{l.ID}
			} else if l.LineNo < firstLine[l.AllocationGroup] {
				firstLine[l.AllocationGroup] = l.LineNo
				g.LineIDs = []uuid.UUID{l.ID}
			}
			accumulate(g, l)
		case l.SpecialShipping:
			if special == nil {
				special = &RecognitionGroup{Key: "special", Special: true}
			}
			special.LineIDs = append(special.LineIDs, l.ID)
			accumulate(special, l)
		}
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]RecognitionGroup, 0, len(keys)+1)
	for _, k := range keys {
		groups = append(groups, *byKey[k])
	}
	if special != nil {
		groups = append(groups, *special)
	}
	return groups
}

func accumulate(g *RecognitionGroup, l SalesOrderLine) {
	g.Fulfilled = g.Fulfilled.Add(l.FulfilledValue())
	g.Total = g.Total.Add(l.TotalValue())
	if l.LastFulfilledOn != nil && (g.LastFulfilledOn == nil || l.LastFulfilledOn.After(*g.LastFulfilledOn)) {
		d := *l.LastFulfilledOn
		g.LastFulfilledOn = &d
	}
}

func (o *SalesOrder) touch() {
	o.UpdatedAt = time.Now()
}
