package models

import (
	"time"

	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	AggregateModel
	Number               string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Kind                 trade.OrderKind       `gorm:"not null;default:0;index"`
	Status               trade.OrderStatus     `gorm:"type:varchar(30);not null;index"`
	StatusText           string                `gorm:"type:varchar(100)"`
	TranDate             time.Time             `gorm:"not null"`
	BlanketOrderID       *uuid.UUID            `gorm:"type:uuid;index"`
	CloseFlag            bool                  `gorm:"not null;default:false"`
	ClosedProcessed      bool                  `gorm:"not null;default:false"`
	RevenueEventsCreated bool                  `gorm:"not null;default:false"`
	Lines                []SalesOrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder.
func (m *SalesOrderModel) ToDomain() *trade.SalesOrder {
	order := &trade.SalesOrder{
		BaseAggregateRoot:    m.ToDomainAggregateRoot(),
		Number:               m.Number,
		Kind:                 m.Kind,
		Status:               m.Status,
		StatusText:           m.StatusText,
		TranDate:             m.TranDate,
		BlanketOrderID:       m.BlanketOrderID,
		CloseFlag:            m.CloseFlag,
		ClosedProcessed:      m.ClosedProcessed,
		RevenueEventsCreated: m.RevenueEventsCreated,
		Lines:                make([]trade.SalesOrderLine, len(m.Lines)),
	}
	for i := range m.Lines {
		order.Lines[i] = m.Lines[i].ToDomain()
	}
	return order
}

// SalesOrderModelFromDomain creates a persistence model from a domain SalesOrder.
func SalesOrderModelFromDomain(o *trade.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		Number:               o.Number,
		Kind:                 o.Kind,
		Status:               o.Status,
		StatusText:           o.StatusText,
		TranDate:             o.TranDate,
		BlanketOrderID:       o.BlanketOrderID,
		CloseFlag:            o.CloseFlag,
		ClosedProcessed:      o.ClosedProcessed,
		RevenueEventsCreated: o.RevenueEventsCreated,
		Lines:                make([]SalesOrderLineModel, len(o.Lines)),
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	for i := range o.Lines {
		m.Lines[i] = SalesOrderLineModelFromDomain(o.ID, &o.Lines[i])
	}
	return m
}

// HeaderColumns returns the mutable header columns written by a versioned save.
func (m *SalesOrderModel) HeaderColumns() map[string]any {
	return map[string]any{
		"status":                 m.Status,
		"status_text":            m.StatusText,
		"close_flag":             m.CloseFlag,
		"closed_processed":       m.ClosedProcessed,
		"revenue_events_created": m.RevenueEventsCreated,
	}
}

// SalesOrderLineModel is the persistence model for a sales order line.
type SalesOrderLineModel struct {
	ID                uuid.UUID           `gorm:"type:uuid;primary_key"`
	OrderID           uuid.UUID           `gorm:"type:uuid;not null;index"`
	LineNo            int                 `gorm:"not null"`
	ProductID         string              `gorm:"type:varchar(100);index"`
	ItemName          string              `gorm:"type:varchar(200)"`
	ItemType          trade.ItemType      `gorm:"type:varchar(30)"`
	Quantity          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	QuantityFulfilled decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Rate              decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	ItemRate          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	ComponentCount    *int                `gorm:""`
	ComponentRate     decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	AllocationGroup   string              `gorm:"type:varchar(100)"`
	SpecialShipping   bool                `gorm:"not null;default:false"`
	Closed            bool                `gorm:"not null;default:false"`
	FulfillmentLinked bool                `gorm:"not null;default:false"`
	LastFulfilledOn   *time.Time
	RevenueEventID    *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain SalesOrderLine.
func (m *SalesOrderLineModel) ToDomain() trade.SalesOrderLine {
	return trade.SalesOrderLine{
		ID:                m.ID,
		LineNo:            m.LineNo,
		ProductID:         m.ProductID,
		ItemName:          m.ItemName,
		ItemType:          m.ItemType,
		Quantity:          m.Quantity,
		QuantityFulfilled: m.QuantityFulfilled,
		Rate:              m.Rate,
		ItemRate:          m.ItemRate,
		ComponentCount:    m.ComponentCount,
		ComponentRate:     m.ComponentRate,
		AllocationGroup:   m.AllocationGroup,
		SpecialShipping:   m.SpecialShipping,
		Closed:            m.Closed,
		FulfillmentLinked: m.FulfillmentLinked,
		LastFulfilledOn:   m.LastFulfilledOn,
		RevenueEventID:    m.RevenueEventID,
	}
}

// SalesOrderLineModelFromDomain creates a persistence model from a domain SalesOrderLine.
func SalesOrderLineModelFromDomain(orderID uuid.UUID, l *trade.SalesOrderLine) SalesOrderLineModel {
	return SalesOrderLineModel{
		ID:                l.ID,
		OrderID:           orderID,
		LineNo:            l.LineNo,
		ProductID:         l.ProductID,
		ItemName:          l.ItemName,
		ItemType:          l.ItemType,
		Quantity:          l.Quantity,
		QuantityFulfilled: l.QuantityFulfilled,
		Rate:              l.Rate,
		ItemRate:          l.ItemRate,
		ComponentCount:    l.ComponentCount,
		ComponentRate:     l.ComponentRate,
		AllocationGroup:   l.AllocationGroup,
		SpecialShipping:   l.SpecialShipping,
		Closed:            l.Closed,
		FulfillmentLinked: l.FulfillmentLinked,
		LastFulfilledOn:   l.LastFulfilledOn,
		RevenueEventID:    l.RevenueEventID,
	}
}

// ReturnAuthorizationModel is the persistence model for the ReturnAuthorization aggregate root.
type ReturnAuthorizationModel struct {
	AggregateModel
	Number          string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type            trade.ReturnType   `gorm:"not null;index"`
	Status          trade.ReturnStatus `gorm:"type:varchar(30);not null"`
	TranDate        time.Time          `gorm:"not null"`
	BlanketOrderID  *uuid.UUID         `gorm:"type:uuid;index"`
	ProcessFlag     bool               `gorm:"not null;default:false;index"`
	ReadyForRevenue bool               `gorm:"not null;default:false"`
	Reship          bool               `gorm:"not null;default:false"`
	ReshipProcessed bool               `gorm:"not null;default:false"`
	Lines           []ReturnLineModel  `gorm:"foreignKey:ReturnID;references:ID"`
}

// TableName returns the table name for GORM
func (ReturnAuthorizationModel) TableName() string {
	return "return_authorizations"
}

// ToDomain converts the persistence model to a domain ReturnAuthorization.
func (m *ReturnAuthorizationModel) ToDomain() *trade.ReturnAuthorization {
	rma := &trade.ReturnAuthorization{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		Type:              m.Type,
		Status:            m.Status,
		TranDate:          m.TranDate,
		BlanketOrderID:    m.BlanketOrderID,
		ProcessFlag:       m.ProcessFlag,
		ReadyForRevenue:   m.ReadyForRevenue,
		Reship:            m.Reship,
		ReshipProcessed:   m.ReshipProcessed,
		Lines:             make([]trade.ReturnLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		rma.Lines[i] = trade.ReturnLine{
			ID:                 l.ID,
			LineNo:             l.LineNo,
			ProductID:          l.ProductID,
			ItemName:           l.ItemName,
			Quantity:           l.Quantity,
			Rate:               l.Rate,
			ComponentCount:     l.ComponentCount,
			ShippedNotReturned: l.ShippedNotReturned,
			RevenueEventID:     l.RevenueEventID,
			NegativeEventID:    l.NegativeEventID,
			ReverseEventID:     l.ReverseEventID,
		}
	}
	return rma
}

// ReturnAuthorizationModelFromDomain creates a persistence model from a domain ReturnAuthorization.
func ReturnAuthorizationModelFromDomain(r *trade.ReturnAuthorization) *ReturnAuthorizationModel {
	m := &ReturnAuthorizationModel{
		Number:          r.Number,
		Type:            r.Type,
		Status:          r.Status,
		TranDate:        r.TranDate,
		BlanketOrderID:  r.BlanketOrderID,
		ProcessFlag:     r.ProcessFlag,
		ReadyForRevenue: r.ReadyForRevenue,
		Reship:          r.Reship,
		ReshipProcessed: r.ReshipProcessed,
		Lines:           make([]ReturnLineModel, len(r.Lines)),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	for i, l := range r.Lines {
		m.Lines[i] = ReturnLineModel{
			ID:                 l.ID,
			ReturnID:           r.ID,
			LineNo:             l.LineNo,
			ProductID:          l.ProductID,
			ItemName:           l.ItemName,
			Quantity:           l.Quantity,
			Rate:               l.Rate,
			ComponentCount:     l.ComponentCount,
			ShippedNotReturned: l.ShippedNotReturned,
			RevenueEventID:     l.RevenueEventID,
			NegativeEventID:    l.NegativeEventID,
			ReverseEventID:     l.ReverseEventID,
		}
	}
	return m
}

// HeaderColumns returns the mutable header columns written by a versioned save.
func (m *ReturnAuthorizationModel) HeaderColumns() map[string]any {
	return map[string]any{
		"status":            m.Status,
		"process_flag":      m.ProcessFlag,
		"ready_for_revenue": m.ReadyForRevenue,
		"reship":            m.Reship,
		"reship_processed":  m.ReshipProcessed,
	}
}

// ReturnLineModel is the persistence model for a return authorization line.
type ReturnLineModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	ReturnID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	LineNo             int             `gorm:"not null"`
	ProductID          string          `gorm:"type:varchar(100)"`
	ItemName           string          `gorm:"type:varchar(200)"`
	Quantity           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Rate               decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ComponentCount     *int
	ShippedNotReturned decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RevenueEventID     *uuid.UUID      `gorm:"type:uuid"`
	NegativeEventID    *uuid.UUID      `gorm:"type:uuid"`
	ReverseEventID     *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ReturnLineModel) TableName() string {
	return "return_authorization_lines"
}

// ItemReceiptModel is the persistence model for the ItemReceipt aggregate root.
type ItemReceiptModel struct {
	AggregateModel
	Number          string             `gorm:"type:varchar(50);not null;uniqueIndex"`
	CreatedFromType trade.SourceType   `gorm:"type:varchar(30);not null"`
	CreatedFromID   *uuid.UUID         `gorm:"type:uuid;index"`
	TranDate        time.Time          `gorm:"not null"`
	ProcessFlag     bool               `gorm:"not null;default:false;index"`
	Lines           []ReceiptLineModel `gorm:"foreignKey:ReceiptID;references:ID"`
}

// TableName returns the table name for GORM
func (ItemReceiptModel) TableName() string {
	return "item_receipts"
}

// ToDomain converts the persistence model to a domain ItemReceipt.
func (m *ItemReceiptModel) ToDomain() *trade.ItemReceipt {
	ir := &trade.ItemReceipt{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		CreatedFromType:   m.CreatedFromType,
		CreatedFromID:     m.CreatedFromID,
		TranDate:          m.TranDate,
		ProcessFlag:       m.ProcessFlag,
		Lines:             make([]trade.ReceiptLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		ir.Lines[i] = trade.ReceiptLine{
			ID:                l.ID,
			LineNo:            l.LineNo,
			ProductID:         l.ProductID,
			Quantity:          l.Quantity,
			Rate:              l.Rate,
			AdditionalRate:    l.AdditionalRate,
			ComponentCount:    l.ComponentCount,
			ComponentQuantity: l.ComponentQuantity,
			ComponentRate:     l.ComponentRate,
			RevenueEventID:    l.RevenueEventID,
		}
	}
	return ir
}

// ItemReceiptModelFromDomain creates a persistence model from a domain ItemReceipt.
func ItemReceiptModelFromDomain(r *trade.ItemReceipt) *ItemReceiptModel {
	m := &ItemReceiptModel{
		Number:          r.Number,
		CreatedFromType: r.CreatedFromType,
		CreatedFromID:   r.CreatedFromID,
		TranDate:        r.TranDate,
		ProcessFlag:     r.ProcessFlag,
		Lines:           make([]ReceiptLineModel, len(r.Lines)),
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	for i, l := range r.Lines {
		m.Lines[i] = ReceiptLineModel{
			ID:                l.ID,
			ReceiptID:         r.ID,
			LineNo:            l.LineNo,
			ProductID:         l.ProductID,
			Quantity:          l.Quantity,
			Rate:              l.Rate,
			AdditionalRate:    l.AdditionalRate,
			ComponentCount:    l.ComponentCount,
			ComponentQuantity: l.ComponentQuantity,
			ComponentRate:     l.ComponentRate,
			RevenueEventID:    l.RevenueEventID,
		}
	}
	return m
}

// HeaderColumns returns the mutable header columns written by a versioned save.
func (m *ItemReceiptModel) HeaderColumns() map[string]any {
	return map[string]any{
		"process_flag": m.ProcessFlag,
	}
}

// ReceiptLineModel is the persistence model for an item receipt line.
type ReceiptLineModel struct {
	ID                uuid.UUID           `gorm:"type:uuid;primary_key"`
	ReceiptID         uuid.UUID           `gorm:"type:uuid;not null;index"`
	LineNo            int                 `gorm:"not null"`
	ProductID         string              `gorm:"type:varchar(100)"`
	Quantity          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Rate              decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	AdditionalRate    decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	ComponentCount    *int
	ComponentQuantity decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	ComponentRate     decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	RevenueEventID    *uuid.UUID          `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ReceiptLineModel) TableName() string {
	return "item_receipt_lines"
}

// ItemFulfillmentModel is the persistence model for the ItemFulfillment aggregate root.
type ItemFulfillmentModel struct {
	AggregateModel
	Number          string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	ShipStatus      trade.ShipStatus       `gorm:"type:varchar(20);not null;index"`
	CreatedFromType trade.SourceType       `gorm:"type:varchar(30);not null"`
	CreatedFromID   *uuid.UUID             `gorm:"type:uuid;index"`
	TranDate        time.Time              `gorm:"not null"`
	Lines           []FulfillmentLineModel `gorm:"foreignKey:FulfillmentID;references:ID"`
}

// TableName returns the table name for GORM
func (ItemFulfillmentModel) TableName() string {
	return "item_fulfillments"
}

// ToDomain converts the persistence model to a domain ItemFulfillment.
func (m *ItemFulfillmentModel) ToDomain() *trade.ItemFulfillment {
	f := &trade.ItemFulfillment{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		ShipStatus:        m.ShipStatus,
		CreatedFromType:   m.CreatedFromType,
		CreatedFromID:     m.CreatedFromID,
		TranDate:          m.TranDate,
		Lines:             make([]trade.FulfillmentLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		f.Lines[i] = trade.FulfillmentLine{
			ID:             l.ID,
			LineNo:         l.LineNo,
			ProductID:      l.ProductID,
			ItemType:       l.ItemType,
			Quantity:       l.Quantity,
			ComponentRate:  l.ComponentRate,
			RevenueEventID: l.RevenueEventID,
		}
	}
	return f
}

// ItemFulfillmentModelFromDomain creates a persistence model from a domain ItemFulfillment.
func ItemFulfillmentModelFromDomain(f *trade.ItemFulfillment) *ItemFulfillmentModel {
	m := &ItemFulfillmentModel{
		Number:          f.Number,
		ShipStatus:      f.ShipStatus,
		CreatedFromType: f.CreatedFromType,
		CreatedFromID:   f.CreatedFromID,
		TranDate:        f.TranDate,
		Lines:           make([]FulfillmentLineModel, len(f.Lines)),
	}
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	for i, l := range f.Lines {
		m.Lines[i] = FulfillmentLineModel{
			ID:             l.ID,
			FulfillmentID:  f.ID,
			LineNo:         l.LineNo,
			ProductID:      l.ProductID,
			ItemType:       l.ItemType,
			Quantity:       l.Quantity,
			ComponentRate:  l.ComponentRate,
			RevenueEventID: l.RevenueEventID,
		}
	}
	return m
}

// HeaderColumns returns the mutable header columns written by a versioned save.
func (m *ItemFulfillmentModel) HeaderColumns() map[string]any {
	return map[string]any{
		"ship_status": m.ShipStatus,
	}
}

// FulfillmentLineModel is the persistence model for an item fulfillment line.
type FulfillmentLineModel struct {
	ID             uuid.UUID           `gorm:"type:uuid;primary_key"`
	FulfillmentID  uuid.UUID           `gorm:"type:uuid;not null;index"`
	LineNo         int                 `gorm:"not null"`
	ProductID      string              `gorm:"type:varchar(100)"`
	ItemType       trade.ItemType      `gorm:"type:varchar(30)"`
	Quantity       decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	ComponentRate  decimal.NullDecimal `gorm:"type:decimal(18,4)"`
	RevenueEventID *uuid.UUID          `gorm:"type:uuid;index"`
}

// TableName returns the table name for GORM
func (FulfillmentLineModel) TableName() string {
	return "item_fulfillment_lines"
}
