package models

import (
	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BlanketOrderModel is the persistence model for the BlanketOrder aggregate root.
type BlanketOrderModel struct {
	AggregateModel
	Number string                  `gorm:"type:varchar(50);not null;uniqueIndex"`
	Lines  []BlanketOrderLineModel `gorm:"foreignKey:BlanketOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (BlanketOrderModel) TableName() string {
	return "blanket_orders"
}

// ToDomain converts the persistence model to a domain BlanketOrder.
func (m *BlanketOrderModel) ToDomain() *ledger.BlanketOrder {
	b := &ledger.BlanketOrder{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Number:            m.Number,
		Lines:             make([]ledger.BlanketLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		b.Lines[i] = ledger.BlanketLine{
			ID:            l.ID,
			ProductID:     l.ProductID,
			Remaining:     l.Remaining,
			PendingReturn: l.PendingReturn,
			Returned:      l.Returned,
			Refunded:      l.Refunded,
			SumShipped:    l.SumShipped,
		}
	}
	return b
}

// BlanketOrderModelFromDomain creates a persistence model from a domain BlanketOrder.
func BlanketOrderModelFromDomain(b *ledger.BlanketOrder) *BlanketOrderModel {
	m := &BlanketOrderModel{
		Number: b.Number,
		Lines:  make([]BlanketOrderLineModel, len(b.Lines)),
	}
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	for i, l := range b.Lines {
		m.Lines[i] = BlanketOrderLineModel{
			ID:             l.ID,
			BlanketOrderID: b.ID,
			ProductID:      l.ProductID,
			Remaining:      l.Remaining,
			PendingReturn:  l.PendingReturn,
			Returned:       l.Returned,
			Refunded:       l.Refunded,
			SumShipped:     l.SumShipped,
		}
	}
	return m
}

// BlanketOrderLineModel is the persistence model for a blanket order ledger line.
type BlanketOrderLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	BlanketOrderID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_blanket_line_product,priority:1"`
	ProductID      string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_blanket_line_product,priority:2"`
	Remaining      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PendingReturn  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Returned       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Refunded       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SumShipped     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (BlanketOrderLineModel) TableName() string {
	return "blanket_order_lines"
}
