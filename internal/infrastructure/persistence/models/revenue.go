package models

import (
	"time"

	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RevenueEventModel is the persistence model for a revenue event.
// SourceKey is unique: one event per producing line and role.
type RevenueEventModel struct {
	ID                uuid.UUID           `gorm:"type:uuid;primary_key"`
	SourceKey         string              `gorm:"type:varchar(200);not null;uniqueIndex"`
	TransactionLineID uuid.UUID           `gorm:"type:uuid;not null;index"`
	EventType         int                 `gorm:"not null"`
	Kind              revenue.Kind        `gorm:"type:varchar(20);not null"`
	Quantity          decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Amount            decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Purpose           string              `gorm:"type:varchar(20);not null"`
	EventDate         time.Time           `gorm:"not null"`
	CumulativePercent decimal.NullDecimal `gorm:"type:decimal(7,2)"`
	CreatedAt         time.Time           `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RevenueEventModel) TableName() string {
	return "revenue_events"
}

// ToDomain converts the persistence model to a domain RevenueEvent.
func (m *RevenueEventModel) ToDomain() *revenue.RevenueEvent {
	return &revenue.RevenueEvent{
		ID:                m.ID,
		SourceKey:         m.SourceKey,
		TransactionLineID: m.TransactionLineID,
		EventType:         m.EventType,
		Kind:              m.Kind,
		Quantity:          m.Quantity,
		Amount:            m.Amount,
		Purpose:           m.Purpose,
		EventDate:         m.EventDate,
		CumulativePercent: m.CumulativePercent,
		CreatedAt:         m.CreatedAt,
	}
}

// RevenueEventModelFromDomain creates a persistence model from a domain RevenueEvent.
func RevenueEventModelFromDomain(e *revenue.RevenueEvent) *RevenueEventModel {
	return &RevenueEventModel{
		ID:                e.ID,
		SourceKey:         e.SourceKey,
		TransactionLineID: e.TransactionLineID,
		EventType:         e.EventType,
		Kind:              e.Kind,
		Quantity:          e.Quantity,
		Amount:            e.Amount,
		Purpose:           e.Purpose,
		EventDate:         e.EventDate,
		CumulativePercent: e.CumulativePercent,
		CreatedAt:         e.CreatedAt,
	}
}

// RevenuePlanModel is the persistence model for a revenue plan.
type RevenuePlanModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	RevenueEventID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PlannedPeriod  string          `gorm:"type:varchar(20)"`
	CreatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RevenuePlanModel) TableName() string {
	return "revenue_plans"
}

// ToDomain converts the persistence model to a domain RevenuePlan.
func (m *RevenuePlanModel) ToDomain() *revenue.RevenuePlan {
	return &revenue.RevenuePlan{
		ID:             m.ID,
		RevenueEventID: m.RevenueEventID,
		Amount:         m.Amount,
		PlannedPeriod:  m.PlannedPeriod,
		CreatedAt:      m.CreatedAt,
	}
}

// AllModels lists every persisted model, in dependency order, for AutoMigrate in tests.
func AllModels() []any {
	return []any{
		&SalesOrderModel{}, &SalesOrderLineModel{},
		&ReturnAuthorizationModel{}, &ReturnLineModel{},
		&ItemReceiptModel{}, &ReceiptLineModel{},
		&ItemFulfillmentModel{}, &FulfillmentLineModel{},
		&BlanketOrderModel{}, &BlanketOrderLineModel{},
		&RevenueEventModel{}, &RevenuePlanModel{},
	}
}
