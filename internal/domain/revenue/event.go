package revenue

import (
	"strings"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeRevenueEvent is the aggregate type name for revenue events
const AggregateTypeRevenueEvent = "RevenueEvent"

// EventTypeActual is the billing event type used for shipment-driven events
const EventTypeActual = 3

// PurposeActual is the purpose stamped on shipment-driven events
const PurposeActual = "ACTUAL"

// RevenueEvent is an append-only accounting record recognizing or reversing
// revenue on one transaction line.
type RevenueEvent struct {
	ID uuid.UUID
	// SourceKey identifies the transaction line and role that produced the event.
	// At most one event exists per key.
	SourceKey         string
	TransactionLineID uuid.UUID
	EventType         int
	Kind              Kind
	Quantity          decimal.Decimal
	Amount            decimal.Decimal
	Purpose           string
	EventDate         time.Time
	CumulativePercent decimal.NullDecimal
	CreatedAt         time.Time
}

// SourceKey builds the dedup key of an event: job, source record, source line and role.
func SourceKey(job string, recordID, lineID uuid.UUID, role string) string {
	return strings.Join([]string{job, recordID.String(), lineID.String(), role}, ":")
}

// NewRevenueEvent creates a quantity/amount event on a transaction line
func NewRevenueEvent(sourceKey string, lineID uuid.UUID, kind Kind, rate, quantity decimal.Decimal, eventDate time.Time) (*RevenueEvent, error) {
	if sourceKey == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_KEY", "revenue event source key cannot be empty")
	}
	if lineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LINE", "revenue event must reference a transaction line")
	}
	c, err := ComputeRevenueEvent(rate, quantity, kind)
	if err != nil {
		return nil, err
	}
	return &RevenueEvent{
		ID:                uuid.New(),
		SourceKey:         sourceKey,
		TransactionLineID: lineID,
		EventType:         EventTypeActual,
		Kind:              kind,
		Quantity:          c.Quantity,
		Amount:            c.Amount,
		Purpose:           PurposeActual,
		EventDate:         eventDate,
		CreatedAt:         time.Now(),
	}, nil
}

// NewCumulativeEvent creates a percent-complete event. ratio is the rounded
// fulfilled/total ratio; the stored percent is ratio x 100.
func NewCumulativeEvent(sourceKey string, lineID uuid.UUID, eventType int, ratio decimal.Decimal, eventDate time.Time) (*RevenueEvent, error) {
	if sourceKey == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_KEY", "revenue event source key cannot be empty")
	}
	if lineID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LINE", "revenue event must reference a transaction line")
	}
	return &RevenueEvent{
		ID:                uuid.New(),
		SourceKey:         sourceKey,
		TransactionLineID: lineID,
		EventType:         eventType,
		Kind:              KindCumulative,
		Quantity:          decimal.Zero,
		Amount:            decimal.Zero,
		Purpose:           PurposeActual,
		EventDate:         eventDate,
		CumulativePercent: decimal.NewNullDecimal(StoredPercent(ratio)),
		CreatedAt:         time.Now(),
	}, nil
}

// RevenuePlan is a recognition plan generated from a revenue event
type RevenuePlan struct {
	ID             uuid.UUID
	RevenueEventID uuid.UUID
	Amount         decimal.Decimal
	PlannedPeriod  string
	CreatedAt      time.Time
}
