package persistence

import (
	"context"
	"errors"

	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRevenueEventRepository implements RevenueEventRepository using GORM
type GormRevenueEventRepository struct {
	db *gorm.DB
}

// NewGormRevenueEventRepository creates a new GormRevenueEventRepository
func NewGormRevenueEventRepository(db *gorm.DB) *GormRevenueEventRepository {
	return &GormRevenueEventRepository{db: db}
}

// Record inserts the event unless its source key is already taken, in which case
// the stored event is returned with created=false.
func (r *GormRevenueEventRepository) Record(ctx context.Context, event *revenue.RevenueEvent) (*revenue.RevenueEvent, bool, error) {
	model := models.RevenueEventModelFromDomain(event)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source_key"}},
			DoNothing: true,
		}).
		Create(model)
	if result.Error != nil {
		return nil, false, result.Error
	}
	if result.RowsAffected == 1 {
		return event, true, nil
	}

	existing, err := r.FindBySourceKey(ctx, event.SourceKey)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindByID finds a revenue event by its ID
func (r *GormRevenueEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*revenue.RevenueEvent, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindBySourceKey finds the revenue event produced under a source key
func (r *GormRevenueEventRepository) FindBySourceKey(ctx context.Context, sourceKey string) (*revenue.RevenueEvent, error) {
	return r.first(r.db.WithContext(ctx).Where("source_key = ?", sourceKey))
}

func (r *GormRevenueEventRepository) first(query *gorm.DB) (*revenue.RevenueEvent, error) {
	var model models.RevenueEventModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// LastCumulativeEvent returns the most recent percent-complete event on the line, or nil
func (r *GormRevenueEventRepository) LastCumulativeEvent(ctx context.Context, lineID uuid.UUID) (*revenue.RevenueEvent, error) {
	event, err := r.first(r.db.WithContext(ctx).
		Where("transaction_line_id = ? AND kind = ?", lineID, revenue.KindCumulative).
		Order("event_date DESC").
		Order("created_at DESC"))
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	return event, err
}

// overRecognizedRow is one line of the over-recognition aggregate query
type overRecognizedRow struct {
	LineID          uuid.UUID
	OrderedQuantity decimal.Decimal
}

// FindOverRecognizedLines returns sales order lines whose summed event quantity
// exceeds the ordered quantity, with every quantity event recorded on them.
func (r *GormRevenueEventRepository) FindOverRecognizedLines(ctx context.Context, filter shared.Filter) ([]revenue.LineRecognition, error) {
	var rows []overRecognizedRow
	query := r.db.WithContext(ctx).
		Table("revenue_events").
		Select("revenue_events.transaction_line_id AS line_id, sales_order_lines.quantity AS ordered_quantity").
		Joins("JOIN sales_order_lines ON sales_order_lines.id = revenue_events.transaction_line_id").
		Where("revenue_events.kind <> ?", revenue.KindCumulative).
		Group("revenue_events.transaction_line_id, sales_order_lines.quantity").
		Having("SUM(revenue_events.quantity) > sales_order_lines.quantity").
		Order("revenue_events.transaction_line_id")
	if err := applyLimit(query, filter).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	lineIDs := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		lineIDs[i] = row.LineID
	}

	var events []models.RevenueEventModel
	if err := r.db.WithContext(ctx).
		Where("transaction_line_id IN ? AND kind <> ?", lineIDs, revenue.KindCumulative).
		Order("event_date").
		Order("created_at").
		Find(&events).Error; err != nil {
		return nil, err
	}

	byLine := make(map[uuid.UUID][]revenue.RevenueEvent, len(rows))
	for i := range events {
		byLine[events[i].TransactionLineID] = append(byLine[events[i].TransactionLineID], *events[i].ToDomain())
	}

	out := make([]revenue.LineRecognition, len(rows))
	for i, row := range rows {
		out[i] = revenue.LineRecognition{
			LineID:          row.LineID,
			OrderedQuantity: row.OrderedQuantity,
			Events:          byLine[row.LineID],
		}
	}
	return out, nil
}

// Delete removes a revenue event
func (r *GormRevenueEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.RevenueEventModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormRevenueEventRepository implements RevenueEventRepository
var _ revenue.RevenueEventRepository = (*GormRevenueEventRepository)(nil)

// GormRevenuePlanRepository implements RevenuePlanRepository using GORM
type GormRevenuePlanRepository struct {
	db *gorm.DB
}

// NewGormRevenuePlanRepository creates a new GormRevenuePlanRepository
func NewGormRevenuePlanRepository(db *gorm.DB) *GormRevenuePlanRepository {
	return &GormRevenuePlanRepository{db: db}
}

// Create stores a revenue plan
func (r *GormRevenuePlanRepository) Create(ctx context.Context, plan *revenue.RevenuePlan) error {
	model := &models.RevenuePlanModel{
		ID:             plan.ID,
		RevenueEventID: plan.RevenueEventID,
		Amount:         plan.Amount,
		PlannedPeriod:  plan.PlannedPeriod,
		CreatedAt:      plan.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(model).Error
}

// DeleteByEvent removes every plan generated from the event
func (r *GormRevenuePlanRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.RevenuePlanModel{}, "revenue_event_id = ?", eventID)
	return result.RowsAffected, result.Error
}

// Ensure GormRevenuePlanRepository implements RevenuePlanRepository
var _ revenue.RevenuePlanRepository = (*GormRevenuePlanRepository)(nil)
