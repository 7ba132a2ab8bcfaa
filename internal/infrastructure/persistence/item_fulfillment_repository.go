package persistence

import (
	"context"
	"errors"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/erp/revrec/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormItemFulfillmentRepository implements ItemFulfillmentRepository using GORM
type GormItemFulfillmentRepository struct {
	db *gorm.DB
}

// NewGormItemFulfillmentRepository creates a new GormItemFulfillmentRepository
func NewGormItemFulfillmentRepository(db *gorm.DB) *GormItemFulfillmentRepository {
	return &GormItemFulfillmentRepository{db: db}
}

// FindByID finds an item fulfillment by its ID
func (r *GormItemFulfillmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ItemFulfillment, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

// FindUnrecognizedShipments returns shipped fulfillments, not from a transfer order,
// with a non-kit line that has no revenue event yet
func (r *GormItemFulfillmentRepository) FindUnrecognizedShipments(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	pending := r.db.Model(&models.FulfillmentLineModel{}).
		Select("fulfillment_id").
		Where("revenue_event_id IS NULL AND item_type <> ?", trade.ItemTypeKit)

	query := r.db.WithContext(ctx).Model(&models.ItemFulfillmentModel{}).
		Where("ship_status = ? AND created_from_type <> ?", trade.ShipStatusShipped, trade.SourceTransferOrder).
		Where("id IN (?)", pending).
		Order("tran_date")
	if err := applyLimit(query, filter).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindByRevenueEvent returns the fulfillment whose line references the event
func (r *GormItemFulfillmentRepository) FindByRevenueEvent(ctx context.Context, eventID uuid.UUID) (*trade.ItemFulfillment, error) {
	owner := r.db.Model(&models.FulfillmentLineModel{}).
		Select("fulfillment_id").
		Where("revenue_event_id = ?", eventID)
	return r.first(r.db.WithContext(ctx).Where("id IN (?)", owner))
}

func (r *GormItemFulfillmentRepository) first(query *gorm.DB) (*trade.ItemFulfillment, error) {
	var model models.ItemFulfillmentModel
	if err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists the fulfillment header with a version check and upserts its lines
func (r *GormItemFulfillmentRepository) Save(ctx context.Context, fulfillment *trade.ItemFulfillment) error {
	model := models.ItemFulfillmentModelFromDomain(fulfillment)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model.TableName(), model, &model.AggregateModel, model.HeaderColumns()); err != nil {
			return err
		}
		return upsertLines(tx, model.Lines)
	})
	if err != nil {
		return err
	}
	fulfillment.Version = model.Version
	fulfillment.UpdatedAt = model.UpdatedAt
	return nil
}

// Ensure GormItemFulfillmentRepository implements ItemFulfillmentRepository
var _ trade.ItemFulfillmentRepository = (*GormItemFulfillmentRepository)(nil)
