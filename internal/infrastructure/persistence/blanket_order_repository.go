package persistence

import (
	"context"
	"errors"

	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBlanketOrderRepository implements BlanketOrderRepository using GORM
type GormBlanketOrderRepository struct {
	db *gorm.DB
}

// NewGormBlanketOrderRepository creates a new GormBlanketOrderRepository
func NewGormBlanketOrderRepository(db *gorm.DB) *GormBlanketOrderRepository {
	return &GormBlanketOrderRepository{db: db}
}

// FindByID finds a blanket order with its ledger lines
func (r *GormBlanketOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.BlanketOrder, error) {
	var model models.BlanketOrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("product_id") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save persists ledger counters. A stale version returns shared.ErrConcurrencyConflict
// and leaves the stored ledger untouched.
func (r *GormBlanketOrderRepository) Save(ctx context.Context, order *ledger.BlanketOrder) error {
	model := models.BlanketOrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		columns := map[string]any{"number": model.Number}
		if err := saveVersioned(tx, model.TableName(), model, &model.AggregateModel, columns); err != nil {
			return err
		}
		return upsertLines(tx, model.Lines)
	})
	if err != nil {
		return err
	}
	order.Version = model.Version
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// Ensure GormBlanketOrderRepository implements BlanketOrderRepository
var _ ledger.BlanketOrderRepository = (*GormBlanketOrderRepository)(nil)
