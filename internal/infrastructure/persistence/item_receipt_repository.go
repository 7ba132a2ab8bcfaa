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

// GormItemReceiptRepository implements ItemReceiptRepository using GORM
type GormItemReceiptRepository struct {
	db *gorm.DB
}

// NewGormItemReceiptRepository creates a new GormItemReceiptRepository
func NewGormItemReceiptRepository(db *gorm.DB) *GormItemReceiptRepository {
	return &GormItemReceiptRepository{db: db}
}

// FindByID finds an item receipt by its ID
func (r *GormItemReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ItemReceipt, error) {
	var model models.ItemReceiptModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindFlagged returns receipts whose process flag is set
func (r *GormItemReceiptRepository) FindFlagged(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.ItemReceiptModel{}).
		Where("process_flag = ?", true).
		Order("tran_date")
	if err := applyLimit(query, filter).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save persists the receipt header with a version check and upserts its lines
func (r *GormItemReceiptRepository) Save(ctx context.Context, receipt *trade.ItemReceipt) error {
	model := models.ItemReceiptModelFromDomain(receipt)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model.TableName(), model, &model.AggregateModel, model.HeaderColumns()); err != nil {
			return err
		}
		return upsertLines(tx, model.Lines)
	})
	if err != nil {
		return err
	}
	receipt.Version = model.Version
	receipt.UpdatedAt = model.UpdatedAt
	return nil
}

// Ensure GormItemReceiptRepository implements ItemReceiptRepository
var _ trade.ItemReceiptRepository = (*GormItemReceiptRepository)(nil)
