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

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	var model models.SalesOrderModel
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

// FindDSOLineByProduct returns the line of the most recent distribution order carrying the product
func (r *GormSalesOrderRepository) FindDSOLineByProduct(ctx context.Context, productID string) (*trade.SalesOrderLine, error) {
	var model models.SalesOrderLineModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN sales_orders ON sales_orders.id = sales_order_lines.order_id").
		Where("sales_orders.kind = ? AND sales_order_lines.product_id = ?", trade.OrderKindDSO, productID).
		Order("sales_orders.tran_date DESC").
		Order("sales_order_lines.line_no").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	line := model.ToDomain()
	return &line, nil
}

// FindClosableFSOs returns FSOs that are closed or flagged for close and not yet processed
func (r *GormSalesOrderRepository) FindClosableFSOs(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.SalesOrderModel{}).
		Where("kind = ? AND closed_processed = ?", trade.OrderKindFSO, false).
		Where("close_flag = ? OR status = ?", true, trade.OrderStatusClosed).
		Order("tran_date")
	if err := applyLimit(query, filter).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// FindRecognitionCandidates returns approved DSOs whose revenue events are not complete
func (r *GormSalesOrderRepository) FindRecognitionCandidates(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.SalesOrderModel{}).
		Where("kind = ? AND revenue_events_created = ?", trade.OrderKindDSO, false).
		Where("status <> ?", trade.OrderStatusPendingApproval).
		Order("tran_date")
	if err := applyLimit(query, filter).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save persists the order header with a version check and upserts its lines
func (r *GormSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	model := models.SalesOrderModelFromDomain(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model.TableName(), model, &model.AggregateModel, model.HeaderColumns()); err != nil {
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

// Ensure GormSalesOrderRepository implements SalesOrderRepository
var _ trade.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
