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

// GormReturnAuthorizationRepository implements ReturnAuthorizationRepository using GORM
type GormReturnAuthorizationRepository struct {
	db *gorm.DB
}

// NewGormReturnAuthorizationRepository creates a new GormReturnAuthorizationRepository
func NewGormReturnAuthorizationRepository(db *gorm.DB) *GormReturnAuthorizationRepository {
	return &GormReturnAuthorizationRepository{db: db}
}

// FindByID finds a return authorization by its ID
func (r *GormReturnAuthorizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ReturnAuthorization, error) {
	var model models.ReturnAuthorizationModel
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

// FindFlagged returns return authorizations whose process flag is set
func (r *GormReturnAuthorizationRepository) FindFlagged(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	return r.findFlagged(ctx, r.db.WithContext(ctx).Model(&models.ReturnAuthorizationModel{}), filter)
}

// FindFlaggedByType returns flagged return authorizations of one type
func (r *GormReturnAuthorizationRepository) FindFlaggedByType(ctx context.Context, returnType trade.ReturnType, filter shared.Filter) ([]uuid.UUID, error) {
	query := r.db.WithContext(ctx).Model(&models.ReturnAuthorizationModel{}).Where("type = ?", returnType)
	return r.findFlagged(ctx, query, filter)
}

func (r *GormReturnAuthorizationRepository) findFlagged(_ context.Context, query *gorm.DB, filter shared.Filter) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query = query.Where("process_flag = ?", true).Order("tran_date")
	if err := applyLimit(query, filter).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Save persists the return authorization header with a version check and upserts its lines
func (r *GormReturnAuthorizationRepository) Save(ctx context.Context, rma *trade.ReturnAuthorization) error {
	model := models.ReturnAuthorizationModelFromDomain(rma)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveVersioned(tx, model.TableName(), model, &model.AggregateModel, model.HeaderColumns()); err != nil {
			return err
		}
		return upsertLines(tx, model.Lines)
	})
	if err != nil {
		return err
	}
	rma.Version = model.Version
	rma.UpdatedAt = model.UpdatedAt
	return nil
}

// Ensure GormReturnAuthorizationRepository implements ReturnAuthorizationRepository
var _ trade.ReturnAuthorizationRepository = (*GormReturnAuthorizationRepository)(nil)
