package persistence

import (
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// saveVersioned writes an aggregate header with optimistic locking inside tx.
//
// The stored row is updated only while its version still equals the version the
// aggregate was loaded with; the stored version is then bumped by one. A row
// that exists with another version yields shared.ErrConcurrencyConflict. A row
// that does not exist yet is inserted as is, without associations.
func saveVersioned(tx *gorm.DB, table string, header any, agg *models.AggregateModel, columns map[string]any) error {
	expected := agg.Version
	now := time.Now()

	columns["version"] = expected + 1
	columns["updated_at"] = now

	result := tx.Table(table).
		Where("id = ? AND version = ?", agg.ID, expected).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		agg.Version = expected + 1
		agg.UpdatedAt = now
		return nil
	}

	exists, err := rowExists(tx, table, agg.ID)
	if err != nil {
		return err
	}
	if exists {
		return shared.ErrConcurrencyConflict
	}
	return tx.Omit(clause.Associations).Create(header).Error
}

func rowExists(tx *gorm.DB, table string, id uuid.UUID) (bool, error) {
	var count int64
	if err := tx.Table(table).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// upsertLines inserts new lines and overwrites existing ones by primary key.
func upsertLines[T any](tx *gorm.DB, lines []T) error {
	if len(lines) == 0 {
		return nil
	}
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&lines).Error
}

// applyLimit caps a candidate query.
func applyLimit(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query
}
