package persistence

import (
	"context"

	"github.com/erp/revrec/internal/application/recognition"
	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/trade"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every write made through the repositories handed to fn commits or rolls back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos recognition.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepositories{db: tx})
	})
}

// NewRepositories returns repositories bound to db outside of any transaction.
func NewRepositories(db *gorm.DB) recognition.Repositories {
	return &gormRepositories{db: db}
}

// gormRepositories provides access to all repositories on one connection or transaction.
type gormRepositories struct {
	db *gorm.DB
}

func (r *gormRepositories) SalesOrders() trade.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.db)
}

func (r *gormRepositories) ReturnAuthorizations() trade.ReturnAuthorizationRepository {
	return NewGormReturnAuthorizationRepository(r.db)
}

func (r *gormRepositories) ItemReceipts() trade.ItemReceiptRepository {
	return NewGormItemReceiptRepository(r.db)
}

func (r *gormRepositories) ItemFulfillments() trade.ItemFulfillmentRepository {
	return NewGormItemFulfillmentRepository(r.db)
}

func (r *gormRepositories) BlanketOrders() ledger.BlanketOrderRepository {
	return NewGormBlanketOrderRepository(r.db)
}

func (r *gormRepositories) RevenueEvents() revenue.RevenueEventRepository {
	return NewGormRevenueEventRepository(r.db)
}

func (r *gormRepositories) RevenuePlans() revenue.RevenuePlanRepository {
	return NewGormRevenuePlanRepository(r.db)
}

// Ensure GormTransactionScope implements TransactionScope
var _ recognition.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormRepositories implements Repositories
var _ recognition.Repositories = (*gormRepositories)(nil)
