package recognition

import (
	"context"

	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/trade"
)

// TransactionScope runs one candidate's writes as a single commit.
// When fn returns an error nothing it wrote is kept.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to every repository the jobs touch.
// Repositories handed out by a TransactionScope share its transaction.
//
// Aggregate boundaries:
//   - SalesOrders, ReturnAuthorizations, ItemReceipts, ItemFulfillments: transaction
//     records whose flags and line back-references the jobs update.
//   - BlanketOrders: the per-product ledger; saves are version checked.
//   - RevenueEvents, RevenuePlans: append-only accounting records, only removed by
//     the overstated cleanup.
type Repositories interface {
	SalesOrders() trade.SalesOrderRepository
	ReturnAuthorizations() trade.ReturnAuthorizationRepository
	ItemReceipts() trade.ItemReceiptRepository
	ItemFulfillments() trade.ItemFulfillmentRepository
	BlanketOrders() ledger.BlanketOrderRepository
	RevenueEvents() revenue.RevenueEventRepository
	RevenuePlans() revenue.RevenuePlanRepository
}

// StaticRepositories is a fixed set of repositories
type StaticRepositories struct {
	SalesOrderRepo          trade.SalesOrderRepository
	ReturnAuthorizationRepo trade.ReturnAuthorizationRepository
	ItemReceiptRepo         trade.ItemReceiptRepository
	ItemFulfillmentRepo     trade.ItemFulfillmentRepository
	BlanketOrderRepo        ledger.BlanketOrderRepository
	RevenueEventRepo        revenue.RevenueEventRepository
	RevenuePlanRepo         revenue.RevenuePlanRepository
}

func (r *StaticRepositories) SalesOrders() trade.SalesOrderRepository { return r.SalesOrderRepo }

func (r *StaticRepositories) ReturnAuthorizations() trade.ReturnAuthorizationRepository {
	return r.ReturnAuthorizationRepo
}

func (r *StaticRepositories) ItemReceipts() trade.ItemReceiptRepository { return r.ItemReceiptRepo }

func (r *StaticRepositories) ItemFulfillments() trade.ItemFulfillmentRepository {
	return r.ItemFulfillmentRepo
}

func (r *StaticRepositories) BlanketOrders() ledger.BlanketOrderRepository { return r.BlanketOrderRepo }

func (r *StaticRepositories) RevenueEvents() revenue.RevenueEventRepository {
	return r.RevenueEventRepo
}

func (r *StaticRepositories) RevenuePlans() revenue.RevenuePlanRepository { return r.RevenuePlanRepo }

// NoOpTransactionScope hands its repositories to fn without a transaction.
// Useful for testing.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over repos
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn with the wrapped repositories
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ Repositories = (*StaticRepositories)(nil)
