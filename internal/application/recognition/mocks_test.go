package recognition

import (
	"context"
	"sync"
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockSalesOrderRepository is a mock implementation of trade.SalesOrderRepository
type MockSalesOrderRepository struct {
	mock.Mock
}

func (m *MockSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.SalesOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrder), args.Error(1)
}

func (m *MockSalesOrderRepository) FindDSOLineByProduct(ctx context.Context, productID string) (*trade.SalesOrderLine, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.SalesOrderLine), args.Error(1)
}

func (m *MockSalesOrderRepository) FindClosableFSOs(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockSalesOrderRepository) FindRecognitionCandidates(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockSalesOrderRepository) Save(ctx context.Context, order *trade.SalesOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockReturnAuthorizationRepository is a mock implementation of trade.ReturnAuthorizationRepository
type MockReturnAuthorizationRepository struct {
	mock.Mock
}

func (m *MockReturnAuthorizationRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ReturnAuthorization, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.ReturnAuthorization), args.Error(1)
}

func (m *MockReturnAuthorizationRepository) FindFlagged(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockReturnAuthorizationRepository) FindFlaggedByType(ctx context.Context, returnType trade.ReturnType, filter shared.Filter) ([]uuid.UUID, error) {
	args := m.Called(ctx, returnType, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockReturnAuthorizationRepository) Save(ctx context.Context, rma *trade.ReturnAuthorization) error {
	args := m.Called(ctx, rma)
	return args.Error(0)
}

// MockItemReceiptRepository is a mock implementation of trade.ItemReceiptRepository
type MockItemReceiptRepository struct {
	mock.Mock
}

func (m *MockItemReceiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ItemReceipt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.ItemReceipt), args.Error(1)
}

func (m *MockItemReceiptRepository) FindFlagged(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockItemReceiptRepository) Save(ctx context.Context, receipt *trade.ItemReceipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

// MockItemFulfillmentRepository is a mock implementation of trade.ItemFulfillmentRepository
type MockItemFulfillmentRepository struct {
	mock.Mock
}

func (m *MockItemFulfillmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.ItemFulfillment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.ItemFulfillment), args.Error(1)
}

func (m *MockItemFulfillmentRepository) FindUnrecognizedShipments(ctx context.Context, filter shared.Filter) ([]uuid.UUID, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockItemFulfillmentRepository) FindByRevenueEvent(ctx context.Context, eventID uuid.UUID) (*trade.ItemFulfillment, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.ItemFulfillment), args.Error(1)
}

func (m *MockItemFulfillmentRepository) Save(ctx context.Context, fulfillment *trade.ItemFulfillment) error {
	args := m.Called(ctx, fulfillment)
	return args.Error(0)
}

// MockBlanketOrderRepository is a mock implementation of ledger.BlanketOrderRepository
type MockBlanketOrderRepository struct {
	mock.Mock
}

func (m *MockBlanketOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.BlanketOrder, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.BlanketOrder), args.Error(1)
}

func (m *MockBlanketOrderRepository) Save(ctx context.Context, order *ledger.BlanketOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

// MockRevenueEventRepository is a mock implementation of revenue.RevenueEventRepository.
// Record hands back the event it was given unless the expectation returns another one.
type MockRevenueEventRepository struct {
	mock.Mock
}

func (m *MockRevenueEventRepository) Record(ctx context.Context, event *revenue.RevenueEvent) (*revenue.RevenueEvent, bool, error) {
	args := m.Called(ctx, event)
	if stored, ok := args.Get(0).(*revenue.RevenueEvent); ok {
		return stored, args.Bool(1), args.Error(2)
	}
	return event, args.Bool(1), args.Error(2)
}

func (m *MockRevenueEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*revenue.RevenueEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*revenue.RevenueEvent), args.Error(1)
}

func (m *MockRevenueEventRepository) FindBySourceKey(ctx context.Context, sourceKey string) (*revenue.RevenueEvent, error) {
	args := m.Called(ctx, sourceKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*revenue.RevenueEvent), args.Error(1)
}

func (m *MockRevenueEventRepository) LastCumulativeEvent(ctx context.Context, lineID uuid.UUID) (*revenue.RevenueEvent, error) {
	args := m.Called(ctx, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*revenue.RevenueEvent), args.Error(1)
}

func (m *MockRevenueEventRepository) FindOverRecognizedLines(ctx context.Context, filter shared.Filter) ([]revenue.LineRecognition, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]revenue.LineRecognition), args.Error(1)
}

func (m *MockRevenueEventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRevenuePlanRepository is a mock implementation of revenue.RevenuePlanRepository
type MockRevenuePlanRepository struct {
	mock.Mock
}

func (m *MockRevenuePlanRepository) Create(ctx context.Context, plan *revenue.RevenuePlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockRevenuePlanRepository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// MockSubmitter is a mock implementation of batch.Submitter
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, job string, params batch.Params) (*batch.Task, error) {
	args := m.Called(ctx, job, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*batch.Task), args.Error(1)
}

// testRepos bundles one mock per repository
type testRepos struct {
	orders       *MockSalesOrderRepository
	returns      *MockReturnAuthorizationRepository
	receipts     *MockItemReceiptRepository
	fulfillments *MockItemFulfillmentRepository
	blankets     *MockBlanketOrderRepository
	events       *MockRevenueEventRepository
	plans        *MockRevenuePlanRepository
}

func newTestRepos() *testRepos {
	return &testRepos{
		orders:       new(MockSalesOrderRepository),
		returns:      new(MockReturnAuthorizationRepository),
		receipts:     new(MockItemReceiptRepository),
		fulfillments: new(MockItemFulfillmentRepository),
		blankets:     new(MockBlanketOrderRepository),
		events:       new(MockRevenueEventRepository),
		plans:        new(MockRevenuePlanRepository),
	}
}

func (r *testRepos) static() *StaticRepositories {
	return &StaticRepositories{
		SalesOrderRepo:          r.orders,
		ReturnAuthorizationRepo: r.returns,
		ItemReceiptRepo:         r.receipts,
		ItemFulfillmentRepo:     r.fulfillments,
		BlanketOrderRepo:        r.blankets,
		RevenueEventRepo:        r.events,
		RevenuePlanRepo:         r.plans,
	}
}

func (r *testRepos) deps() Dependencies {
	repos := r.static()
	return Dependencies{
		Repos:  repos,
		Scope:  NewNoOpTransactionScope(repos),
		Logger: zap.NewNop(),
	}
}

func (r *testRepos) assertExpectations(t mock.TestingT) {
	r.orders.AssertExpectations(t)
	r.returns.AssertExpectations(t)
	r.receipts.AssertExpectations(t)
	r.fulfillments.AssertExpectations(t)
	r.blankets.AssertExpectations(t)
	r.events.AssertExpectations(t)
	r.plans.AssertExpectations(t)
}

// memoryMarkers is an in-memory processed marker store
type memoryMarkers struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func newMemoryMarkers() *memoryMarkers {
	return &memoryMarkers{keys: make(map[string]struct{})}
}

func (m *memoryMarkers) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = struct{}{}
	return true, nil
}

func (m *memoryMarkers) IsProcessed(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *memoryMarkers) Close() error { return nil }

// Test fixtures

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func intPtr(v int) *int { return &v }

func idPtr(id uuid.UUID) *uuid.UUID { return &id }

func newBlanketOrder(lines ...ledger.BlanketLine) *ledger.BlanketOrder {
	bso := ledger.NewBlanketOrder("BSO-100")
	bso.Lines = lines
	return bso
}

func dsoLine(product string) *trade.SalesOrderLine {
	return &trade.SalesOrderLine{ID: uuid.New(), LineNo: 1, ProductID: product, Rate: dec("10")}
}

var testDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
