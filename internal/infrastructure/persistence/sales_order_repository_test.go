package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSalesOrder(kind trade.OrderKind, number string, lines ...trade.SalesOrderLine) *trade.SalesOrder {
	return &trade.SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Kind:              kind,
		Status:            trade.OrderStatusPendingFulfillment,
		TranDate:          time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Lines:             lines,
	}
}

func newSalesOrderLine(no int, product string, qty int64) trade.SalesOrderLine {
	return trade.SalesOrderLine{
		ID:        uuid.New(),
		LineNo:    no,
		ProductID: product,
		ItemName:  "ITEM-" + product,
		ItemType:  trade.ItemTypeInventory,
		Quantity:  decimal.NewFromInt(qty),
		Rate:      decimal.NewFromInt(10),
	}
}

func TestGormSalesOrderRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()

	count := 2
	line := newSalesOrderLine(1, "P1", 5)
	line.ComponentCount = &count
	line.ComponentRate = decimal.NewNullDecimal(decimal.RequireFromString("2.5"))
	order := newSalesOrder(trade.OrderKindDSO, "SO-1", line, newSalesOrderLine(2, "P2", 3))

	require.NoError(t, repo.Save(ctx, order))
	assert.Equal(t, 1, order.Version)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "SO-1", found.Number)
	assert.Equal(t, trade.OrderKindDSO, found.Kind)
	require.Len(t, found.Lines, 2)
	assert.Equal(t, "P1", found.Lines[0].ProductID)
	assert.True(t, found.Lines[0].Quantity.Equal(decimal.NewFromInt(5)))
	require.NotNil(t, found.Lines[0].ComponentCount)
	assert.Equal(t, 2, *found.Lines[0].ComponentCount)
	assert.True(t, found.Lines[0].ComponentRate.Valid)
	assert.True(t, found.Lines[0].ComponentRate.Decimal.Equal(decimal.RequireFromString("2.5")))
	assert.False(t, found.Lines[1].ComponentRate.Valid)
}

func TestGormSalesOrderRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormSalesOrderRepository(newTestDB(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSalesOrderRepository_OptimisticLocking(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()

	order := newSalesOrder(trade.OrderKindFSO, "FSO-1", newSalesOrderLine(1, "P1", 5))
	require.NoError(t, repo.Save(ctx, order))

	first, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)

	first.FlagForClose()
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, 2, first.Version)

	second.MarkRevenueEventsCreated()
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	stored, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, stored.CloseFlag)
	assert.False(t, stored.RevenueEventsCreated)
	assert.Equal(t, 2, stored.Version)
}

func TestGormSalesOrderRepository_SaveUpdatesLines(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()

	order := newSalesOrder(trade.OrderKindDSO, "SO-2", newSalesOrderLine(1, "P1", 5))
	require.NoError(t, repo.Save(ctx, order))

	eventID := uuid.New()
	require.NoError(t, order.LinkRevenueEvent(order.Lines[0].ID, eventID))
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Lines[0].RevenueEventID)
	assert.Equal(t, eventID, *found.Lines[0].RevenueEventID)
}

func TestGormSalesOrderRepository_FindDSOLineByProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()

	fso := newSalesOrder(trade.OrderKindFSO, "FSO-1", newSalesOrderLine(1, "P1", 2))
	dso := newSalesOrder(trade.OrderKindDSO, "DSO-1", newSalesOrderLine(1, "P1", 10))
	require.NoError(t, repo.Save(ctx, fso))
	require.NoError(t, repo.Save(ctx, dso))

	line, err := repo.FindDSOLineByProduct(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, dso.Lines[0].ID, line.ID)

	_, err = repo.FindDSOLineByProduct(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormSalesOrderRepository_CandidateQueries(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormSalesOrderRepository(db)
	ctx := context.Background()

	flagged := newSalesOrder(trade.OrderKindFSO, "FSO-1")
	flagged.CloseFlag = true
	closed := newSalesOrder(trade.OrderKindFSO, "FSO-2")
	closed.Status = trade.OrderStatusClosed
	processed := newSalesOrder(trade.OrderKindFSO, "FSO-3")
	processed.Status = trade.OrderStatusClosed
	processed.ClosedProcessed = true
	open := newSalesOrder(trade.OrderKindFSO, "FSO-4")

	approved := newSalesOrder(trade.OrderKindDSO, "DSO-1")
	pending := newSalesOrder(trade.OrderKindDSO, "DSO-2")
	pending.Status = trade.OrderStatusPendingApproval
	done := newSalesOrder(trade.OrderKindDSO, "DSO-3")
	done.RevenueEventsCreated = true

	for _, o := range []*trade.SalesOrder{flagged, closed, processed, open, approved, pending, done} {
		require.NoError(t, repo.Save(ctx, o))
	}

	closable, err := repo.FindClosableFSOs(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{flagged.ID, closed.ID}, closable)

	candidates, err := repo.FindRecognitionCandidates(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{approved.ID}, candidates)

	limited, err := repo.FindClosableFSOs(ctx, shared.Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestGormSalesOrderRepository_FindClosableFSOs_Query(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	repo := NewGormSalesOrderRepository(db.DB)

	id := uuid.New()
	mock.ExpectQuery(`SELECT "id" FROM "sales_orders" WHERE .*kind = \$1 AND closed_processed = \$2.*close_flag = \$3 OR status = \$4.*ORDER BY tran_date LIMIT \$5`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id.String()))

	ids, err := repo.FindClosableFSOs(context.Background(), shared.Filter{Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{id}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
