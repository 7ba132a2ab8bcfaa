package recognition

import (
	"context"
	"testing"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/ledger"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestFSO(bsoID *uuid.UUID, lines ...trade.SalesOrderLine) *trade.SalesOrder {
	return &trade.SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            "FSO-4001",
		Kind:              trade.OrderKindFSO,
		Status:            trade.OrderStatusClosed,
		BlanketOrderID:    bsoID,
		Lines:             lines,
	}
}

func orderLine(no int, product, name string, qty string) trade.SalesOrderLine {
	return trade.SalesOrderLine{ID: uuid.New(), LineNo: no, ProductID: product, ItemName: name, Quantity: dec(qty)}
}

func TestCloseContributions(t *testing.T) {
	parent := orderLine(1, "KIT", "BUNDLE-G", "2")
	component := orderLine(2, "KIT", "BUNDLE PART", "6")
	component.Closed = true
	closed := orderLine(3, "P1", "WIDGET", "4")
	closed.Closed = true
	shipped := orderLine(4, "P2", "GADGET", "5")
	shipped.Closed = true
	shipped.FulfillmentLinked = true
	blank := orderLine(5, "", "DESCRIPTION", "1")
	blank.Closed = true

	got := closeContributions(newTestFSO(nil, parent, component, closed, shipped, blank))

	require.Len(t, got, 2)
	assert.Equal(t, "KIT", got[0].ProductID)
	assert.True(t, got[0].Quantity.Equal(dec("2")), "the group parent carries the group quantity")
	assert.Equal(t, "P1", got[1].ProductID)
	assert.True(t, got[1].Quantity.Equal(dec("4")))
}

func TestFSOCloseJob_Process_ReleasesRemaining(t *testing.T) {
	repos := newTestRepos()
	bsoID := uuid.New()
	bso := newBlanketOrder(ledger.BlanketLine{ProductID: "P1", Remaining: dec("1")})
	line := orderLine(1, "P1", "WIDGET", "4")
	line.Closed = true
	order := newTestFSO(&bsoID, line)
	order.CloseFlag = true

	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.blankets.On("FindByID", mock.Anything, bsoID).Return(bso, nil)
	repos.blankets.On("Save", mock.Anything, bso).Return(nil)
	repos.orders.On("Save", mock.Anything, order).Return(nil)

	err := NewFSOCloseJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobFSOClose, order.ID))

	require.NoError(t, err)
	assert.True(t, bso.Line("P1").Remaining.Equal(dec("5")))
	assert.True(t, order.ClosedProcessed)
	assert.False(t, order.CloseFlag)
	repos.assertExpectations(t)
}

func TestFSOCloseJob_Process_NoBlanketOrderStillMarksProcessed(t *testing.T) {
	repos := newTestRepos()
	order := newTestFSO(nil, orderLine(1, "P1", "WIDGET", "4"))

	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.orders.On("Save", mock.Anything, order).Return(nil)

	err := NewFSOCloseJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobFSOClose, order.ID))

	require.NoError(t, err)
	assert.True(t, order.ClosedProcessed)
	repos.blankets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFSOCloseJob_Process_SkipsProcessedAndNonFSO(t *testing.T) {
	processed := newTestFSO(nil)
	processed.ClosedProcessed = true
	dso := newTestFSO(nil)
	dso.Kind = trade.OrderKindDSO

	for _, order := range []*trade.SalesOrder{processed, dso} {
		repos := newTestRepos()
		repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		err := NewFSOCloseJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobFSOClose, order.ID))

		assert.ErrorIs(t, err, batch.ErrSkipped)
		repos.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	}
}

func TestFSOCloseJob_Process_BlanketSaveConflict(t *testing.T) {
	repos := newTestRepos()
	bsoID := uuid.New()
	bso := newBlanketOrder(ledger.BlanketLine{ProductID: "P1"})
	line := orderLine(1, "P1", "WIDGET", "4")
	line.Closed = true
	order := newTestFSO(&bsoID, line)

	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.blankets.On("FindByID", mock.Anything, bsoID).Return(bso, nil)
	repos.blankets.On("Save", mock.Anything, bso).Return(shared.ErrConcurrencyConflict)

	err := NewFSOCloseJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobFSOClose, order.ID))

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	repos.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
