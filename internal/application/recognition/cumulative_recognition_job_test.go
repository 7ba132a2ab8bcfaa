package recognition

import (
	"context"
	"testing"
	"time"

	"github.com/erp/revrec/internal/application/batch"
	"github.com/erp/revrec/internal/domain/revenue"
	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCumulativeEventType = 7

func newTestDSO(lines ...trade.SalesOrderLine) *trade.SalesOrder {
	return &trade.SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            "DSO-6001",
		Kind:              trade.OrderKindDSO,
		Status:            trade.OrderStatusPendingBilling,
		StatusText:        "Pending Billing",
		Lines:             lines,
	}
}

func groupLine(no int, group, qty, fulfilled string) trade.SalesOrderLine {
	return trade.SalesOrderLine{
		ID: uuid.New(), LineNo: no, ProductID: "P" + group, AllocationGroup: group,
		Quantity: dec(qty), QuantityFulfilled: dec(fulfilled), Rate: dec("10"),
	}
}

// storedPercentEvent is a percent-complete event already on the line
func storedPercentEvent(t *testing.T, lineID uuid.UUID, ratio string) *revenue.RevenueEvent {
	t.Helper()
	e, err := revenue.NewCumulativeEvent("stored:"+ratio, lineID, testCumulativeEventType, dec(ratio), testDate)
	require.NoError(t, err)
	return e
}

func newCumulativeJob(deps Dependencies) *CumulativeRecognitionJob {
	job := NewCumulativeRecognitionJob(deps, CumulativeConfig{BilledStatus: "Billed", EventType: testCumulativeEventType})
	job.now = func() time.Time { return testDate }
	return job
}

func TestCumulativeRecognitionJob_Input_RequiresParameters(t *testing.T) {
	repos := newTestRepos()

	_, err := NewCumulativeRecognitionJob(repos.deps(), CumulativeConfig{EventType: 1}).Input(context.Background())
	assert.ErrorIs(t, err, shared.ErrMissingParameter)

	_, err = NewCumulativeRecognitionJob(repos.deps(), CumulativeConfig{BilledStatus: "Billed"}).Input(context.Background())
	assert.ErrorIs(t, err, shared.ErrMissingParameter)

	repos.orders.AssertNotCalled(t, "FindRecognitionCandidates", mock.Anything, mock.Anything)
}

func TestCumulativeRecognitionJob_Process_PartialGroup(t *testing.T) {
	repos := newTestRepos()
	shippedOn := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	first := groupLine(1, "A", "4", "2")
	first.LastFulfilledOn = &shippedOn
	second := groupLine(2, "A", "4", "0")
	order := newTestDSO(first, second)

	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.events.On("LastCumulativeEvent", mock.Anything, first.ID).Return(nil, nil)

	var recorded *revenue.RevenueEvent
	repos.events.On("Record", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { recorded = args.Get(1).(*revenue.RevenueEvent) }).
		Return(nil, true, nil)
	repos.orders.On("Save", mock.Anything, order).Return(nil)

	err := newCumulativeJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobCumulativeRecognition, order.ID))
	require.NoError(t, err)

	require.NotNil(t, recorded)
	assert.Equal(t, first.ID, recorded.TransactionLineID, "the lowest numbered line carries the group event")
	assert.Equal(t, testCumulativeEventType, recorded.EventType)
	assert.True(t, recorded.CumulativePercent.Decimal.Equal(dec("25")))
	assert.Equal(t, shippedOn, recorded.EventDate)
	assert.Equal(t, recorded.ID, *order.Lines[0].RevenueEventID)
	assert.False(t, order.RevenueEventsCreated)
	repos.assertExpectations(t)
}

func TestCumulativeRecognitionJob_Process_CompleteAndBilled(t *testing.T) {
	repos := newTestRepos()
	line := groupLine(1, "A", "4", "4")
	order := newTestDSO(line)
	order.StatusText = "Billed"

	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.events.On("LastCumulativeEvent", mock.Anything, line.ID).Return(storedPercentEvent(t, line.ID, "1"), nil)
	repos.orders.On("Save", mock.Anything, mock.MatchedBy(func(o *trade.SalesOrder) bool {
		return o.RevenueEventsCreated
	})).Return(nil)

	err := newCumulativeJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobCumulativeRecognition, order.ID))

	require.NoError(t, err)
	repos.events.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
	repos.assertExpectations(t)
}

func TestCumulativeRecognitionJob_Process_CompleteButNotBilled(t *testing.T) {
	repos := newTestRepos()
	line := groupLine(1, "A", "4", "4")
	order := newTestDSO(line)

	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.events.On("LastCumulativeEvent", mock.Anything, line.ID).Return(storedPercentEvent(t, line.ID, "1"), nil)

	err := newCumulativeJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobCumulativeRecognition, order.ID))

	require.NoError(t, err)
	assert.False(t, order.RevenueEventsCreated)
	repos.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCumulativeRecognitionJob_Process_SpecialShippingLines(t *testing.T) {
	repos := newTestRepos()
	a := trade.SalesOrderLine{ID: uuid.New(), LineNo: 1, SpecialShipping: true, Quantity: dec("1"), QuantityFulfilled: dec("1"), Rate: dec("30")}
	b := trade.SalesOrderLine{ID: uuid.New(), LineNo: 2, SpecialShipping: true, Quantity: dec("1"), Rate: dec("10")}
	order := newTestDSO(a, b)

	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.events.On("LastCumulativeEvent", mock.Anything, mock.Anything).Return(nil, nil)
	repos.events.On("Record", mock.Anything, mock.MatchedBy(func(e *revenue.RevenueEvent) bool {
		return e.CumulativePercent.Decimal.Equal(dec("75")) && e.EventDate.Equal(testDate)
	})).Return(nil, true, nil).Twice()
	repos.orders.On("Save", mock.Anything, order).Return(nil)

	err := newCumulativeJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobCumulativeRecognition, order.ID))

	require.NoError(t, err)
	assert.NotNil(t, order.Lines[0].RevenueEventID)
	assert.NotNil(t, order.Lines[1].RevenueEventID)
	repos.assertExpectations(t)
}

func TestCumulativeRecognitionJob_Process_AlreadyComplete(t *testing.T) {
	repos := newTestRepos()
	order := newTestDSO()
	order.RevenueEventsCreated = true
	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	err := newCumulativeJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobCumulativeRecognition, order.ID))

	assert.ErrorIs(t, err, batch.ErrSkipped)
}

func TestCumulativeRecognitionJob_ShipmentWithoutNewVersionIsRecognized(t *testing.T) {
	repos := newTestRepos()
	line := groupLine(1, "A", "4", "0")
	order := newTestDSO(line)

	repos.orders.On("FindRecognitionCandidates", mock.Anything, mock.Anything).Return([]uuid.UUID{order.ID}, nil)
	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.events.On("LastCumulativeEvent", mock.Anything, line.ID).Return(nil, nil)
	repos.events.On("Record", mock.Anything, mock.MatchedBy(func(e *revenue.RevenueEvent) bool {
		return e.CumulativePercent.Decimal.Equal(dec("50"))
	})).Return(nil, true, nil).Once()
	repos.orders.On("Save", mock.Anything, order).Return(nil).Once()

	runner := batch.NewRunner(batch.DefaultRunnerConfig(), newMemoryMarkers(), zap.NewNop())
	job := newCumulativeJob(repos.deps())

	first, err := runner.Run(context.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Succeeded)
	repos.events.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)

	// the shipment touches the line only; the order version stays the same
	order.Lines[0].QuantityFulfilled = dec("2")
	second, err := runner.Run(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, 1, second.Succeeded)
	assert.Equal(t, 0, second.Skipped)
	assert.NotNil(t, order.Lines[0].RevenueEventID)
	repos.assertExpectations(t)
}

func TestCumulativeRecognitionJob_Process_PercentReachedAgain(t *testing.T) {
	repos := newTestRepos()
	line := groupLine(1, "A", "4", "2")
	order := newTestDSO(line)
	fifty := storedPercentEvent(t, line.ID, "0.5")
	seventyFive := storedPercentEvent(t, line.ID, "0.75")

	var keys []string
	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.events.On("LastCumulativeEvent", mock.Anything, line.ID).Return(seventyFive, nil)
	repos.events.On("Record", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { keys = append(keys, args.Get(1).(*revenue.RevenueEvent).SourceKey) }).
		Return(nil, true, nil).Once()
	repos.orders.On("Save", mock.Anything, order).Return(nil).Once()

	err := newCumulativeJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobCumulativeRecognition, order.ID))

	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Contains(t, keys[0], "pct-0.50-after-"+seventyFive.ID.String())
	assert.NotContains(t, keys[0], fifty.ID.String())
	repos.assertExpectations(t)
}

func TestCumulativeRecognitionJob_Process_DuplicateKeyDoesNotSave(t *testing.T) {
	repos := newTestRepos()
	line := groupLine(1, "A", "4", "2")
	order := newTestDSO(line)
	existing := storedPercentEvent(t, line.ID, "0.5")

	repos.orders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	repos.events.On("LastCumulativeEvent", mock.Anything, line.ID).Return(nil, nil)
	repos.events.On("Record", mock.Anything, mock.Anything).Return(existing, false, nil)

	err := newCumulativeJob(repos.deps()).Process(context.Background(), batch.NewCandidate(JobCumulativeRecognition, order.ID))

	require.NoError(t, err)
	assert.Equal(t, existing.ID, *order.Lines[0].RevenueEventID)
	repos.orders.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
