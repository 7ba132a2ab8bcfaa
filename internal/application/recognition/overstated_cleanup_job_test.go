package recognition

import (
	"context"
	"errors"
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
)

func recognitionEvent(lineID uuid.UUID, qty string, on time.Time) revenue.RevenueEvent {
	return revenue.RevenueEvent{
		ID: uuid.New(), TransactionLineID: lineID, Kind: revenue.KindRecognition,
		Quantity: dec(qty), EventDate: on,
	}
}

func TestOverstatedCleanupJob_Input(t *testing.T) {
	t.Run("missing search", func(t *testing.T) {
		_, err := NewOverstatedCleanupJob(newTestRepos().deps(), "").Input(context.Background())
		assert.ErrorIs(t, err, shared.ErrMissingParameter)
	})

	t.Run("unknown search", func(t *testing.T) {
		_, err := NewOverstatedCleanupJob(newTestRepos().deps(), "customsearch_42").Input(context.Background())
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "UNKNOWN_SEARCH", de.Code)
	})

	t.Run("newest events past the ordered quantity", func(t *testing.T) {
		repos := newTestRepos()
		lineID := uuid.New()
		older := recognitionEvent(lineID, "3", testDate)
		newer := recognitionEvent(lineID, "2", testDate.AddDate(0, 0, 1))
		line := revenue.LineRecognition{
			LineID:          lineID,
			OrderedQuantity: dec("3"),
			Events:          []revenue.RevenueEvent{older, newer},
		}
		repos.events.On("FindOverRecognizedLines", mock.Anything, shared.DefaultFilter()).
			Return([]revenue.LineRecognition{line}, nil)

		ids, err := NewOverstatedCleanupJob(repos.deps(), revenue.SearchOverRecognizedLines).Input(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{newer.ID}, ids)
	})
}

func TestOverstatedCleanupJob_Process(t *testing.T) {
	repos := newTestRepos()
	e := recognitionEvent(uuid.New(), "2", testDate)
	lineID := uuid.New()
	f := &trade.ItemFulfillment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Lines:             []trade.FulfillmentLine{{ID: lineID, ProductID: "P1", RevenueEventID: &e.ID}},
	}

	repos.events.On("FindByID", mock.Anything, e.ID).Return(&e, nil)
	repos.plans.On("DeleteByEvent", mock.Anything, e.ID).Return(int64(2), nil)
	repos.fulfillments.On("FindByRevenueEvent", mock.Anything, e.ID).Return(f, nil)
	repos.fulfillments.On("Save", mock.Anything, f).Return(nil)
	repos.events.On("Delete", mock.Anything, e.ID).Return(nil)

	publisher := new(MockEventPublisher)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []shared.DomainEvent) bool {
		if len(events) != 1 {
			return false
		}
		removed, ok := events[0].(*revenue.RevenueEventRemovedEvent)
		return ok && removed.PlansRemoved == 2
	})).Return(nil)

	deps := repos.deps()
	deps.Publisher = publisher
	err := NewOverstatedCleanupJob(deps, revenue.SearchOverRecognizedLines).
		Process(context.Background(), batch.NewCandidate(JobOverstatedCleanup, e.ID))

	require.NoError(t, err)
	assert.Nil(t, f.Lines[0].RevenueEventID)
	repos.assertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestOverstatedCleanupJob_Process_NoFulfillmentReference(t *testing.T) {
	repos := newTestRepos()
	e := recognitionEvent(uuid.New(), "1", testDate)

	repos.events.On("FindByID", mock.Anything, e.ID).Return(&e, nil)
	repos.plans.On("DeleteByEvent", mock.Anything, e.ID).Return(int64(0), nil)
	repos.fulfillments.On("FindByRevenueEvent", mock.Anything, e.ID).Return(nil, shared.ErrNotFound)
	repos.events.On("Delete", mock.Anything, e.ID).Return(nil)

	err := NewOverstatedCleanupJob(repos.deps(), revenue.SearchOverRecognizedLines).
		Process(context.Background(), batch.NewCandidate(JobOverstatedCleanup, e.ID))

	require.NoError(t, err)
	repos.fulfillments.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	repos.assertExpectations(t)
}

func TestOverstatedCleanupJob_Process_AlreadyDeleted(t *testing.T) {
	repos := newTestRepos()
	id := uuid.New()
	repos.events.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

	err := NewOverstatedCleanupJob(repos.deps(), revenue.SearchOverRecognizedLines).
		Process(context.Background(), batch.NewCandidate(JobOverstatedCleanup, id))

	assert.ErrorIs(t, err, batch.ErrSkipped)
	repos.plans.AssertNotCalled(t, "DeleteByEvent", mock.Anything, mock.Anything)
}
