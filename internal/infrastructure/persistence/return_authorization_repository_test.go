package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/revrec/internal/domain/shared"
	"github.com/erp/revrec/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReturn(number string, returnType trade.ReturnType, flagged bool) *trade.ReturnAuthorization {
	return &trade.ReturnAuthorization{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Type:              returnType,
		Status:            trade.ReturnStatusPendingReceipt,
		TranDate:          time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		ProcessFlag:       flagged,
		Lines: []trade.ReturnLine{{
			ID:                 uuid.New(),
			LineNo:             1,
			ProductID:          "P1",
			ItemName:           "WIDGET",
			Quantity:           decimal.NewFromInt(-2),
			Rate:               decimal.NewFromInt(7),
			ShippedNotReturned: decimal.NewFromInt(1),
		}},
	}
}

func TestGormReturnAuthorizationRepository_FindFlagged(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReturnAuthorizationRepository(db)
	ctx := context.Background()

	deal := newReturn("RMA-1", trade.ReturnTypeDeal, true)
	fulfillment := newReturn("RMA-2", trade.ReturnTypeFulfillment, true)
	idle := newReturn("RMA-3", trade.ReturnTypeDeal, false)
	for _, r := range []*trade.ReturnAuthorization{deal, fulfillment, idle} {
		require.NoError(t, repo.Save(ctx, r))
	}

	all, err := repo.FindFlagged(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{deal.ID, fulfillment.ID}, all)

	byType, err := repo.FindFlaggedByType(ctx, trade.ReturnTypeFulfillment, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{fulfillment.ID}, byType)
}

func TestGormReturnAuthorizationRepository_SaveRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormReturnAuthorizationRepository(db)
	ctx := context.Background()

	rma := newReturn("RMA-1", trade.ReturnTypeDeal, true)
	require.NoError(t, repo.Save(ctx, rma))

	eventID := uuid.New()
	rma.Lines[0].NegativeEventID = &eventID
	rma.ClearProcessFlag()
	require.NoError(t, repo.Save(ctx, rma))
	assert.Equal(t, 2, rma.Version)

	found, err := repo.FindByID(ctx, rma.ID)
	require.NoError(t, err)
	assert.False(t, found.ProcessFlag)
	assert.Equal(t, trade.ReturnTypeDeal, found.Type)
	require.Len(t, found.Lines, 1)
	require.NotNil(t, found.Lines[0].NegativeEventID)
	assert.Equal(t, eventID, *found.Lines[0].NegativeEventID)
	assert.True(t, found.Lines[0].Quantity.Equal(decimal.NewFromInt(-2)))
}
