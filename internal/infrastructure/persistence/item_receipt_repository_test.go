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

func TestGormItemReceiptRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormItemReceiptRepository(db)
	ctx := context.Background()

	rmaID := uuid.New()
	receipt := &trade.ItemReceipt{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            "IR-1",
		CreatedFromType:   trade.SourceReturnAuthorization,
		CreatedFromID:     &rmaID,
		TranDate:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		ProcessFlag:       true,
		Lines: []trade.ReceiptLine{{
			ID:                uuid.New(),
			LineNo:            1,
			ProductID:         "P1",
			Quantity:          decimal.NewFromInt(4),
			Rate:              decimal.NewFromInt(3),
			AdditionalRate:    decimal.NewNullDecimal(decimal.NewFromInt(6)),
			ComponentQuantity: decimal.NewNullDecimal(decimal.NewFromInt(2)),
		}},
	}
	require.NoError(t, repo.Save(ctx, receipt))

	flagged, err := repo.FindFlagged(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{receipt.ID}, flagged)

	found, err := repo.FindByID(ctx, receipt.ID)
	require.NoError(t, err)
	assert.True(t, found.FromReturnAuthorization())
	require.NotNil(t, found.CreatedFromID)
	assert.Equal(t, rmaID, *found.CreatedFromID)
	assert.True(t, found.Lines[0].AdditionalRate.Decimal.Equal(decimal.NewFromInt(6)))
	assert.False(t, found.Lines[0].ComponentRate.Valid)

	found.ClearProcessFlag()
	require.NoError(t, repo.Save(ctx, found))

	flagged, err = repo.FindFlagged(ctx, shared.DefaultFilter())
	require.NoError(t, err)
	assert.Empty(t, flagged)
}
