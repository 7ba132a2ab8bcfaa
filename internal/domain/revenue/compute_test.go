package revenue

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRevenueEvent(t *testing.T) {
	rate := decimal.NewFromInt(10)
	qty := decimal.NewFromInt(5)

	tests := []struct {
		name         string
		kind         Kind
		wantQuantity int64
		wantAmount   int64
		wantSign     int
	}{
		{"recognition is positive", KindRecognition, 5, 50, 1},
		{"reversal is negative", KindReversal, -5, -50, -1},
		{"credit is negative", KindCredit, -5, -50, -1},
		{"deal positive keeps the amount sign", KindDealPositive, -5, 50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ComputeRevenueEvent(rate, qty, tt.kind)
			require.NoError(t, err)
			assert.True(t, c.Quantity.Equal(decimal.NewFromInt(tt.wantQuantity)), "quantity %s", c.Quantity)
			assert.True(t, c.Amount.Equal(decimal.NewFromInt(tt.wantAmount)), "amount %s", c.Amount)
			assert.Equal(t, tt.wantSign, c.Sign)
		})
	}
}

func TestComputeRevenueEvent_NegativeInputs(t *testing.T) {
	c, err := ComputeRevenueEvent(decimal.NewFromInt(10), decimal.NewFromInt(-5), KindReversal)
	require.NoError(t, err)
	assert.True(t, c.Quantity.Equal(decimal.NewFromInt(-5)))
	assert.True(t, c.Amount.Equal(decimal.NewFromInt(-50)))

	c, err = ComputeRevenueEvent(decimal.NewFromInt(10), decimal.NewFromInt(-5), KindRecognition)
	require.NoError(t, err)
	assert.True(t, c.Amount.Equal(decimal.NewFromInt(50)))
}

func TestComputeRevenueEvent_UnknownKind(t *testing.T) {
	_, err := ComputeRevenueEvent(decimal.NewFromInt(1), decimal.NewFromInt(1), KindCumulative)
	assert.Error(t, err)
}
