package revenue

import "github.com/shopspring/decimal"

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

// CumulativePercent returns fulfilled / total rounded to two decimals.
// A zero total yields zero.
func CumulativePercent(fulfilled, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return fulfilled.Div(total).Round(2)
}

// StoredPercent converts a ratio into the percent-complete value kept on events
func StoredPercent(ratio decimal.Decimal) decimal.Decimal {
	return ratio.Mul(hundred)
}

// RatioFromStored converts a stored percent-complete value back into a ratio
func RatioFromStored(stored decimal.Decimal) decimal.Decimal {
	return stored.Div(hundred)
}

// Outcome is the result of evaluating one recognition group
type Outcome struct {
	// CreateEvent is true when the percentage moved since the last event
	CreateEvent bool
	// Complete is true when the group no longer holds the order back
	Complete bool
	Percent  decimal.Decimal
}

// EvaluateProgress decides whether a recognition group needs a new percent-complete
// event. lastStored is the highest percent already recorded for the line (0 when none).
// Nothing fulfilled means incomplete and no event.
func EvaluateProgress(fulfilled, total, lastStored decimal.Decimal) Outcome {
	if !fulfilled.IsPositive() {
		return Outcome{}
	}

	pct := CumulativePercent(fulfilled, total)
	if !pct.Equal(RatioFromStored(lastStored)) {
		return Outcome{CreateEvent: true, Complete: false, Percent: pct}
	}
	return Outcome{Complete: pct.Equal(one), Percent: pct}
}
