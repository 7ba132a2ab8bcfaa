package revenue

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind selects the sign convention of a revenue event
type Kind string

const (
	// KindRecognition recognizes shipped revenue: positive quantity and amount
	KindRecognition Kind = "RECOGNITION"
	// KindReversal reverses previously recognized revenue: negative quantity and amount
	KindReversal Kind = "REVERSAL"
	// KindCredit credits a returned line: negative quantity and amount
	KindCredit Kind = "CREDIT"
	// KindDealPositive re-recognizes a deal return on the arrangement line:
	// the quantity goes negative while the amount keeps the sign of rate x quantity
	KindDealPositive Kind = "DEAL_POSITIVE"
	// KindCumulative is a percent-complete event with no quantity or amount
	KindCumulative Kind = "CUMULATIVE"
)

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case KindRecognition, KindReversal, KindCredit, KindDealPositive, KindCumulative:
		return true
	}
	return false
}

// Computation is the signed quantity and amount of an event
type Computation struct {
	Quantity decimal.Decimal
	Amount   decimal.Decimal
	Sign     int
}

// ComputeRevenueEvent derives the signed quantity and amount of an event.
// The amount is always rate x quantity; the kind decides the signs.
func ComputeRevenueEvent(rate, quantity decimal.Decimal, kind Kind) (Computation, error) {
	q := quantity.Abs()
	amount := rate.Mul(quantity)

	switch kind {
	case KindRecognition:
		return Computation{Quantity: q, Amount: amount.Abs(), Sign: 1}, nil
	case KindReversal, KindCredit:
		return Computation{Quantity: q.Neg(), Amount: amount.Abs().Neg(), Sign: -1}, nil
	case KindDealPositive:
		return Computation{Quantity: q.Neg(), Amount: amount, Sign: 1}, nil
	}
	return Computation{}, fmt.Errorf("revenue: cannot compute amount for kind %q", kind)
}
