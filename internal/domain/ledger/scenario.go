package ledger

import "github.com/shopspring/decimal"

// Scenario selects which ledger counters a contribution moves
type Scenario string

const (
	// ScenarioReceipt is goods received back on a fulfillment return
	ScenarioReceipt Scenario = "RECEIPT"
	// ScenarioReceiptReship is a receipt on a return that will be shipped again
	ScenarioReceiptReship Scenario = "RECEIPT_RESHIP"
	// ScenarioDealReturn is a refunded deal return
	ScenarioDealReturn Scenario = "DEAL_RETURN"
	// ScenarioFulfillmentReturnPending is a fulfillment return awaiting receipt
	ScenarioFulfillmentReturnPending Scenario = "FULFILLMENT_RETURN_PENDING"
	// ScenarioFSOClose releases the unshipped quantity of a closed FSO
	ScenarioFSOClose Scenario = "FSO_CLOSE"
)

// Delta is the per-unit movement of every ledger counter for one scenario
type Delta struct {
	Remaining     int
	PendingReturn int
	Returned      int
	Refunded      int
	SumShipped    int
}

var deltas = map[Scenario]Delta{
	ScenarioReceipt:                  {Remaining: 1, PendingReturn: -1, Returned: 1},
	ScenarioReceiptReship:            {Remaining: 1, PendingReturn: -1, Returned: 1, SumShipped: -1},
	ScenarioDealReturn:               {Remaining: -1, Refunded: 1},
	ScenarioFulfillmentReturnPending: {PendingReturn: 1},
	ScenarioFSOClose:                 {Remaining: 1},
}

// DeltaFor returns the counter movement of a scenario
func DeltaFor(s Scenario) (Delta, bool) {
	d, ok := deltas[s]
	return d, ok
}

// IsValid checks if the scenario is known
func (s Scenario) IsValid() bool {
	_, ok := deltas[s]
	return ok
}

func scale(unit int, q decimal.Decimal) decimal.Decimal {
	return q.Mul(decimal.NewFromInt(int64(unit)))
}
