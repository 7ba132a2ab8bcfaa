package revenue

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SearchOverRecognizedLines selects shipment events that push a line past its ordered quantity
const SearchOverRecognizedLines = "over_recognized_lines"

// LineRecognition is the recognition history of one transaction line
type LineRecognition struct {
	LineID          uuid.UUID
	OrderedQuantity decimal.Decimal
	Events          []RevenueEvent
}

// RecognizedQuantity sums the signed quantity of every event on the line
func (l LineRecognition) RecognizedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.Events {
		total = total.Add(e.Quantity)
	}
	return total
}

// SelectOverstated returns the newest recognition events that must be removed so
// the recognized quantity no longer exceeds the ordered quantity. Reversal and
// credit events are never selected.
func SelectOverstated(l LineRecognition) []RevenueEvent {
	excess := l.RecognizedQuantity().Sub(l.OrderedQuantity)
	if !excess.IsPositive() {
		return nil
	}

	candidates := make([]RevenueEvent, 0, len(l.Events))
	for _, e := range l.Events {
		if e.Kind == KindRecognition {
			candidates = append(candidates, e)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if !candidates[i].EventDate.Equal(candidates[j].EventDate) {
			return candidates[i].EventDate.After(candidates[j].EventDate)
		}
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})

	var out []RevenueEvent
	for _, e := range candidates {
		if !excess.IsPositive() {
			break
		}
		out = append(out, e)
		excess = excess.Sub(e.Quantity)
	}
	return out
}
