package ledger

import (
	"github.com/shopspring/decimal"
)

// ContributionSource describes one transaction line feeding the blanket order ledger.
type ContributionSource struct {
	ProductID string
	Quantity  decimal.Decimal
	// ComponentCount is nil when the line carries no component information
	ComponentCount    *int
	ComponentQuantity decimal.NullDecimal
	// MatchedQuantity is the quantity of the matching return authorization line, if any
	MatchedQuantity decimal.NullDecimal
}

// Contribution is the unsigned quantity a product contributes to a ledger update.
type Contribution struct {
	ProductID string
	Quantity  decimal.Decimal
}

// ResolveContribution applies the component-count rules to a single line:
//
//   - count == 1: the matched authorization line's quantity passes through
//   - count  > 1: quantity / component quantity, the item group quantity
//   - count unset: the raw line quantity
//
// ok is false when the line contributes nothing (count == 1 without a matched
// authorization line, or a zero component quantity).
func ResolveContribution(src ContributionSource) (Contribution, bool) {
	switch {
	case src.ComponentCount == nil:
		return Contribution{ProductID: src.ProductID, Quantity: src.Quantity}, true
	case *src.ComponentCount == 1:
		if !src.MatchedQuantity.Valid {
			return Contribution{}, false
		}
		return Contribution{ProductID: src.ProductID, Quantity: src.MatchedQuantity.Decimal}, true
	case *src.ComponentCount > 1:
		if !src.ComponentQuantity.Valid || src.ComponentQuantity.Decimal.IsZero() {
			return Contribution{}, false
		}
		return Contribution{ProductID: src.ProductID, Quantity: src.Quantity.Div(src.ComponentQuantity.Decimal)}, true
	}
	return Contribution{}, false
}

// DedupeByProduct keeps only the first contribution of every product id.
// Component rows of one item group share the product id of the group.
func DedupeByProduct(in []Contribution) []Contribution {
	seen := make(map[string]struct{}, len(in))
	out := make([]Contribution, 0, len(in))
	for _, c := range in {
		if _, dup := seen[c.ProductID]; dup {
			continue
		}
		seen[c.ProductID] = struct{}{}
		out = append(out, c)
	}
	return out
}
