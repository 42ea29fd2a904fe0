package workflow

import "github.com/shopspring/decimal"

// CostEstimation sums the estimated totals of the line items. The MR field
// of the same name is always the result of this function, never an input.
func CostEstimation(items []OrderItem) int64 {
	var total int64
	for i := range items {
		total += items[i].EstimatedTotal()
	}
	return total
}

// POSubtotal sums qty*price over the PO items.
func POSubtotal(items []POItem) int64 {
	var total int64
	for i := range items {
		total += items[i].Qty * items[i].Price
	}
	return total
}

// EffectiveTax derives the tax component for a PO total. In percentage mode
// the amount is rounded to whole rupiah; in included mode the tax is zero;
// in manual mode the entered absolute value is used as-is. A manual value is
// carried on the document and survives flips between modes.
func EffectiveTax(mode TaxMode, subtotal int64, percent float64, manual int64) int64 {
	switch mode {
	case TaxModeIncluded:
		return 0
	case TaxModeManual:
		return manual
	default:
		return decimal.NewFromInt(subtotal).
			Mul(decimal.NewFromFloat(percent)).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
	}
}
