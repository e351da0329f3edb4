package pricing

import (
	"github.com/shopspring/decimal"
)

// Line is one priced product line of an order.
type Line struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// GatewayItem is a payment provider line item in minor currency units.
type GatewayItem struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// MinorUnits converts an amount to cents, rounding half away from zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// LineItems builds provider line items whose sum equals b.Total. Product
// lines are followed by a tax line. When a discount applies, or when per-unit
// rounding would make the lines drift from the total, a single line carrying
// the total is returned instead.
func LineItems(lines []Line, b Breakdown) []GatewayItem {
	total := MinorUnits(b.Total)

	if b.Discount.IsZero() {
		items := make([]GatewayItem, 0, len(lines)+1)
		var sum int64
		for _, l := range lines {
			unit := MinorUnits(l.UnitPrice)
			items = append(items, GatewayItem{
				Name:       l.Name,
				UnitAmount: unit,
				Quantity:   int64(l.Quantity),
			})
			sum += unit * int64(l.Quantity)
		}
		tax := MinorUnits(b.Tax)
		if tax > 0 {
			items = append(items, GatewayItem{Name: "Tax (2%)", UnitAmount: tax, Quantity: 1})
			sum += tax
		}
		if sum == total {
			return items
		}
	}

	name := "Order total"
	if b.PromoCode != "" {
		name = "Order total (promo " + b.PromoCode + ")"
	}
	return []GatewayItem{{Name: name, UnitAmount: total, Quantity: 1}}
}

// Sum returns the total of the items in minor units.
func Sum(items []GatewayItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.UnitAmount * it.Quantity
	}
	return sum
}
