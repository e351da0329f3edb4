// Package pricing derives cart and order totals. Every function is pure; the
// same code runs for display totals, persisted order amounts and the payment
// provider's line-item breakdown.
package pricing

import (
	"greencart/internal/model"
	"greencart/internal/promo"

	"github.com/shopspring/decimal"
)

// TaxRate is applied to the subtotal everywhere a tax figure is needed.
var TaxRate = decimal.RequireFromString("0.02")

// Breakdown holds the derived totals for one cart.
type Breakdown struct {
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	PromoCode string          `json:"promoCode,omitempty"`
	ItemCount int             `json:"itemCount"`
}

// Subtotal sums offerPrice × quantity over the cart. Entries whose product is
// not in the catalog are skipped.
func Subtotal(cart model.Cart, catalog model.Catalog) decimal.Decimal {
	sum := decimal.Zero
	for id, qty := range cart {
		if qty <= 0 {
			continue
		}
		p, ok := catalog[id]
		if !ok {
			continue
		}
		sum = sum.Add(p.OfferPrice.Mul(decimal.NewFromInt(int64(qty))))
	}
	return sum.Round(2)
}

// Tax returns TaxRate of the subtotal rounded to cents.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}

// PromoDiscount returns the discount code grants on subtotal together with the
// normalised code. Unknown codes fail with model.ErrInvalidPromoCode.
func PromoDiscount(subtotal decimal.Decimal, code string, book promo.Book) (decimal.Decimal, string, error) {
	rule, ok := book.Lookup(code)
	if !ok {
		return decimal.Zero, "", model.ErrInvalidPromoCode
	}
	return subtotal.Mul(rule.Rate).Round(2), rule.Code, nil
}

// GrandTotal returns subtotal + tax - discount, never below zero.
func GrandTotal(subtotal, tax, discount decimal.Decimal) decimal.Decimal {
	total := subtotal.Add(tax).Sub(discount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ItemCount sums the quantities in the cart. Zero means the cart is empty.
func ItemCount(cart model.Cart) int {
	n := 0
	for _, qty := range cart {
		if qty > 0 {
			n += qty
		}
	}
	return n
}

// Quote derives the full breakdown for a cart. An empty code means no promo.
func Quote(cart model.Cart, catalog model.Catalog, code string, book promo.Book) (Breakdown, error) {
	subtotal := Subtotal(cart, catalog)
	b := Breakdown{
		Subtotal:  subtotal,
		Tax:       Tax(subtotal),
		Discount:  decimal.Zero,
		ItemCount: ItemCount(cart),
	}

	if promo.NormaliseCode(code) != "" {
		discount, normalised, err := PromoDiscount(subtotal, code, book)
		if err != nil {
			return Breakdown{}, err
		}
		b.Discount = discount
		b.PromoCode = normalised
	}

	b.Total = GrandTotal(b.Subtotal, b.Tax, b.Discount)
	return b, nil
}
