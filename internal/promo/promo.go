package promo

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// BuiltinCode is the storefront's standing promo code.
const BuiltinCode = "CART11"

// BuiltinRate is the fraction of the subtotal BuiltinCode takes off.
var BuiltinRate = decimal.RequireFromString("0.11")

// Rule is a promo code and the fraction of the subtotal it discounts.
type Rule struct {
	Code        string
	Rate        decimal.Decimal
	Description string
}

// Book defines the interface for promo code lookup.
type Book interface {
	// Lookup returns the rule for code. The code is matched case-insensitively
	// after trimming surrounding whitespace.
	Lookup(code string) (Rule, bool)

	// Size returns the number of rules in the book.
	Size() int
}

// Loader defines the interface for loading promo rule files.
type Loader interface {
	// Load reads a gzipped rule file and returns its rules.
	Load(ctx context.Context, filePath string) ([]Rule, error)
}

// NormaliseCode trims and upper-cases a promo code.
func NormaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// BuiltinRules returns the rules every book starts with.
func BuiltinRules() []Rule {
	return []Rule{
		{Code: BuiltinCode, Rate: BuiltinRate, Description: "11% off"},
	}
}
