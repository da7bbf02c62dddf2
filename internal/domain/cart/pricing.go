package cart

import "github.com/shopspring/decimal"

// Checkout business constants.
var (
	// TaxRate is applied to the whole subtotal.
	TaxRate = decimal.RequireFromString("0.08")
	// FreeShippingThreshold is the subtotal above which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(1000)
	// FlatShipping is charged at or below FreeShippingThreshold.
	FlatShipping = decimal.NewFromInt(50)
)

// Tax returns the sales tax for subtotal.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate)
}

// Shipping returns the shipping charge for subtotal.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShipping
}

// Total returns subtotal plus tax and shipping.
func Total(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(Tax(subtotal)).Add(Shipping(subtotal))
}

// Summary is the checkout breakdown of a cart.
type Summary struct {
	Subtotal  decimal.Decimal
	Tax       decimal.Decimal
	Shipping  decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
}

// Summarize derives the checkout breakdown from t, rounded to cents. The
// shipping threshold is judged on the exact subtotal.
func Summarize(t Totals) Summary {
	subtotal := t.Subtotal.Round(2)
	tax := Tax(subtotal).Round(2)
	shipping := Shipping(t.Subtotal)
	return Summary{
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal.Add(tax).Add(shipping),
		ItemCount: t.ItemCount,
	}
}
