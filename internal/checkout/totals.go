package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/urbanshoes/storefront/internal/cart"
	"github.com/urbanshoes/storefront/pkg/config"
)

// Pricing holds the order pricing rules applied at checkout.
type Pricing struct {
	FreeShippingOver decimal.Decimal
	ShippingFee      decimal.Decimal
	TaxRate          decimal.Decimal
}

// PricingFromConfig parses the configured pricing rules.
func PricingFromConfig(cfg config.CheckoutConfig) (Pricing, error) {
	freeOver, err := decimal.NewFromString(cfg.FreeShippingOver)
	if err != nil {
		return Pricing{}, fmt.Errorf("parsing free shipping threshold: %w", err)
	}
	fee, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		return Pricing{}, fmt.Errorf("parsing shipping fee: %w", err)
	}
	rate, err := decimal.NewFromString(cfg.TaxRate)
	if err != nil {
		return Pricing{}, fmt.Errorf("parsing tax rate: %w", err)
	}
	return Pricing{FreeShippingOver: freeOver, ShippingFee: fee, TaxRate: rate}, nil
}

// Totals captures the order amounts computed from a cart snapshot.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// ComputeTotals prices the given cart lines. Shipping is free strictly above
// the threshold, otherwise the flat fee applies. Tax is charged on the
// subtotal only.
func ComputeTotals(lines []cart.Line, pricing Pricing) Totals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	shipping := pricing.ShippingFee
	if subtotal.GreaterThan(pricing.FreeShippingOver) {
		shipping = decimal.Zero
	}
	if subtotal.IsZero() {
		shipping = decimal.Zero
	}

	tax := subtotal.Mul(pricing.TaxRate).Round(2)

	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// AmountMinorUnits converts the order total to the gateway's minor currency
// units, rounding to the nearest unit.
func (t Totals) AmountMinorUnits() int64 {
	return t.Total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
