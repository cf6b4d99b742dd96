package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/store"
	"github.com/noah-isme/toko-storefront/internal/variant"
)

// LineQuote is a selection priced the way a cart line stores it.
type LineQuote struct {
	Calculation  variant.Calculation
	UnitPrice    decimal.Decimal
	Quantity     int
	LineTotal    decimal.Decimal
	VariantSKU   string
	SelectionKey string
	Availability variant.Availability
}

// Quote resolves sel against p. The engine result is frozen into a unit price
// (never negative, two decimals) and multiplied by qty, where qty below one
// counts as one.
func Quote(p store.Product, cfg *variant.Config, sel variant.Selection, qty int) LineQuote {
	if qty < 1 {
		qty = 1
	}
	calc := variant.CalculatePrice(p.Price, sel, cfg)
	unit := pricing.FreezeUnitPrice(calc.FinalPrice)
	return LineQuote{
		Calculation:  calc,
		UnitPrice:    unit,
		Quantity:     qty,
		LineTotal:    pricing.LineTotal(unit, qty),
		VariantSKU:   variant.GenerateSKU(p.SKU, sel),
		SelectionKey: sel.Key(),
		Availability: variant.CheckAvailability(sel, cfg),
	}
}
