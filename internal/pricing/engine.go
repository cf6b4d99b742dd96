package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineItem is one product entry in a cart or order with a frozen unit price.
type LineItem struct {
	ProductID        string            `json:"productId"`
	ProductName      string            `json:"productName"`
	Quantity         int               `json:"quantity"`
	UnitPrice        decimal.Decimal   `json:"unitPrice"`
	SelectedVariants map[string]string `json:"selectedVariants,omitempty"`
}

// CheckoutSettings carries the merchant's tax switches.
type CheckoutSettings struct {
	TaxEnabled bool            `json:"taxEnabled"`
	TaxRate    decimal.Decimal `json:"taxRate"`
}

// StoreSettings parameterises the summary. TaxRate is the store-level rate
// used when the checkout settings leave theirs at zero.
type StoreSettings struct {
	Currency     string            `json:"currency"`
	ShippingCost decimal.Decimal   `json:"shippingCost"`
	TaxRate      decimal.Decimal   `json:"taxRate"`
	Checkout     *CheckoutSettings `json:"checkoutSettings,omitempty"`
}

// Summary aggregates computed pricing components.
type Summary struct {
	Currency   string          `json:"currency,omitempty"`
	ItemCount  int             `json:"itemCount"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Shipping   decimal.Decimal `json:"shipping"`
	TaxEnabled bool            `json:"taxEnabled"`
	TaxRate    decimal.Decimal `json:"taxRate"`
	Tax        decimal.Decimal `json:"tax"`
	Total      decimal.Decimal `json:"total"`
}

// CalculateCartSummary computes subtotal, flat shipping, tax and total for
// the given lines. Nil settings mean no shipping fee and no tax. Shipping is
// never taxed and an empty cart still carries the shipping fee.
func CalculateCartSummary(items []LineItem, settings *StoreSettings) Summary {
	sum := Summary{
		Subtotal: decimal.Zero,
		Shipping: decimal.Zero,
		TaxRate:  decimal.Zero,
		Tax:      decimal.Zero,
	}
	for _, it := range items {
		qty := effectiveQty(it.Quantity)
		sum.ItemCount += qty
		sum.Subtotal = sum.Subtotal.Add(LineTotal(it.UnitPrice, qty))
	}

	if settings != nil {
		sum.Currency = settings.Currency
		sum.Shipping = settings.ShippingCost
		// the configured rate is reported even while tax is switched off
		sum.TaxRate = settings.TaxRate
		if co := settings.Checkout; co != nil {
			sum.TaxEnabled = co.TaxEnabled
			if !co.TaxRate.IsZero() {
				sum.TaxRate = co.TaxRate
			}
		}
	}

	if sum.TaxEnabled {
		sum.Tax = sum.Subtotal.Mul(sum.TaxRate).Div(hundred)
	}
	sum.Total = sum.Subtotal.Add(sum.Shipping).Add(sum.Tax)
	return sum
}

// LineTotal multiplies a unit price by a quantity.
func LineTotal(unitPrice decimal.Decimal, qty int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(qty)))
}

// FreezeUnitPrice turns a computed variant price into the unit price stored
// on a line: negatives become zero and the result is rounded to cents.
func FreezeUnitPrice(price decimal.Decimal) decimal.Decimal {
	if price.IsNegative() {
		return decimal.Zero
	}
	return price.Round(2)
}

// lines written before quantities were validated may carry zero
func effectiveQty(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}
