package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// DefaultCurrency is used when a store has not configured one.
const DefaultCurrency = "MAD"

var symbols = map[string]string{
	"MAD": "DH",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"CAD": "C$",
	"AUD": "A$",
	"JPY": "¥",
	"CNY": "¥",
	"INR": "₹",
}

// NormalizeCurrency upper-cases code and checks it against ISO 4217.
func NormalizeCurrency(code string) (string, bool) {
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", false
	}
	return unit.String(), true
}

// FormatPrice renders amount with two decimals and the currency symbol.
// Dirham amounts carry the symbol as a suffix ("12.50 DH"); every other
// currency prefixes it. Unknown currencies fall back to the dirham symbol.
func FormatPrice(amount decimal.Decimal, code string) string {
	if code == "" {
		code = DefaultCurrency
	}
	if normalized, ok := NormalizeCurrency(code); ok {
		code = normalized
	}
	symbol, ok := symbols[code]
	if !ok {
		symbol = symbols[DefaultCurrency]
	}
	fixed := amount.StringFixed(2)
	if code == DefaultCurrency {
		return fixed + " " + symbol
	}
	return symbol + fixed
}

// Symbol returns the display symbol for code, defaulting to the dirham.
func Symbol(code string) string {
	if normalized, ok := NormalizeCurrency(code); ok {
		code = normalized
	}
	if symbol, ok := symbols[code]; ok {
		return symbol
	}
	return symbols[DefaultCurrency]
}
