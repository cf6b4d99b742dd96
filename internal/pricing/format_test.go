package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"12.5", "MAD", "12.50 DH"},
		{"12.5", "", "12.50 DH"},
		{"3", "usd", "$3.00"},
		{"1999.999", "EUR", "€2000.00"},
		{"7.1", "XYZ", "DH7.10"},
		{"7.1", "CHF", "DH7.10"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatPrice(d(tc.amount), tc.currency), "%s %s", tc.amount, tc.currency)
	}
}

func TestNormalizeCurrency(t *testing.T) {
	code, ok := NormalizeCurrency(" eur ")
	require.True(t, ok)
	require.Equal(t, "EUR", code)

	_, ok = NormalizeCurrency("EURO")
	require.False(t, ok)
	_, ok = NormalizeCurrency("")
	require.False(t, ok)
}
