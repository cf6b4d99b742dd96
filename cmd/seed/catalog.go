package main

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/variant"
)

type seedProduct struct {
	Title        string
	Slug         string
	Description  string
	SKU          string
	Price        string
	OldPrice     string
	Stock        int
	ReorderLevel int
	Variants     *variant.Config
}

func money(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func unavailable() *bool {
	f := false
	return &f
}

func demoCatalog() []seedProduct {
	return []seedProduct{
		{
			Title:        "Kaftan Brodé",
			Slug:         "kaftan-brode",
			Description:  "Hand embroidered kaftan.",
			SKU:          "KAF",
			Price:        "450",
			OldPrice:     "520",
			Stock:        12,
			ReorderLevel: 3,
			Variants: &variant.Config{
				Groups: []variant.Group{
					{ID: "color", Name: "Color", Required: true, Options: []variant.Option{
						{ID: "ivory", Label: "Ivory", Default: true},
						{ID: "emerald", Label: "Emerald", PriceModifier: money("30")},
						{ID: "gold", Label: "Gold", PriceModifier: money("80"), Available: unavailable()},
					}},
					{ID: "size", Name: "Size", Required: true, Options: []variant.Option{
						{ID: "m", Label: "M", Default: true},
						{ID: "l", Label: "L"},
						{ID: "xl", Label: "XL", PriceModifier: money("25")},
					}},
				},
				Rules: []variant.Rule{
					{Conditions: map[string]string{"color": "emerald", "size": "xl"}, Modifier: money("10"), Kind: variant.RulePercentage, Description: "Emerald XL uses extra fabric"},
				},
			},
		},
		{
			Title:       "Babouches Cuir",
			Slug:        "babouches-cuir",
			Description: "Leather slippers.",
			SKU:         "BAB",
			Price:       "180",
			Stock:       40,
			Variants: &variant.Config{
				Groups: []variant.Group{
					{ID: "size", Name: "Size", Required: true, Options: []variant.Option{
						{ID: "39", Label: "39"},
						{ID: "40", Label: "40"},
						{ID: "41", Label: "41"},
						{ID: "42", Label: "42", PriceModifier: money("10")},
					}},
					{ID: "finish", Name: "Finish", Options: []variant.Option{
						{ID: "plain", Label: "Plain", Default: true},
						{ID: "stitched", Label: "Stitched", PriceModifier: money("35")},
					}},
				},
			},
		},
		{
			Title:       "Thé à la Menthe",
			Slug:        "the-menthe",
			Description: "Loose leaf mint tea, 250g.",
			SKU:         "THE",
			Price:       "45",
			Stock:       3,
		},
	}
}
