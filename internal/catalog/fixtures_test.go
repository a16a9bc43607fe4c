package catalog

import (
	"time"
)

func int64Ptr(v int64) *int64 { return &v }

func float64Ptr(v float64) *float64 { return &v }

func testSnapshot() *Snapshot {
	return NewSnapshot([]Product{
		{
			ID: 1, Slug: "mug", Name: "Studio Mug", Price: 18, Stock: 3,
			Images: "/img/mug-1.jpg,/img/mug-2.jpg", CategorySlug: "ceramics",
		},
		{
			ID: 2, Slug: "poster", Name: "Poster", Price: 0, HasVariations: true,
			CategorySlug: "prints", Discount: float64Ptr(10),
			Variations: []Variation{
				{ID: 21, ProductID: 2, Price: 25, Stock: 4, Attributes: []VariationAttribute{
					{AttributeID: 1, Name: "Size", Value: "A3"},
				}},
				{ID: 22, ProductID: 2, Price: 40, Stock: 0, Discount: float64Ptr(15), Attributes: []VariationAttribute{
					{AttributeID: 1, Name: "Size", Value: "A2"},
					{AttributeID: 2, Name: "Color", Value: "Red"},
				}},
			},
		},
		{
			ID: 3, Slug: "sencha", Name: "Sencha", Price: 12, HasVolume: true, Volume: "500",
			Weight: "50g", CategorySlug: "tea", TeaCategories: []string{"green"},
		},
		{
			ID: 4, Slug: "sticker-pack", Name: "Sticker Pack", Price: 4, Stock: 0, CategorySlug: "stickers",
		},
		{
			ID: 5, Slug: "print-service", Name: "Print Service", Price: 99, UnlimitedStock: true,
			HasVariations: true, CategorySlug: "services",
			Variations: []Variation{{ID: 51, ProductID: 5, Price: 120, Stock: 0}},
		},
	}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}
