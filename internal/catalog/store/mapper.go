package store

import (
	"sort"

	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/domain"
)

// ToCatalogProduct maps a product row, with its preloaded variations and tea
// categories, to the catalog read model. attrNames resolves attribute ids to
// display names.
func ToCatalogProduct(p *domain.Product, attrNames map[int64]string) catalog.Product {
	out := catalog.Product{
		ID:             p.ID,
		Slug:           p.Slug,
		Name:           p.Name,
		Price:          p.Price,
		Discount:       p.Discount,
		UnlimitedStock: p.UnlimitedStock,
		HasVolume:      p.HasVolume,
		Volume:         p.Volume,
		Stock:          p.Stock,
		Weight:         p.Weight,
		Images:         p.Images,
		CategorySlug:   p.CategorySlug,
		HasVariations:  p.HasVariations,
	}
	for _, tc := range p.TeaCategories {
		out.TeaCategories = append(out.TeaCategories, tc.Slug)
	}
	sort.Strings(out.TeaCategories)

	for i := range p.Variations {
		out.Variations = append(out.Variations, ToCatalogVariation(&p.Variations[i], attrNames))
	}
	return out
}

func ToCatalogVariation(v *domain.ProductVariation, attrNames map[int64]string) catalog.Variation {
	out := catalog.Variation{
		ID:        v.ID,
		ProductID: v.ProductID,
		Price:     v.Price,
		Stock:     v.Stock,
		Discount:  v.Discount,
	}
	for _, a := range v.Attributes {
		out.Attributes = append(out.Attributes, catalog.VariationAttribute{
			AttributeID: a.AttributeID,
			Name:        attrNames[a.AttributeID],
			Value:       a.Value,
		})
	}
	return out
}
