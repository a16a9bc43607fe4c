package catalog

import (
	"strconv"

	"github.com/studiocraft/storefront/pkg/common"
)

// Enricher joins cart lines with a catalog snapshot.
type Enricher struct {
	Policies PolicyTable
}

func NewEnricher(policies PolicyTable) *Enricher {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Enricher{Policies: policies}
}

var defaultEnricher = NewEnricher(nil)

// EnrichCart enriches items with the default category policies.
func EnrichCart(items []CartItem, snap *Snapshot) []EnrichedCartItem {
	return defaultEnricher.Enrich(items, snap)
}

// Enrich returns one display line per cart item whose product is still in the
// snapshot, in input order. Lines for removed products are dropped.
func (e *Enricher) Enrich(items []CartItem, snap *Snapshot) []EnrichedCartItem {
	out := make([]EnrichedCartItem, 0, len(items))
	for _, item := range items {
		product := snap.Product(item.ProductID)
		if product == nil {
			continue
		}
		out = append(out, e.enrichLine(item, product))
	}
	return out
}

func (e *Enricher) enrichLine(item CartItem, product *Product) EnrichedCartItem {
	var variation *Variation
	if item.VariationID != nil {
		variation = product.Variation(*item.VariationID)
	}

	line := EnrichedCartItem{
		CartItem:       item,
		ProductName:    product.Name,
		ProductSlug:    product.Slug,
		Price:          product.Price,
		UnlimitedStock: product.UnlimitedStock || e.Policies.AlwaysInStock(product.CategorySlug),
		Discount:       product.Discount,
	}

	// A matched variation always owns the price, including products whose
	// base price is stored as zero.
	if variation != nil {
		line.Price = variation.Price
	}

	if image := common.FirstSegment(product.Images); image != "" {
		line.Image = &image
	}

	if variation != nil && len(variation.Attributes) > 0 {
		line.Attributes = make(map[string]string, len(variation.Attributes))
		for _, attr := range variation.Attributes {
			name := attr.Name
			if name == "" {
				name = strconv.FormatInt(attr.AttributeID, 10)
			}
			line.Attributes[name] = attr.Value
		}
	}

	switch {
	case product.UnlimitedStock:
		line.MaxStock = UnlimitedQuantity
	case variation != nil:
		line.MaxStock = variation.Stock
	default:
		line.MaxStock = product.Stock
	}

	if variation != nil && variation.Discount != nil {
		line.Discount = variation.Discount
	}

	if product.Weight != "" {
		total, _ := common.ParseLeadingInt(product.Weight)
		line.WeightInfo = &WeightInfo{TotalWeight: total}
	}

	return line
}
