// Package catalog resolves stock and prices for storefront carts.
//
// Everything here works on an immutable Snapshot of the catalog and never
// returns errors to the caller: a missing product or variation degrades to a
// safe default (zero availability, dropped cart line).
package catalog

import "math"

// UnlimitedQuantity is reported as available stock for products that are
// never out of stock.
const UnlimitedQuantity = math.MaxInt32

// Product is the read model of a catalog product.
type Product struct {
	ID             int64       `json:"id"`
	Slug           string      `json:"slug"`
	Name           string      `json:"name"`
	Price          float64     `json:"price"`
	Discount       *float64    `json:"discount,omitempty"`
	UnlimitedStock bool        `json:"unlimitedStock"`
	HasVolume      bool        `json:"hasVolume"`
	Volume         string      `json:"volume,omitempty"`
	Stock          int         `json:"stock"`
	Weight         string      `json:"weight,omitempty"`
	Images         string      `json:"images"`
	CategorySlug   string      `json:"categorySlug"`
	TeaCategories  []string    `json:"teaCategories,omitempty"`
	HasVariations  bool        `json:"hasVariations"`
	Variations     []Variation `json:"variations,omitempty"`
}

// Variation returns the variation with the given id, or nil.
func (p *Product) Variation(id int64) *Variation {
	if p == nil {
		return nil
	}
	for i := range p.Variations {
		if p.Variations[i].ID == id {
			return &p.Variations[i]
		}
	}
	return nil
}

// Variation is a purchasable configuration of a product with its own price and stock.
type Variation struct {
	ID         int64                `json:"id"`
	ProductID  int64                `json:"productId"`
	Price      float64              `json:"price"`
	Stock      int                  `json:"stock"`
	Discount   *float64             `json:"discount,omitempty"`
	Attributes []VariationAttribute `json:"attributes,omitempty"`
}

type VariationAttribute struct {
	AttributeID int64  `json:"attributeId"`
	Name        string `json:"name"`
	Value       string `json:"value"`
}

// CartItem is the minimal persisted cart line: a reference into the catalog.
type CartItem struct {
	ProductID   int64  `json:"productId"`
	VariationID *int64 `json:"variationId,omitempty"`
	Quantity    int    `json:"quantity"`
}

type WeightInfo struct {
	TotalWeight int `json:"totalWeight"`
}

// EnrichedCartItem is a cart line joined with live catalog data. It is derived
// on demand and never stored.
type EnrichedCartItem struct {
	CartItem
	ProductName    string            `json:"productName"`
	ProductSlug    string            `json:"productSlug"`
	Price          float64           `json:"price"`
	Image          *string           `json:"image,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	MaxStock       int               `json:"maxStock"`
	UnlimitedStock bool              `json:"unlimitedStock"`
	Discount       *float64          `json:"discount,omitempty"`
	WeightInfo     *WeightInfo       `json:"weightInfo,omitempty"`
}

type StockValidationResult struct {
	IsAvailable    bool `json:"isAvailable"`
	AvailableStock int  `json:"availableStock"`
	UnlimitedStock bool `json:"unlimitedStock"`
}
