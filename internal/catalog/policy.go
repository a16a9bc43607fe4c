package catalog

import "strings"

// StockPolicy overrides how stock is presented for a whole category.
type StockPolicy int

const (
	PolicyDefault StockPolicy = iota
	// PolicyAlwaysInStock marks every product of the category as unlimited in
	// the cart, whatever its stock field says.
	PolicyAlwaysInStock
)

// DefaultAlwaysInStockCategories are the categories sold as always in stock.
var DefaultAlwaysInStockCategories = []string{"stickers"}

// PolicyTable maps category slugs to stock policies.
type PolicyTable map[string]StockPolicy

func DefaultPolicies() PolicyTable {
	return PoliciesAlwaysInStock(DefaultAlwaysInStockCategories)
}

// PoliciesAlwaysInStock builds a table marking each slug as always in stock.
func PoliciesAlwaysInStock(slugs []string) PolicyTable {
	t := make(PolicyTable, len(slugs))
	for _, slug := range slugs {
		if slug = strings.TrimSpace(slug); slug != "" {
			t[slug] = PolicyAlwaysInStock
		}
	}
	return t
}

func (t PolicyTable) Lookup(categorySlug string) StockPolicy {
	if p, ok := t[categorySlug]; ok {
		return p
	}
	return PolicyDefault
}

func (t PolicyTable) AlwaysInStock(categorySlug string) bool {
	return t.Lookup(categorySlug) == PolicyAlwaysInStock
}
