package domain

var Tables = []interface{}{
	// System
	&SysConfig{},
	&SysOprLog{},
	// Catalog
	&Category{},
	&Brand{},
	&TeaCategory{},
	&Attribute{},
	&Product{},
	&ProductVariation{},
	&VariationAttribute{},
	// Sales
	&Order{},
	&OrderItem{},
	// Content
	&BlogPost{},
}
