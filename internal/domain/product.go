package domain

import "time"

// Product is a sellable catalog item. When HasVariations is set, price and
// stock live on the variations and the product level fields are placeholders.
type Product struct {
	ID             int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	Slug           string             `gorm:"size:200;uniqueIndex" json:"slug"`
	Name           string             `gorm:"size:200;index" json:"name"`
	Description    string             `gorm:"type:text" json:"description"`
	Price          float64            `json:"price"`
	Discount       *float64           `json:"discount,omitempty"` // percent
	UnlimitedStock bool               `gorm:"default:false" json:"unlimited_stock"`
	HasVolume      bool               `gorm:"default:false" json:"has_volume"`
	Volume         string             `gorm:"size:32" json:"volume"` // remaining bulk quantity, e.g. grams of tea
	Stock          int                `gorm:"default:0" json:"stock"`
	Weight         string             `gorm:"size:32" json:"weight"` // per order unit, e.g. "50"
	Images         string             `gorm:"size:2048" json:"images"` // comma joined paths
	CategorySlug   string             `gorm:"size:100;index" json:"category_slug"`
	BrandSlug      string             `gorm:"size:100;index" json:"brand_slug"`
	HasVariations  bool               `gorm:"default:false" json:"has_variations"`
	Status         string             `gorm:"size:20;index;default:'enabled'" json:"status"`
	Variations     []ProductVariation `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variations,omitempty"`
	TeaCategories  []TeaCategory      `gorm:"many2many:product_tea_categories" json:"tea_categories,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}

// ProductVariation is one purchasable configuration of a product.
type ProductVariation struct {
	ID         int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID  int64                `gorm:"index" json:"product_id"`
	Sku        string               `gorm:"size:100" json:"sku"`
	Price      float64              `json:"price"`
	Stock      int                  `gorm:"default:0" json:"stock"`
	Discount   *float64             `json:"discount,omitempty"`
	Sort       int                  `json:"sort"`
	Attributes []VariationAttribute `gorm:"foreignKey:VariationID;constraint:OnDelete:CASCADE" json:"attributes,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

func (ProductVariation) TableName() string {
	return "product_variations"
}

// VariationAttribute binds an attribute value (Size=M) to a variation.
type VariationAttribute struct {
	ID          int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	VariationID int64  `gorm:"index" json:"variation_id"`
	AttributeID int64  `gorm:"index" json:"attribute_id"`
	Value       string `gorm:"size:100" json:"value"`
	Sort        int    `json:"sort"`
}

func (VariationAttribute) TableName() string {
	return "variation_attributes"
}

// Attribute is a variation dimension such as Size or Color.
type Attribute struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex" json:"name"`
	Slug      string    `gorm:"size:100;index" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Attribute) TableName() string {
	return "attributes"
}
