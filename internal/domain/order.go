package domain

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// OrderStatuses lists the accepted order states.
var OrderStatuses = []string{
	OrderStatusPending,
	OrderStatusPaid,
	OrderStatusShipped,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

type Order struct {
	ID            int64       `gorm:"primaryKey" json:"id,string"`
	OrderNo       string      `gorm:"size:64;uniqueIndex" json:"order_no"`
	CustomerName  string      `gorm:"size:200" json:"customer_name"`
	Email         string      `gorm:"size:200;index" json:"email"`
	Phone         string      `gorm:"size:64" json:"phone"`
	Address       string      `gorm:"size:500" json:"address"`
	City          string      `gorm:"size:100" json:"city"`
	Country       string      `gorm:"size:100" json:"country"`
	Note          string      `gorm:"type:text" json:"note"`
	Status        string      `gorm:"size:20;index" json:"status"`
	Subtotal      float64     `json:"subtotal"`
	DiscountTotal float64     `json:"discount_total"`
	Total         float64     `json:"total"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt     time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a priced copy of a cart line at checkout time.
type OrderItem struct {
	ID          int64    `gorm:"primaryKey" json:"id,string"`
	OrderID     int64    `gorm:"index" json:"order_id,string"`
	ProductID   int64    `gorm:"index" json:"product_id"`
	VariationID *int64   `json:"variation_id,omitempty"`
	ProductName string   `gorm:"size:200" json:"product_name"`
	ProductSlug string   `gorm:"size:200" json:"product_slug"`
	Attributes  string   `gorm:"size:1024" json:"attributes"` // e.g. "Color: Red, Size: M"
	Quantity    int      `json:"quantity"`
	UnitPrice   float64  `json:"unit_price"`
	Discount    *float64 `json:"discount,omitempty"`
	LineTotal   float64  `json:"line_total"`
}

func (OrderItem) TableName() string {
	return "order_items"
}
