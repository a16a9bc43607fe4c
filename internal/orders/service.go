package orders

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/pkg/common"
	"github.com/studiocraft/storefront/pkg/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TopicStockChanged is published after checkout changed stock levels.
const TopicStockChanged = "catalog:changed"

// Publisher is the subset of an event bus the service needs.
type Publisher interface {
	Publish(topic string, args ...interface{})
}

type Customer struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email,max=200"`
	Phone   string `json:"phone" validate:"omitempty,max=64"`
	Address string `json:"address" validate:"omitempty,max=500"`
	City    string `json:"city" validate:"omitempty,max=100"`
	Country string `json:"country" validate:"omitempty,max=100"`
	Note    string `json:"note" validate:"omitempty,max=2000"`
}

type PlaceOrderRequest struct {
	Customer Customer           `json:"customer"`
	Items    []catalog.CartItem `json:"items"`
}

// Service turns carts into orders.
//
// Stock is validated before the order transaction starts and decremented
// inside it without a guard, so two concurrent checkouts of the last unit can
// both succeed.
type Service struct {
	db       *gorm.DB
	source   catalog.ProductSource
	policies func() catalog.PolicyTable
	bus      Publisher
}

func NewService(db *gorm.DB, source catalog.ProductSource, policies func() catalog.PolicyTable, bus Publisher) *Service {
	if policies == nil {
		policies = catalog.DefaultPolicies
	}
	return &Service{db: db, source: source, policies: policies, bus: bus}
}

type pricedLine struct {
	line      catalog.EnrichedCartItem
	product   *catalog.Product
	unitPrice decimal.Decimal
	lineTotal decimal.Decimal
	gross     decimal.Decimal
	trackUnit bool
	trackVol  bool
}

// PlaceOrder validates every cart line against live stock, prices it and
// persists the order.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if strings.TrimSpace(req.Customer.Name) == "" || strings.TrimSpace(req.Customer.Email) == "" {
		return nil, ErrMissingCustomer
	}

	lines, err := s.priceLines(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:           common.UUIDint64(),
		OrderNo:      newOrderNo(),
		CustomerName: strings.TrimSpace(req.Customer.Name),
		Email:        strings.TrimSpace(req.Customer.Email),
		Phone:        req.Customer.Phone,
		Address:      req.Customer.Address,
		City:         req.Customer.City,
		Country:      req.Customer.Country,
		Note:         req.Customer.Note,
		Status:       domain.OrderStatusPending,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	subtotal, total := decimal.Zero, decimal.Zero
	for _, pl := range lines {
		subtotal = subtotal.Add(pl.gross)
		total = total.Add(pl.lineTotal)
		order.Items = append(order.Items, domain.OrderItem{
			ID:          common.UUIDint64(),
			OrderID:     order.ID,
			ProductID:   pl.line.ProductID,
			VariationID: pl.line.VariationID,
			ProductName: pl.line.ProductName,
			ProductSlug: pl.line.ProductSlug,
			Attributes:  formatAttributes(pl.line.Attributes),
			Quantity:    pl.line.Quantity,
			UnitPrice:   pl.unitPrice.InexactFloat64(),
			Discount:    pl.line.Discount,
			LineTotal:   pl.lineTotal.InexactFloat64(),
		})
	}
	order.Subtotal = subtotal.InexactFloat64()
	order.Total = total.InexactFloat64()
	order.DiscountTotal = subtotal.Sub(total).InexactFloat64()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return errors.Wrap(err, "create order")
		}
		for _, pl := range lines {
			if err := decrementStock(tx, pl); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.Incr(metrics.OrdersPlaced)
	if s.bus != nil {
		s.bus.Publish(TopicStockChanged)
	}
	zap.L().Info("order placed",
		zap.String("namespace", "orders"),
		zap.String("order_no", order.OrderNo),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", order.Total))
	return order, nil
}

func (s *Service) priceLines(ctx context.Context, items []catalog.CartItem) ([]pricedLine, error) {
	products := make([]catalog.Product, 0, len(items))
	seen := make(map[int64]bool, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, &LineError{ProductID: item.ProductID, VariationID: item.VariationID, Requested: item.Quantity, Err: ErrInvalidQuantity}
		}
		if seen[item.ProductID] {
			continue
		}
		seen[item.ProductID] = true
		p, err := s.source.ProductByID(ctx, item.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			return nil, &LineError{ProductID: item.ProductID, VariationID: item.VariationID, Requested: item.Quantity, Err: ErrProductUnavailable}
		}
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	ids := make([]int64, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	var disabled []int64
	if err := s.db.WithContext(ctx).Model(&domain.Product{}).
		Where("id IN ? AND status <> ?", ids, common.ENABLED).
		Pluck("id", &disabled).Error; err != nil {
		return nil, errors.Wrap(err, "query product status")
	}
	if len(disabled) > 0 {
		return nil, &LineError{ProductID: disabled[0], Err: ErrProductUnavailable}
	}

	snap := catalog.NewSnapshot(products, time.Now())
	enriched := catalog.NewEnricher(s.policies()).Enrich(items, snap)

	// Lines drawing on the same stock are checked together. Volume lines are
	// summed in weight units.
	requested := make(map[string]int, len(enriched))
	for _, line := range enriched {
		product := snap.Product(line.ProductID)
		requested[stockKey(product, line.CartItem)] += stockUnits(product, line)
	}

	lines := make([]pricedLine, 0, len(enriched))
	for _, line := range enriched {
		product := snap.Product(line.ProductID)
		if product.HasVariations && variationOf(product, line.VariationID) == nil {
			return nil, &LineError{ProductID: line.ProductID, VariationID: line.VariationID, Requested: line.Quantity, Err: ErrProductUnavailable}
		}

		pl := pricedLine{line: line, product: product}
		want := requested[stockKey(product, line.CartItem)]
		res := catalog.ResolveStock(product, want, line.VariationID)
		switch {
		case res.UnlimitedStock, line.UnlimitedStock:
		case isVolume(product):
			// A volume product is sold by weight; without one it cannot be sold.
			if line.WeightInfo == nil || line.WeightInfo.TotalWeight <= 0 {
				return nil, &LineError{ProductID: line.ProductID, VariationID: line.VariationID, Requested: line.Quantity, Err: ErrProductUnavailable}
			}
			if want > res.AvailableStock {
				return nil, &LineError{ProductID: line.ProductID, VariationID: line.VariationID, Requested: want, Available: res.AvailableStock, Err: ErrOutOfStock}
			}
			pl.trackVol = true
		case !res.IsAvailable:
			return nil, &LineError{ProductID: line.ProductID, VariationID: line.VariationID, Requested: want, Available: res.AvailableStock, Err: ErrOutOfStock}
		default:
			pl.trackUnit = true
		}

		qty := decimal.NewFromInt(int64(line.Quantity))
		price := decimal.NewFromFloat(line.Price)
		pl.unitPrice = applyDiscount(price, line.Discount)
		pl.gross = price.Mul(qty)
		pl.lineTotal = pl.unitPrice.Mul(qty)
		lines = append(lines, pl)
	}
	return lines, nil
}

func applyDiscount(price decimal.Decimal, percent *float64) decimal.Decimal {
	if percent == nil || *percent <= 0 {
		return price
	}
	hundred := decimal.NewFromInt(100)
	d := decimal.NewFromFloat(*percent)
	if d.GreaterThan(hundred) {
		d = hundred
	}
	return price.Mul(hundred.Sub(d)).Div(hundred).Round(2)
}

func decrementStock(tx *gorm.DB, pl pricedLine) error {
	qty := pl.line.Quantity
	switch {
	case pl.trackUnit && pl.line.VariationID != nil && variationOf(pl.product, pl.line.VariationID) != nil:
		err := tx.Model(&domain.ProductVariation{}).
			Where("id = ?", *pl.line.VariationID).
			Update("stock", gorm.Expr("stock - ?", qty)).Error
		return errors.Wrap(err, "decrement variation stock")
	case pl.trackUnit:
		err := tx.Model(&domain.Product{}).
			Where("id = ?", pl.line.ProductID).
			Update("stock", gorm.Expr("stock - ?", qty)).Error
		return errors.Wrap(err, "decrement product stock")
	case pl.trackVol:
		var row domain.Product
		if err := tx.Select("id", "volume").Where("id = ?", pl.line.ProductID).First(&row).Error; err != nil {
			return errors.Wrap(err, "read product volume")
		}
		current, _ := common.ParseLeadingInt(row.Volume)
		remaining := current - pl.line.WeightInfo.TotalWeight*qty
		if remaining < 0 {
			remaining = 0
		}
		err := tx.Model(&domain.Product{}).
			Where("id = ?", pl.line.ProductID).
			Update("volume", strconv.Itoa(remaining)).Error
		return errors.Wrap(err, "decrement product volume")
	}
	return nil
}

// UpdateStatus moves an order to status.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*domain.Order, error) {
	valid := false
	for _, st := range domain.OrderStatuses {
		if st == status {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidStatus
	}
	var order domain.Order
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&order).Updates(map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}).Error; err != nil {
		return nil, errors.Wrap(err, "update order status")
	}
	order.Status = status
	return &order, nil
}

func variationOf(p *catalog.Product, id *int64) *catalog.Variation {
	if id == nil {
		return nil
	}
	return p.Variation(*id)
}

func isVolume(p *catalog.Product) bool {
	return p.HasVolume && p.Volume != ""
}

// stockKey names the stock a line draws on: the product's volume, a matched
// variation, or the product itself.
func stockKey(p *catalog.Product, item catalog.CartItem) string {
	if !isVolume(p) && variationOf(p, item.VariationID) != nil {
		return fmt.Sprintf("%d:%d", item.ProductID, *item.VariationID)
	}
	return strconv.FormatInt(item.ProductID, 10)
}

func stockUnits(p *catalog.Product, line catalog.EnrichedCartItem) int {
	if isVolume(p) && line.WeightInfo != nil {
		return line.WeightInfo.TotalWeight * line.Quantity
	}
	return line.Quantity
}

func formatAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+attrs[k])
	}
	return strings.Join(parts, ", ")
}

func newOrderNo() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return time.Now().Format("20060102") + "-" + id[:10]
}
