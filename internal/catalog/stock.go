package catalog

import (
	"context"

	"github.com/pkg/errors"
	"github.com/studiocraft/storefront/pkg/common"
	"go.uber.org/zap"
)

// StockResolver answers whether a quantity of a product (or one of its
// variations) can be fulfilled.
type StockResolver struct {
	source ProductSource
}

func NewStockResolver(source ProductSource) *StockResolver {
	return &StockResolver{source: source}
}

func notFoundResult() StockValidationResult {
	return StockValidationResult{IsAvailable: false, AvailableStock: 0, UnlimitedStock: false}
}

// ValidateStock applies the first matching rule:
//
//  1. unknown product (or failed lookup): not available, zero stock
//  2. unlimited product: always available
//  3. volume based product: available, stock is the remaining volume
//  4. known variation: variation stock
//  5. otherwise: product stock
//
// Volume based goods are sold by weight, so the remaining volume cannot be
// compared with a unit quantity here. The caller knows the weight consumed by
// the order and makes the final decision.
//
// requestedQuantity is expected to be >= 1.
func (r *StockResolver) ValidateStock(ctx context.Context, productID int64, requestedQuantity int, variationID *int64) StockValidationResult {
	product, err := r.source.ProductByID(ctx, productID)
	if err != nil {
		if !errors.Is(err, ErrProductNotFound) {
			zap.L().Error("stock lookup failed",
				zap.String("namespace", "catalog"),
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
		return notFoundResult()
	}
	return ResolveStock(product, requestedQuantity, variationID)
}

// ResolveStock evaluates the stock rules against an already loaded product.
func ResolveStock(product *Product, requestedQuantity int, variationID *int64) StockValidationResult {
	if product == nil {
		return notFoundResult()
	}

	if product.UnlimitedStock {
		return StockValidationResult{IsAvailable: true, AvailableStock: UnlimitedQuantity, UnlimitedStock: true}
	}

	if product.HasVolume && product.Volume != "" {
		volume, _ := common.ParseLeadingInt(product.Volume)
		return StockValidationResult{IsAvailable: true, AvailableStock: volume, UnlimitedStock: false}
	}

	if variationID != nil {
		if v := product.Variation(*variationID); v != nil {
			return StockValidationResult{
				IsAvailable:    v.Stock >= requestedQuantity,
				AvailableStock: v.Stock,
				UnlimitedStock: false,
			}
		}
	}

	return StockValidationResult{
		IsAvailable:    product.Stock >= requestedQuantity,
		AvailableStock: product.Stock,
		UnlimitedStock: false,
	}
}
