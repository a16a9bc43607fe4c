package catalog

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type failingSource struct{ calls int }

func (f *failingSource) ProductByID(context.Context, int64) (*Product, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

type nilSource struct{}

func (nilSource) ProductByID(context.Context, int64) (*Product, error) { return nil, nil }

func TestValidateStock(t *testing.T) {
	resolver := NewStockResolver(testSnapshot())
	ctx := context.Background()

	tests := []struct {
		name      string
		productID int64
		quantity  int
		variation *int64
		want      StockValidationResult
	}{
		{"plain product over stock", 1, 4, nil, StockValidationResult{IsAvailable: false, AvailableStock: 3}},
		{"plain product exact stock", 1, 3, nil, StockValidationResult{IsAvailable: true, AvailableStock: 3}},
		{"plain product default quantity", 1, 1, nil, StockValidationResult{IsAvailable: true, AvailableStock: 3}},
		{"variation in stock", 2, 2, int64Ptr(21), StockValidationResult{IsAvailable: true, AvailableStock: 4}},
		{"variation out of stock", 2, 1, int64Ptr(22), StockValidationResult{IsAvailable: false, AvailableStock: 0}},
		{"unknown variation falls back to product", 1, 1, int64Ptr(999), StockValidationResult{IsAvailable: true, AvailableStock: 3}},
		{"variable product without variation uses product stock", 2, 1, nil, StockValidationResult{IsAvailable: false, AvailableStock: 0}},
		{"volume ignores quantity", 3, 100000, nil, StockValidationResult{IsAvailable: true, AvailableStock: 500}},
		{"unlimited", 5, 1000000, nil, StockValidationResult{IsAvailable: true, AvailableStock: UnlimitedQuantity, UnlimitedStock: true}},
		{"unlimited ignores variation", 5, 3, int64Ptr(51), StockValidationResult{IsAvailable: true, AvailableStock: UnlimitedQuantity, UnlimitedStock: true}},
		{"missing product", 404, 1, nil, StockValidationResult{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolver.ValidateStock(ctx, tt.productID, tt.quantity, tt.variation)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateStockLookupFailure(t *testing.T) {
	src := &failingSource{}
	got := NewStockResolver(src).ValidateStock(context.Background(), 1, 1, nil)
	assert.Equal(t, StockValidationResult{IsAvailable: false, AvailableStock: 0, UnlimitedStock: false}, got)
	assert.Equal(t, 1, src.calls)
}

func TestValidateStockNilProduct(t *testing.T) {
	got := NewStockResolver(nilSource{}).ValidateStock(context.Background(), 1, 1, nil)
	assert.Equal(t, StockValidationResult{}, got)
}

func TestResolveStockVolumeUnparsable(t *testing.T) {
	p := &Product{ID: 9, HasVolume: true, Volume: "about a kilo", Stock: 7}
	assert.Equal(t, StockValidationResult{IsAvailable: true, AvailableStock: 0}, ResolveStock(p, 1, nil))
}

func TestResolveStockVolumeFlagWithoutVolume(t *testing.T) {
	p := &Product{ID: 9, HasVolume: true, Stock: 2}
	assert.Equal(t, StockValidationResult{IsAvailable: false, AvailableStock: 2}, ResolveStock(p, 3, nil))
}

func TestUnlimitedProductsAlwaysAvailable(t *testing.T) {
	p := &Product{ID: 1, UnlimitedStock: true, HasVolume: true, Volume: "10", Stock: 0}
	for _, qty := range []int{1, 2, 50, 1 << 20} {
		got := ResolveStock(p, qty, int64Ptr(int64(qty)))
		assert.True(t, got.IsAvailable)
		assert.True(t, got.UnlimitedStock)
		assert.Equal(t, UnlimitedQuantity, got.AvailableStock)
	}
}
