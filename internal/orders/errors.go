package orders

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrMissingCustomer    = errors.New("customer name and email are required")
	ErrOutOfStock         = errors.New("insufficient stock")
	ErrProductUnavailable = errors.New("product no longer available")
	ErrInvalidStatus      = errors.New("invalid order status")
)

// LineError reports which cart line blocked checkout.
type LineError struct {
	ProductID   int64
	VariationID *int64
	Requested   int
	Available   int
	Err         error
}

func (e *LineError) Error() string {
	if e.VariationID != nil {
		return fmt.Sprintf("product %d variation %d: %v (requested %d, available %d)",
			e.ProductID, *e.VariationID, e.Err, e.Requested, e.Available)
	}
	return fmt.Sprintf("product %d: %v (requested %d, available %d)", e.ProductID, e.Err, e.Requested, e.Available)
}

func (e *LineError) Unwrap() error {
	return e.Err
}
