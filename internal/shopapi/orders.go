package shopapi

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studiocraft/storefront/internal/orders"
	"github.com/studiocraft/storefront/internal/webserver"
	"go.uber.org/zap"
)

func placeOrder(c echo.Context) error {
	appCtx := GetAppContext(c)
	if !appCtx.ConfigMgr().GetBool("shop", "checkout_enabled") {
		return webserver.Fail(c, http.StatusServiceUnavailable, "CHECKOUT_DISABLED", "Checkout is currently disabled", nil)
	}

	var req orders.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	order, err := appCtx.Orders().PlaceOrder(c.Request().Context(), req)
	if err == nil {
		return c.JSON(http.StatusCreated, webserver.Response{Code: "OK", Data: order})
	}

	var lineErr *orders.LineError
	details := interface{}(nil)
	if errors.As(err, &lineErr) {
		details = map[string]interface{}{
			"productId":   lineErr.ProductID,
			"variationId": lineErr.VariationID,
			"requested":   lineErr.Requested,
			"available":   lineErr.Available,
		}
	}

	switch {
	case errors.Is(err, orders.ErrEmptyCart):
		return webserver.Fail(c, http.StatusBadRequest, "EMPTY_CART", "Cart is empty", nil)
	case errors.Is(err, orders.ErrInvalidQuantity):
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_QUANTITY", "Quantity must be at least 1", details)
	case errors.Is(err, orders.ErrMissingCustomer):
		return webserver.Fail(c, http.StatusBadRequest, "MISSING_CUSTOMER", "Customer name and email are required", nil)
	case errors.Is(err, orders.ErrOutOfStock):
		return webserver.Fail(c, http.StatusConflict, "OUT_OF_STOCK", "Not enough stock", details)
	case errors.Is(err, orders.ErrProductUnavailable):
		return webserver.Fail(c, http.StatusConflict, "PRODUCT_UNAVAILABLE", "Product is no longer available", details)
	}
	zap.L().Error("place order failed", zap.String("namespace", "shopapi"), zap.Error(err))
	return webserver.Fail(c, http.StatusInternalServerError, "ORDER_FAILED", "Failed to place order", nil)
}
