package shopapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/webserver"
	"github.com/studiocraft/storefront/pkg/metrics"
)

type stockRequest struct {
	ProductID   int64  `json:"productId" validate:"required"`
	Quantity    *int   `json:"quantity" validate:"omitempty,min=1"`
	VariationID *int64 `json:"variationId"`
}

// validateStock reads live stock from the database, not from the snapshot
func validateStock(c echo.Context) error {
	var req stockRequest
	if err := c.Bind(&req); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	metrics.Incr(metrics.StockChecks)
	res := GetAppContext(c).StockResolver().ValidateStock(c.Request().Context(), req.ProductID, quantity, req.VariationID)
	return webserver.OK(c, res)
}

type enrichRequest struct {
	Items []catalog.CartItem `json:"items"`
}

func enrichCart(c echo.Context) error {
	var req enrichRequest
	if err := c.Bind(&req); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	snap, err := snapshot(c)
	if err != nil {
		return catalogUnavailable(c, err)
	}

	metrics.Incr(metrics.CartEnrichments)
	return webserver.OK(c, GetAppContext(c).Enricher().Enrich(req.Items, snap))
}

type stepRequest struct {
	Item   catalog.CartItem `json:"item"`
	Action string           `json:"action" validate:"required,oneof=increment decrement"`
}

type stepResponse struct {
	Quantity int  `json:"quantity"`
	Min      int  `json:"min"`
	Max      int  `json:"max"`
	Changed  bool `json:"changed"`
}

// stepCartItem moves a cart line quantity by one within its stock bounds
func stepCartItem(c echo.Context) error {
	var req stepRequest
	if err := c.Bind(&req); err != nil {
		return webserver.Fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse request", err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}
	snap, err := snapshot(c)
	if err != nil {
		return catalogUnavailable(c, err)
	}

	lines := GetAppContext(c).Enricher().Enrich([]catalog.CartItem{req.Item}, snap)
	if len(lines) == 0 {
		return webserver.Fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}

	stepper := catalog.NewQuantityStepper(req.Item.Quantity, 1, catalog.StepCeiling(lines[0]))
	var changed bool
	if req.Action == "increment" {
		changed = stepper.Increment()
	} else {
		changed = stepper.Decrement()
	}
	return webserver.OK(c, stepResponse{
		Quantity: stepper.Quantity,
		Min:      stepper.Min,
		Max:      stepper.Max,
		Changed:  changed,
	})
}
