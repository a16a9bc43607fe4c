// Package shopapi serves the public storefront: catalog reads, stock checks,
// cart enrichment and checkout.
package shopapi

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/studiocraft/storefront/internal/app"
	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/webserver"
)

// Init registers the storefront routes
func Init() {
	webserver.ApiGET("/shop/catalog", getCatalog)
	webserver.ApiGET("/shop/products/:slug", getProductBySlug)
	webserver.ApiGET("/shop/categories", listCategories)
	webserver.ApiGET("/shop/posts", listPublishedPosts)
	webserver.ApiGET("/shop/posts/:slug", getPublishedPost)
	webserver.ApiPOST("/shop/stock/validate", validateStock)
	webserver.ApiPOST("/shop/cart/enrich", enrichCart)
	webserver.ApiPOST("/shop/cart/step", stepCartItem)
	webserver.ApiPOST("/shop/orders", placeOrder)
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func snapshot(c echo.Context) (*catalog.Snapshot, error) {
	return GetAppContext(c).Snapshots().Get(c.Request().Context())
}

func catalogUnavailable(c echo.Context, err error) error {
	return webserver.Fail(c, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "Catalog is temporarily unavailable", err.Error())
}

func validationFailed(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Namespace()] = fe.Tag()
		}
		return webserver.Fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", details)
	}
	return webserver.Fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
}
