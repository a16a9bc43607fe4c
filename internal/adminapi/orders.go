package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/orders"
	"github.com/studiocraft/storefront/internal/webserver"
)

type orderStatusPayload struct {
	Status string `json:"status" validate:"required"`
}

func registerOrderRoutes() {
	webserver.ApiGET("/admin/orders", listOrders)
	webserver.ApiGET("/admin/orders/:id", getOrder)
	webserver.ApiPUT("/admin/orders/:id/status", updateOrderStatus)
}

// parseDateParam accepts any date layout dateparse understands
func parseDateParam(c echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(v, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// orderFilter applies the status, q, from and to query parameters
func orderFilter(c echo.Context, db *gorm.DB) (*gorm.DB, error) {
	db = likeFilter(db, c.QueryParam("q"), "order_no", "email", "customer_name")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	from, err := parseDateParam(c, "from")
	if err != nil {
		return nil, err
	}
	if from != nil {
		db = db.Where("created_at >= ?", *from)
	}
	to, err := parseDateParam(c, "to")
	if err != nil {
		return nil, err
	}
	if to != nil {
		db = db.Where("created_at <= ?", *to)
	}
	return db, nil
}

func listOrders(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db, err := orderFilter(c, GetDB(c).Model(&domain.Order{}))
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date filter", err.Error())
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	var rows []domain.Order
	order := sortOrder(c, map[string]string{"created_at": "created_at", "total": "total", "status": "status"}, "created_at")
	if err := db.Order(order).Offset((page-1)*pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getOrder(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var o domain.Order
	if err := GetDB(c).Preload("Items").Where("id = ?", id).First(&o).Error; err != nil {
		return notFoundOr(c, err, "ORDER_NOT_FOUND", "Order")
	}
	return ok(c, o)
}

func updateOrderStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid order ID", nil)
	}
	var payload orderStatusPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse order status", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	o, err := GetAppContext(c).Orders().UpdateStatus(c.Request().Context(), id, strings.TrimSpace(payload.Status))
	switch {
	case errors.Is(err, orders.ErrInvalidStatus):
		return fail(c, http.StatusBadRequest, "INVALID_STATUS", "Invalid order status", domain.OrderStatuses)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fail(c, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found", nil)
	case err != nil:
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update order", err.Error())
	}
	logOperation(c, "order_status", "order "+o.OrderNo+" -> "+o.Status)
	return ok(c, o)
}
