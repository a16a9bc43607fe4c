package adminapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"github.com/studiocraft/storefront/internal/app"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
	"github.com/studiocraft/storefront/pkg/common"
	"go.uber.org/zap"
)

// Init registers all admin routes on the web server
func Init() {
	registerProductRoutes()
	registerVariationRoutes()
	registerAttributeRoutes()
	registerTaxonomyRoutes()
	registerPostRoutes()
	registerOrderRoutes()
	registerTransferRoutes()
	registerDashboardRoutes()
	registerSettingsRoutes()
	registerSystemRoutes()
}

func GetAppContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

func GetDB(c echo.Context) *gorm.DB {
	return GetAppContext(c).DB().WithContext(c.Request().Context())
}

func ok(c echo.Context, data interface{}) error {
	return webserver.OK(c, data)
}

func fail(c echo.Context, status int, code, message string, details interface{}) error {
	return webserver.Fail(c, status, code, message, details)
}

func paged(c echo.Context, data interface{}, total int64, page, pageSize int) error {
	return webserver.Paged(c, data, total, page, pageSize)
}

// parsePagination reads page and perPage (or pageSize), defaults 1 and 20
func parsePagination(c echo.Context) (int, int) {
	page := cast.ToInt(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize := cast.ToInt(c.QueryParam("perPage"))
	if pageSize == 0 {
		pageSize = cast.ToInt(c.QueryParam("pageSize"))
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}
	return page, pageSize
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// handleValidationError maps validator errors to a 400 response
func handleValidationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			details[fe.Field()] = fe.Tag()
		}
		return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", details)
	}
	return fail(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
}

// likeFilter applies a case insensitive contains match on the given columns
func likeFilter(db *gorm.DB, q string, columns ...string) *gorm.DB {
	q = strings.TrimSpace(q)
	if q == "" || len(columns) == 0 {
		return db
	}
	op := "LOWER(%s) LIKE ?"
	arg := "%" + strings.ToLower(q) + "%"
	if strings.EqualFold(db.Name(), "postgres") { //nolint:staticcheck
		op = "%s ILIKE ?"
		arg = "%" + q + "%"
	}
	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, strings.Replace(op, "%s", col, 1))
		args = append(args, arg)
	}
	return db.Where(strings.Join(conds, " OR "), args...)
}

// sortOrder returns a whitelisted "column direction" clause
func sortOrder(c echo.Context, allowed map[string]string, fallback string) string {
	col, found := allowed[strings.TrimSpace(c.QueryParam("sort"))]
	if !found || col == "" {
		col = fallback
	}
	order := strings.ToUpper(strings.TrimSpace(c.QueryParam("order")))
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	return col + " " + order
}

// logOperation records an admin write in sys_opr_log
func logOperation(c echo.Context, action, desc string) {
	entry := domain.SysOprLog{
		ID:        common.UUIDint64(),
		OprName:   common.IfEmptyStr(c.Request().Header.Get("X-Operator"), "admin"),
		OprIp:     c.RealIP(),
		OptAction: action,
		OptDesc:   desc,
		OptTime:   time.Now(),
	}
	if err := GetDB(c).Create(&entry).Error; err != nil {
		zap.L().Warn("write operation log failed", zap.String("namespace", "adminapi"), zap.Error(err))
	}
}

// catalogChanged logs the write and drops cached catalog snapshots
func catalogChanged(c echo.Context, action, desc string) {
	logOperation(c, action, desc)
	GetAppContext(c).PublishCatalogChanged()
}

func notFoundOr(c echo.Context, err error, code, label string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, code, label+" not found", nil)
	}
	return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query "+strings.ToLower(label), err.Error())
}
