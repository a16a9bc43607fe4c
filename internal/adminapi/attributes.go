package adminapi

import (
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
)

type attributePayload struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=100"`
}

func registerAttributeRoutes() {
	webserver.ApiGET("/admin/catalog/attributes", listAttributes)
	webserver.ApiGET("/admin/catalog/attributes/:id", getAttribute)
	webserver.ApiPOST("/admin/catalog/attributes", createAttribute)
	webserver.ApiPUT("/admin/catalog/attributes/:id", updateAttribute)
	webserver.ApiDELETE("/admin/catalog/attributes/:id", deleteAttribute)
}

func listAttributes(c echo.Context) error {
	var rows []domain.Attribute
	db := likeFilter(GetDB(c).Model(&domain.Attribute{}), c.QueryParam("q"), "name")
	if err := db.Order("name ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query attributes", err.Error())
	}
	return ok(c, rows)
}

func getAttribute(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid attribute ID", nil)
	}
	var a domain.Attribute
	if err := GetDB(c).Where("id = ?", id).First(&a).Error; err != nil {
		return notFoundOr(c, err, "ATTRIBUTE_NOT_FOUND", "Attribute")
	}
	return ok(c, a)
}

func createAttribute(c echo.Context) error {
	var payload attributePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse attribute", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}
	name := strings.TrimSpace(payload.Name)

	var exists int64
	GetDB(c).Model(&domain.Attribute{}).Where("name = ?", name).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "ATTRIBUTE_EXISTS", "Attribute name already exists", nil)
	}

	a := domain.Attribute{
		Name:      name,
		Slug:      slugOr(payload.Slug, name),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := GetDB(c).Create(&a).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create attribute", err.Error())
	}
	logOperation(c, "attribute_create", "create attribute "+a.Name)
	return ok(c, a)
}

func updateAttribute(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid attribute ID", nil)
	}
	var payload attributePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse attribute", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var a domain.Attribute
	if err := GetDB(c).Where("id = ?", id).First(&a).Error; err != nil {
		return notFoundOr(c, err, "ATTRIBUTE_NOT_FOUND", "Attribute")
	}
	name := strings.TrimSpace(payload.Name)
	if name != a.Name {
		var exists int64
		GetDB(c).Model(&domain.Attribute{}).Where("name = ? AND id != ?", name, id).Count(&exists)
		if exists > 0 {
			return fail(c, http.StatusConflict, "ATTRIBUTE_EXISTS", "Attribute name already exists", nil)
		}
	}
	a.Name = name
	a.Slug = slugOr(payload.Slug, name)
	a.UpdatedAt = time.Now()
	if err := GetDB(c).Save(&a).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update attribute", err.Error())
	}
	// attribute names are part of the cached catalog
	catalogChanged(c, "attribute_update", "update attribute "+a.Name)
	return ok(c, a)
}

func deleteAttribute(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid attribute ID", nil)
	}

	var inUse int64
	GetDB(c).Model(&domain.VariationAttribute{}).Where("attribute_id = ?", id).Count(&inUse)
	if inUse > 0 {
		return fail(c, http.StatusConflict, "ATTRIBUTE_IN_USE", "Attribute is used by product variations", map[string]interface{}{"variation_count": inUse})
	}

	res := GetDB(c).Where("id = ?", id).Delete(&domain.Attribute{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete attribute", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "ATTRIBUTE_NOT_FOUND", "Attribute not found", nil)
	}
	logOperation(c, "attribute_delete", "delete attribute")
	return ok(c, map[string]interface{}{"id": id})
}

// slugOr returns slug lowercased, or a slug derived from name with accents
// folded ("Crème brûlée" -> "creme-brulee").
func slugOr(slug, name string) string {
	if s := strings.TrimSpace(slug); s != "" {
		return strings.ToLower(s)
	}
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, name)
	if err != nil {
		folded = name
	}
	fields := strings.FieldsFunc(strings.ToLower(folded), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return strings.Join(fields, "-")
}
