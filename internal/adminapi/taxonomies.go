package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
)

// Categories, brands and tea categories share the same shape and handlers.

type taxonomyPayload struct {
	Slug        string `json:"slug" validate:"omitempty,max=100"`
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Image       string `json:"image" validate:"omitempty,max=1024"`
	Sort        int    `json:"sort"`
}

type taxonFields struct {
	ID          *int64
	Slug        *string
	Name        *string
	Description *string
	Image       *string // nil when the model has no image
	Sort        *int
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
}

type taxonomy[T any] struct {
	path   string
	label  string
	code   string
	fields func(*T) taxonFields
	// usage counts the products referencing the row
	usage func(db *gorm.DB, row *T) int64
	// rename moves product references to a new slug
	rename func(tx *gorm.DB, from, to string) error
}

func registerTaxonomyRoutes() {
	categories := taxonomy[domain.Category]{
		path:  "/admin/catalog/categories",
		label: "Category",
		code:  "CATEGORY",
		fields: func(r *domain.Category) taxonFields {
			return taxonFields{&r.ID, &r.Slug, &r.Name, &r.Description, &r.Image, &r.Sort, &r.CreatedAt, &r.UpdatedAt}
		},
		usage: func(db *gorm.DB, r *domain.Category) int64 {
			var n int64
			db.Model(&domain.Product{}).Where("category_slug = ?", r.Slug).Count(&n)
			return n
		},
		rename: func(tx *gorm.DB, from, to string) error {
			return tx.Model(&domain.Product{}).Where("category_slug = ?", from).Update("category_slug", to).Error
		},
	}
	brands := taxonomy[domain.Brand]{
		path:  "/admin/catalog/brands",
		label: "Brand",
		code:  "BRAND",
		fields: func(r *domain.Brand) taxonFields {
			return taxonFields{&r.ID, &r.Slug, &r.Name, &r.Description, &r.Image, &r.Sort, &r.CreatedAt, &r.UpdatedAt}
		},
		usage: func(db *gorm.DB, r *domain.Brand) int64 {
			var n int64
			db.Model(&domain.Product{}).Where("brand_slug = ?", r.Slug).Count(&n)
			return n
		},
		rename: func(tx *gorm.DB, from, to string) error {
			return tx.Model(&domain.Product{}).Where("brand_slug = ?", from).Update("brand_slug", to).Error
		},
	}
	teas := taxonomy[domain.TeaCategory]{
		path:  "/admin/catalog/tea-categories",
		label: "Tea category",
		code:  "TEA_CATEGORY",
		fields: func(r *domain.TeaCategory) taxonFields {
			return taxonFields{&r.ID, &r.Slug, &r.Name, &r.Description, nil, &r.Sort, &r.CreatedAt, &r.UpdatedAt}
		},
		usage: func(db *gorm.DB, r *domain.TeaCategory) int64 {
			var n int64
			db.Table("product_tea_categories").Where("tea_category_id = ?", r.ID).Count(&n)
			return n
		},
	}

	categories.register()
	brands.register()
	teas.register()
}

func (t taxonomy[T]) register() {
	webserver.ApiGET(t.path, t.list)
	webserver.ApiGET(t.path+"/:id", t.get)
	webserver.ApiPOST(t.path, t.create)
	webserver.ApiPUT(t.path+"/:id", t.update)
	webserver.ApiDELETE(t.path+"/:id", t.remove)
}

func (t taxonomy[T]) list(c echo.Context) error {
	var rows []T
	db := likeFilter(GetDB(c).Model(new(T)), c.QueryParam("q"), "name", "slug")
	if err := db.Order("sort ASC, name ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query "+strings.ToLower(t.label), err.Error())
	}
	return ok(c, rows)
}

func (t taxonomy[T]) get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+strings.ToLower(t.label)+" ID", nil)
	}
	row := new(T)
	if err := GetDB(c).Where("id = ?", id).First(row).Error; err != nil {
		return notFoundOr(c, err, t.code+"_NOT_FOUND", t.label)
	}
	return ok(c, row)
}

func (t taxonomy[T]) apply(row *T, payload taxonomyPayload) {
	f := t.fields(row)
	*f.Name = strings.TrimSpace(payload.Name)
	*f.Slug = slugOr(payload.Slug, payload.Name)
	*f.Description = payload.Description
	if f.Image != nil {
		*f.Image = strings.TrimSpace(payload.Image)
	}
	*f.Sort = payload.Sort
	*f.UpdatedAt = time.Now()
}

func (t taxonomy[T]) slugTaken(db *gorm.DB, slug string, exceptID int64) bool {
	var exists int64
	db.Model(new(T)).Where("slug = ? AND id != ?", slug, exceptID).Count(&exists)
	return exists > 0
}

func (t taxonomy[T]) create(c echo.Context) error {
	var payload taxonomyPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse "+strings.ToLower(t.label), err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	row := new(T)
	t.apply(row, payload)
	f := t.fields(row)
	*f.CreatedAt = *f.UpdatedAt
	if *f.Slug == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Slug is required", nil)
	}
	if t.slugTaken(GetDB(c), *f.Slug, 0) {
		return fail(c, http.StatusConflict, t.code+"_EXISTS", t.label+" slug already exists", nil)
	}

	if err := GetDB(c).Create(row).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create "+strings.ToLower(t.label), err.Error())
	}
	logOperation(c, strings.ToLower(t.code)+"_create", "create "+strings.ToLower(t.label)+" "+*f.Slug)
	return ok(c, row)
}

func (t taxonomy[T]) update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+strings.ToLower(t.label)+" ID", nil)
	}
	var payload taxonomyPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse "+strings.ToLower(t.label), err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)
	row := new(T)
	if err := db.Where("id = ?", id).First(row).Error; err != nil {
		return notFoundOr(c, err, t.code+"_NOT_FOUND", t.label)
	}
	f := t.fields(row)
	oldSlug := *f.Slug
	t.apply(row, payload)
	if *f.Slug == "" {
		*f.Slug = oldSlug
	}
	if *f.Slug != oldSlug && t.slugTaken(db, *f.Slug, id) {
		return fail(c, http.StatusConflict, t.code+"_EXISTS", t.label+" slug already exists", nil)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(row).Error; err != nil {
			return err
		}
		if t.rename != nil && *f.Slug != oldSlug {
			return t.rename(tx, oldSlug, *f.Slug)
		}
		return nil
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update "+strings.ToLower(t.label), err.Error())
	}
	catalogChanged(c, strings.ToLower(t.code)+"_update", "update "+strings.ToLower(t.label)+" "+*f.Slug)
	return ok(c, row)
}

func (t taxonomy[T]) remove(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+strings.ToLower(t.label)+" ID", nil)
	}

	db := GetDB(c)
	row := new(T)
	if err := db.Where("id = ?", id).First(row).Error; err != nil {
		return notFoundOr(c, err, t.code+"_NOT_FOUND", t.label)
	}
	if n := t.usage(db, row); n > 0 {
		return fail(c, http.StatusConflict, t.code+"_IN_USE", t.label+" is in use by products and cannot be deleted",
			map[string]interface{}{"product_count": n})
	}
	if err := db.Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete "+strings.ToLower(t.label), err.Error())
	}
	logOperation(c, strings.ToLower(t.code)+"_delete", "delete "+strings.ToLower(t.label)+" "+*t.fields(row).Slug)
	return ok(c, map[string]interface{}{"id": id})
}
