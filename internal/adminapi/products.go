package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
	"github.com/studiocraft/storefront/pkg/common"
)

type productPayload struct {
	Slug           string             `json:"slug" validate:"required,min=1,max=200"`
	Name           string             `json:"name" validate:"required,min=1,max=200"`
	Description    string             `json:"description"`
	Price          float64            `json:"price" validate:"gte=0"`
	Discount       *float64           `json:"discount" validate:"omitempty,gte=0,lte=100"`
	UnlimitedStock bool               `json:"unlimited_stock"`
	HasVolume      bool               `json:"has_volume"`
	Volume         string             `json:"volume" validate:"omitempty,max=32"`
	Stock          int                `json:"stock" validate:"gte=0"`
	Weight         string             `json:"weight" validate:"omitempty,max=32"`
	Images         string             `json:"images" validate:"omitempty,max=2048"`
	CategorySlug   string             `json:"category_slug" validate:"omitempty,max=100"`
	BrandSlug      string             `json:"brand_slug" validate:"omitempty,max=100"`
	Status         string             `json:"status" validate:"omitempty,oneof=enabled disabled"`
	TeaCategories  []string           `json:"tea_categories"`
	Variations     []variationPayload `json:"variations" validate:"dive"`
}

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/admin/catalog/products", listProducts)
	webserver.ApiGET("/admin/catalog/products/:id", getProduct)
	webserver.ApiPOST("/admin/catalog/products", createProduct)
	webserver.ApiPUT("/admin/catalog/products/:id", updateProduct)
	webserver.ApiDELETE("/admin/catalog/products/:id", deleteProduct)
}

func listProducts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	// whitelist allowed sort columns to avoid SQL injection
	allowed := map[string]string{
		"id":         "id",
		"name":       "name",
		"price":      "price",
		"stock":      "stock",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}

	db := likeFilter(GetDB(c).Model(&domain.Product{}), c.QueryParam("q"), "name", "slug")
	if category := strings.TrimSpace(c.QueryParam("category")); category != "" {
		db = db.Where("category_slug = ?", category)
	}
	if brand := strings.TrimSpace(c.QueryParam("brand")); brand != "" {
		db = db.Where("brand_slug = ?", brand)
	}
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	var rows []domain.Product
	if err := db.Order(sortOrder(c, allowed, "id")).Offset((page-1)*pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	return paged(c, rows, total, page, pageSize)
}

func loadProduct(db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.
		Preload("Variations", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC, id ASC") }).
		Preload("Variations.Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC, id ASC") }).
		Preload("TeaCategories").
		Where("id = ?", id).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := loadProduct(GetDB(c), id)
	if err != nil {
		return notFoundOr(c, err, "PRODUCT_NOT_FOUND", "Product")
	}
	return ok(c, p)
}

func resolveTeaCategories(db *gorm.DB, slugs []string) ([]domain.TeaCategory, error) {
	if len(slugs) == 0 {
		return nil, nil
	}
	var rows []domain.TeaCategory
	if err := db.Where("slug IN ?", slugs).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) != len(slugs) {
		return nil, fmt.Errorf("unknown tea category in %v", slugs)
	}
	return rows, nil
}

func (p productPayload) apply(dst *domain.Product) {
	dst.Slug = strings.TrimSpace(p.Slug)
	dst.Name = strings.TrimSpace(p.Name)
	dst.Description = p.Description
	dst.Price = p.Price
	dst.Discount = p.Discount
	dst.UnlimitedStock = p.UnlimitedStock
	dst.HasVolume = p.HasVolume
	dst.Volume = strings.TrimSpace(p.Volume)
	dst.Stock = p.Stock
	dst.Weight = strings.TrimSpace(p.Weight)
	dst.Images = strings.Join(common.SplitTrim(p.Images, ","), ",")
	dst.CategorySlug = strings.TrimSpace(p.CategorySlug)
	dst.BrandSlug = strings.TrimSpace(p.BrandSlug)
	dst.Status = common.IfEmptyStr(p.Status, common.ENABLED)
}

func createProduct(c echo.Context) error {
	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)
	var exists int64
	db.Model(&domain.Product{}).Where("slug = ?", strings.TrimSpace(payload.Slug)).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "PRODUCT_EXISTS", "Product slug already exists", nil)
	}

	teas, err := resolveTeaCategories(db, payload.TeaCategories)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown tea category", err.Error())
	}

	now := time.Now()
	p := domain.Product{CreatedAt: now, UpdatedAt: now, TeaCategories: teas}
	payload.apply(&p)
	for _, vp := range payload.Variations {
		v := domain.ProductVariation{CreatedAt: now, UpdatedAt: now}
		vp.apply(&v)
		p.Variations = append(p.Variations, v)
	}
	p.HasVariations = len(p.Variations) > 0

	if err := db.Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create product", err.Error())
	}
	catalogChanged(c, "product_create", "create product "+p.Slug)

	created, err := loadProduct(db, p.ID)
	if err != nil {
		return notFoundOr(c, err, "PRODUCT_NOT_FOUND", "Product")
	}
	return ok(c, created)
}

func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var payload productPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)
	var p domain.Product
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return notFoundOr(c, err, "PRODUCT_NOT_FOUND", "Product")
	}

	slug := strings.TrimSpace(payload.Slug)
	if slug != p.Slug {
		var exists int64
		db.Model(&domain.Product{}).Where("slug = ? AND id != ?", slug, id).Count(&exists)
		if exists > 0 {
			return fail(c, http.StatusConflict, "PRODUCT_EXISTS", "Product slug already exists", nil)
		}
	}

	teas, err := resolveTeaCategories(db, payload.TeaCategories)
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown tea category", err.Error())
	}

	payload.apply(&p)
	p.UpdatedAt = time.Now()

	err = db.Transaction(func(tx *gorm.DB) error {
		var variations int64
		tx.Model(&domain.ProductVariation{}).Where("product_id = ?", p.ID).Count(&variations)
		p.HasVariations = variations > 0
		if err := tx.Save(&p).Error; err != nil {
			return err
		}
		if len(teas) == 0 {
			return tx.Model(&p).Association("TeaCategories").Clear()
		}
		return tx.Model(&p).Association("TeaCategories").Replace(teas)
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update product", err.Error())
	}
	catalogChanged(c, "product_update", "update product "+p.Slug)

	updated, err := loadProduct(db, p.ID)
	if err != nil {
		return notFoundOr(c, err, "PRODUCT_NOT_FOUND", "Product")
	}
	return ok(c, updated)
}

func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	db := GetDB(c)
	var p domain.Product
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return notFoundOr(c, err, "PRODUCT_NOT_FOUND", "Product")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&p).Association("TeaCategories").Clear(); err != nil {
			return err
		}
		var variationIDs []int64
		tx.Model(&domain.ProductVariation{}).Where("product_id = ?", id).Pluck("id", &variationIDs)
		if len(variationIDs) > 0 {
			if err := tx.Where("variation_id IN ?", variationIDs).Delete(&domain.VariationAttribute{}).Error; err != nil {
				return err
			}
			if err := tx.Where("product_id = ?", id).Delete(&domain.ProductVariation{}).Error; err != nil {
				return err
			}
		}
		res := tx.Where("id = ?", id).Delete(&domain.Product{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete product", err.Error())
	}
	catalogChanged(c, "product_delete", "delete product "+p.Slug)

	return ok(c, map[string]interface{}{"id": id})
}
