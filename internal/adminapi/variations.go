package adminapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
)

type variationAttributePayload struct {
	AttributeID int64  `json:"attribute_id" validate:"required"`
	Value       string `json:"value" validate:"required,max=100"`
}

type variationPayload struct {
	Sku        string                      `json:"sku" validate:"omitempty,max=100"`
	Price      float64                     `json:"price" validate:"gte=0"`
	Stock      int                         `json:"stock" validate:"gte=0"`
	Discount   *float64                    `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Sort       int                         `json:"sort"`
	Attributes []variationAttributePayload `json:"attributes" validate:"dive"`
}

func (p variationPayload) apply(dst *domain.ProductVariation) {
	dst.Sku = strings.TrimSpace(p.Sku)
	dst.Price = p.Price
	dst.Stock = p.Stock
	dst.Discount = p.Discount
	dst.Sort = p.Sort
	dst.Attributes = p.attributes()
}

// attributes keeps the payload order as the display order
func (p variationPayload) attributes() []domain.VariationAttribute {
	if len(p.Attributes) == 0 {
		return nil
	}
	out := make([]domain.VariationAttribute, 0, len(p.Attributes))
	for i, a := range p.Attributes {
		out = append(out, domain.VariationAttribute{
			AttributeID: a.AttributeID,
			Value:       strings.TrimSpace(a.Value),
			Sort:        i + 1,
		})
	}
	return out
}

func registerVariationRoutes() {
	webserver.ApiGET("/admin/catalog/products/:id/variations", listVariations)
	webserver.ApiPOST("/admin/catalog/products/:id/variations", createVariation)
	webserver.ApiPUT("/admin/catalog/variations/:id", updateVariation)
	webserver.ApiDELETE("/admin/catalog/variations/:id", deleteVariation)
}

func checkAttributeIDs(db *gorm.DB, attrs []variationAttributePayload) error {
	if len(attrs) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(attrs))
	for _, a := range attrs {
		ids = append(ids, a.AttributeID)
	}
	var count int64
	if err := db.Model(&domain.Attribute{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return err
	}
	distinct := map[int64]bool{}
	for _, id := range ids {
		distinct[id] = true
	}
	if int(count) != len(distinct) {
		return fmt.Errorf("unknown attribute in %v", ids)
	}
	return nil
}

func listVariations(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var rows []domain.ProductVariation
	if err := GetDB(c).
		Preload("Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC, id ASC") }).
		Where("product_id = ?", id).Order("sort ASC, id ASC").Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query variations", err.Error())
	}
	return ok(c, rows)
}

func createVariation(c echo.Context) error {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}

	var payload variationPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse variation", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)
	var p domain.Product
	if err := db.Where("id = ?", productID).First(&p).Error; err != nil {
		return notFoundOr(c, err, "PRODUCT_NOT_FOUND", "Product")
	}
	if err := checkAttributeIDs(db, payload.Attributes); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown attribute", err.Error())
	}

	now := time.Now()
	v := domain.ProductVariation{ProductID: productID, CreatedAt: now, UpdatedAt: now}
	payload.apply(&v)

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Product{}).Where("id = ?", productID).Updates(map[string]interface{}{
			"has_variations": true,
			"updated_at":     now,
		}).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create variation", err.Error())
	}
	catalogChanged(c, "variation_create", fmt.Sprintf("create variation %d of %s", v.ID, p.Slug))
	return ok(c, v)
}

func updateVariation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid variation ID", nil)
	}

	var payload variationPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse variation", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	db := GetDB(c)
	var v domain.ProductVariation
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return notFoundOr(c, err, "VARIATION_NOT_FOUND", "Variation")
	}
	if err := checkAttributeIDs(db, payload.Attributes); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown attribute", err.Error())
	}

	replaceAttrs := payload.Attributes != nil
	payload.apply(&v)
	v.UpdatedAt = time.Now()
	attrs := v.Attributes
	v.Attributes = nil

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&v).Error; err != nil {
			return err
		}
		if !replaceAttrs {
			return nil
		}
		if err := tx.Where("variation_id = ?", v.ID).Delete(&domain.VariationAttribute{}).Error; err != nil {
			return err
		}
		for i := range attrs {
			attrs[i].VariationID = v.ID
		}
		if len(attrs) > 0 {
			return tx.Create(&attrs).Error
		}
		return nil
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update variation", err.Error())
	}
	catalogChanged(c, "variation_update", fmt.Sprintf("update variation %d", v.ID))

	if err := db.Preload("Attributes", func(db *gorm.DB) *gorm.DB { return db.Order("sort ASC, id ASC") }).
		Where("id = ?", v.ID).First(&v).Error; err != nil {
		return notFoundOr(c, err, "VARIATION_NOT_FOUND", "Variation")
	}
	return ok(c, v)
}

func deleteVariation(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid variation ID", nil)
	}

	db := GetDB(c)
	var v domain.ProductVariation
	if err := db.Where("id = ?", id).First(&v).Error; err != nil {
		return notFoundOr(c, err, "VARIATION_NOT_FOUND", "Variation")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("variation_id = ?", id).Delete(&domain.VariationAttribute{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", id).Delete(&domain.ProductVariation{}).Error; err != nil {
			return err
		}
		var remaining int64
		if err := tx.Model(&domain.ProductVariation{}).Where("product_id = ?", v.ProductID).Count(&remaining).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Product{}).Where("id = ?", v.ProductID).Updates(map[string]interface{}{
			"has_variations": remaining > 0,
			"updated_at":     time.Now(),
		}).Error
	})
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete variation", err.Error())
	}
	catalogChanged(c, "variation_delete", fmt.Sprintf("delete variation %d", id))

	return ok(c, map[string]interface{}{"id": id})
}
