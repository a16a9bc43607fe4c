package shopapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
)

type catalogResponse struct {
	Products []catalog.Product `json:"products"`
	LoadedAt time.Time         `json:"loadedAt"`
}

// getCatalog returns the cached catalog snapshot, optionally filtered by
// category and tea category
func getCatalog(c echo.Context) error {
	snap, err := snapshot(c)
	if err != nil {
		return catalogUnavailable(c, err)
	}

	category := strings.TrimSpace(c.QueryParam("category"))
	tea := strings.TrimSpace(c.QueryParam("tea"))
	if category == "" && tea == "" {
		return webserver.OK(c, catalogResponse{Products: snap.Products, LoadedAt: snap.LoadedAt})
	}

	products := make([]catalog.Product, 0)
	for _, p := range snap.Products {
		if category != "" && p.CategorySlug != category {
			continue
		}
		if tea != "" && !containsString(p.TeaCategories, tea) {
			continue
		}
		products = append(products, p)
	}
	return webserver.OK(c, catalogResponse{Products: products, LoadedAt: snap.LoadedAt})
}

func getProductBySlug(c echo.Context) error {
	snap, err := snapshot(c)
	if err != nil {
		return catalogUnavailable(c, err)
	}
	p := snap.ProductBySlug(c.Param("slug"))
	if p == nil {
		return webserver.Fail(c, http.StatusNotFound, "PRODUCT_NOT_FOUND", "Product not found", nil)
	}
	return webserver.OK(c, p)
}

type categoriesResponse struct {
	Categories    []domain.Category    `json:"categories"`
	TeaCategories []domain.TeaCategory `json:"teaCategories"`
	Brands        []domain.Brand       `json:"brands"`
}

func listCategories(c echo.Context) error {
	db := GetAppContext(c).DB().WithContext(c.Request().Context())
	var resp categoriesResponse
	if err := db.Order("sort ASC, name ASC").Find(&resp.Categories).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	if err := db.Order("sort ASC, name ASC").Find(&resp.TeaCategories).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query categories", err.Error())
	}
	if err := db.Order("sort ASC, name ASC").Find(&resp.Brands).Error; err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query brands", err.Error())
	}
	return webserver.OK(c, resp)
}

func listPublishedPosts(c echo.Context) error {
	var posts []domain.BlogPost
	err := GetAppContext(c).DB().WithContext(c.Request().Context()).
		Omit("content").
		Where("status = ?", "published").
		Order("published_at DESC").
		Limit(50).
		Find(&posts).Error
	if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query posts", err.Error())
	}
	return webserver.OK(c, posts)
}

func getPublishedPost(c echo.Context) error {
	var post domain.BlogPost
	err := GetAppContext(c).DB().WithContext(c.Request().Context()).
		Where("slug = ? AND status = ?", c.Param("slug"), "published").
		Limit(1).Find(&post).Error
	if err != nil {
		return webserver.Fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query post", err.Error())
	}
	if post.ID == 0 {
		return webserver.Fail(c, http.StatusNotFound, "POST_NOT_FOUND", "Post not found", nil)
	}
	return webserver.OK(c, post)
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
