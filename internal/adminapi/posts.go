package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
	"github.com/studiocraft/storefront/pkg/common"
)

const (
	postDraft     = "draft"
	postPublished = "published"
)

type postPayload struct {
	Slug       string `json:"slug" validate:"omitempty,max=200"`
	Title      string `json:"title" validate:"required,min=1,max=300"`
	Excerpt    string `json:"excerpt" validate:"omitempty,max=1000"`
	Content    string `json:"content"`
	CoverImage string `json:"cover_image" validate:"omitempty,max=1024"`
	Tags       string `json:"tags" validate:"omitempty,max=500"`
	Status     string `json:"status" validate:"omitempty,oneof=draft published"`
}

func registerPostRoutes() {
	webserver.ApiGET("/admin/content/posts", listPosts)
	webserver.ApiGET("/admin/content/posts/:id", getPost)
	webserver.ApiPOST("/admin/content/posts", createPost)
	webserver.ApiPUT("/admin/content/posts/:id", updatePost)
	webserver.ApiDELETE("/admin/content/posts/:id", deletePost)
}

func listPosts(c echo.Context) error {
	page, pageSize := parsePagination(c)

	db := likeFilter(GetDB(c).Model(&domain.BlogPost{}), c.QueryParam("q"), "title", "slug")
	if status := strings.TrimSpace(c.QueryParam("status")); status != "" {
		db = db.Where("status = ?", status)
	}
	if tag := strings.TrimSpace(c.QueryParam("tag")); tag != "" {
		db = likeFilter(db, tag, "tags")
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query posts", err.Error())
	}
	var rows []domain.BlogPost
	order := sortOrder(c, map[string]string{"id": "id", "title": "title", "published_at": "published_at", "created_at": "created_at"}, "id")
	if err := db.Omit("content").Order(order).Offset((page-1)*pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query posts", err.Error())
	}
	return paged(c, rows, total, page, pageSize)
}

func getPost(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid post ID", nil)
	}
	var p domain.BlogPost
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return notFoundOr(c, err, "POST_NOT_FOUND", "Post")
	}
	return ok(c, p)
}

func (payload postPayload) apply(p *domain.BlogPost) {
	p.Title = strings.TrimSpace(payload.Title)
	p.Slug = slugOr(payload.Slug, payload.Title)
	p.Excerpt = payload.Excerpt
	p.Content = payload.Content
	p.CoverImage = strings.TrimSpace(payload.CoverImage)
	p.Tags = strings.Join(common.SplitTrim(payload.Tags, ","), ",")
	p.Status = common.IfEmptyStr(payload.Status, postDraft)
	if p.Status == postPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	if p.Status == postDraft {
		p.PublishedAt = nil
	}
	p.UpdatedAt = time.Now()
}

func createPost(c echo.Context) error {
	var payload postPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse post", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	p := domain.BlogPost{CreatedAt: time.Now()}
	payload.apply(&p)

	var exists int64
	GetDB(c).Model(&domain.BlogPost{}).Where("slug = ?", p.Slug).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "POST_EXISTS", "Post slug already exists", nil)
	}
	if err := GetDB(c).Create(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create post", err.Error())
	}
	logOperation(c, "post_create", "create post "+p.Slug)
	return ok(c, p)
}

func updatePost(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid post ID", nil)
	}
	var payload postPayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse post", err.Error())
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	var p domain.BlogPost
	if err := GetDB(c).Where("id = ?", id).First(&p).Error; err != nil {
		return notFoundOr(c, err, "POST_NOT_FOUND", "Post")
	}
	payload.apply(&p)

	var exists int64
	GetDB(c).Model(&domain.BlogPost{}).Where("slug = ? AND id != ?", p.Slug, id).Count(&exists)
	if exists > 0 {
		return fail(c, http.StatusConflict, "POST_EXISTS", "Post slug already exists", nil)
	}
	if err := GetDB(c).Save(&p).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update post", err.Error())
	}
	logOperation(c, "post_update", "update post "+p.Slug)
	return ok(c, p)
}

func deletePost(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid post ID", nil)
	}
	res := GetDB(c).Where("id = ?", id).Delete(&domain.BlogPost{})
	if res.Error != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to delete post", res.Error.Error())
	}
	if res.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, "POST_NOT_FOUND", "Post not found", nil)
	}
	logOperation(c, "post_delete", "delete post")
	return ok(c, map[string]interface{}{"id": id})
}
