package adminapi

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiocraft/storefront/config"
	"github.com/studiocraft/storefront/internal/app"
	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/orders"
	"github.com/studiocraft/storefront/internal/testkit"
	"github.com/studiocraft/storefront/internal/webserver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
	Meta    *webserver.PageMeta `json:"meta"`
	Details jsoniter.RawMessage `json:"details"`
}

func setupAdmin(t *testing.T) (*app.Application, *echo.Echo) {
	t.Helper()
	a := app.NewApplication(config.DefaultAppConfig())
	a.OverrideDB(testkit.NewDB(t))
	a.SeedDefaults()
	webserver.Init(a)
	Init()
	return a, webserver.Echo()
}

func call(t *testing.T, e *echo.Echo, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func findProduct(t *testing.T, a *app.Application, slug string) domain.Product {
	t.Helper()
	var p domain.Product
	require.NoError(t, a.DB().Preload("Variations").Where("slug = ?", slug).First(&p).Error)
	return p
}

func TestCreateProductValidation(t *testing.T) {
	_, e := setupAdmin(t)

	rec, env := call(t, e, http.MethodPost, "/api/v1/admin/catalog/products", `{"name":"No slug"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)
	assert.Contains(t, string(env.Details), "Slug")

	rec, env = call(t, e, http.MethodPost, "/api/v1/admin/catalog/products", `{"slug":"x","name":"X","discount":150}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Details), "Discount")

	rec, env = call(t, e, http.MethodPost, "/api/v1/admin/catalog/products", `{"slug":"tokoname-kyusu","name":"Dup"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PRODUCT_EXISTS", env.Code)
}

func TestProductLifecycle(t *testing.T) {
	a, e := setupAdmin(t)
	var size domain.Attribute
	require.NoError(t, a.DB().Where("name = ?", "Size").First(&size).Error)

	// warm the snapshot so the write has something to invalidate
	snap, err := a.Snapshots().Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, snap.Len())

	body := `{"slug":"matcha-bowl","name":"Matcha bowl","category_slug":"teaware","tea_categories":["green"],
		"variations":[{"sku":"BOWL-S","price":30,"stock":2,"attributes":[{"attribute_id":` + id(size.ID) + `,"value":"S"}]},
		              {"sku":"BOWL-L","price":45,"stock":1}]}`
	rec, env := call(t, e, http.MethodPost, "/api/v1/admin/catalog/products", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var created domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.True(t, created.HasVariations)
	assert.Equal(t, "enabled", created.Status)
	require.Len(t, created.Variations, 2)
	require.Len(t, created.TeaCategories, 1)

	snap, err = a.Snapshots().Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap.ProductBySlug("matcha-bowl"))

	rec, env = call(t, e, http.MethodPut, "/api/v1/admin/catalog/products/"+id(created.ID),
		`{"slug":"matcha-bowl","name":"Matcha bowl large","price":0,"status":"disabled"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Matcha bowl large", updated.Name)
	assert.True(t, updated.HasVariations)
	assert.Empty(t, updated.TeaCategories)

	snap, err = a.Snapshots().Get(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap.ProductBySlug("matcha-bowl"))

	rec, _ = call(t, e, http.MethodDelete, "/api/v1/admin/catalog/products/"+id(created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var left int64
	a.DB().Model(&domain.ProductVariation{}).Where("product_id = ?", created.ID).Count(&left)
	assert.Zero(t, left)

	rec, env = call(t, e, http.MethodGet, "/api/v1/admin/catalog/products/"+id(created.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", env.Code)

	var logs int64
	a.DB().Model(&domain.SysOprLog{}).Where("opt_action LIKE ?", "product_%").Count(&logs)
	assert.Equal(t, int64(3), logs)
}

func TestListProducts(t *testing.T) {
	_, e := setupAdmin(t)

	rec, env := call(t, e, http.MethodGet, "/api/v1/admin/catalog/products?q=POSTER", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []domain.Product
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "wave-poster", rows[0].Slug)

	_, env = call(t, e, http.MethodGet, "/api/v1/admin/catalog/products?perPage=2&sort=price&order=ASC", "")
	require.NoError(t, json.Unmarshal(env.Data, &rows))
	assert.Len(t, rows, 2)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(5), env.Meta.Total)
	assert.Equal(t, 2, env.Meta.PageSize)
}

func TestVariationEndpoints(t *testing.T) {
	a, e := setupAdmin(t)
	kyusu := findProduct(t, a, "tokoname-kyusu")
	var color domain.Attribute
	require.NoError(t, a.DB().Where("name = ?", "Color").First(&color).Error)

	rec, env := call(t, e, http.MethodPost, "/api/v1/admin/catalog/products/"+id(kyusu.ID)+"/variations",
		`{"sku":"KYUSU-RED","price":70,"stock":1,"attributes":[{"attribute_id":`+id(color.ID)+`,"value":"Red"}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var v domain.ProductVariation
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.True(t, findProduct(t, a, "tokoname-kyusu").HasVariations)

	rec, _ = call(t, e, http.MethodPost, "/api/v1/admin/catalog/products/"+id(kyusu.ID)+"/variations",
		`{"price":70,"attributes":[{"attribute_id":424242,"value":"Red"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = call(t, e, http.MethodPut, "/api/v1/admin/catalog/variations/"+id(v.ID), `{"sku":"KYUSU-RED","price":72,"stock":5,"attributes":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var edited domain.ProductVariation
	require.NoError(t, json.Unmarshal(env.Data, &edited))
	assert.Equal(t, 72.0, edited.Price)
	assert.Empty(t, edited.Attributes)

	rec, env = call(t, e, http.MethodGet, "/api/v1/admin/catalog/products/"+id(kyusu.ID)+"/variations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []domain.ProductVariation
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	rec, _ = call(t, e, http.MethodDelete, "/api/v1/admin/catalog/variations/"+id(v.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, findProduct(t, a, "tokoname-kyusu").HasVariations)
}

func TestTaxonomyEndpoints(t *testing.T) {
	a, e := setupAdmin(t)

	rec, env := call(t, e, http.MethodPost, "/api/v1/admin/catalog/categories", `{"name":"Gift Boxes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cat domain.Category
	require.NoError(t, json.Unmarshal(env.Data, &cat))
	assert.Equal(t, "gift-boxes", cat.Slug)

	rec, _ = call(t, e, http.MethodPost, "/api/v1/admin/catalog/categories", `{"name":"Gift boxes"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var teaware domain.Category
	require.NoError(t, a.DB().Where("slug = ?", "teaware").First(&teaware).Error)
	rec, _ = call(t, e, http.MethodDelete, "/api/v1/admin/catalog/categories/"+id(teaware.ID), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = call(t, e, http.MethodPut, "/api/v1/admin/catalog/categories/"+id(teaware.ID), `{"slug":"ceramics","name":"Ceramics"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ceramics", findProduct(t, a, "tokoname-kyusu").CategorySlug)

	rec, _ = call(t, e, http.MethodDelete, "/api/v1/admin/catalog/categories/"+id(cat.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var green domain.TeaCategory
	require.NoError(t, a.DB().Where("slug = ?", "green").First(&green).Error)
	rec, env = call(t, e, http.MethodDelete, "/api/v1/admin/catalog/tea-categories/"+id(green.ID), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "TEA_CATEGORY_IN_USE", env.Code)

	rec, env = call(t, e, http.MethodGet, "/api/v1/admin/catalog/brands", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var brands []domain.Brand
	require.NoError(t, json.Unmarshal(env.Data, &brands))
	assert.Len(t, brands, 1)
}

func TestAttributeEndpoints(t *testing.T) {
	a, e := setupAdmin(t)

	rec, env := call(t, e, http.MethodPost, "/api/v1/admin/catalog/attributes", `{"name":"Material"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var attr domain.Attribute
	require.NoError(t, json.Unmarshal(env.Data, &attr))
	assert.Equal(t, "material", attr.Slug)

	rec, _ = call(t, e, http.MethodPost, "/api/v1/admin/catalog/attributes", `{"name":"Material"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var size domain.Attribute
	require.NoError(t, a.DB().Where("name = ?", "Size").First(&size).Error)
	rec, _ = call(t, e, http.MethodDelete, "/api/v1/admin/catalog/attributes/"+id(size.ID), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = call(t, e, http.MethodDelete, "/api/v1/admin/catalog/attributes/"+id(attr.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostEndpoints(t *testing.T) {
	_, e := setupAdmin(t)

	rec, env := call(t, e, http.MethodPost, "/api/v1/admin/content/posts", `{"title":"Brewing Sencha","status":"published","tags":"tea, brewing,"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var post domain.BlogPost
	require.NoError(t, json.Unmarshal(env.Data, &post))
	assert.Equal(t, "brewing-sencha", post.Slug)
	assert.Equal(t, "tea,brewing", post.Tags)
	require.NotNil(t, post.PublishedAt)

	rec, env = call(t, e, http.MethodPut, "/api/v1/admin/content/posts/"+id(post.ID), `{"title":"Brewing Sencha","status":"draft"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var draft domain.BlogPost
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	assert.Nil(t, draft.PublishedAt)

	rec, _ = call(t, e, http.MethodPost, "/api/v1/admin/content/posts", `{"status":"published"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = call(t, e, http.MethodDelete, "/api/v1/admin/content/posts/"+id(post.ID), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = call(t, e, http.MethodDelete, "/api/v1/admin/content/posts/"+id(post.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func placeOrder(t *testing.T, a *app.Application, slug string, qty int) *domain.Order {
	t.Helper()
	p := findProduct(t, a, slug)
	o, err := a.Orders().PlaceOrder(context.Background(), orders.PlaceOrderRequest{
		Customer: orders.Customer{Name: "Ada", Email: "ada@example.com"},
		Items:    []catalog.CartItem{{ProductID: p.ID, Quantity: qty}},
	})
	require.NoError(t, err)
	return o
}

func TestOrderEndpoints(t *testing.T) {
	a, e := setupAdmin(t)
	first := placeOrder(t, a, "tokoname-kyusu", 1)
	placeOrder(t, a, "gift-card", 2)

	rec, env := call(t, e, http.MethodGet, "/api/v1/admin/orders?q=ada", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), env.Meta.Total)

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	_, env = call(t, e, http.MethodGet, "/api/v1/admin/orders?from="+tomorrow, "")
	assert.Equal(t, int64(0), env.Meta.Total)

	rec, env = call(t, e, http.MethodGet, "/api/v1/admin/orders?from=not-a-date", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_DATE", env.Code)

	rec, env = call(t, e, http.MethodGet, "/api/v1/admin/orders/"+id(first.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var o domain.Order
	require.NoError(t, json.Unmarshal(env.Data, &o))
	assert.Len(t, o.Items, 1)

	rec, _ = call(t, e, http.MethodPut, "/api/v1/admin/orders/"+id(first.ID)+"/status", `{"status":"shipped"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	_, env = call(t, e, http.MethodGet, "/api/v1/admin/orders?status=shipped", "")
	assert.Equal(t, int64(1), env.Meta.Total)

	rec, env = call(t, e, http.MethodPut, "/api/v1/admin/orders/"+id(first.ID)+"/status", `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATUS", env.Code)

	rec, _ = call(t, e, http.MethodPut, "/api/v1/admin/orders/1/status", `{"status":"paid"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportProducts(t *testing.T) {
	_, e := setupAdmin(t)

	rec, _ := call(t, e, http.MethodGet, "/api/v1/admin/catalog/export/products.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "slug,name,price"))

	rec, _ = call(t, e, http.MethodGet, "/api/v1/admin/catalog/export/products.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestImportProducts(t *testing.T) {
	a, e := setupAdmin(t)

	csv := "slug,name,price,discount,stock,unlimited_stock,has_volume,volume,weight,images,category_slug,brand_slug,status,has_variations\n" +
		"tokoname-kyusu,Tokoname kyusu,72,10,6,false,false,,,/images/kyusu.jpg,teaware,house,enabled,false\n" +
		"bamboo-scoop,Bamboo scoop,6.5,,20,false,false,,,,teaware,,,false\n" +
		",Missing slug,1,,1,false,false,,,,,,,false\n" +
		"iron-kettle,Iron kettle,90,,2,false,false,,,,teaware,,archived,false\n" +
		"hojicha-set,Hojicha set,30,,0,false,false,,,,tea,,disabled,true\n"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "products.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/catalog/import/products", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var result importResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[1], `invalid status "archived"`)

	kyusu := findProduct(t, a, "tokoname-kyusu")
	assert.Equal(t, 72.0, kyusu.Price)
	assert.Equal(t, 6, kyusu.Stock)
	require.NotNil(t, kyusu.Discount)
	assert.Equal(t, 10.0, *kyusu.Discount)
	assert.Equal(t, "enabled", findProduct(t, a, "bamboo-scoop").Status)

	hojicha := findProduct(t, a, "hojicha-set")
	assert.True(t, hojicha.HasVariations)
	assert.Equal(t, "disabled", hojicha.Status)
	var kettles int64
	require.NoError(t, a.DB().Model(&domain.Product{}).Where("slug = ?", "iron-kettle").Count(&kettles).Error)
	assert.Zero(t, kettles)
}

func TestDashboardSummary(t *testing.T) {
	a, e := setupAdmin(t)
	placeOrder(t, a, "tokoname-kyusu", 2)
	placeOrder(t, a, "gift-card", 1)
	cancelled := placeOrder(t, a, "gift-card", 4)
	_, err := a.Orders().UpdateStatus(context.Background(), cancelled.ID, domain.OrderStatusCancelled)
	require.NoError(t, err)

	rec, env := call(t, e, http.MethodGet, "/api/v1/admin/dashboard/summary", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var s dashboardSummary
	require.NoError(t, json.Unmarshal(env.Data, &s))

	assert.Equal(t, int64(5), s.Products)
	assert.Equal(t, int64(3), s.Orders.Count)
	assert.Equal(t, int64(1), s.Orders.ByStatus[domain.OrderStatusCancelled])
	assert.Equal(t, 161.0, s.Orders.Revenue)
	assert.Equal(t, 80.5, s.Orders.MeanValue)
	assert.Equal(t, 3, s.Threshold)

	slugs := map[string]int{}
	for _, item := range s.LowStock {
		slugs[item.Slug] = item.Stock
	}
	// kyusu fell to 2, the A2 poster has 2, stickers are never tracked
	assert.Equal(t, map[string]int{"tokoname-kyusu": 2, "wave-poster": 2}, slugs)
}

func TestSummarizeOrdersEmpty(t *testing.T) {
	assert.Equal(t, orderStats{}, summarizeOrders(nil))
}

func TestSettingsEndpoints(t *testing.T) {
	a, e := setupAdmin(t)

	rec, env := call(t, e, http.MethodPut, "/api/v1/admin/settings", `{"catalog.always_in_stock_categories":"stickers,prints"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []settingItem
	require.NoError(t, json.Unmarshal(env.Data, &items))
	assert.NotEmpty(t, items)
	assert.True(t, a.Policies().AlwaysInStock("prints"))

	rec, env = call(t, e, http.MethodPut, "/api/v1/admin/settings", `{"nodot":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_KEY", env.Code)
}

func TestSystemEndpoints(t *testing.T) {
	a, e := setupAdmin(t)

	rec, env := call(t, e, http.MethodGet, "/api/v1/admin/system/jobs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []app.JobInfo
	require.NoError(t, json.Unmarshal(env.Data, &jobs))
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name)
	}
	assert.ElementsMatch(t, []string{"system_monitor", "catalog_warmup", "oprlog_cleanup"}, names)

	old := domain.SysOprLog{ID: 42, OprName: "admin", OptAction: "product_create", OptTime: time.Now().AddDate(-2, 0, 0)}
	require.NoError(t, a.DB().Create(&old).Error)
	rec, _ = call(t, e, http.MethodPost, "/api/v1/admin/system/jobs/oprlog_cleanup/run", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	var n int64
	a.DB().Model(&domain.SysOprLog{}).Where("id = ?", 42).Count(&n)
	assert.Zero(t, n)

	rec, env = call(t, e, http.MethodPost, "/api/v1/admin/system/jobs/reindex/run", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "JOB_NOT_FOUND", env.Code)

	rec, env = call(t, e, http.MethodGet, "/api/v1/admin/system/info", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var info serverInfo
	require.NoError(t, json.Unmarshal(env.Data, &info))
	assert.Equal(t, "sqlite", info.DatabaseType)
	rows := map[string]int64{}
	for _, ti := range info.Tables {
		rows[ti.Name] = ti.RowCount
	}
	assert.Equal(t, int64(5), rows["products"])
	assert.Equal(t, int64(4), rows["categories"])
}

func TestSlugOr(t *testing.T) {
	tests := []struct {
		slug, name, want string
	}{
		{"", "Gift Boxes", "gift-boxes"},
		{"", "Crème Brûlée tin", "creme-brulee-tin"},
		{"", "  Gyokuro (Uji) 2024 ", "gyokuro-uji-2024"},
		{"Custom-Slug", "ignored", "custom-slug"},
		{"", "!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugOr(tt.slug, tt.name), tt.name)
	}
}
