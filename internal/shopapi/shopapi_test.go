package shopapi

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiocraft/storefront/config"
	"github.com/studiocraft/storefront/internal/app"
	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/testkit"
	"github.com/studiocraft/storefront/internal/webserver"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type envelope struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
	Details jsoniter.RawMessage `json:"details"`
}

func setupShop(t *testing.T) (*app.Application, *echo.Echo) {
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
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func productID(t *testing.T, a *app.Application, slug string) int64 {
	t.Helper()
	var p domain.Product
	require.NoError(t, a.DB().Where("slug = ?", slug).First(&p).Error)
	return p.ID
}

func variationID(t *testing.T, a *app.Application, sku string) int64 {
	t.Helper()
	var v domain.ProductVariation
	require.NoError(t, a.DB().Where("sku = ?", sku).First(&v).Error)
	return v.ID
}

func TestGetCatalog(t *testing.T) {
	_, e := setupShop(t)

	rec, env := call(t, e, http.MethodGet, "/api/v1/shop/catalog", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp catalogResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Len(t, resp.Products, 5)

	_, env = call(t, e, http.MethodGet, "/api/v1/shop/catalog?category=stickers", "")
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "teapot-sticker", resp.Products[0].Slug)

	_, env = call(t, e, http.MethodGet, "/api/v1/shop/catalog?tea=green", "")
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "sencha-kagoshima", resp.Products[0].Slug)
}

func TestGetProductBySlug(t *testing.T) {
	_, e := setupShop(t)

	rec, env := call(t, e, http.MethodGet, "/api/v1/shop/products/wave-poster", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p catalog.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.True(t, p.HasVariations)
	assert.Len(t, p.Variations, 2)

	rec, env = call(t, e, http.MethodGet, "/api/v1/shop/products/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PRODUCT_NOT_FOUND", env.Code)
}

func TestValidateStockEndpoint(t *testing.T) {
	a, e := setupShop(t)
	kyusu := productID(t, a, "tokoname-kyusu")
	poster := productID(t, a, "wave-poster")
	a2 := variationID(t, a, "WAVE-A2-IND")

	cases := []struct {
		name string
		body string
		want catalog.StockValidationResult
	}{
		{"default quantity", `{"productId":` + itoa(kyusu) + `}`, catalog.StockValidationResult{IsAvailable: true, AvailableStock: 4}},
		{"too many", `{"productId":` + itoa(kyusu) + `,"quantity":5}`, catalog.StockValidationResult{IsAvailable: false, AvailableStock: 4}},
		{"variation", `{"productId":` + itoa(poster) + `,"quantity":3,"variationId":` + itoa(a2) + `}`, catalog.StockValidationResult{IsAvailable: false, AvailableStock: 2}},
		{"unknown", `{"productId":999999}`, catalog.StockValidationResult{}},
		{"unlimited", `{"productId":` + itoa(productID(t, a, "gift-card")) + `,"quantity":500}`,
			catalog.StockValidationResult{IsAvailable: true, AvailableStock: catalog.UnlimitedQuantity, UnlimitedStock: true}},
		{"volume", `{"productId":` + itoa(productID(t, a, "sencha-kagoshima")) + `,"quantity":5000}`,
			catalog.StockValidationResult{IsAvailable: true, AvailableStock: 1000}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := call(t, e, http.MethodPost, "/api/v1/shop/stock/validate", tc.body)
			require.Equal(t, http.StatusOK, rec.Code)
			var got catalog.StockValidationResult
			require.NoError(t, json.Unmarshal(env.Data, &got))
			assert.Equal(t, tc.want, got)
		})
	}

	rec, _ := call(t, e, http.MethodPost, "/api/v1/shop/stock/validate", `{"productId":1,"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrichCartEndpoint(t *testing.T) {
	a, e := setupShop(t)
	sticker := productID(t, a, "teapot-sticker")
	poster := productID(t, a, "wave-poster")
	a2 := variationID(t, a, "WAVE-A2-IND")

	body := `{"items":[` +
		`{"productId":` + itoa(sticker) + `,"quantity":3},` +
		`{"productId":999999,"quantity":1},` +
		`{"productId":` + itoa(poster) + `,"variationId":` + itoa(a2) + `,"quantity":1}]}`
	rec, env := call(t, e, http.MethodPost, "/api/v1/shop/cart/enrich", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var lines []catalog.EnrichedCartItem
	require.NoError(t, json.Unmarshal(env.Data, &lines))
	require.Len(t, lines, 2)
	assert.Equal(t, "Teapot sticker", lines[0].ProductName)
	assert.True(t, lines[0].UnlimitedStock)
	assert.Equal(t, 40.0, lines[1].Price)
	assert.Equal(t, 2, lines[1].MaxStock)
	assert.Equal(t, map[string]string{"Size": "A2", "Color": "Indigo"}, lines[1].Attributes)

	rec, env = call(t, e, http.MethodPost, "/api/v1/shop/cart/enrich", `{"items":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestStepCartItemEndpoint(t *testing.T) {
	a, e := setupShop(t)
	kyusu := productID(t, a, "tokoname-kyusu")
	sticker := productID(t, a, "teapot-sticker")

	step := func(productID int64, qty int, action string) (int, stepResponse) {
		rec, env := call(t, e, http.MethodPost, "/api/v1/shop/cart/step",
			`{"item":{"productId":`+itoa(productID)+`,"quantity":`+itoa(int64(qty))+`},"action":"`+action+`"}`)
		var resp stepResponse
		if rec.Code == http.StatusOK {
			require.NoError(t, json.Unmarshal(env.Data, &resp))
		}
		return rec.Code, resp
	}

	code, resp := step(kyusu, 4, "increment")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, stepResponse{Quantity: 4, Min: 1, Max: 4, Changed: false}, resp)

	_, resp = step(kyusu, 4, "decrement")
	assert.Equal(t, stepResponse{Quantity: 3, Min: 1, Max: 4, Changed: true}, resp)

	_, resp = step(kyusu, 1, "decrement")
	assert.False(t, resp.Changed)
	assert.Equal(t, 1, resp.Quantity)

	_, resp = step(sticker, 40, "increment")
	assert.Equal(t, stepResponse{Quantity: 41, Min: 1, Max: catalog.Unbounded, Changed: true}, resp)

	code, _ = step(999999, 1, "increment")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = step(kyusu, 1, "jump")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPlaceOrderEndpoint(t *testing.T) {
	a, e := setupShop(t)
	kyusu := productID(t, a, "tokoname-kyusu")

	body := `{"customer":{"name":"Ada","email":"ada@example.com"},"items":[{"productId":` + itoa(kyusu) + `,"quantity":3}]}`
	rec, env := call(t, e, http.MethodPost, "/api/v1/shop/orders", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var order domain.Order
	require.NoError(t, json.Unmarshal(env.Data, &order))
	assert.Equal(t, 204.0, order.Total)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	rec, env = call(t, e, http.MethodPost, "/api/v1/shop/orders", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OUT_OF_STOCK", env.Code)
	assert.Contains(t, string(env.Details), `"available":1`)

	// the snapshot was invalidated by the order
	_, env = call(t, e, http.MethodGet, "/api/v1/shop/products/tokoname-kyusu", "")
	var p catalog.Product
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, 1, p.Stock)
}

func TestPlaceOrderValidation(t *testing.T) {
	a, e := setupShop(t)
	kyusu := productID(t, a, "tokoname-kyusu")

	rec, env := call(t, e, http.MethodPost, "/api/v1/shop/orders",
		`{"customer":{"name":"Ada","email":"not-an-email"},"items":[{"productId":`+itoa(kyusu)+`,"quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Code)

	rec, env = call(t, e, http.MethodPost, "/api/v1/shop/orders",
		`{"customer":{"name":"Ada","email":"ada@example.com"},"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "EMPTY_CART", env.Code)

	require.NoError(t, a.SaveSettings(map[string]interface{}{"shop.checkout_enabled": false}))
	rec, env = call(t, e, http.MethodPost, "/api/v1/shop/orders",
		`{"customer":{"name":"Ada","email":"ada@example.com"},"items":[{"productId":`+itoa(kyusu)+`,"quantity":1}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "CHECKOUT_DISABLED", env.Code)
}

func TestPublishedPosts(t *testing.T) {
	a, e := setupShop(t)
	require.NoError(t, a.DB().Create(&domain.BlogPost{Slug: "brewing", Title: "Brewing sencha", Status: "published"}).Error)
	require.NoError(t, a.DB().Create(&domain.BlogPost{Slug: "wip", Title: "Draft", Status: "draft"}).Error)

	_, env := call(t, e, http.MethodGet, "/api/v1/shop/posts", "")
	var posts []domain.BlogPost
	require.NoError(t, json.Unmarshal(env.Data, &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, "brewing", posts[0].Slug)

	rec, _ := call(t, e, http.MethodGet, "/api/v1/shop/posts/wip", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
