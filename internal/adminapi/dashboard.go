package adminapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/montanaflynn/stats"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
	"github.com/studiocraft/storefront/pkg/common"
	"github.com/studiocraft/storefront/pkg/metrics"
)

type orderStats struct {
	Count        int64            `json:"count"`
	ByStatus     map[string]int64 `json:"by_status"`
	Revenue      float64          `json:"revenue"`
	MeanValue    float64          `json:"mean_value"`
	MedianValue  float64          `json:"median_value"`
	P90Value     float64          `json:"p90_value"`
	LargestValue float64          `json:"largest_value"`
}

type lowStockItem struct {
	ProductID   int64  `json:"product_id"`
	VariationID *int64 `json:"variation_id,omitempty"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Sku         string `json:"sku,omitempty"`
	Stock       int    `json:"stock"`
}

type dashboardSummary struct {
	Products  int64            `json:"products"`
	Orders    orderStats       `json:"orders"`
	LowStock  []lowStockItem   `json:"low_stock"`
	Counters  map[string]int64 `json:"counters"`
	Threshold int              `json:"low_stock_threshold"`
}

func registerDashboardRoutes() {
	webserver.ApiGET("/admin/dashboard/summary", dashboardSummaryHandler)
	webserver.ApiGET("/admin/dashboard/metrics", dashboardMetrics)
}

// summarizeOrders computes revenue statistics over non cancelled orders
func summarizeOrders(totals []float64) orderStats {
	s := orderStats{}
	if len(totals) == 0 {
		return s
	}
	data := stats.Float64Data(totals)
	s.Revenue, _ = stats.Sum(data)
	s.MeanValue, _ = stats.Mean(data)
	s.MedianValue, _ = stats.Median(data)
	s.P90Value, _ = stats.Percentile(data, 90)
	s.LargestValue, _ = stats.Max(data)
	s.Revenue, _ = stats.Round(s.Revenue, 2)
	s.MeanValue, _ = stats.Round(s.MeanValue, 2)
	return s
}

func dashboardSummaryHandler(c echo.Context) error {
	db := GetDB(c)
	appCtx := GetAppContext(c)

	since := time.Time{}
	if d, err := parseDateParam(c, "from"); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_DATE", "Unable to parse date filter", err.Error())
	} else if d != nil {
		since = *d
	}

	var totals []float64
	if err := db.Model(&domain.Order{}).
		Where("status != ? AND created_at >= ?", domain.OrderStatusCancelled, since).
		Pluck("total", &totals).Error; err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query orders", err.Error())
	}
	summary := dashboardSummary{Orders: summarizeOrders(totals)}

	type statusCount struct {
		Status string
		Count  int64
	}
	var counts []statusCount
	db.Model(&domain.Order{}).Select("status, count(*) as count").
		Where("created_at >= ?", since).Group("status").Scan(&counts)
	summary.Orders.ByStatus = map[string]int64{}
	for _, sc := range counts {
		summary.Orders.ByStatus[sc.Status] = sc.Count
		summary.Orders.Count += sc.Count
	}

	db.Model(&domain.Product{}).Where("status = ?", common.ENABLED).Count(&summary.Products)

	summary.Threshold = appCtx.ConfigMgr().GetInt("catalog", "low_stock_threshold")
	lowStock, err := findLowStock(c, summary.Threshold)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query stock", err.Error())
	}
	summary.LowStock = lowStock

	summary.Counters = map[string]int64{
		metrics.StockChecks:      metrics.GetCounter(metrics.StockChecks),
		metrics.CartEnrichments:  metrics.GetCounter(metrics.CartEnrichments),
		metrics.OrdersPlaced:     metrics.GetCounter(metrics.OrdersPlaced),
		metrics.SnapshotReloads:  metrics.GetCounter(metrics.SnapshotReloads),
		metrics.SnapshotFailures: metrics.GetCounter(metrics.SnapshotFailures),
	}
	return ok(c, summary)
}

// findLowStock lists tracked products and variations at or below threshold.
// Unlimited, volume based and always in stock categories are not tracked.
func findLowStock(c echo.Context, threshold int) ([]lowStockItem, error) {
	db := GetDB(c)
	policies := GetAppContext(c).Policies()

	var products []domain.Product
	err := db.Preload("Variations").
		Where("status = ? AND unlimited_stock = ? AND has_volume = ?", common.ENABLED, false, false).
		Order("id ASC").Find(&products).Error
	if err != nil {
		return nil, err
	}

	items := make([]lowStockItem, 0)
	for _, p := range products {
		if policies.AlwaysInStock(p.CategorySlug) {
			continue
		}
		if p.HasVariations {
			for _, v := range p.Variations {
				if v.Stock <= threshold {
					vid := v.ID
					items = append(items, lowStockItem{
						ProductID: p.ID, VariationID: &vid, Slug: p.Slug, Name: p.Name, Sku: v.Sku, Stock: v.Stock,
					})
				}
			}
			continue
		}
		if p.Stock <= threshold {
			items = append(items, lowStockItem{ProductID: p.ID, Slug: p.Slug, Name: p.Name, Stock: p.Stock})
		}
	}
	return items, nil
}

type metricPoint struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
}

// dashboardMetrics returns the recorded series of one metric
func dashboardMetrics(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Metric name is required", nil)
	}
	window := time.Hour
	if v := strings.TrimSpace(c.QueryParam("window")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid window", nil)
		}
		window = d
	}
	points, err := metrics.Query(name, time.Now().Add(-window))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "METRICS_ERROR", "Failed to query metric", err.Error())
	}
	out := make([]metricPoint, 0, len(points))
	for _, p := range points {
		out = append(out, metricPoint{Timestamp: p.Timestamp, Value: p.Value})
	}
	return ok(c, out)
}
