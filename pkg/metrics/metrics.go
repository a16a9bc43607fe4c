package metrics

import (
	"path"
	"sync"
	"time"

	"github.com/nakabonne/tstorage"
	"go.uber.org/zap"
)

const (
	StockChecks      = "storefront_stock_checks"
	CartEnrichments  = "storefront_cart_enrichments"
	OrdersPlaced     = "storefront_orders_placed"
	SnapshotReloads  = "storefront_snapshot_reloads"
	SnapshotFailures = "storefront_snapshot_failures"
)

var (
	mu       sync.Mutex
	storage  tstorage.Storage
	counters = map[string]int64{}
	gauges   = map[string]int64{}
)

// InitMetrics opens the time series store under <workdir>/data/metrics.
func InitMetrics(workdir string) error {
	mu.Lock()
	defer mu.Unlock()
	if storage != nil {
		return nil
	}
	st, err := tstorage.NewStorage(
		tstorage.WithDataPath(path.Join(workdir, "data", "metrics")),
		tstorage.WithTimestampPrecision(tstorage.Seconds),
		tstorage.WithRetention(7*24*time.Hour),
	)
	if err != nil {
		return err
	}
	storage = st
	return nil
}

// Close flushes and closes the time series store.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if storage == nil {
		return nil
	}
	err := storage.Close()
	storage = nil
	return err
}

// Incr adds one to a counter and records the new total.
func Incr(name string) {
	mu.Lock()
	counters[name]++
	v := counters[name]
	mu.Unlock()
	insert(name, v)
}

// SetGauge records the latest value of a gauge.
func SetGauge(name string, value int64) {
	mu.Lock()
	gauges[name] = value
	mu.Unlock()
	insert(name, value)
}

func GetCounter(name string) int64 {
	mu.Lock()
	defer mu.Unlock()
	return counters[name]
}

func GetGauge(name string) int64 {
	mu.Lock()
	defer mu.Unlock()
	return gauges[name]
}

// Query returns recorded points for name in [since, now].
func Query(name string, since time.Time) ([]*tstorage.DataPoint, error) {
	mu.Lock()
	st := storage
	mu.Unlock()
	if st == nil {
		return nil, nil
	}
	points, err := st.Select(name, nil, since.Unix(), time.Now().Unix()+1)
	if err == tstorage.ErrNoDataPoints {
		return nil, nil
	}
	return points, err
}

func insert(name string, value int64) {
	mu.Lock()
	st := storage
	mu.Unlock()
	if st == nil {
		return
	}
	err := st.InsertRows([]tstorage.Row{{
		Metric:    name,
		DataPoint: tstorage.DataPoint{Timestamp: time.Now().Unix(), Value: float64(value)},
	}})
	if err != nil {
		zap.L().Warn("metrics insert failed", zap.String("metric", name), zap.Error(err))
	}
}
