package store

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/pkg/metrics"
	"go.uber.org/zap"
)

const (
	DefaultStaleTime = 5 * time.Minute
	DefaultGCTime    = 30 * time.Minute
	DefaultRetry     = 3
	DefaultRedisKey  = "storefront:catalog:snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Loader fetches a fresh catalog snapshot.
type Loader func(ctx context.Context) (*catalog.Snapshot, error)

// SnapshotCache keeps the catalog snapshot in memory. A snapshot younger than
// the stale time is served as is; an older one is reloaded, and while the
// reload fails a snapshot younger than the gc time is still served.
type SnapshotCache struct {
	load      Loader
	staleTime time.Duration
	gcTime    time.Duration
	retry     int
	rdb       *redis.Client
	redisKey  string
	now       func() time.Time

	mu          sync.Mutex
	snap        *catalog.Snapshot
	fetchedAt   time.Time
	invalidated bool
}

type Option func(*SnapshotCache)

func WithStaleTime(d time.Duration) Option {
	return func(c *SnapshotCache) {
		if d > 0 {
			c.staleTime = d
		}
	}
}

func WithGCTime(d time.Duration) Option {
	return func(c *SnapshotCache) {
		if d > 0 {
			c.gcTime = d
		}
	}
}

// WithRetry sets how many times a failed load is retried.
func WithRetry(n int) Option {
	return func(c *SnapshotCache) {
		if n >= 0 {
			c.retry = n
		}
	}
}

// WithRedis shares loaded snapshots between instances through rdb.
func WithRedis(rdb *redis.Client, key string) Option {
	return func(c *SnapshotCache) {
		c.rdb = rdb
		if key != "" {
			c.redisKey = key
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(c *SnapshotCache) { c.now = now }
}

func NewSnapshotCache(load Loader, opts ...Option) *SnapshotCache {
	c := &SnapshotCache{
		load:      load,
		staleTime: DefaultStaleTime,
		gcTime:    DefaultGCTime,
		retry:     DefaultRetry,
		redisKey:  DefaultRedisKey,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current snapshot, reloading it when stale.
func (c *SnapshotCache) Get(ctx context.Context) (*catalog.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	age := now.Sub(c.fetchedAt)
	if c.snap != nil && !c.invalidated && age < c.staleTime {
		return c.snap, nil
	}

	if !c.invalidated {
		if snap := c.readShared(ctx, now); snap != nil {
			c.snap, c.fetchedAt = snap, snap.LoadedAt
			return snap, nil
		}
	}

	snap, err := c.loadWithRetry(ctx)
	if err != nil {
		metrics.Incr(metrics.SnapshotFailures)
		if c.snap != nil && age < c.gcTime {
			zap.L().Warn("catalog reload failed, serving stale snapshot",
				zap.String("namespace", "catalog"),
				zap.Duration("age", age),
				zap.Error(err))
			return c.snap, nil
		}
		return nil, err
	}

	metrics.Incr(metrics.SnapshotReloads)
	c.snap, c.fetchedAt, c.invalidated = snap, now, false
	c.writeShared(ctx, snap)
	return snap, nil
}

// Refresh forces a reload.
func (c *SnapshotCache) Refresh(ctx context.Context) error {
	c.Invalidate()
	_, err := c.Get(ctx)
	return err
}

// Invalidate marks the snapshot stale; it stays available as a fallback
// until the gc time passes.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.invalidated = true
	c.mu.Unlock()

	if c.rdb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := c.rdb.Del(ctx, c.redisKey).Err(); err != nil {
			zap.L().Warn("catalog shared cache delete failed", zap.String("namespace", "catalog"), zap.Error(err))
		}
	}
}

// Collect drops a snapshot older than the gc time.
func (c *SnapshotCache) Collect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.snap == nil || c.now().Sub(c.fetchedAt) < c.gcTime {
		return false
	}
	c.snap = nil
	c.fetchedAt = time.Time{}
	return true
}

func (c *SnapshotCache) loadWithRetry(ctx context.Context) (*catalog.Snapshot, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retry; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		snap, err := c.load(ctx)
		if err == nil {
			return snap, nil
		}
		lastErr = err
		zap.L().Debug("catalog load attempt failed",
			zap.String("namespace", "catalog"),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}
	return nil, errors.Wrap(lastErr, "load catalog snapshot")
}

type sharedSnapshot struct {
	Products []catalog.Product `json:"products"`
	LoadedAt time.Time         `json:"loadedAt"`
}

func (c *SnapshotCache) readShared(ctx context.Context, now time.Time) *catalog.Snapshot {
	if c.rdb == nil {
		return nil
	}
	data, err := c.rdb.Get(ctx, c.redisKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			zap.L().Warn("catalog shared cache read failed", zap.String("namespace", "catalog"), zap.Error(err))
		}
		return nil
	}
	var shared sharedSnapshot
	if err := json.Unmarshal(data, &shared); err != nil {
		zap.L().Warn("catalog shared cache decode failed", zap.String("namespace", "catalog"), zap.Error(err))
		return nil
	}
	if now.Sub(shared.LoadedAt) >= c.staleTime {
		return nil
	}
	return catalog.NewSnapshot(shared.Products, shared.LoadedAt)
}

func (c *SnapshotCache) writeShared(ctx context.Context, snap *catalog.Snapshot) {
	if c.rdb == nil {
		return
	}
	data, err := json.Marshal(sharedSnapshot{Products: snap.Products, LoadedAt: snap.LoadedAt})
	if err != nil {
		zap.L().Warn("catalog shared cache encode failed", zap.String("namespace", "catalog"), zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, c.redisKey, data, c.gcTime).Err(); err != nil {
		zap.L().Warn("catalog shared cache write failed", zap.String("namespace", "catalog"), zap.Error(err))
	}
}

// NewRedisClient connects to addr and pings it.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connect redis")
	}
	return client, nil
}
