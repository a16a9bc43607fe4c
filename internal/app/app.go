package app

import (
	"context"
	"os"
	"runtime/debug"
	"time"
	_ "time/tzdata"

	EventBus "github.com/asaskevich/EventBus"
	"github.com/go-redis/redis/v8"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cast"
	"github.com/studiocraft/storefront/config"
	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/catalog/store"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/orders"
	"github.com/studiocraft/storefront/pkg/common"
	"github.com/studiocraft/storefront/pkg/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// TopicCatalogChanged is published whenever products, variations or stock change.
const TopicCatalogChanged = orders.TopicStockChanged

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Application struct {
	appConfig     *config.AppConfig
	gormDB        *gorm.DB
	sched         *cron.Cron
	jobs          []*schedJob
	configManager *ConfigManager
	bus           EventBus.Bus
	rdb           *redis.Client
	products      *store.ProductRepository
	snapshots     *store.SnapshotCache
	resolver      *catalog.StockResolver
	orderService  *orders.Service
}

// Ensure Application implements all interfaces
var (
	_ DBProvider            = (*Application)(nil)
	_ ConfigProvider        = (*Application)(nil)
	_ SettingsProvider      = (*Application)(nil)
	_ SchedulerProvider     = (*Application)(nil)
	_ ConfigManagerProvider = (*Application)(nil)
	_ CatalogProvider       = (*Application)(nil)
	_ OrderProvider         = (*Application)(nil)
	_ AppContext            = (*Application)(nil)
)

func NewApplication(appConfig *config.AppConfig) *Application {
	return &Application{appConfig: appConfig}
}

func (a *Application) Config() *config.AppConfig {
	return a.appConfig
}

func (a *Application) DB() *gorm.DB {
	return a.gormDB
}

// OverrideDB replaces the application's database handle and rebuilds the
// services bound to it (used in tests).
func (a *Application) OverrideDB(db *gorm.DB) {
	a.gormDB = db
	a.initServices()
}

func (a *Application) Init(cfg *config.AppConfig) {
	loc, err := time.LoadLocation(cfg.System.Location)
	if err != nil {
		zap.S().Error("timezone config error")
	} else {
		time.Local = loc
	}

	initLogger(cfg)

	// Initialize metrics with workdir convention
	err = metrics.InitMetrics(cfg.System.Workdir)
	if err != nil {
		zap.S().Warn("Failed to initialize metrics:", err)
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	a.gormDB = getDatabase(cfg.Database, cfg.System.Workdir)
	zap.S().Infof("Database connection successful, type: %s", cfg.Database.Type)

	// Ensure database schema is migrated before loading configs
	if err := a.MigrateDB(false); err != nil {
		zap.S().Errorf("database migration failed: %v", err)
	}
	a.checkSettings()

	if cfg.Redis.Addr != "" {
		rdb, err := store.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zap.L().Warn("redis unavailable, catalog cache stays local",
				zap.String("namespace", "app"),
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err))
		} else {
			a.rdb = rdb
		}
	}

	a.initServices()

	// wait for database initialization to complete
	go func() {
		time.Sleep(3 * time.Second)
		a.SeedDefaults()
		a.PublishCatalogChanged()
	}()

	a.initJob()
}

func initLogger(cfg *config.AppConfig) {
	var zapConfig zap.Config
	if cfg.Logger.Mode == "production" {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.OutputPaths = []string{"stdout"}

	var logger *zap.Logger
	if cfg.Logger.FileEnable {
		lumberJackLogger := &lumberjack.Logger{
			Filename:   cfg.Logger.Filename,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
			Compress:   false,
		}

		core := zapcore.NewTee(
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(lumberJackLogger),
				zapConfig.Level,
			),
			zapcore.NewCore(
				zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
				zapcore.AddSync(os.Stdout),
				zapConfig.Level,
			),
		)
		logger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	} else {
		var err error
		logger, err = zapConfig.Build(zap.AddCaller(), zap.AddCallerSkip(1))
		if err != nil {
			panic(err)
		}
	}

	zap.ReplaceGlobals(logger)
}

// initServices wires the catalog read side, checkout and the event bus to
// the current database handle.
func (a *Application) initServices() {
	a.configManager = NewConfigManager(a)
	a.bus = EventBus.New()
	a.products = store.NewProductRepository(a.gormDB)
	a.resolver = catalog.NewStockResolver(a.products)

	opts := []store.Option{
		store.WithStaleTime(time.Duration(a.appConfig.Catalog.StaleSeconds) * time.Second),
		store.WithGCTime(time.Duration(a.appConfig.Catalog.GCSeconds) * time.Second),
		store.WithRetry(a.appConfig.Catalog.Retry),
	}
	if a.rdb != nil {
		opts = append(opts, store.WithRedis(a.rdb, store.DefaultRedisKey))
	}
	a.snapshots = store.NewSnapshotCache(a.products.LoadSnapshot, opts...)
	a.orderService = orders.NewService(a.gormDB, a.products, a.Policies, a.bus)

	if err := a.bus.Subscribe(TopicCatalogChanged, a.snapshots.Invalidate); err != nil {
		zap.L().Error("subscribe catalog events failed", zap.String("namespace", "app"), zap.Error(err))
	}
}

func (a *Application) MigrateDB(track bool) (err error) {
	defer func() {
		if err1 := recover(); err1 != nil {
			if os.Getenv("GO_DEGUB_TRACE") != "" {
				debug.PrintStack()
			}
			err2, ok := err1.(error)
			if ok {
				err = err2
				zap.S().Error(err2.Error())
			}
		}
	}()
	db := a.gormDB
	if track {
		db = db.Debug()
	}
	if err := db.Migrator().AutoMigrate(domain.Tables...); err != nil {
		zap.S().Error(err)
		return err
	}
	return nil
}

// DropAll drops every table, children first.
func (a *Application) DropAll() {
	tables := []interface{}{"product_tea_categories"}
	for i := len(domain.Tables) - 1; i >= 0; i-- {
		tables = append(tables, domain.Tables[i])
	}
	_ = a.gormDB.Migrator().DropTable(tables...)
}

func (a *Application) InitDb() {
	a.DropAll()
	err := a.gormDB.Migrator().AutoMigrate(domain.Tables...)
	if err != nil {
		zap.S().Error(err)
	}
}

// ConfigMgr returns the configuration manager
func (a *Application) ConfigMgr() *ConfigManager {
	return a.configManager
}

// Scheduler returns the cron scheduler
func (a *Application) Scheduler() *cron.Cron {
	return a.sched
}

func (a *Application) Bus() EventBus.Bus {
	return a.bus
}

func (a *Application) Snapshots() *store.SnapshotCache {
	return a.snapshots
}

func (a *Application) StockResolver() *catalog.StockResolver {
	return a.resolver
}

func (a *Application) Orders() *orders.Service {
	return a.orderService
}

// Policies builds the category stock policy table from settings.
func (a *Application) Policies() catalog.PolicyTable {
	if a.configManager == nil {
		return catalog.DefaultPolicies()
	}
	slugs := common.SplitTrim(a.configManager.GetString("catalog", "always_in_stock_categories"), ",")
	return catalog.PoliciesAlwaysInStock(slugs)
}

func (a *Application) Enricher() *catalog.Enricher {
	return catalog.NewEnricher(a.Policies())
}

// PublishCatalogChanged drops cached catalog snapshots.
func (a *Application) PublishCatalogChanged() {
	if a.bus != nil {
		a.bus.Publish(TopicCatalogChanged)
	}
}

// GetSettingsStringValue retrieves a string configuration value
func (a *Application) GetSettingsStringValue(category, key string) string {
	return a.configManager.GetString(category, key)
}

// GetSettingsInt64Value retrieves an int64 configuration value
func (a *Application) GetSettingsInt64Value(category, key string) int64 {
	return a.configManager.GetInt64(category, key)
}

// GetSettingsBoolValue retrieves a boolean configuration value
func (a *Application) GetSettingsBoolValue(category, key string) bool {
	return a.configManager.GetBool(category, key)
}

// SaveSettings saves "category.name" keyed settings.
func (a *Application) SaveSettings(settings map[string]interface{}) error {
	for key, value := range settings {
		category, name, ok := SplitKey(key)
		if !ok {
			return errors.Errorf("invalid setting key %q", key)
		}
		if err := a.configManager.Set(category, name, cast.ToString(value)); err != nil {
			return err
		}
	}
	return nil
}

// StartBackgroundJobs warms the catalog cache once the server is up.
func (a *Application) StartBackgroundJobs(ctx context.Context) {
	go func() {
		if err := a.snapshots.Refresh(ctx); err != nil {
			zap.L().Warn("initial catalog load failed", zap.String("namespace", "app"), zap.Error(err))
		}
	}()
}

// Release releases application resources
func (a *Application) Release() {
	if a.sched != nil {
		a.sched.Stop()
	}
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	_ = metrics.Close()
	_ = zap.L().Sync()
}
