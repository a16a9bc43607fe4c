package app

import (
	EventBus "github.com/asaskevich/EventBus"
	"github.com/robfig/cron/v3"
	"github.com/studiocraft/storefront/config"
	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/catalog/store"
	"github.com/studiocraft/storefront/internal/orders"
	"gorm.io/gorm"
)

// DBProvider provides database access
type DBProvider interface {
	DB() *gorm.DB
}

// ConfigProvider provides application configuration
type ConfigProvider interface {
	Config() *config.AppConfig
}

// SettingsProvider provides system settings access
type SettingsProvider interface {
	GetSettingsStringValue(category, key string) string
	GetSettingsInt64Value(category, key string) int64
	GetSettingsBoolValue(category, key string) bool
	SaveSettings(settings map[string]interface{}) error
}

// SchedulerProvider provides task scheduling capability
type SchedulerProvider interface {
	Scheduler() *cron.Cron
	Jobs() []JobInfo
	RunJob(name string) error
}

// ConfigManagerProvider provides configuration manager access
type ConfigManagerProvider interface {
	ConfigMgr() *ConfigManager
}

// CatalogProvider provides the catalog read side
type CatalogProvider interface {
	Snapshots() *store.SnapshotCache
	StockResolver() *catalog.StockResolver
	Enricher() *catalog.Enricher
	Policies() catalog.PolicyTable
}

// OrderProvider provides checkout
type OrderProvider interface {
	Orders() *orders.Service
}

// EventProvider provides the in-process event bus
type EventProvider interface {
	Bus() EventBus.Bus
	PublishCatalogChanged()
}

// AppContext combines all provider interfaces for full application context
// Services should depend on specific providers or this combined interface
type AppContext interface {
	DBProvider
	ConfigProvider
	SettingsProvider
	SchedulerProvider
	ConfigManagerProvider
	CatalogProvider
	OrderProvider
	EventProvider

	MigrateDB(track bool) error
	InitDb()
	DropAll()
	// SeedDefaults inserts default settings, categories, attributes and demo products
	SeedDefaults()
}
