package app

import (
	_ "embed"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/studiocraft/storefront/internal/domain"
	"go.uber.org/zap"
)

//go:embed config_schemas.json
var configSchemasData []byte

// ConfigSchema describes one runtime setting and its default.
type ConfigSchema struct {
	Key         string `json:"key"`
	Type        string `json:"type"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

type ConfigSchemasJSON struct {
	Schemas []ConfigSchema `json:"schemas"`
}

// ConfigManager caches sys_config rows keyed by "type.name".
type ConfigManager struct {
	app      DBProvider
	mu       sync.RWMutex
	values   map[string]string
	defaults map[string]string
}

func NewConfigManager(app DBProvider) *ConfigManager {
	cm := &ConfigManager{
		app:      app,
		values:   map[string]string{},
		defaults: map[string]string{},
	}
	var schemas ConfigSchemasJSON
	if err := json.Unmarshal(configSchemasData, &schemas); err == nil {
		for _, s := range schemas.Schemas {
			cm.defaults[s.Key] = s.Default
		}
	}
	cm.Reload()
	return cm
}

// Reload reads every setting from the database.
func (cm *ConfigManager) Reload() {
	var rows []domain.SysConfig
	if err := cm.app.DB().Find(&rows).Error; err != nil {
		zap.L().Error("load settings failed", zap.String("namespace", "app"), zap.Error(err))
		return
	}
	values := make(map[string]string, len(rows))
	for _, r := range rows {
		values[r.Type+"."+r.Name] = r.Value
	}
	cm.mu.Lock()
	cm.values = values
	cm.mu.Unlock()
}

func (cm *ConfigManager) get(category, key string) string {
	k := category + "." + key
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	if v, ok := cm.values[k]; ok {
		return v
	}
	return cm.defaults[k]
}

func (cm *ConfigManager) GetString(category, key string) string {
	return cm.get(category, key)
}

func (cm *ConfigManager) GetInt(category, key string) int {
	return cast.ToInt(cm.get(category, key))
}

func (cm *ConfigManager) GetInt64(category, key string) int64 {
	return cast.ToInt64(cm.get(category, key))
}

func (cm *ConfigManager) GetBool(category, key string) bool {
	return cast.ToBool(cm.get(category, key))
}

// All returns a copy of the effective settings, defaults included.
func (cm *ConfigManager) All() map[string]string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	out := make(map[string]string, len(cm.defaults)+len(cm.values))
	for k, v := range cm.defaults {
		out[k] = v
	}
	for k, v := range cm.values {
		out[k] = v
	}
	return out
}

// Set persists one setting and updates the cache.
func (cm *ConfigManager) Set(category, key, value string) error {
	db := cm.app.DB()
	var row domain.SysConfig
	err := db.Where("type = ? and name = ?", category, key).First(&row).Error
	switch {
	case err == nil:
		if err := db.Model(&row).Updates(map[string]interface{}{
			"value":      value,
			"updated_at": time.Now(),
		}).Error; err != nil {
			return errors.Wrapf(err, "update setting %s.%s", category, key)
		}
	default:
		if err := db.Create(&domain.SysConfig{
			Type:      category,
			Name:      key,
			Value:     value,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}).Error; err != nil {
			return errors.Wrapf(err, "create setting %s.%s", category, key)
		}
	}
	cm.mu.Lock()
	cm.values[category+"."+key] = value
	cm.mu.Unlock()
	return nil
}

// SplitKey splits "category.name".
func SplitKey(key string) (category, name string, ok bool) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
