package config

import (
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// SysConfig system configuration
type SysConfig struct {
	Appid    string `yaml:"appid"`
	Location string `yaml:"location"`
	Workdir  string `yaml:"workdir"`
	Debug    bool   `yaml:"debug"`
}

// WebConfig web server configuration
type WebConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Secret string `yaml:"secret"`
}

// DBConfig database configuration; Type is sqlite or postgres
type DBConfig struct {
	Type     string `yaml:"type"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Passwd   string `yaml:"passwd"`
	MaxConn  int    `yaml:"max_conn"`
	IdleConn int    `yaml:"idle_conn"`
	Debug    bool   `yaml:"debug"`
}

type LogConfig struct {
	Mode       string `yaml:"mode"`
	FileEnable bool   `yaml:"file_enable"`
	Filename   string `yaml:"filename"`
}

// CatalogConfig controls the server side catalog snapshot cache.
type CatalogConfig struct {
	StaleSeconds int `yaml:"stale_seconds"`
	GCSeconds    int `yaml:"gc_seconds"`
	Retry        int `yaml:"retry"`
}

// RedisConfig enables the shared snapshot cache when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AppConfig struct {
	System   SysConfig     `yaml:"system"`
	Web      WebConfig     `yaml:"web"`
	Database DBConfig      `yaml:"database"`
	Logger   LogConfig     `yaml:"logger"`
	Catalog  CatalogConfig `yaml:"catalog"`
	Redis    RedisConfig   `yaml:"redis"`
}

func (c *AppConfig) GetLogDir() string {
	return path.Join(c.System.Workdir, "logs")
}

func (c *AppConfig) GetDataDir() string {
	return path.Join(c.System.Workdir, "data")
}

func (c *AppConfig) initDirs() {
	_ = os.MkdirAll(c.GetLogDir(), 0o755)
	_ = os.MkdirAll(c.GetDataDir(), 0o755)
}

// DefaultAppConfig returns the built in configuration.
func DefaultAppConfig() *AppConfig {
	return &AppConfig{
		System: SysConfig{
			Appid:    "StoreFront",
			Location: "Europe/Berlin",
			Workdir:  "/var/storefront",
		},
		Web: WebConfig{
			Host:   "0.0.0.0",
			Port:   8080,
			Secret: "9b6de5cc-0731-4f72-a3d4-storefront",
		},
		Database: DBConfig{
			Type:     "sqlite",
			Name:     "storefront.db",
			MaxConn:  20,
			IdleConn: 5,
		},
		Logger: LogConfig{
			Mode:     "development",
			Filename: "/var/storefront/logs/storefront.log",
		},
		Catalog: CatalogConfig{
			StaleSeconds: 300,
			GCSeconds:    1800,
			Retry:        3,
		},
	}
}

// LoadConfig reads cfile (when it exists) over the defaults, then applies
// STOREFRONT_* environment overrides. A .env file in the working directory is
// loaded first when present.
func LoadConfig(cfile string) *AppConfig {
	_ = godotenv.Load()

	cfg := DefaultAppConfig()
	if cfile == "" {
		cfile = os.Getenv("STOREFRONT_CONFIG")
	}
	if cfile != "" {
		if data, err := os.ReadFile(cfile); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				panic(err)
			}
		}
	}
	applyEnv(cfg)
	cfg.initDirs()
	return cfg
}

func applyEnv(cfg *AppConfig) {
	setEnvString("STOREFRONT_SYSTEM_WORKDIR", &cfg.System.Workdir)
	setEnvString("STOREFRONT_SYSTEM_LOCATION", &cfg.System.Location)
	setEnvBool("STOREFRONT_SYSTEM_DEBUG", &cfg.System.Debug)
	setEnvString("STOREFRONT_WEB_HOST", &cfg.Web.Host)
	setEnvInt("STOREFRONT_WEB_PORT", &cfg.Web.Port)
	setEnvString("STOREFRONT_WEB_SECRET", &cfg.Web.Secret)
	setEnvString("STOREFRONT_DB_TYPE", &cfg.Database.Type)
	setEnvString("STOREFRONT_DB_HOST", &cfg.Database.Host)
	setEnvInt("STOREFRONT_DB_PORT", &cfg.Database.Port)
	setEnvString("STOREFRONT_DB_NAME", &cfg.Database.Name)
	setEnvString("STOREFRONT_DB_USER", &cfg.Database.User)
	setEnvString("STOREFRONT_DB_PWD", &cfg.Database.Passwd)
	setEnvBool("STOREFRONT_DB_DEBUG", &cfg.Database.Debug)
	setEnvString("STOREFRONT_LOGGER_MODE", &cfg.Logger.Mode)
	setEnvBool("STOREFRONT_LOGGER_FILE_ENABLE", &cfg.Logger.FileEnable)
	setEnvInt("STOREFRONT_CATALOG_STALE_SECONDS", &cfg.Catalog.StaleSeconds)
	setEnvInt("STOREFRONT_CATALOG_GC_SECONDS", &cfg.Catalog.GCSeconds)
	setEnvInt("STOREFRONT_CATALOG_RETRY", &cfg.Catalog.Retry)
	setEnvString("STOREFRONT_REDIS_ADDR", &cfg.Redis.Addr)
	setEnvString("STOREFRONT_REDIS_PASSWORD", &cfg.Redis.Password)
	setEnvInt("STOREFRONT_REDIS_DB", &cfg.Redis.DB)
}

func setEnvString(name string, val *string) {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		*val = v
	}
}

func setEnvInt(name string, val *int) {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(name))); err == nil {
		*val = v
	}
}

func setEnvBool(name string, val *bool) {
	if v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(name))); err == nil {
		*val = v
	}
}
