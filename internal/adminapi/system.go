package adminapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"
	"gorm.io/gorm"

	"github.com/studiocraft/storefront/internal/app"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
	"github.com/studiocraft/storefront/pkg/metrics"
)

type tableInfo struct {
	Name     string `json:"name"`
	RowCount int64  `json:"row_count"`
}

type serverInfo struct {
	DatabaseType    string           `json:"database_type"`
	DatabaseVersion string           `json:"database_version"`
	DatabaseSize    string           `json:"database_size,omitempty"`
	ServerTime      string           `json:"server_time"`
	Tables          []tableInfo      `json:"tables"`
	Gauges          map[string]int64 `json:"gauges"`
}

func registerSystemRoutes() {
	webserver.ApiGET("/admin/system/info", systemInfo)
	webserver.ApiGET("/admin/system/jobs", listJobs)
	webserver.ApiPOST("/admin/system/jobs/:name/run", runJob)
}

func listJobs(c echo.Context) error {
	return ok(c, GetAppContext(c).Jobs())
}

// runJob triggers a background job immediately
func runJob(c echo.Context) error {
	name := c.Param("name")
	err := GetAppContext(c).RunJob(name)
	if errors.Is(err, app.ErrUnknownJob) {
		return fail(c, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", name)
	} else if err != nil {
		return fail(c, http.StatusInternalServerError, "RUN_FAILED", "Failed to run job", err.Error())
	}
	logOperation(c, "job_run", "run job "+name)
	return c.NoContent(http.StatusNoContent)
}

// systemInfo reports the database server and row counts of the storefront tables
func systemInfo(c echo.Context) error {
	db := GetDB(c)
	info := serverInfo{
		DatabaseType: db.Dialector.Name(),
		ServerTime:   time.Now().Format("2006-01-02 15:04:05"),
		Tables:       make([]tableInfo, 0, len(domain.Tables)),
		Gauges: map[string]int64{
			"system_cpuuse":               metrics.GetGauge("system_cpuuse"),
			"system_memuse":               metrics.GetGauge("system_memuse"),
			"storefront_cpuuse":           metrics.GetGauge("storefront_cpuuse"),
			"storefront_memuse":           metrics.GetGauge("storefront_memuse"),
			"storefront_catalog_products": metrics.GetGauge("storefront_catalog_products"),
		},
	}

	switch info.DatabaseType {
	case "postgres":
		db.Raw("SELECT version()").Scan(&info.DatabaseVersion)
		db.Raw("SELECT pg_size_pretty(pg_database_size(current_database()))").Scan(&info.DatabaseSize)
	case "sqlite":
		var version string
		db.Raw("SELECT sqlite_version()").Scan(&version)
		info.DatabaseVersion = "SQLite " + version
		var pageCount, pageSize int64
		db.Raw("PRAGMA page_count").Scan(&pageCount)
		db.Raw("PRAGMA page_size").Scan(&pageSize)
		info.DatabaseSize = bytes.Format(pageCount * pageSize)
	}

	for _, model := range domain.Tables {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to inspect tables", err.Error())
		}
		var n int64
		if err := db.Model(model).Count(&n).Error; err != nil {
			return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count rows", err.Error())
		}
		info.Tables = append(info.Tables, tableInfo{Name: stmt.Schema.Table, RowCount: n})
	}
	return ok(c, info)
}
