package adminapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/360EntSecGroup-Skylar/excelize"
	"github.com/gocarina/gocsv"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/internal/webserver"
	"github.com/studiocraft/storefront/pkg/common"
)

// productRow is the flat product layout of CSV and XLSX files. Variations
// are not part of the file; they are edited in the admin UI.
type productRow struct {
	Slug           string  `csv:"slug"`
	Name           string  `csv:"name"`
	Price          float64 `csv:"price"`
	Discount       string  `csv:"discount"`
	Stock          int     `csv:"stock"`
	UnlimitedStock bool    `csv:"unlimited_stock"`
	HasVolume      bool    `csv:"has_volume"`
	Volume         string  `csv:"volume"`
	Weight         string  `csv:"weight"`
	Images         string  `csv:"images"`
	CategorySlug   string  `csv:"category_slug"`
	BrandSlug      string  `csv:"brand_slug"`
	Status         string  `csv:"status"`
	HasVariations  bool    `csv:"has_variations"`
}

var productRowHeader = []string{
	"slug", "name", "price", "discount", "stock", "unlimited_stock", "has_volume",
	"volume", "weight", "images", "category_slug", "brand_slug", "status", "has_variations",
}

func toProductRow(p domain.Product) productRow {
	row := productRow{
		Slug:           p.Slug,
		Name:           p.Name,
		Price:          p.Price,
		Stock:          p.Stock,
		UnlimitedStock: p.UnlimitedStock,
		HasVolume:      p.HasVolume,
		Volume:         p.Volume,
		Weight:         p.Weight,
		Images:         p.Images,
		CategorySlug:   p.CategorySlug,
		BrandSlug:      p.BrandSlug,
		Status:         p.Status,
		HasVariations:  p.HasVariations,
	}
	if p.Discount != nil {
		row.Discount = strconv.FormatFloat(*p.Discount, 'f', -1, 64)
	}
	return row
}

func (r productRow) values() []interface{} {
	return []interface{}{
		r.Slug, r.Name, r.Price, r.Discount, r.Stock, r.UnlimitedStock, r.HasVolume,
		r.Volume, r.Weight, r.Images, r.CategorySlug, r.BrandSlug, r.Status, r.HasVariations,
	}
}

func registerTransferRoutes() {
	webserver.ApiGET("/admin/catalog/export/products.csv", exportProductsCSV)
	webserver.ApiGET("/admin/catalog/export/products.xlsx", exportProductsXLSX)
	webserver.ApiPOST("/admin/catalog/import/products", importProductsCSV)
}

func exportRows(c echo.Context) ([]productRow, error) {
	var products []domain.Product
	if err := GetDB(c).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	rows := make([]productRow, 0, len(products))
	for _, p := range products {
		rows = append(rows, toProductRow(p))
	}
	return rows, nil
}

func exportProductsCSV(c echo.Context) error {
	rows, err := exportRows(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}
	data, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "EXPORT_ERROR", "Failed to encode products", err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=products-%s.csv", time.Now().Format("20060102")))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", data)
}

func exportProductsXLSX(c echo.Context) error {
	rows, err := exportRows(c)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query products", err.Error())
	}

	const sheet = "Sheet1"
	xlsx := excelize.NewFile()
	for col, title := range productRowHeader {
		xlsx.SetCellValue(sheet, excelize.ToAlphaString(col)+"1", title)
	}
	for i, row := range rows {
		for col, v := range row.values() {
			xlsx.SetCellValue(sheet, excelize.ToAlphaString(col)+strconv.Itoa(i+2), v)
		}
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=products-%s.xlsx", time.Now().Format("20060102")))
	c.Response().WriteHeader(http.StatusOK)
	return xlsx.Write(c.Response())
}

type importResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

// importProductsCSV upserts products by slug from an uploaded CSV file
func importProductsCSV(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "CSV file is required", err.Error())
	}
	src, err := file.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to read upload", err.Error())
	}
	defer src.Close()

	var rows []productRow
	if err := gocsv.Unmarshal(src, &rows); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_CSV", "Unable to parse CSV", err.Error())
	}

	db := GetDB(c)
	result := importResult{}
	for i, row := range rows {
		line := i + 2
		slug := strings.TrimSpace(row.Slug)
		name := strings.TrimSpace(row.Name)
		if slug == "" || name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: slug and name are required", line))
			continue
		}
		var discount *float64
		if d := strings.TrimSpace(row.Discount); d != "" {
			v, err := cast.ToFloat64E(d)
			if err != nil || v < 0 || v > 100 {
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid discount %q", line, d))
				continue
			}
			discount = &v
		}
		if row.Price < 0 || row.Stock < 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: price and stock must be >= 0", line))
			continue
		}
		status := common.IfEmptyStr(strings.TrimSpace(row.Status), common.ENABLED)
		if status != common.ENABLED && status != common.DISABLED {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid status %q", line, row.Status))
			continue
		}

		var p domain.Product
		found := db.Where("slug = ?", slug).Limit(1).Find(&p).RowsAffected > 0
		if !found {
			p = domain.Product{Slug: slug, CreatedAt: time.Now()}
		}
		p.Name = name
		p.Price = row.Price
		p.Discount = discount
		p.Stock = row.Stock
		p.UnlimitedStock = row.UnlimitedStock
		p.HasVolume = row.HasVolume
		p.HasVariations = row.HasVariations
		p.Volume = strings.TrimSpace(row.Volume)
		p.Weight = strings.TrimSpace(row.Weight)
		p.Images = strings.Join(common.SplitTrim(row.Images, ","), ",")
		p.CategorySlug = strings.TrimSpace(row.CategorySlug)
		p.BrandSlug = strings.TrimSpace(row.BrandSlug)
		p.Status = status
		p.UpdatedAt = time.Now()

		if err := db.Save(&p).Error; err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %s", line, err.Error()))
			continue
		}
		if found {
			result.Updated++
		} else {
			result.Created++
		}
	}

	if result.Created+result.Updated > 0 {
		catalogChanged(c, "product_import", fmt.Sprintf("import products: %d created, %d updated", result.Created, result.Updated))
	}
	return ok(c, result)
}
