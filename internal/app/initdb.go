package app

import (
	"strings"
	"time"

	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/pkg/common"
	"go.uber.org/zap"
)

// SeedDefaults inserts missing settings and the base catalog.
func (a *Application) SeedDefaults() {
	a.checkSettings()
	a.checkCategories()
	a.checkBrands()
	a.checkTeaCategories()
	a.checkAttributes()
	a.checkDemoProducts()
	if a.configManager != nil {
		a.configManager.Reload()
	}
}

func (a *Application) checkSettings() {
	// Load configuration definitions from the embedded JSON file
	var schemasData ConfigSchemasJSON
	if err := json.Unmarshal(configSchemasData, &schemasData); err != nil {
		zap.L().Error("failed to load config schemas from JSON", zap.Error(err))
		return
	}

	for sortid, schema := range schemasData.Schemas {
		category, name, ok := SplitKey(schema.Key)
		if !ok {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", category, name).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				ID:        common.UUIDint64(),
				Sort:      sortid,
				Type:      category,
				Name:      name,
				Value:     schema.Default,
				Remark:    schema.Description,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}

// checkCategories initializes the storefront categories
func (a *Application) checkCategories() {
	defaults := []domain.Category{
		{Slug: "tea", Name: "Tea", Description: "Loose leaf tea sold by weight", Sort: 1},
		{Slug: "teaware", Name: "Teaware", Description: "Cups, pots and accessories", Sort: 2},
		{Slug: "prints", Name: "Prints", Description: "Posters and art prints", Sort: 3},
		{Slug: "stickers", Name: "Stickers", Description: "Printed on demand, always available", Sort: 4},
	}
	for _, c := range defaults {
		var count int64
		a.gormDB.Model(&domain.Category{}).Where("slug = ?", c.Slug).Count(&count)
		if count > 0 {
			continue
		}
		if err := a.gormDB.Create(&c).Error; err != nil {
			zap.L().Error("failed to create default category", zap.String("slug", c.Slug), zap.Error(err))
		} else {
			zap.L().Info("initialized default category", zap.String("slug", c.Slug))
		}
	}
}

func (a *Application) checkBrands() {
	var count int64
	a.gormDB.Model(&domain.Brand{}).Where("slug = ?", "house").Count(&count)
	if count == 0 {
		if err := a.gormDB.Create(&domain.Brand{Slug: "house", Name: "House brand"}).Error; err != nil {
			zap.L().Error("failed to create default brand", zap.Error(err))
		}
	}
}

func (a *Application) checkTeaCategories() {
	defaults := []domain.TeaCategory{
		{Slug: "green", Name: "Green", Sort: 1},
		{Slug: "oolong", Name: "Oolong", Sort: 2},
		{Slug: "black", Name: "Black", Sort: 3},
		{Slug: "puer", Name: "Pu-erh", Sort: 4},
	}
	for _, tc := range defaults {
		var count int64
		a.gormDB.Model(&domain.TeaCategory{}).Where("slug = ?", tc.Slug).Count(&count)
		if count == 0 {
			if err := a.gormDB.Create(&tc).Error; err != nil {
				zap.L().Error("failed to create tea category", zap.String("slug", tc.Slug), zap.Error(err))
			}
		}
	}
}

// checkAttributes initializes the variation attributes
func (a *Application) checkAttributes() {
	for _, name := range []string{"Size", "Color"} {
		var count int64
		a.gormDB.Model(&domain.Attribute{}).Where("name = ?", name).Count(&count)
		if count == 0 {
			if err := a.gormDB.Create(&domain.Attribute{Name: name, Slug: strings.ToLower(name)}).Error; err != nil {
				zap.L().Error("failed to create attribute", zap.String("name", name), zap.Error(err))
			}
		}
	}
}

// checkDemoProducts fills an empty catalog with one product of each kind.
func (a *Application) checkDemoProducts() {
	var count int64
	a.gormDB.Model(&domain.Product{}).Count(&count)
	if count > 0 {
		return
	}

	var size, color domain.Attribute
	a.gormDB.Where("name = ?", "Size").First(&size)
	a.gormDB.Where("name = ?", "Color").First(&color)
	var green domain.TeaCategory
	a.gormDB.Where("slug = ?", "green").First(&green)

	demo := []domain.Product{
		{
			Slug: "sencha-kagoshima", Name: "Sencha Kagoshima", Price: 9.5,
			HasVolume: true, Volume: "1000", Weight: "50",
			CategorySlug: "tea", BrandSlug: "house",
			Images:        "/images/sencha-1.jpg,/images/sencha-2.jpg",
			TeaCategories: []domain.TeaCategory{green},
		},
		{
			Slug: "tokoname-kyusu", Name: "Tokoname kyusu", Price: 68, Stock: 4,
			CategorySlug: "teaware", BrandSlug: "house", Images: "/images/kyusu.jpg",
		},
		{
			Slug: "wave-poster", Name: "Wave poster", HasVariations: true,
			CategorySlug: "prints", BrandSlug: "house", Images: "/images/wave.jpg",
			Variations: []domain.ProductVariation{
				{Sku: "WAVE-A3", Price: 25, Stock: 10, Sort: 1, Attributes: []domain.VariationAttribute{
					{AttributeID: size.ID, Value: "A3"},
				}},
				{Sku: "WAVE-A2-IND", Price: 40, Stock: 2, Sort: 2, Attributes: []domain.VariationAttribute{
					{AttributeID: size.ID, Value: "A2", Sort: 1},
					{AttributeID: color.ID, Value: "Indigo", Sort: 2},
				}},
			},
		},
		{
			Slug: "teapot-sticker", Name: "Teapot sticker", Price: 3,
			CategorySlug: "stickers", BrandSlug: "house", Images: "/images/sticker.png",
		},
		{
			Slug: "gift-card", Name: "Gift card", Price: 25, UnlimitedStock: true,
			CategorySlug: "gifts", Images: "/images/gift.png",
		},
	}
	for i := range demo {
		demo[i].Status = common.ENABLED
		if err := a.gormDB.Create(&demo[i]).Error; err != nil {
			zap.L().Error("failed to create demo product", zap.String("slug", demo[i].Slug), zap.Error(err))
		} else {
			zap.L().Info("initialized demo product", zap.String("slug", demo[i].Slug))
		}
	}
}
