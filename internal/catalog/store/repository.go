package store

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/studiocraft/storefront/internal/catalog"
	"github.com/studiocraft/storefront/internal/domain"
	"github.com/studiocraft/storefront/pkg/common"
	"gorm.io/gorm"
)

// ProductRepository reads the sellable catalog from the database.
type ProductRepository struct {
	db *gorm.DB
}

var _ catalog.ProductSource = (*ProductRepository)(nil)

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) withCatalog(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Variations", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort ASC, id ASC")
		}).
		Preload("Variations.Attributes", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort ASC, id ASC")
		}).
		Preload("TeaCategories").
		Where("status = ?", common.ENABLED)
}

// AttributeNames maps attribute ids to their names.
func (r *ProductRepository) AttributeNames(ctx context.Context) (map[int64]string, error) {
	var attrs []domain.Attribute
	if err := r.db.WithContext(ctx).Find(&attrs).Error; err != nil {
		return nil, errors.Wrap(err, "query attributes")
	}
	names := make(map[int64]string, len(attrs))
	for _, a := range attrs {
		names[a.ID] = a.Name
	}
	return names, nil
}

// ProductByID returns an enabled product, or catalog.ErrProductNotFound.
func (r *ProductRepository) ProductByID(ctx context.Context, id int64) (*catalog.Product, error) {
	var row domain.Product
	err := r.withCatalog(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(catalog.ErrProductNotFound, "product %d", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query product %d", id)
	}
	names, err := r.AttributeNames(ctx)
	if err != nil {
		return nil, err
	}
	p := ToCatalogProduct(&row, names)
	return &p, nil
}

// LoadSnapshot reads every enabled product into a new snapshot.
func (r *ProductRepository) LoadSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	var rows []domain.Product
	if err := r.withCatalog(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "query catalog")
	}
	names, err := r.AttributeNames(ctx)
	if err != nil {
		return nil, err
	}
	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, ToCatalogProduct(&rows[i], names))
	}
	return catalog.NewSnapshot(products, time.Now()), nil
}
