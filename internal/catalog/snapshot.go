package catalog

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrProductNotFound is returned by a ProductSource when the id is unknown.
var ErrProductNotFound = errors.New("product not found")

// ProductSource looks up a single product with its variations.
type ProductSource interface {
	ProductByID(ctx context.Context, id int64) (*Product, error)
}

// Snapshot is a read-only view of the catalog at LoadedAt. Do not modify
// Products after NewSnapshot; lookups share the underlying slice.
type Snapshot struct {
	Products []Product `json:"products"`
	LoadedAt time.Time `json:"loadedAt"`

	byID   map[int64]int
	bySlug map[string]int
}

var _ ProductSource = (*Snapshot)(nil)

func NewSnapshot(products []Product, loadedAt time.Time) *Snapshot {
	if products == nil {
		products = []Product{}
	}
	s := &Snapshot{
		Products: products,
		LoadedAt: loadedAt,
		byID:     make(map[int64]int, len(products)),
		bySlug:   make(map[string]int, len(products)),
	}
	for i := range products {
		s.byID[products[i].ID] = i
		if products[i].Slug != "" {
			s.bySlug[products[i].Slug] = i
		}
	}
	return s
}

// Product returns the product with id, or nil.
func (s *Snapshot) Product(id int64) *Product {
	if s == nil {
		return nil
	}
	i, ok := s.byID[id]
	if !ok {
		return nil
	}
	return &s.Products[i]
}

func (s *Snapshot) ProductBySlug(slug string) *Product {
	if s == nil {
		return nil
	}
	i, ok := s.bySlug[slug]
	if !ok {
		return nil
	}
	return &s.Products[i]
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Products)
}

// ProductByID implements ProductSource.
func (s *Snapshot) ProductByID(_ context.Context, id int64) (*Product, error) {
	p := s.Product(id)
	if p == nil {
		return nil, ErrProductNotFound
	}
	return p, nil
}
