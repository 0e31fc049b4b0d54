package domain

import (
	"context"
	"time"
)

// ProductFilter selects products. Empty fields do not constrain the result.
type ProductFilter struct {
	// Text matches name, category, description or any listing brand as a
	// case-insensitive literal substring
	Text string
	// Category must equal the product category exactly
	Category string
	// BestStore must equal the best-price store exactly
	BestStore string
	// Brand must equal one of the listing brands exactly
	Brand string
}

// FindOptions controls paging and ordering of product queries
type FindOptions struct {
	Skip  int64
	Limit int64
	// SortByPrice orders by best price ascending with unpriced products last;
	// otherwise products come back in persisted order
	SortByPrice bool
}

// ProductRepository is the document store holding canonical products
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	// FindByName looks a product up by its merge key, see NameKey
	FindByName(ctx context.Context, name string) (*Product, error)
	Find(ctx context.Context, filter ProductFilter, opts FindOptions) ([]*Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	// Sample returns up to n products chosen at random
	Sample(ctx context.Context, n int) ([]*Product, error)
	Categories(ctx context.Context) ([]CategoryInfo, error)
	// ReplaceAll swaps the whole catalog for the given products in their order.
	// Readers observe either the old or the new catalog.
	ReplaceAll(ctx context.Context, products []*Product) error
	// Save inserts a product without an ID or updates it when the stored version
	// still equals product.Version. Returns ErrVersionConflict otherwise.
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id string) error
}

// CartRepository persists carts
type CartRepository interface {
	// Get returns the user's cart, or an empty cart when none exists
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	// Get decodes the cached value into dest or returns ErrCacheMiss
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogSource yields raw catalog exports
type CatalogSource interface {
	Name() string
	Fetch(ctx context.Context) ([]byte, error)
}
