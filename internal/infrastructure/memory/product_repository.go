// Package memory holds in-process repositories used for local runs and tests
package memory

import (
	"context"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/simplespend/backend/internal/domain"
)

// ProductRepository keeps the catalog in memory. Products are copied on the
// way in and out so callers never share state with the store.
type ProductRepository struct {
	mu       sync.RWMutex
	products []*domain.Product
	byID     map[string]*domain.Product
	byName   map[string]*domain.Product
}

// NewProductRepository creates an empty in-memory catalog
func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		byID:   make(map[string]*domain.Product),
		byName: make(map[string]*domain.Product),
	}
}

// FindByID returns a product by id
func (r *ProductRepository) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p.Clone(), nil
}

// FindByName returns the product whose name folds to the same merge key
func (r *ProductRepository) FindByName(_ context.Context, name string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byName[domain.NameKey(name)]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return p.Clone(), nil
}

// Find returns the products matching filter
func (r *ProductRepository) Find(_ context.Context, filter domain.ProductFilter, opts domain.FindOptions) ([]*domain.Product, error) {
	r.mu.RLock()
	matched := make([]*domain.Product, 0)
	for _, p := range r.products {
		if matches(p, filter) {
			matched = append(matched, p.Clone())
		}
	}
	r.mu.RUnlock()

	if opts.SortByPrice {
		domain.SortByBestPrice(matched)
	}

	if opts.Skip > 0 {
		if opts.Skip >= int64(len(matched)) {
			return []*domain.Product{}, nil
		}
		matched = matched[opts.Skip:]
	}
	if opts.Limit > 0 && opts.Limit < int64(len(matched)) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// Count returns the number of products matching filter
func (r *ProductRepository) Count(_ context.Context, filter domain.ProductFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if matches(p, filter) {
			n++
		}
	}
	return n, nil
}

// Sample returns up to n products in random order
func (r *ProductRepository) Sample(_ context.Context, n int) ([]*domain.Product, error) {
	r.mu.RLock()
	all := make([]*domain.Product, len(r.products))
	for i, p := range r.products {
		all[i] = p.Clone()
	}
	r.mu.RUnlock()

	rand.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// Categories returns the distinct categories ordered by name
func (r *ProductRepository) Categories(_ context.Context) ([]domain.CategoryInfo, error) {
	r.mu.RLock()
	counts := make(map[string]int64)
	for _, p := range r.products {
		counts[p.Category]++
	}
	r.mu.RUnlock()

	categories := make([]domain.CategoryInfo, 0, len(counts))
	for name, count := range counts {
		categories = append(categories, domain.CategoryInfo{Name: name, ProductCount: count})
	}
	slices.SortFunc(categories, func(a, b domain.CategoryInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return categories, nil
}

// ReplaceAll builds the new catalog aside and swaps it in under the lock, so a
// cancelled call leaves the current catalog in place
func (r *ProductRepository) ReplaceAll(ctx context.Context, products []*domain.Product) error {
	now := time.Now().UTC()

	next := make([]*domain.Product, 0, len(products))
	byID := make(map[string]*domain.Product, len(products))
	byName := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := domain.NameKey(p.Name)
		if _, dup := byName[key]; dup {
			continue
		}

		stored := p.Clone()
		stored.ID = uuid.NewString()
		stored.Version = 1
		stored.CreatedAt = now
		stored.UpdatedAt = now

		next = append(next, stored)
		byID[stored.ID] = stored
		byName[key] = stored
	}

	r.mu.Lock()
	r.products = next
	r.byID = byID
	r.byName = byName
	r.mu.Unlock()

	return nil
}

// Save inserts a new product or updates an existing one when its version still
// matches. The caller's product receives the stored id, version and timestamps.
func (r *ProductRepository) Save(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	key := domain.NameKey(product.Name)

	if product.ID == "" {
		// Someone else inserted the same name first
		if _, taken := r.byName[key]; taken {
			return domain.ErrVersionConflict
		}
		product.ID = uuid.NewString()
		product.Version = 1
		product.CreatedAt = now
		product.UpdatedAt = now

		stored := product.Clone()
		r.products = append(r.products, stored)
		r.byID[stored.ID] = stored
		r.byName[key] = stored
		return nil
	}

	current, ok := r.byID[product.ID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if current.Version != product.Version {
		return domain.ErrVersionConflict
	}

	product.Version++
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = now

	stored := product.Clone()
	i := slices.Index(r.products, current)
	r.products[i] = stored
	r.byID[stored.ID] = stored
	delete(r.byName, domain.NameKey(current.Name))
	r.byName[key] = stored
	return nil
}

// Delete removes a product by id
func (r *ProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[id]
	if !ok {
		return domain.ErrProductNotFound
	}

	r.products = slices.DeleteFunc(r.products, func(p *domain.Product) bool { return p == current })
	delete(r.byID, id)
	delete(r.byName, domain.NameKey(current.Name))
	return nil
}

func matches(p *domain.Product, f domain.ProductFilter) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.BestStore != "" && (p.BestPrice == nil || p.BestPrice.StoreName != f.BestStore) {
		return false
	}
	if f.Brand != "" && !slices.Contains(p.Brands(), f.Brand) {
		return false
	}
	if f.Text != "" && !matchesText(p, strings.ToLower(f.Text)) {
		return false
	}
	return true
}

func matchesText(p *domain.Product, needle string) bool {
	if strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Category), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	for _, s := range p.Stores {
		if strings.Contains(strings.ToLower(s.BrandName), needle) {
			return true
		}
	}
	return false
}
