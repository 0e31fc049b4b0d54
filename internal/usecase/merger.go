package usecase

import (
	"fmt"

	"github.com/simplespend/backend/internal/domain"
)

// DefaultCategory is applied to products whose exports carry no category
const DefaultCategory = "Atta & Grains"

// ListingPolicy decides what happens when an offer arrives for a store that
// already lists the product
type ListingPolicy string

const (
	// ListingAppend adds a new listing every time, even for a store already present
	ListingAppend ListingPolicy = "append"
	// ListingReplace replaces the variants of the listing with the same store and brand
	ListingReplace ListingPolicy = "replace"
)

// ParseListingPolicy validates a configured policy name
func ParseListingPolicy(s string) (ListingPolicy, error) {
	switch p := ListingPolicy(s); p {
	case ListingAppend, ListingReplace:
		return p, nil
	case "":
		return ListingAppend, nil
	default:
		return "", fmt.Errorf("%w: unknown listing policy %q", domain.ErrInvalidInput, s)
	}
}

// MergeConfig holds configuration for the merger
type MergeConfig struct {
	DefaultCategory string
	Policy          ListingPolicy
}

// Merger groups store offers into canonical products by case-insensitive name.
// It is a single stable pass: products keep first-occurrence order and
// listings keep arrival order.
type Merger struct {
	defaultCategory string
	policy          ListingPolicy

	index   map[string]*domain.Product
	order   []*domain.Product
	touched map[*domain.Product]bool
	dirty   []*domain.Product
}

// NewMerger creates a merger seeded with already persisted products, which are
// extended in place rather than duplicated
func NewMerger(config MergeConfig, existing ...*domain.Product) *Merger {
	category := config.DefaultCategory
	if category == "" {
		category = DefaultCategory
	}
	policy := config.Policy
	if policy == "" {
		policy = ListingAppend
	}

	m := &Merger{
		defaultCategory: category,
		policy:          policy,
		index:           make(map[string]*domain.Product, len(existing)),
		touched:         make(map[*domain.Product]bool),
	}
	for _, p := range existing {
		if p == nil {
			continue
		}
		key := domain.NameKey(p.Name)
		if _, dup := m.index[key]; dup {
			continue
		}
		m.index[key] = p
		m.order = append(m.order, p)
	}
	return m
}

// Add merges one offer
func (m *Merger) Add(offer domain.StoreOffer) {
	key := domain.NameKey(offer.ProductName)
	if key == "" || len(offer.Variants) == 0 {
		return
	}

	product, ok := m.index[key]
	if !ok {
		product = domain.NewProduct(offer.ProductName, offer.Description, offer.Category)
		m.index[key] = product
		m.order = append(m.order, product)
	} else {
		if product.Description == "" {
			product.Description = offer.Description
		}
		if product.Category == "" {
			product.Category = offer.Category
		}
	}

	if m.policy == ListingReplace {
		product.UpsertListing(offer.Listing())
	} else {
		product.AddListing(offer.Listing())
	}

	if !m.touched[product] {
		m.touched[product] = true
		m.dirty = append(m.dirty, product)
	}
}

// Products returns every product known to the merger, existing ones first,
// then new ones in first-occurrence order
func (m *Merger) Products() []*domain.Product {
	m.applyDefaults(m.order)
	out := make([]*domain.Product, len(m.order))
	copy(out, m.order)
	return out
}

// Touched returns only the products changed by Add, in first-touch order
func (m *Merger) Touched() []*domain.Product {
	m.applyDefaults(m.dirty)
	out := make([]*domain.Product, len(m.dirty))
	copy(out, m.dirty)
	return out
}

func (m *Merger) applyDefaults(products []*domain.Product) {
	for _, p := range products {
		if p.Category == "" {
			p.Category = m.defaultCategory
		}
	}
}

// Merge runs one pass over offers on top of existing products and returns the
// resulting product set
func Merge(config MergeConfig, offers []domain.StoreOffer, existing ...*domain.Product) []*domain.Product {
	m := NewMerger(config, existing...)
	for _, offer := range offers {
		m.Add(offer)
	}
	return m.Products()
}
