package domain

import "time"

const (
	// DefaultSize is used for price variants that come without a size
	DefaultSize = "N/A"

	// UnknownBrand is used for listings whose export carries no brand
	UnknownBrand = "Unknown"

	// MaxVariantImages is the number of fixed image slots an export variant carries
	MaxVariantImages = 4
)

// PriceVariant is one size/price option of a product at one store
type PriceVariant struct {
	Size    string   `json:"size"`
	Cost    float64  `json:"cost"`
	Offer   string   `json:"offer,omitempty"`
	Barcode string   `json:"barcode,omitempty"`
	Images  []string `json:"images,omitempty"`
}

// StoreOffer is a normalized item of one store's export, before merging
type StoreOffer struct {
	StoreName   string         `json:"storeName"`
	BrandName   string         `json:"brandName"`
	ProductName string         `json:"productName"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Variants    []PriceVariant `json:"variants"`
}

// Listing builds the store listing this offer contributes to a product
func (o StoreOffer) Listing() StoreListing {
	variants := make([]PriceVariant, len(o.Variants))
	copy(variants, o.Variants)
	return StoreListing{
		StoreName: o.StoreName,
		BrandName: o.BrandName,
		Variants:  variants,
	}
}

// StoreListing is a store's view of a canonical product
type StoreListing struct {
	StoreName string         `json:"storeName"`
	BrandName string         `json:"brand"`
	Variants  []PriceVariant `json:"quantities"`
}

// BestPrice is the cheapest variant across all listings of a product
type BestPrice struct {
	Cost      float64 `json:"cost"`
	StoreName string  `json:"storeName"`
	Size      string  `json:"size"`
}

// Product is the canonical, name-deduplicated catalog entry.
//
// Stores must only be changed through AddListing, UpsertListing and SetListings
// so that BestPrice always matches ComputeBestPrice(Stores).
type Product struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description,omitempty"`
	Stores      []StoreListing `json:"stores"`
	BestPrice   *BestPrice     `json:"bestPrice"`
	Version     int64          `json:"-"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   time.Time      `json:"updatedAt,omitempty"`
}

// NewProduct creates an empty product seeded with its identity fields
func NewProduct(name, description, category string) *Product {
	return &Product{
		Name:        name,
		Description: description,
		Category:    category,
		Stores:      []StoreListing{},
	}
}

// AddListing appends a listing and recomputes the best price
func (p *Product) AddListing(listing StoreListing) {
	p.Stores = append(p.Stores, listing)
	p.BestPrice = ComputeBestPrice(p.Stores)
}

// UpsertListing replaces the variants of the listing with the same store and
// brand, or appends the listing when none exists. Reports whether a listing was replaced.
func (p *Product) UpsertListing(listing StoreListing) bool {
	for i := range p.Stores {
		if p.Stores[i].StoreName == listing.StoreName && p.Stores[i].BrandName == listing.BrandName {
			p.Stores[i].Variants = listing.Variants
			p.BestPrice = ComputeBestPrice(p.Stores)
			return true
		}
	}
	p.AddListing(listing)
	return false
}

// SetListings replaces all listings and recomputes the best price
func (p *Product) SetListings(stores []StoreListing) {
	p.Stores = stores
	p.BestPrice = ComputeBestPrice(p.Stores)
}

// HasConsistentPrice reports whether the cached best price matches the listings
func (p *Product) HasConsistentPrice() bool {
	want := ComputeBestPrice(p.Stores)
	if want == nil || p.BestPrice == nil {
		return want == nil && p.BestPrice == nil
	}
	return *want == *p.BestPrice
}

// Brands returns the distinct brand names across listings in first-seen order
func (p *Product) Brands() []string {
	seen := make(map[string]bool, len(p.Stores))
	brands := make([]string, 0, len(p.Stores))
	for _, s := range p.Stores {
		if seen[s.BrandName] {
			continue
		}
		seen[s.BrandName] = true
		brands = append(brands, s.BrandName)
	}
	return brands
}

// Clone returns a deep copy of the product
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.Stores = make([]StoreListing, len(p.Stores))
	for i, s := range p.Stores {
		c.Stores[i] = StoreListing{StoreName: s.StoreName, BrandName: s.BrandName}
		c.Stores[i].Variants = make([]PriceVariant, len(s.Variants))
		for j, v := range s.Variants {
			c.Stores[i].Variants[j] = v
			if v.Images != nil {
				c.Stores[i].Variants[j].Images = append([]string(nil), v.Images...)
			}
		}
	}
	if p.BestPrice != nil {
		bp := *p.BestPrice
		c.BestPrice = &bp
	}
	return &c
}

// ProductSummary is the compact card representation used by list-style queries
type ProductSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Category   string   `json:"category"`
	CheapestAt string   `json:"cheapestAt"`
	Cost       float64  `json:"cost"`
	Size       string   `json:"size"`
	Brands     []string `json:"brands"`
	Image      string   `json:"image"`
}

// PriceOption is one row of a store's comparison entry
type PriceOption struct {
	Size  string  `json:"size"`
	Cost  float64 `json:"cost"`
	Offer string  `json:"offer"`
}

// StoreComparison is one store's column in a cross-store comparison
type StoreComparison struct {
	StoreName string        `json:"storeName"`
	Brand     string        `json:"brand"`
	Options   []PriceOption `json:"options"`
}

// ComparisonView is the full cross-store comparison of one product
type ComparisonView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	BestPrice  *BestPrice        `json:"bestPrice"`
	StoreCount int               `json:"storeCount"`
	Stores     []StoreComparison `json:"stores"`
}

// ProductPage is one page of the persisted catalog
type ProductPage struct {
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	Limit    int        `json:"limit"`
	Products []*Product `json:"products"`
}

// SearchRequest is a free-text catalog search
type SearchRequest struct {
	Query    string `form:"q" json:"q"`
	Category string `form:"category" json:"category,omitempty"`
}

// SearchResult holds the primary matches and the random backfill suggestions
type SearchResult struct {
	Results     []ProductSummary `json:"results"`
	Suggestions []ProductSummary `json:"suggestions"`
}

// DealsRequest filters the best-deals listing
type DealsRequest struct {
	Store string `form:"store" json:"store,omitempty"`
	Brand string `form:"brand" json:"brand,omitempty"`
}

// CategoryInfo describes one distinct catalog category
type CategoryInfo struct {
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ProductCount int64  `json:"productCount"`
}

// IngestMode selects how an export is applied to the catalog
type IngestMode string

const (
	// IngestRebuild clears the catalog and rebuilds it from the export
	IngestRebuild IngestMode = "rebuild"
	// IngestIncremental merges the export into the existing catalog
	IngestIncremental IngestMode = "incremental"
)

// Valid reports whether the mode is known
func (m IngestMode) Valid() bool {
	return m == IngestRebuild || m == IngestIncremental
}

// IngestResult summarizes one ingestion run
type IngestResult struct {
	Mode            IngestMode `json:"mode"`
	OffersRead      int        `json:"offersRead"`
	ProductsWritten int        `json:"productsWritten"`
}
