package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/simplespend/backend/internal/domain"
	"github.com/tidwall/gjson"
)

// DefaultStoreName is the store assigned to single-catalog exports
const DefaultStoreName = "SimpleSpendStore"

// catalogExport is the detected top-level shape of a raw export.
// Exactly one of singleCatalogExport or multiShopExport.
type catalogExport interface {
	offers(n *Normalizer) []domain.StoreOffer
}

// singleCatalogExport is one store's brand list: {"brands":[...]},
// {"<wrapper>":{"brands":[...]}} or a bare [{"brand":...,"items":[...]}].
type singleCatalogExport struct {
	brands gjson.Result
}

// multiShopExport maps shop names to category lists:
// {"<shop>":[{"category":...,"brands":[...]}], ...}
type multiShopExport struct {
	shops []shopExport
}

type shopExport struct {
	name       string
	categories gjson.Result
}

// Normalizer flattens raw catalog exports into store offers
type Normalizer struct {
	defaultStore string
}

// NewNormalizer creates a normalizer. Single-catalog exports are attributed to defaultStore.
func NewNormalizer(defaultStore string) *Normalizer {
	if defaultStore == "" {
		defaultStore = DefaultStoreName
	}
	return &Normalizer{defaultStore: defaultStore}
}

// Normalize parses a raw export into offers in document order.
// Only malformed JSON is an error; missing or odd fields are defaulted or skipped.
func (n *Normalizer) Normalize(raw []byte) ([]domain.StoreOffer, error) {
	export, err := detectExport(raw)
	if err != nil {
		return nil, err
	}
	return export.offers(n), nil
}

// detectExport decides the export shape once, at the top of the document
func detectExport(raw []byte) (catalogExport, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: catalog export is not valid JSON", domain.ErrInvalidInput)
	}
	root := gjson.ParseBytes(raw)

	switch {
	case root.IsArray():
		return singleCatalogExport{brands: root}, nil
	case !root.IsObject():
		return nil, fmt.Errorf("%w: catalog export must be a JSON object or array", domain.ErrInvalidInput)
	case root.Get("brands").IsArray():
		return singleCatalogExport{brands: root.Get("brands")}, nil
	}

	var (
		wrapped  gjson.Result
		wrappers int
		shops    []shopExport
	)
	root.ForEach(func(key, value gjson.Result) bool {
		if value.IsObject() && value.Get("brands").IsArray() {
			wrapped = value.Get("brands")
			wrappers++
		}
		if value.IsArray() {
			shops = append(shops, shopExport{name: key.String(), categories: value})
		}
		return true
	})

	// scalar siblings such as export metadata do not hide a single wrapper
	if len(shops) == 0 && wrappers == 1 {
		return singleCatalogExport{brands: wrapped}, nil
	}
	return multiShopExport{shops: shops}, nil
}

func (e singleCatalogExport) offers(n *Normalizer) []domain.StoreOffer {
	return n.brandOffers(nil, n.defaultStore, "", e.brands)
}

func (e multiShopExport) offers(n *Normalizer) []domain.StoreOffer {
	var out []domain.StoreOffer
	for _, shop := range e.shops {
		shop.categories.ForEach(func(_, category gjson.Result) bool {
			if !category.IsObject() || !category.Get("brands").IsArray() {
				return true
			}
			categoryName := firstString(category, "category", "name")
			out = n.brandOffers(out, shop.name, categoryName, category.Get("brands"))
			return true
		})
	}
	return out
}

// brandOffers appends the offers of every item under a brand list
func (n *Normalizer) brandOffers(out []domain.StoreOffer, store, category string, brands gjson.Result) []domain.StoreOffer {
	brands.ForEach(func(_, brandObj gjson.Result) bool {
		if !brandObj.IsObject() {
			return true
		}
		brand := strings.TrimSpace(brandObj.Get("brand").String())
		if brand == "" {
			brand = domain.UnknownBrand
		}
		items := brandObj.Get("items")
		if !items.IsArray() {
			return true
		}

		items.ForEach(func(_, item gjson.Result) bool {
			if offer, ok := n.itemOffer(store, brand, category, item); ok {
				out = append(out, offer)
			}
			return true
		})
		return true
	})
	return out
}

// itemOffer builds the offer for one item, or reports false when the item
// has no name or no price variants
func (n *Normalizer) itemOffer(store, brand, category string, item gjson.Result) (domain.StoreOffer, bool) {
	if !item.IsObject() {
		return domain.StoreOffer{}, false
	}
	name := strings.TrimSpace(item.Get("name").String())
	if name == "" {
		return domain.StoreOffer{}, false
	}

	var variants []domain.PriceVariant
	item.Get("quantities").ForEach(func(_, q gjson.Result) bool {
		if q.IsObject() {
			variants = append(variants, normalizeVariant(q))
		}
		return true
	})
	if len(variants) == 0 {
		return domain.StoreOffer{}, false
	}

	if c := firstString(item, "category"); c != "" {
		category = c
	}

	return domain.StoreOffer{
		StoreName:   store,
		BrandName:   brand,
		ProductName: name,
		Description: strings.TrimSpace(item.Get("description").String()),
		Category:    category,
		Variants:    variants,
	}, true
}

func normalizeVariant(q gjson.Result) domain.PriceVariant {
	size := strings.TrimSpace(q.Get("size").String())
	if size == "" {
		size = domain.DefaultSize
	}

	var images []string
	for i := 1; i <= domain.MaxVariantImages; i++ {
		if url := strings.TrimSpace(q.Get("image" + strconv.Itoa(i) + "Url").String()); url != "" {
			images = append(images, url)
		}
	}

	return domain.PriceVariant{
		Size:    size,
		Cost:    parseCost(q.Get("cost")),
		Offer:   strings.TrimSpace(q.Get("offer").String()),
		Barcode: strings.TrimSpace(q.Get("barcode").String()),
		Images:  images,
	}
}

// parseCost reads a cost given as a JSON number or numeric string.
// Anything else, and negative or non-finite values, become 0.
func parseCost(r gjson.Result) float64 {
	var cost float64
	switch r.Type {
	case gjson.Number:
		cost = r.Num
	case gjson.String:
		v, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return 0
		}
		cost = v
	default:
		return 0
	}

	if cost < 0 || math.IsNaN(cost) || math.IsInf(cost, 0) {
		return 0
	}
	return cost
}

func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p); v.Type == gjson.String {
			if s := strings.TrimSpace(v.Str); s != "" {
				return s
			}
		}
	}
	return ""
}
