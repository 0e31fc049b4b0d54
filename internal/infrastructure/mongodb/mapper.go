package mongodb

import (
	"time"

	"github.com/simplespend/backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// productDocument is the stored shape of a canonical product. bestPrice lives
// in the same document as stores so both change in one write.
type productDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	NameKey     string             `bson:"nameKey"`
	Category    string             `bson:"category"`
	Description string             `bson:"description,omitempty"`
	Stores      []listingDocument  `bson:"stores"`
	BestPrice   *bestPriceDocument `bson:"bestPrice"`
	// Priced lets unpriced products sort after priced ones
	Priced    bool      `bson:"priced"`
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type listingDocument struct {
	StoreName  string            `bson:"storeName"`
	BrandName  string            `bson:"brand"`
	Quantities []variantDocument `bson:"quantities"`
}

type variantDocument struct {
	Size    string   `bson:"size"`
	Cost    float64  `bson:"cost"`
	Offer   string   `bson:"offer,omitempty"`
	Barcode string   `bson:"barcode,omitempty"`
	Images  []string `bson:"images,omitempty"`
}

type bestPriceDocument struct {
	Cost      float64 `bson:"cost"`
	StoreName string  `bson:"storeName"`
	Size      string  `bson:"size"`
}

type cartDocument struct {
	UserID    string             `bson:"_id"`
	Items     []cartItemDocument `bson:"items"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type cartItemDocument struct {
	ProductID     string `bson:"productId"`
	Quantity      int    `bson:"quantity"`
	SelectedStore string `bson:"selectedStore"`
	SelectedSize  string `bson:"selectedSize"`
}

// toProductDocument converts a domain product to its stored shape. The id is
// left zero when the product has none or it is not a valid ObjectID hex.
func toProductDocument(p *domain.Product) productDocument {
	doc := productDocument{
		Name:        p.Name,
		NameKey:     domain.NameKey(p.Name),
		Category:    p.Category,
		Description: p.Description,
		Stores:      make([]listingDocument, 0, len(p.Stores)),
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if id, err := primitive.ObjectIDFromHex(p.ID); err == nil {
		doc.ID = id
	}

	for _, s := range p.Stores {
		listing := listingDocument{
			StoreName:  s.StoreName,
			BrandName:  s.BrandName,
			Quantities: make([]variantDocument, 0, len(s.Variants)),
		}
		for _, v := range s.Variants {
			listing.Quantities = append(listing.Quantities, variantDocument(v))
		}
		doc.Stores = append(doc.Stores, listing)
	}

	if p.BestPrice != nil {
		doc.BestPrice = &bestPriceDocument{
			Cost:      p.BestPrice.Cost,
			StoreName: p.BestPrice.StoreName,
			Size:      p.BestPrice.Size,
		}
		doc.Priced = true
	}

	return doc
}

// toDomainProduct converts a stored document back. The stored best price is
// trusted as written.
func toDomainProduct(doc *productDocument) *domain.Product {
	p := &domain.Product{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Category:    doc.Category,
		Description: doc.Description,
		Stores:      make([]domain.StoreListing, 0, len(doc.Stores)),
		Version:     doc.Version,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}

	for _, s := range doc.Stores {
		listing := domain.StoreListing{
			StoreName: s.StoreName,
			BrandName: s.BrandName,
			Variants:  make([]domain.PriceVariant, 0, len(s.Quantities)),
		}
		for _, v := range s.Quantities {
			listing.Variants = append(listing.Variants, domain.PriceVariant(v))
		}
		p.Stores = append(p.Stores, listing)
	}

	if doc.BestPrice != nil {
		p.BestPrice = &domain.BestPrice{
			Cost:      doc.BestPrice.Cost,
			StoreName: doc.BestPrice.StoreName,
			Size:      doc.BestPrice.Size,
		}
	}

	return p
}

func toCartDocument(c *domain.Cart) cartDocument {
	doc := cartDocument{
		UserID:    c.UserID,
		Items:     make([]cartItemDocument, 0, len(c.Items)),
		UpdatedAt: c.UpdatedAt,
	}
	for _, item := range c.Items {
		doc.Items = append(doc.Items, cartItemDocument(item))
	}
	return doc
}

func toDomainCart(doc *cartDocument) *domain.Cart {
	c := &domain.Cart{
		UserID:    doc.UserID,
		Items:     make([]domain.CartItem, 0, len(doc.Items)),
		UpdatedAt: doc.UpdatedAt,
	}
	for _, item := range doc.Items {
		c.Items = append(c.Items, domain.CartItem(item))
	}
	return c
}
