package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simplespend/backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CartsCollection holds one document per user
const CartsCollection = "carts"

// CartRepository stores carts keyed by user id
type CartRepository struct {
	collection *mongo.Collection
	timeout    time.Duration
}

// NewCartRepository creates a repository over db's carts collection
func NewCartRepository(db *mongo.Database, timeout time.Duration) *CartRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CartRepository{
		collection: db.Collection(CartsCollection),
		timeout:    timeout,
	}
}

// Get returns the user's cart or an empty one
func (r *CartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var doc cartDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return toDomainCart(&doc), nil
}

// Save upserts the whole cart
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cart.UpdatedAt = time.Now().UTC()
	doc := toCartDocument(cart)

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.UserID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	return nil
}
