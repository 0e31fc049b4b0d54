package memory

import (
	"context"
	"sync"
	"time"

	"github.com/simplespend/backend/internal/domain"
)

// CartRepository keeps carts in memory keyed by user id
type CartRepository struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

// NewCartRepository creates an empty cart store
func NewCartRepository() *CartRepository {
	return &CartRepository{carts: make(map[string]domain.Cart)}
}

// Get returns the user's cart or an empty one
func (r *CartRepository) Get(_ context.Context, userID string) (*domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[userID]
	if !ok {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	cart.Items = append([]domain.CartItem{}, cart.Items...)
	return &cart, nil
}

// Save stores a copy of the cart
func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cart.UpdatedAt = time.Now().UTC()
	stored := *cart
	stored.Items = append([]domain.CartItem{}, cart.Items...)
	r.carts[cart.UserID] = stored
	return nil
}
