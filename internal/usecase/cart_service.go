package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/simplespend/backend/internal/domain"
	"github.com/simplespend/backend/internal/infrastructure/logging"
)

const componentCart = "cart"

// CartService manages user carts against the live catalog
type CartService struct {
	carts    domain.CartRepository
	products domain.ProductRepository
}

// NewCartService creates a cart service
func NewCartService(carts domain.CartRepository, products domain.ProductRepository) *CartService {
	return &CartService{carts: carts, products: products}
}

// Get returns the user's cart joined with current product data. Lines whose
// product no longer exists are dropped and the cleaned cart is saved.
func (s *CartService) Get(ctx context.Context, userID string) (*domain.CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Add puts a product into the cart, adding to the quantity of an existing line
func (s *CartService) Add(ctx context.Context, userID string, item domain.CartItem) (*domain.CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}
	if item.Quantity <= 0 {
		item.Quantity = 1
	}

	if _, err := s.products.FindByID(ctx, item.ProductID); err != nil {
		return nil, err
	}

	if i := findLine(cart.Items, item.ProductID, item.SelectedStore, item.SelectedSize); i >= 0 {
		cart.Items[i].Quantity += item.Quantity
	} else {
		cart.Items = append(cart.Items, item)
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Update increments or decrements one line. A line reaching zero is removed.
func (s *CartService) Update(
	ctx context.Context,
	userID, productID, store, size string,
	action domain.CartAction,
) (*domain.CartView, error) {
	if action != domain.CartIncrement && action != domain.CartDecrement {
		return nil, fmt.Errorf("%w: unknown cart action %q", domain.ErrInvalidInput, action)
	}

	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := findLine(cart.Items, productID, store, size)
	if i < 0 {
		return nil, domain.ErrCartItemNotFound
	}

	if action == domain.CartIncrement {
		cart.Items[i].Quantity++
	} else {
		cart.Items[i].Quantity--
	}
	if cart.Items[i].Quantity <= 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Remove deletes one line from the cart
func (s *CartService) Remove(ctx context.Context, userID, productID, store, size string) (*domain.CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	i := findLine(cart.Items, productID, store, size)
	if i < 0 {
		return nil, domain.ErrCartItemNotFound
	}
	cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// Merge folds items kept by a signed-out client into the user's cart. Quantities
// of matching lines add up; items for unknown products are ignored.
func (s *CartService) Merge(ctx context.Context, userID string, items []domain.CartItem) (*domain.CartView, error) {
	cart, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if validateItem(item) != nil || item.Quantity <= 0 {
			continue
		}
		if _, err := s.products.FindByID(ctx, item.ProductID); err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			return nil, err
		}

		if i := findLine(cart.Items, item.ProductID, item.SelectedStore, item.SelectedSize); i >= 0 {
			cart.Items[i].Quantity += item.Quantity
		} else {
			cart.Items = append(cart.Items, item)
		}
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) load(ctx context.Context, userID string) (*domain.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthorized
	}
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

// view joins the cart with the catalog and drops lines for deleted products
func (s *CartService) view(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	lines := make([]domain.CartLine, 0, len(cart.Items))
	kept := make([]domain.CartItem, 0, len(cart.Items))
	total := decimal.Zero

	for _, item := range cart.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		unit, available := pinnedCost(product, item.SelectedStore, item.SelectedSize)
		subtotal := decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(subtotal)

		lines = append(lines, domain.CartLine{
			CartItem:  item,
			Name:      product.Name,
			UnitCost:  unit,
			Subtotal:  subtotal.Round(2).InexactFloat64(),
			Available: available,
		})
		kept = append(kept, item)
	}

	if len(kept) != len(cart.Items) {
		logging.WithComponentAndFields(componentCart, logging.Fields{
			"user":    cart.UserID,
			"dropped": len(cart.Items) - len(kept),
		}).Info("dropping cart lines for deleted products")

		cart.Items = kept
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, err
		}
	}

	return &domain.CartView{
		UserID: cart.UserID,
		Items:  lines,
		Total:  total.Round(2).InexactFloat64(),
	}, nil
}

// pinnedCost returns the cost of the variant the line was added for, or 0 when
// the store no longer offers that size
func pinnedCost(product *domain.Product, store, size string) (float64, bool) {
	for _, listing := range product.Stores {
		if listing.StoreName != store {
			continue
		}
		for _, v := range listing.Variants {
			if v.Size == size {
				return v.Cost, true
			}
		}
	}
	return 0, false
}

func findLine(items []domain.CartItem, productID, store, size string) int {
	for i, item := range items {
		if item.Matches(productID, store, size) {
			return i
		}
	}
	return -1
}

func validateItem(item domain.CartItem) error {
	if strings.TrimSpace(item.ProductID) == "" ||
		strings.TrimSpace(item.SelectedStore) == "" ||
		strings.TrimSpace(item.SelectedSize) == "" {
		return fmt.Errorf("%w: productId, selectedStore and selectedSize are required", domain.ErrInvalidInput)
	}
	return nil
}
