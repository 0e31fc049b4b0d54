package domain

import "time"

// CartItem is a weak reference to a product with the store and size pinned at add time
type CartItem struct {
	ProductID     string `json:"productId" binding:"required"`
	Quantity      int    `json:"quantity"`
	SelectedStore string `json:"selectedStore" binding:"required"`
	SelectedSize  string `json:"selectedSize" binding:"required"`
}

// Matches reports whether the item is the line for the given product, store and size
func (i CartItem) Matches(productID, store, size string) bool {
	return i.ProductID == productID && i.SelectedStore == store && i.SelectedSize == size
}

// Cart holds one user's items
type Cart struct {
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt,omitempty"`
}

// CartAction changes the quantity of an existing cart line
type CartAction string

const (
	CartIncrement CartAction = "increment"
	CartDecrement CartAction = "decrement"
)

// CartLine is a cart item joined with the current product data
type CartLine struct {
	CartItem
	Name      string  `json:"name"`
	UnitCost  float64 `json:"unitCost"`
	Subtotal  float64 `json:"subtotal"`
	Available bool    `json:"available"`
}

// CartView is what clients render for a cart
type CartView struct {
	UserID string     `json:"userId"`
	Items  []CartLine `json:"items"`
	Total  float64    `json:"total"`
}
