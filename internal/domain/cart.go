package domain

import (
	"context"
	"time"
)

var ErrInvalidQuantity = &Error{Code: EINVALID, Message: "Quantity must be at least 1"}

// CartService provides business logic for shopping cart operations.
type CartService interface {
	// AddToCart puts one unit of a product in the cart. If a line for the
	// product already exists its quantity is incremented by 1, otherwise a
	// new line with quantity 1 is created. Returns the resulting line state.
	AddToCart(ctx context.Context, productID int64) (AddToCartResult, error)

	// ListCart returns all cart lines joined with product display fields.
	ListCart(ctx context.Context) ([]CartLine, error)

	// UpdateQuantity overwrites a line's quantity. Quantities below 1 are
	// rejected with ErrInvalidQuantity. Stock is not checked here; that
	// happens at order placement.
	UpdateQuantity(ctx context.Context, lineID int64, quantity int) error

	// RemoveFromCart deletes a line. Removing an id that does not exist is
	// not an error.
	RemoveFromCart(ctx context.Context, lineID int64) error
}

// AddToCartResult reports whether an add created a new line or bumped an
// existing one, so the handler can word its response accordingly.
type AddToCartResult struct {
	LineID  int64
	Created bool
}

// CartLine is one pending-purchase row joined with the product fields the
// client needs to render it without further lookups.
type CartLine struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	Title         string    `json:"title"`
	ImageURL      string    `json:"image_url"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discount_price"`
	Quantity      int       `json:"quantity"`
	AddedAt       time.Time `json:"added_at"`
}
