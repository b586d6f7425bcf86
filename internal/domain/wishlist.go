package domain

import (
	"context"
	"time"
)

// WishlistService provides business logic for saved-for-later products.
type WishlistService interface {
	// AddToWishlist saves a product. Adding a product that is already saved
	// is a no-op; the result reports which case occurred.
	AddToWishlist(ctx context.Context, productID int64) (AddToWishlistResult, error)

	// ListWishlist returns all saved lines joined with product display
	// fields, newest first.
	ListWishlist(ctx context.Context) ([]WishlistLine, error)

	// RemoveFromWishlist deletes a line by its own id (not the product id).
	RemoveFromWishlist(ctx context.Context, lineID int64) error

	// IsInWishlist reports whether any line references the product.
	IsInWishlist(ctx context.Context, productID int64) (bool, error)
}

// AddToWishlistResult distinguishes a fresh insert from a duplicate add.
type AddToWishlistResult struct {
	AlreadyPresent bool
}

// WishlistLine is one saved product with display fields joined in.
type WishlistLine struct {
	ID            int64     `json:"id"`
	ProductID     int64     `json:"product_id"`
	Title         string    `json:"title"`
	ImageURL      string    `json:"image_url"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discount_price"`
	CreatedAt     time.Time `json:"created_at"`
}
