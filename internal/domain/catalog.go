package domain

import (
	"context"
	"time"
)

var ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Product not found"}

// CatalogService provides read access to the product catalog.
type CatalogService interface {
	// ListProducts returns all products matching the filter. An empty filter
	// returns the full catalog.
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)

	// GetProduct retrieves a single product with its image gallery.
	// Returns ErrProductNotFound when no row matches.
	GetProduct(ctx context.Context, id int64) (*ProductDetail, error)
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	// Search matches product titles case-insensitively as a substring.
	Search string

	// Category is an exact match on the product category.
	Category string
}

// Product represents one catalog entry.
type Product struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	DiscountPrice *float64  `json:"discount_price"`
	Category      string    `json:"category"`
	Brand         string    `json:"brand"`
	Rating        float64   `json:"rating"`
	StockQuantity int       `json:"stock_quantity"`
	ImageURL      string    `json:"image_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductDetail is a product with its associated gallery images.
// Images falls back to the primary image_url when the gallery is empty, so
// it is never empty for a product that has any image at all.
type ProductDetail struct {
	Product
	Images []string `json:"images"`
}
