package routes

import (
	"github.com/dchen/storefront/internal/handler"
	"github.com/dchen/storefront/internal/router"
)

// Deps contains the handlers for the storefront API routes.
type Deps struct {
	Catalog  *handler.CatalogHandler
	Cart     *handler.CartHandler
	Wishlist *handler.WishlistHandler
	Order    *handler.OrderHandler
}

// Register registers all storefront API routes.
func Register(r *router.Router, deps Deps) {
	// Product catalog
	r.Get("/products", deps.Catalog.List)
	r.Get("/products/{id}", deps.Catalog.Get)

	// Shopping cart
	r.Get("/cart", deps.Cart.List)
	r.Post("/cart", deps.Cart.Add)
	r.Put("/cart/{id}", deps.Cart.Update)
	r.Delete("/cart/{id}", deps.Cart.Remove)

	// Wishlist
	r.Get("/wishlist", deps.Wishlist.List)
	r.Post("/wishlist", deps.Wishlist.Add)
	r.Delete("/wishlist/{id}", deps.Wishlist.Remove)
	r.Get("/wishlist/status/{product_id}", deps.Wishlist.Status)

	// Orders
	r.Get("/orders", deps.Order.History)
	r.Post("/orders", deps.Order.Place)
}
