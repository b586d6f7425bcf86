package handler

import (
	"net/http"

	"github.com/dchen/storefront/internal/domain"
)

// CartHandler serves the shopping cart endpoints.
type CartHandler struct {
	cart domain.CartService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(cart domain.CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// List handles GET /cart
func (h *CartHandler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.cart.ListCart(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if lines == nil {
		lines = []domain.CartLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

// Add handles POST /cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "cart.add"

	var req addToCartRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID < 1 {
		writeError(w, r, domain.Invalid(op, "product_id is required"))
		return
	}

	result, err := h.cart.AddToCart(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if result.Created {
		writeMessage(w, "Added to cart")
		return
	}
	writeMessage(w, "Quantity updated")
}

// Update handles PUT /cart/{id}
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "cart.update"

	id, err := pathID(r, op, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateQuantityRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.cart.UpdateQuantity(r.Context(), id, req.Quantity); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, "Quantity updated")
}

// Remove handles DELETE /cart/{id}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "cart.remove", "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.cart.RemoveFromCart(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, "Item removed")
}
