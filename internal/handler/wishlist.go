package handler

import (
	"net/http"

	"github.com/dchen/storefront/internal/domain"
)

// WishlistHandler serves the saved-for-later endpoints.
type WishlistHandler struct {
	wishlist domain.WishlistService
}

// NewWishlistHandler creates a new wishlist handler.
func NewWishlistHandler(wishlist domain.WishlistService) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist}
}

type addToWishlistRequest struct {
	ProductID int64 `json:"product_id"`
}

type wishlistStatusResponse struct {
	IsInWishlist bool `json:"isInWishlist"`
}

// List handles GET /wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	lines, err := h.wishlist.ListWishlist(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if lines == nil {
		lines = []domain.WishlistLine{}
	}
	writeJSON(w, http.StatusOK, lines)
}

// Add handles POST /wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	const op = "wishlist.add"

	var req addToWishlistRequest
	if err := decodeJSON(r, op, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ProductID < 1 {
		writeError(w, r, domain.Invalid(op, "product_id is required"))
		return
	}

	result, err := h.wishlist.AddToWishlist(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if result.AlreadyPresent {
		writeMessage(w, "Product already in wishlist")
		return
	}
	writeMessage(w, "Added to wishlist")
}

// Remove handles DELETE /wishlist/{id}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "wishlist.remove", "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.wishlist.RemoveFromWishlist(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, "Removed from wishlist")
}

// Status handles GET /wishlist/status/{product_id}
func (h *WishlistHandler) Status(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "wishlist.status", "product_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	present, err := h.wishlist.IsInWishlist(r.Context(), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, wishlistStatusResponse{IsInWishlist: present})
}
