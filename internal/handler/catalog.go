package handler

import (
	"net/http"

	"github.com/dchen/storefront/internal/domain"
)

// CatalogHandler serves the read-only product catalog endpoints.
type CatalogHandler struct {
	catalog domain.CatalogService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalog domain.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List handles GET /products?search=&category=
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.ProductFilter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}

	products, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// Get handles GET /products/{id}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	// An id that cannot name a row is indistinguishable from a missing
	// product to the client, so it gets the same 404.
	id, err := pathID(r, "catalog.get", "id")
	if err != nil {
		writeError(w, r, domain.Errorf(domain.ENOTFOUND, "catalog.get", "Product not found"))
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product)
}
