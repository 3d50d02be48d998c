package handlers

import (
	"net/http"

	"kasseapparat/internal/services"
)

// CatalogHandler serves the product catalog and guestlist lookup to the
// till UI.
type CatalogHandler struct {
	products  *services.ProductService
	guestlist *services.GuestlistService
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(products *services.ProductService, guestlist *services.GuestlistService) *CatalogHandler {
	return &CatalogHandler{products: products, guestlist: guestlist}
}

// ListProducts returns the cached product catalog.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.products.Products())
}

// RefreshProducts re-fetches the catalog from the server.
func (h *CatalogHandler) RefreshProducts(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.products.Products())
}

// SearchGuestlist looks up guestlist entries matching the q parameter and
// flags those already redeemed in the cart.
func (h *CatalogHandler) SearchGuestlist(w http.ResponseWriter, r *http.Request) {
	entries, err := h.guestlist.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
