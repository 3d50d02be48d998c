package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kasseapparat/internal/models"
	"kasseapparat/internal/services"
)

// CartHandler exposes the cart to the till UI. All mutation goes through
// the checkout service, which owns the cart state.
type CartHandler struct {
	checkout *services.CheckoutService
	products *services.ProductService
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(checkout *services.CheckoutService, products *services.ProductService) *CartHandler {
	return &CartHandler{checkout: checkout, products: products}
}

type cartResponse struct {
	Cart            models.Cart `json:"cart"`
	TotalNetPrice   string      `json:"totalNetPrice"`
	TotalGrossPrice string      `json:"totalGrossPrice"`
	TotalVATAmount  string      `json:"totalVatAmount"`
	TotalQuantity   int         `json:"totalQuantity"`
}

func cartPayload(cart models.Cart) cartResponse {
	return cartResponse{
		Cart:            cart,
		TotalNetPrice:   cart.TotalNetPrice().String(),
		TotalGrossPrice: cart.TotalGrossPrice().String(),
		TotalVATAmount:  cart.TotalVATAmount().String(),
		TotalQuantity:   cart.TotalQuantity(),
	}
}

// GetCart returns the current cart with its totals.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartPayload(h.checkout.Cart()))
}

type addItemRequest struct {
	ProductID      int                       `json:"productId"`
	Quantity       int                       `json:"quantity"`
	GuestlistEntry *models.GuestlistEntryRef `json:"guestlistEntry,omitempty"`
}

// AddItem merges a product into the cart, optionally redeeming a guestlist
// entry.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, errors.New("quantity must be at least 1"))
		return
	}

	product, err := h.products.ByID(req.ProductID)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	cart := h.checkout.AddToCart(product, req.Quantity, req.GuestlistEntry)
	writeJSON(w, http.StatusOK, cartPayload(cart))
}

// RemoveItem drops the line for a product from the cart.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid product ID"))
		return
	}

	cart := h.checkout.RemoveFromCart(productID)
	writeJSON(w, http.StatusOK, cartPayload(cart))
}

// ClearCart empties the cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cartPayload(h.checkout.ClearCart()))
}
