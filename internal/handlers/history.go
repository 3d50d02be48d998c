package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kasseapparat/internal/services"
)

// HistoryHandler serves the purchase history projection and the refund
// action.
type HistoryHandler struct {
	checkout *services.CheckoutService
	history  *services.HistoryService
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(checkout *services.CheckoutService, history *services.HistoryService) *HistoryHandler {
	return &HistoryHandler{checkout: checkout, history: history}
}

// ListPurchases returns the projection, newest first.
func (h *HistoryHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.history.List())
}

// ReloadPurchases replaces the projection with the server's list.
func (h *HistoryHandler) ReloadPurchases(w http.ResponseWriter, r *http.Request) {
	if err := h.history.Reload(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, h.history.List())
}

// RefundPurchase refunds a purchase server-side; history and products are
// reloaded from the server afterwards rather than patched locally.
func (h *HistoryHandler) RefundPurchase(w http.ResponseWriter, r *http.Request) {
	purchaseID, err := strconv.Atoi(chi.URLParam(r, "purchaseID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid purchase ID"))
		return
	}

	purchase, err := h.checkout.Refund(r.Context(), purchaseID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}
